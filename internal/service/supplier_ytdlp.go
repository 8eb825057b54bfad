package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"sort"
	"strings"
	"time"

	apperrors "github.com/clipmine/clipmine/internal/errors"
	"github.com/clipmine/clipmine/internal/model"
)

// captionExt is the subtitle format requested from yt-dlp caption tracks
const captionExt = "json3"

// ytdlpSupplier implements TranscriptSupplier by shelling out to yt-dlp
// for metadata and downloading the caption track it reports
type ytdlpSupplier struct {
	cmdRunner  CmdRunner
	httpClient *http.Client
}

// NewYtdlpSupplier creates a TranscriptSupplier backed by yt-dlp
func NewYtdlpSupplier(cmdRunner CmdRunner, httpClient *http.Client) TranscriptSupplier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &ytdlpSupplier{
		cmdRunner:  cmdRunner,
		httpClient: httpClient,
	}
}

// ytdlpVideoInfo is the subset of yt-dlp's --dump-json output we consume
type ytdlpVideoInfo struct {
	ID                string                        `json:"id"`
	Title             string                        `json:"title"`
	Channel           string                        `json:"channel"`
	Uploader          string                        `json:"uploader"`
	UploadDate        string                        `json:"upload_date"`
	Duration          float64                       `json:"duration"`
	Subtitles         map[string][]ytdlpCaptionInfo `json:"subtitles"`
	AutomaticCaptions map[string][]ytdlpCaptionInfo `json:"automatic_captions"`
}

// ytdlpCaptionInfo is one caption track variant of a language
type ytdlpCaptionInfo struct {
	URL string `json:"url"`
	Ext string `json:"ext"`
}

// json3Body is the caption payload format served for json3 tracks
type json3Body struct {
	Events []json3Event `json:"events"`
}

type json3Event struct {
	StartMs    float64    `json:"tStartMs"`
	DurationMs float64    `json:"dDurationMs"`
	Segs       []json3Seg `json:"segs"`
}

type json3Seg struct {
	UTF8 string `json:"utf8"`
}

// Fetch retrieves metadata and the transcript for a video
func (s *ytdlpSupplier) Fetch(ctx context.Context, videoID string) (*model.RawTranscript, error) {
	info, err := s.fetchVideoInfo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	trackURL, err := pickCaptionTrack(info)
	if err != nil {
		return nil, err
	}

	lines, err := s.fetchCaptionTrack(ctx, trackURL)
	if err != nil {
		return nil, err
	}

	transcript := &model.RawTranscript{
		Title:    info.Title,
		Channel:  info.Channel,
		Duration: info.Duration,
		Lines:    lines,
	}
	if transcript.Channel == "" {
		transcript.Channel = info.Uploader
	}
	if info.UploadDate != "" {
		publishedAt, err := time.Parse("20060102", info.UploadDate)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeFetchUnavailable, "unparseable upload date from yt-dlp")
		}
		transcript.PublishedAt = publishedAt
	}
	return transcript, nil
}

// fetchVideoInfo runs yt-dlp --dump-json for the video
func (s *ytdlpSupplier) fetchVideoInfo(ctx context.Context, videoID string) (*ytdlpVideoInfo, error) {
	videoURL := fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)
	output, err := s.cmdRunner.Run(ctx, "yt-dlp", "--dump-json", "--skip-download", videoURL)
	if err != nil {
		return nil, classifyYtdlpError(ctx, err)
	}

	var info ytdlpVideoInfo
	if err := json.Unmarshal(output, &info); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeFetchUnavailable, "failed to parse yt-dlp metadata")
	}
	return &info, nil
}

// pickCaptionTrack chooses a json3 caption URL, preferring manual subtitles
// over automatic captions and English over other languages. Language keys
// are scanned in sorted order so the choice is deterministic.
func pickCaptionTrack(info *ytdlpVideoInfo) (string, error) {
	for _, tracks := range []map[string][]ytdlpCaptionInfo{info.Subtitles, info.AutomaticCaptions} {
		if url, ok := captionURLForLang(tracks, "en"); ok {
			return url, nil
		}
		langs := make([]string, 0, len(tracks))
		for lang := range tracks {
			langs = append(langs, lang)
		}
		sort.Strings(langs)
		for _, lang := range langs {
			if url, ok := captionURLForLang(tracks, lang); ok {
				return url, nil
			}
		}
	}
	return "", apperrors.New(apperrors.CodeNoTranscript, "no caption track available")
}

func captionURLForLang(tracks map[string][]ytdlpCaptionInfo, lang string) (string, bool) {
	for _, track := range tracks[lang] {
		if track.Ext == captionExt && track.URL != "" {
			return track.URL, true
		}
	}
	return "", false
}

// fetchCaptionTrack downloads and decodes a json3 caption track
func (s *ytdlpSupplier) fetchCaptionTrack(ctx context.Context, trackURL string) ([]model.RawLine, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, trackURL, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeFetchUnavailable, "failed to build caption request")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeFetchTimeout, "caption download timed out")
		}
		return nil, apperrors.Wrap(err, apperrors.CodeFetchUnavailable, "failed to download caption track")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, apperrors.New(apperrors.CodeRateLimited, "caption download was rate limited")
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperrors.New(apperrors.CodeNoTranscript, "caption track no longer exists")
	case resp.StatusCode != http.StatusOK:
		return nil, apperrors.New(apperrors.CodeFetchUnavailable,
			fmt.Sprintf("caption download returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeFetchUnavailable, "failed to read caption track")
	}

	var decoded json3Body
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeFetchUnavailable, "failed to parse caption track")
	}

	lines := make([]model.RawLine, 0, len(decoded.Events))
	for _, event := range decoded.Events {
		text := joinSegs(event.Segs)
		if text == "" {
			continue
		}
		start := event.StartMs / 1000
		lines = append(lines, model.RawLine{
			Start: start,
			End:   start + event.DurationMs/1000,
			Text:  text,
		})
	}
	return lines, nil
}

func joinSegs(segs []json3Seg) string {
	var b strings.Builder
	for _, seg := range segs {
		b.WriteString(seg.UTF8)
	}
	return strings.TrimSpace(strings.ReplaceAll(b.String(), "\n", " "))
}

// classifyYtdlpError maps a failed yt-dlp invocation onto a fetch error code
// using the stderr it left behind
func classifyYtdlpError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.Wrap(err, apperrors.CodeFetchTimeout, "yt-dlp timed out")
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := string(exitErr.Stderr)
		switch {
		case strings.Contains(stderr, "Video unavailable"),
			strings.Contains(stderr, "This video has been removed"):
			return apperrors.Wrap(err, apperrors.CodeFetchNotFound, "video does not exist or was removed")
		case strings.Contains(stderr, "Private video"),
			strings.Contains(stderr, "members-only"),
			strings.Contains(stderr, "Sign in to confirm your age"):
			return apperrors.Wrap(err, apperrors.CodeFetchUnavailable, "video is not publicly accessible")
		case strings.Contains(stderr, "429"),
			strings.Contains(stderr, "Too Many Requests"):
			return apperrors.Wrap(err, apperrors.CodeRateLimited, "yt-dlp was rate limited")
		}
	}
	return apperrors.Wrap(err, apperrors.CodeFetchUnavailable, "yt-dlp failed")
}
