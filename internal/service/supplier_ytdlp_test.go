package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/clipmine/clipmine/internal/errors"
)

const testCaptionBody = `{
	"events": [
		{"tStartMs": 0, "dDurationMs": 2500, "segs": [{"utf8": "We're no strangers "}, {"utf8": "to love"}]},
		{"tStartMs": 2500, "dDurationMs": 2500, "segs": [{"utf8": "You know the rules\nand so do I"}]},
		{"tStartMs": 5000, "dDurationMs": 1000}
	]
}`

func testVideoInfoJSON(captionURL string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "dQw4w9WgXcQ",
		"title": "Never Gonna Give You Up",
		"channel": "Rick Astley",
		"upload_date": "20091025",
		"duration": 212.0,
		"subtitles": {},
		"automatic_captions": {
			"en": [
				{"url": "%s?fmt=vtt", "ext": "vtt"},
				{"url": "%s", "ext": "json3"}
			]
		}
	}`, captionURL, captionURL))
}

func TestYtdlpSupplier_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testCaptionBody)
	}))
	defer server.Close()

	runner := &mockCmdRunner{
		RunFunc: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			assert.Equal(t, "yt-dlp", name)
			assert.Contains(t, args, "--dump-json")
			assert.Contains(t, args, "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
			return testVideoInfoJSON(server.URL), nil
		},
	}
	supplier := NewYtdlpSupplier(runner, server.Client())

	transcript, err := supplier.Fetch(context.Background(), "dQw4w9WgXcQ")

	require.NoError(t, err)
	assert.Equal(t, "Never Gonna Give You Up", transcript.Title)
	assert.Equal(t, "Rick Astley", transcript.Channel)
	assert.Equal(t, time.Date(2009, 10, 25, 0, 0, 0, 0, time.UTC), transcript.PublishedAt)
	assert.Equal(t, 212.0, transcript.Duration)

	// The event without segs is dropped; newlines inside a line are flattened
	require.Len(t, transcript.Lines, 2)
	assert.Equal(t, "We're no strangers to love", transcript.Lines[0].Text)
	assert.Equal(t, 0.0, transcript.Lines[0].Start)
	assert.Equal(t, 2.5, transcript.Lines[0].End)
	assert.Equal(t, "You know the rules and so do I", transcript.Lines[1].Text)
	assert.Equal(t, 2.5, transcript.Lines[1].Start)
	assert.Equal(t, 5.0, transcript.Lines[1].End)
}

func TestYtdlpSupplier_Fetch_NoCaptions(t *testing.T) {
	runner := &mockCmdRunner{
		RunFunc: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return []byte(`{"id": "dQw4w9WgXcQ", "title": "No Captions", "subtitles": {}, "automatic_captions": {}}`), nil
		},
	}
	supplier := NewYtdlpSupplier(runner, nil)

	_, err := supplier.Fetch(context.Background(), "dQw4w9WgXcQ")

	assert.True(t, apperrors.HasCode(err, apperrors.CodeNoTranscript))
}

func TestYtdlpSupplier_Fetch_VideoUnavailable(t *testing.T) {
	runner := &mockCmdRunner{
		RunFunc: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return nil, &exec.ExitError{Stderr: []byte("ERROR: [youtube] dQw4w9WgXcQ: Video unavailable")}
		},
	}
	supplier := NewYtdlpSupplier(runner, nil)

	_, err := supplier.Fetch(context.Background(), "dQw4w9WgXcQ")

	assert.True(t, apperrors.HasCode(err, apperrors.CodeFetchNotFound))
}

func TestYtdlpSupplier_Fetch_RateLimitedDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	runner := &mockCmdRunner{
		RunFunc: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return testVideoInfoJSON(server.URL), nil
		},
	}
	supplier := NewYtdlpSupplier(runner, server.Client())

	_, err := supplier.Fetch(context.Background(), "dQw4w9WgXcQ")

	assert.True(t, apperrors.HasCode(err, apperrors.CodeRateLimited))
}

func TestYtdlpSupplier_Fetch_ManualSubtitlesPreferred(t *testing.T) {
	manual := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testCaptionBody)
	}))
	defer manual.Close()

	info := fmt.Sprintf(`{
		"id": "dQw4w9WgXcQ",
		"title": "Manual Subs",
		"channel": "Rick Astley",
		"upload_date": "20091025",
		"duration": 212.0,
		"subtitles": {"en": [{"url": "%s", "ext": "json3"}]},
		"automatic_captions": {"en": [{"url": "http://127.0.0.1:1/unreachable", "ext": "json3"}]}
	}`, manual.URL)

	runner := &mockCmdRunner{
		RunFunc: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return []byte(info), nil
		},
	}
	supplier := NewYtdlpSupplier(runner, manual.Client())

	transcript, err := supplier.Fetch(context.Background(), "dQw4w9WgXcQ")

	require.NoError(t, err)
	assert.Len(t, transcript.Lines, 2)
}
