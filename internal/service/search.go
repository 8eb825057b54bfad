package service

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	apperrors "github.com/clipmine/clipmine/internal/errors"
	"github.com/clipmine/clipmine/internal/model"
	"github.com/clipmine/clipmine/internal/repository/searchindex"
	"github.com/clipmine/clipmine/internal/repository/segment"
	"github.com/clipmine/clipmine/internal/repository/video"
)

// snippetRadius is how many bytes of context surround the first query
// token in a snippet, widened to the nearest rune boundary
const snippetRadius = 60

// SearchService answers full-text queries over the approved corpus
type SearchService interface {
	// Search tokenizes query, scores matching segments, and returns at
	// most limit matches in deterministic order
	Search(ctx context.Context, query string, filters model.SearchFilters, limit int) ([]*model.Match, error)
}

// searchService implements SearchService
type searchService struct {
	videoRepo   video.Repository
	segmentRepo segment.Repository
	indexRepo   searchindex.Repository
	logger      *slog.Logger
}

// NewSearchService creates a new SearchService
func NewSearchService(
	videoRepo video.Repository,
	segmentRepo segment.Repository,
	indexRepo searchindex.Repository,
	logger *slog.Logger,
) SearchService {
	return &searchService{
		videoRepo:   videoRepo,
		segmentRepo: segmentRepo,
		indexRepo:   indexRepo,
		logger:      logger,
	}
}

// segmentKey identifies one scored segment
type segmentKey struct {
	videoID string
	seq     int
}

// Search tokenizes query, scores matching segments, and returns matches
func (s *searchService) Search(ctx context.Context, query string, filters model.SearchFilters, limit int) ([]*model.Match, error) {
	tokens := uniqueTokens(Tokenize(query))
	if len(tokens) == 0 {
		return nil, apperrors.New(apperrors.CodeEmptyQuery, "query contains no searchable tokens")
	}

	postings, err := s.indexRepo.SearchTokens(ctx, tokens)
	if err != nil {
		return nil, err
	}
	if len(postings) == 0 {
		return []*model.Match{}, nil
	}

	totalSegments, err := s.indexRepo.SegmentCount(ctx)
	if err != nil {
		return nil, err
	}
	docFreqs, err := s.indexRepo.TokenSegmentCounts(ctx, tokens)
	if err != nil {
		return nil, err
	}

	// Sum tf-idf per segment across the query tokens
	scores := map[segmentKey]float64{}
	for _, posting := range postings {
		df := docFreqs[posting.Token]
		if df == 0 {
			continue
		}
		idf := math.Log(1 + float64(totalSegments)/float64(df))
		key := segmentKey{videoID: posting.VideoID, seq: posting.Seq}
		scores[key] += float64(posting.TermFreq) * idf
	}

	videos, err := s.loadApprovedVideos(ctx, scores, filters)
	if err != nil {
		return nil, err
	}

	tokenSet := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		tokenSet[token] = struct{}{}
	}

	matches, err := s.collectMatches(ctx, scores, videos, tokenSet)
	if err != nil {
		return nil, err
	}

	sortMatches(matches)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// loadApprovedVideos resolves the scored video IDs to approved videos that
// pass the filters. Postings that point at missing or non-approved videos
// are an index inconsistency: they are purged and never surface in results.
func (s *searchService) loadApprovedVideos(ctx context.Context, scores map[segmentKey]float64, filters model.SearchFilters) (map[string]*model.Video, error) {
	idSet := map[string]struct{}{}
	for key := range scores {
		idSet[key.videoID] = struct{}{}
	}
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	found, err := s.videoRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Video, len(found))
	for _, v := range found {
		byID[v.ID] = v
	}

	videos := make(map[string]*model.Video, len(byID))
	for _, id := range ids {
		v, ok := byID[id]
		if !ok || v.State != model.StateApproved {
			s.logger.Warn("purging postings for non-approved video",
				"video_id", id, "code", apperrors.CodeIndexInconsistency)
			if err := s.indexRepo.RemoveForVideo(ctx, id); err != nil {
				return nil, err
			}
			continue
		}
		if !matchesFilters(v, filters) {
			continue
		}
		videos[id] = v
	}
	return videos, nil
}

// collectMatches joins scored segments with their stored text
func (s *searchService) collectMatches(ctx context.Context, scores map[segmentKey]float64, videos map[string]*model.Video, tokenSet map[string]struct{}) ([]*model.Match, error) {
	segmentsByVideo := map[string]map[int]*model.Segment{}
	for id := range videos {
		segs, err := s.segmentRepo.GetByVideoID(ctx, id)
		if err != nil {
			return nil, err
		}
		bySeq := make(map[int]*model.Segment, len(segs))
		for _, seg := range segs {
			bySeq[seg.Seq] = seg
		}
		segmentsByVideo[id] = bySeq
	}

	matches := []*model.Match{}
	for key, score := range scores {
		v, ok := videos[key.videoID]
		if !ok {
			continue
		}
		seg, ok := segmentsByVideo[key.videoID][key.seq]
		if !ok {
			s.logger.Warn("posting references missing segment",
				"video_id", key.videoID, "seq", key.seq,
				"code", apperrors.CodeIndexInconsistency)
			continue
		}
		matches = append(matches, &model.Match{
			Video:   v,
			Segment: seg,
			Score:   score,
			Snippet: buildSnippet(seg.Text, tokenSet),
		})
	}
	return matches, nil
}

// matchesFilters reports whether a video passes the metadata filters
func matchesFilters(v *model.Video, filters model.SearchFilters) bool {
	if filters.Channel != "" && !strings.EqualFold(v.Channel, filters.Channel) {
		return false
	}
	if filters.PublishedAfter != nil && v.PublishedAt.Before(*filters.PublishedAfter) {
		return false
	}
	if filters.PublishedBefore != nil && v.PublishedAt.After(*filters.PublishedBefore) {
		return false
	}
	if filters.MinDuration > 0 && v.Duration < filters.MinDuration {
		return false
	}
	if filters.MaxDuration > 0 && v.Duration > filters.MaxDuration {
		return false
	}
	return true
}

// sortMatches orders by score descending, then published date descending,
// then video ID ascending, then sequence ascending. Every tie breaks on a
// total order so identical corpora yield identical result lists.
func sortMatches(matches []*model.Match) {
	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Video.PublishedAt.Equal(b.Video.PublishedAt) {
			return a.Video.PublishedAt.After(b.Video.PublishedAt)
		}
		if a.Video.ID != b.Video.ID {
			return a.Video.ID < b.Video.ID
		}
		return a.Segment.Seq < b.Segment.Seq
	})
}

// buildSnippet extracts a window of text around the first query token
// occurrence, or the head of the text when no token appears verbatim
func buildSnippet(text string, tokenSet map[string]struct{}) string {
	start, end := 0, len(text)

	focusStart, focusEnd := 0, 0
	for _, span := range TokenizeSpans(text) {
		if _, ok := tokenSet[span.Text]; ok {
			focusStart, focusEnd = span.Start, span.End
			break
		}
	}

	if focusStart-snippetRadius > start {
		start = focusStart - snippetRadius
	}
	if focusEnd+snippetRadius < end {
		end = focusEnd + snippetRadius
	}
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}

	snippet := text[start:end]
	if start > 0 {
		snippet = "…" + snippet
	}
	if end < len(text) {
		snippet += "…"
	}
	return snippet
}
