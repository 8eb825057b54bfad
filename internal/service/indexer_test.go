package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clipmine/clipmine/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestBuildPostings(t *testing.T) {
	segments := []*model.Segment{
		{VideoID: "dQw4w9WgXcQ", Seq: 0, Text: "never gonna give, never gonna give"},
		{VideoID: "dQw4w9WgXcQ", Seq: 1, Text: "you up"},
	}

	postings := buildPostings("dQw4w9WgXcQ", segments)

	assert.Equal(t, []*model.Posting{
		{Token: "give", VideoID: "dQw4w9WgXcQ", Seq: 0, TermFreq: 2},
		{Token: "gonna", VideoID: "dQw4w9WgXcQ", Seq: 0, TermFreq: 2},
		{Token: "never", VideoID: "dQw4w9WgXcQ", Seq: 0, TermFreq: 2},
		{Token: "up", VideoID: "dQw4w9WgXcQ", Seq: 1, TermFreq: 1},
		{Token: "you", VideoID: "dQw4w9WgXcQ", Seq: 1, TermFreq: 1},
	}, postings)
}

func TestBuildPostings_EmptySegments(t *testing.T) {
	assert.Empty(t, buildPostings("dQw4w9WgXcQ", nil))
}

func TestIndexerService_Reindex(t *testing.T) {
	segments := []*model.Segment{
		{VideoID: "dQw4w9WgXcQ", Seq: 0, Text: "hello world"},
	}

	var replaced []*model.Posting
	segmentRepo := &mockSegmentRepo{
		GetByVideoIDFunc: func(ctx context.Context, videoID string) ([]*model.Segment, error) {
			assert.Equal(t, "dQw4w9WgXcQ", videoID)
			return segments, nil
		},
	}
	indexRepo := &mockIndexRepo{
		ReplaceForVideoFunc: func(ctx context.Context, videoID string, postings []*model.Posting) error {
			replaced = postings
			return nil
		},
	}

	indexer := NewIndexerService(&mockVideoRepo{}, segmentRepo, indexRepo, testLogger())
	err := indexer.Reindex(context.Background(), "dQw4w9WgXcQ")

	assert.NoError(t, err)
	assert.Len(t, replaced, 2)
}

func TestIndexerService_RebuildAll(t *testing.T) {
	approved := []*model.Video{
		{ID: "video-one1", State: model.StateApproved},
		{ID: "video-two2", State: model.StateApproved},
	}

	cleared := false
	videoRepo := &mockVideoRepo{
		ListByStateFunc: func(ctx context.Context, state model.ReviewState, limit, offset int) ([]*model.Video, error) {
			assert.Equal(t, model.StateApproved, state)
			if offset == 0 {
				return approved, nil
			}
			return []*model.Video{}, nil
		},
	}
	reindexed := []string{}
	indexRepo := &mockIndexRepo{
		ClearFunc: func(ctx context.Context) error {
			cleared = true
			return nil
		},
		ReplaceForVideoFunc: func(ctx context.Context, videoID string, postings []*model.Posting) error {
			reindexed = append(reindexed, videoID)
			return nil
		},
	}

	indexer := NewIndexerService(videoRepo, &mockSegmentRepo{}, indexRepo, testLogger())
	indexed, err := indexer.RebuildAll(context.Background())

	assert.NoError(t, err)
	assert.True(t, cleared)
	assert.Equal(t, 2, indexed)
	assert.Equal(t, []string{"video-one1", "video-two2"}, reindexed)
}

func TestIndexerService_Verify(t *testing.T) {
	approved := []*model.Video{
		{ID: "indexed-ok1", State: model.StateApproved},
		{ID: "missing-vid", State: model.StateApproved},
	}

	videoRepo := &mockVideoRepo{
		ListByStateFunc: func(ctx context.Context, state model.ReviewState, limit, offset int) ([]*model.Video, error) {
			if offset == 0 {
				return approved, nil
			}
			return []*model.Video{}, nil
		},
	}
	repairedIDs := []string{}
	indexRepo := &mockIndexRepo{
		HasVideoFunc: func(ctx context.Context, videoID string) (bool, error) {
			return videoID == "indexed-ok1", nil
		},
		ReplaceForVideoFunc: func(ctx context.Context, videoID string, postings []*model.Posting) error {
			repairedIDs = append(repairedIDs, videoID)
			return nil
		},
	}

	indexer := NewIndexerService(videoRepo, &mockSegmentRepo{}, indexRepo, testLogger())
	repaired, err := indexer.Verify(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 1, repaired)
	assert.Equal(t, []string{"missing-vid"}, repairedIDs)
}
