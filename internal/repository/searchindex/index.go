package searchindex

import (
	"context"

	"github.com/clipmine/clipmine/internal/model"
)

// Repository defines operations for the inverted index over segment text.
// The index is a derived cache: it must always be reconstructible from the
// segment and video stores filtered to approved videos.
type Repository interface {
	// ReplaceForVideo atomically supersedes all postings of a video
	ReplaceForVideo(ctx context.Context, videoID string, postings []*model.Posting) error

	// RemoveForVideo deletes all postings for a video; removing a video
	// that is not indexed is a no-op
	RemoveForVideo(ctx context.Context, videoID string) error

	// SearchTokens retrieves all postings for the given tokens
	SearchTokens(ctx context.Context, tokens []string) ([]*model.Posting, error)

	// TokenSegmentCounts returns, per token, how many segments contain it
	TokenSegmentCounts(ctx context.Context, tokens []string) (map[string]int, error)

	// SegmentCount returns the total number of indexed segments
	SegmentCount(ctx context.Context) (int, error)

	// HasVideo reports whether any postings exist for a video
	HasVideo(ctx context.Context, videoID string) (bool, error)

	// Clear deletes every posting (used before a full rebuild)
	Clear(ctx context.Context) error
}
