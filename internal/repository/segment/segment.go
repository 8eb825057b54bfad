package segment

import (
	"context"

	"github.com/clipmine/clipmine/internal/model"
)

// Repository defines operations for Segment persistence.
// A video's segments are replaced wholesale on re-ingestion; there is no
// per-segment update.
type Repository interface {
	// ReplaceForVideo atomically supersedes all segments of a video.
	// Readers never observe a mixture of old and new segments.
	ReplaceForVideo(ctx context.Context, videoID string, segments []*model.Segment) error

	// GetByVideoID retrieves all segments for a video, ordered by sequence index
	GetByVideoID(ctx context.Context, videoID string) ([]*model.Segment, error)

	// Count returns the number of segments stored for a video
	Count(ctx context.Context, videoID string) (int, error)

	// DeleteForVideo deletes all segments for a video
	DeleteForVideo(ctx context.Context, videoID string) error
}
