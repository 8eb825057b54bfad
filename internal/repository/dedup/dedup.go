package dedup

import (
	"context"

	"github.com/clipmine/clipmine/internal/model"
)

// Entry is one row of the dedup ledger
type Entry struct {
	VideoID     string            `json:"video_id" db:"video_id"`
	LastOutcome model.ReviewState `json:"last_outcome" db:"last_outcome"`
}

// Ledger records which video IDs have been processed at least once.
// Presence is necessary but not sufficient to skip re-ingestion; a forced
// ingest overrides it. Every mutation is durable immediately.
type Ledger interface {
	// Contains reports whether the video ID has been processed before
	Contains(ctx context.Context, videoID string) (bool, error)

	// Record upserts the ledger entry for a video with its latest outcome
	Record(ctx context.Context, videoID string, outcome model.ReviewState) error

	// Get retrieves the ledger entry for a video
	Get(ctx context.Context, videoID string) (*Entry, error)
}
