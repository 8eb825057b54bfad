package dedup

import (
	"context"
	"errors"

	apperrors "github.com/clipmine/clipmine/internal/errors"
	"github.com/clipmine/clipmine/internal/model"
	"github.com/clipmine/clipmine/internal/repository/common"
	"github.com/jackc/pgx/v5"
)

// dedupLedger implements Ledger using PostgreSQL
type dedupLedger struct {
	pool common.Pool
}

// NewLedger creates a new instance of Ledger
func NewLedger(pool common.Pool) Ledger {
	return &dedupLedger{
		pool: pool,
	}
}

// Contains reports whether the video ID has been processed before
func (r *dedupLedger) Contains(ctx context.Context, videoID string) (bool, error) {
	var exists bool
	row := r.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM seen_videos WHERE video_id = $1)", videoID)
	if err := row.Scan(&exists); err != nil {
		return false, common.HandlePostgreSQLError(err, "failed to check dedup ledger")
	}
	return exists, nil
}

// Record upserts the ledger entry for a video with its latest outcome
func (r *dedupLedger) Record(ctx context.Context, videoID string, outcome model.ReviewState) error {
	sql := `INSERT INTO seen_videos (video_id, last_outcome)
		VALUES ($1, $2)
		ON CONFLICT (video_id) DO UPDATE SET last_outcome = EXCLUDED.last_outcome`
	_, err := r.pool.Exec(ctx, sql, videoID, outcome)
	if err != nil {
		return common.HandlePostgreSQLError(err, "failed to record dedup entry")
	}
	return nil
}

// Get retrieves the ledger entry for a video
func (r *dedupLedger) Get(ctx context.Context, videoID string) (*Entry, error) {
	sql := "SELECT video_id, last_outcome FROM seen_videos WHERE video_id = $1"
	row := r.pool.QueryRow(ctx, sql, videoID)

	var entry Entry
	if err := row.Scan(&entry.VideoID, &entry.LastOutcome); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.Wrap(err, apperrors.CodeNotFound, "dedup entry not found")
		}
		return nil, common.HandlePostgreSQLError(err, "failed to get dedup entry")
	}
	return &entry, nil
}
