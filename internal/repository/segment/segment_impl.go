package segment

import (
	"context"

	"github.com/clipmine/clipmine/internal/model"
	"github.com/clipmine/clipmine/internal/repository/common"
	"github.com/jackc/pgx/v5"
)

// segmentRepository implements Repository using PostgreSQL
type segmentRepository struct {
	pool common.Pool
}

// NewRepository creates a new instance of Repository
func NewRepository(pool common.Pool) Repository {
	return &segmentRepository{
		pool: pool,
	}
}

// ReplaceForVideo atomically supersedes all segments of a video.
// Delete and bulk insert run in one transaction so a concurrent reader sees
// either the old set or the new set, never a mixture.
func (r *segmentRepository) ReplaceForVideo(ctx context.Context, videoID string, segments []*model.Segment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return common.HandlePostgreSQLError(err, "failed to begin segment replace transaction")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM segments WHERE video_id = $1", videoID); err != nil {
		return common.HandlePostgreSQLError(err, "failed to delete prior segments")
	}

	if len(segments) > 0 {
		// Prepare data for COPY FROM
		rows := make([][]any, len(segments))
		for i, segment := range segments {
			rows[i] = []any{
				videoID,
				segment.Seq,
				segment.Start,
				segment.End,
				segment.Text,
			}
		}

		// Use COPY FROM for efficient bulk insert
		_, err = tx.CopyFrom(
			ctx,
			pgx.Identifier{"segments"},
			[]string{"video_id", "seq", "start_time", "end_time", "text"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return common.HandlePostgreSQLError(err, "failed to insert segments")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return common.HandlePostgreSQLError(err, "failed to commit segment replace transaction")
	}

	return nil
}

// GetByVideoID retrieves all segments for a video, ordered by sequence index
func (r *segmentRepository) GetByVideoID(ctx context.Context, videoID string) ([]*model.Segment, error) {
	sql := `SELECT video_id, seq, start_time, end_time, text
		FROM segments
		WHERE video_id = $1
		ORDER BY seq`

	rows, err := r.pool.Query(ctx, sql, videoID)
	if err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to get segments")
	}
	defer rows.Close()

	var segments []*model.Segment
	for rows.Next() {
		var segment model.Segment
		err := rows.Scan(
			&segment.VideoID,
			&segment.Seq,
			&segment.Start,
			&segment.End,
			&segment.Text,
		)
		if err != nil {
			return nil, common.HandlePostgreSQLError(err, "failed to scan segment")
		}
		segments = append(segments, &segment)
	}

	if err := rows.Err(); err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to iterate segment rows")
	}

	return segments, nil
}

// Count returns the number of segments stored for a video
func (r *segmentRepository) Count(ctx context.Context, videoID string) (int, error) {
	var count int
	row := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM segments WHERE video_id = $1", videoID)
	if err := row.Scan(&count); err != nil {
		return 0, common.HandlePostgreSQLError(err, "failed to count segments")
	}
	return count, nil
}

// DeleteForVideo deletes all segments for a video
func (r *segmentRepository) DeleteForVideo(ctx context.Context, videoID string) error {
	sql := "DELETE FROM segments WHERE video_id = $1"
	_, err := r.pool.Exec(ctx, sql, videoID)
	if err != nil {
		return common.HandlePostgreSQLError(err, "failed to delete segments")
	}
	return nil
}
