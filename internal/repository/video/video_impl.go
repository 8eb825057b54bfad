package video

import (
	"context"
	"errors"

	apperrors "github.com/clipmine/clipmine/internal/errors"
	"github.com/clipmine/clipmine/internal/model"
	"github.com/clipmine/clipmine/internal/repository/common"
	"github.com/jackc/pgx/v5"
)

// videoRepository implements Repository using PostgreSQL
type videoRepository struct {
	pool common.Pool
}

// NewRepository creates a new instance of Repository
func NewRepository(pool common.Pool) Repository {
	return &videoRepository{
		pool: pool,
	}
}

// Upsert creates a video record or refreshes it by ID
func (r *videoRepository) Upsert(ctx context.Context, video *model.Video) error {
	sql := `INSERT INTO videos (id, title, channel, published_at, duration, state, error_reason, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			channel = EXCLUDED.channel,
			published_at = EXCLUDED.published_at,
			duration = EXCLUDED.duration,
			state = EXCLUDED.state,
			error_reason = EXCLUDED.error_reason,
			fetched_at = EXCLUDED.fetched_at`
	_, err := r.pool.Exec(ctx, sql,
		video.ID,
		video.Title,
		video.Channel,
		video.PublishedAt,
		video.Duration,
		video.State,
		video.ErrorReason,
		video.FetchedAt,
	)
	if err != nil {
		return common.HandlePostgreSQLError(err, "failed to upsert video")
	}
	return nil
}

// GetByID retrieves a video by its ID
func (r *videoRepository) GetByID(ctx context.Context, id string) (*model.Video, error) {
	sql := `SELECT id, title, channel, published_at, duration, state, error_reason, fetched_at
		FROM videos WHERE id = $1`
	row := r.pool.QueryRow(ctx, sql, id)

	var video model.Video
	err := row.Scan(
		&video.ID,
		&video.Title,
		&video.Channel,
		&video.PublishedAt,
		&video.Duration,
		&video.State,
		&video.ErrorReason,
		&video.FetchedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.Wrap(err, apperrors.CodeNotFound, "video not found")
		}
		return nil, common.HandlePostgreSQLError(err, "failed to get video")
	}

	return &video, nil
}

// GetByIDs retrieves videos for the given IDs
func (r *videoRepository) GetByIDs(ctx context.Context, ids []string) ([]*model.Video, error) {
	if len(ids) == 0 {
		return []*model.Video{}, nil
	}

	sql := `SELECT id, title, channel, published_at, duration, state, error_reason, fetched_at
		FROM videos WHERE id = ANY($1) ORDER BY id`
	rows, err := r.pool.Query(ctx, sql, ids)
	if err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to get videos by IDs")
	}
	defer rows.Close()

	return scanVideos(rows)
}

// ListByState retrieves videos in the given review state with pagination
func (r *videoRepository) ListByState(ctx context.Context, state model.ReviewState, limit, offset int) ([]*model.Video, error) {
	sql := `SELECT id, title, channel, published_at, duration, state, error_reason, fetched_at
		FROM videos WHERE state = $1 ORDER BY fetched_at DESC, id LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, sql, state, limit, offset)
	if err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to list videos by state")
	}
	defer rows.Close()

	return scanVideos(rows)
}

// UpdateState sets the review state and error reason for a video
func (r *videoRepository) UpdateState(ctx context.Context, id string, state model.ReviewState, errorReason *string) error {
	sql := `UPDATE videos SET state = $2, error_reason = $3 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, sql, id, state, errorReason)
	if err != nil {
		return common.HandlePostgreSQLError(err, "failed to update video state")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.CodeNotFound, "video not found")
	}
	return nil
}

// Delete deletes a video by its ID
func (r *videoRepository) Delete(ctx context.Context, id string) error {
	sql := "DELETE FROM videos WHERE id = $1"
	_, err := r.pool.Exec(ctx, sql, id)
	if err != nil {
		return common.HandlePostgreSQLError(err, "failed to delete video")
	}
	return nil
}

// scanVideos collects video rows, including iteration errors
func scanVideos(rows pgx.Rows) ([]*model.Video, error) {
	videos := []*model.Video{}
	for rows.Next() {
		var video model.Video
		err := rows.Scan(
			&video.ID,
			&video.Title,
			&video.Channel,
			&video.PublishedAt,
			&video.Duration,
			&video.State,
			&video.ErrorReason,
			&video.FetchedAt,
		)
		if err != nil {
			return nil, common.HandlePostgreSQLError(err, "failed to scan video row")
		}
		videos = append(videos, &video)
	}

	if err := rows.Err(); err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to iterate video rows")
	}

	return videos, nil
}
