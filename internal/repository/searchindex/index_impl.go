package searchindex

import (
	"context"

	"github.com/clipmine/clipmine/internal/model"
	"github.com/clipmine/clipmine/internal/repository/common"
	"github.com/jackc/pgx/v5"
)

// indexRepository implements Repository using PostgreSQL
type indexRepository struct {
	pool common.Pool
}

// NewRepository creates a new instance of Repository
func NewRepository(pool common.Pool) Repository {
	return &indexRepository{
		pool: pool,
	}
}

// ReplaceForVideo atomically supersedes all postings of a video.
// Old postings are fully removed before the new ones land so no stale
// tokens from an earlier ingestion survive.
func (r *indexRepository) ReplaceForVideo(ctx context.Context, videoID string, postings []*model.Posting) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return common.HandlePostgreSQLError(err, "failed to begin index replace transaction")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM index_entries WHERE video_id = $1", videoID); err != nil {
		return common.HandlePostgreSQLError(err, "failed to delete prior index entries")
	}

	if len(postings) > 0 {
		rows := make([][]any, len(postings))
		for i, posting := range postings {
			rows[i] = []any{
				posting.Token,
				videoID,
				posting.Seq,
				posting.TermFreq,
			}
		}

		_, err = tx.CopyFrom(
			ctx,
			pgx.Identifier{"index_entries"},
			[]string{"token", "video_id", "seq", "term_freq"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return common.HandlePostgreSQLError(err, "failed to insert index entries")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return common.HandlePostgreSQLError(err, "failed to commit index replace transaction")
	}

	return nil
}

// RemoveForVideo deletes all postings for a video
func (r *indexRepository) RemoveForVideo(ctx context.Context, videoID string) error {
	sql := "DELETE FROM index_entries WHERE video_id = $1"
	_, err := r.pool.Exec(ctx, sql, videoID)
	if err != nil {
		return common.HandlePostgreSQLError(err, "failed to remove index entries")
	}
	return nil
}

// SearchTokens retrieves all postings for the given tokens
func (r *indexRepository) SearchTokens(ctx context.Context, tokens []string) ([]*model.Posting, error) {
	if len(tokens) == 0 {
		return []*model.Posting{}, nil
	}

	sql := `SELECT token, video_id, seq, term_freq
		FROM index_entries
		WHERE token = ANY($1)
		ORDER BY video_id, seq, token`
	rows, err := r.pool.Query(ctx, sql, tokens)
	if err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to search index entries")
	}
	defer rows.Close()

	postings := []*model.Posting{}
	for rows.Next() {
		var posting model.Posting
		err := rows.Scan(
			&posting.Token,
			&posting.VideoID,
			&posting.Seq,
			&posting.TermFreq,
		)
		if err != nil {
			return nil, common.HandlePostgreSQLError(err, "failed to scan index entry")
		}
		postings = append(postings, &posting)
	}

	if err := rows.Err(); err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to iterate index entries")
	}

	return postings, nil
}

// TokenSegmentCounts returns, per token, how many segments contain it
func (r *indexRepository) TokenSegmentCounts(ctx context.Context, tokens []string) (map[string]int, error) {
	counts := make(map[string]int, len(tokens))
	if len(tokens) == 0 {
		return counts, nil
	}

	sql := `SELECT token, COUNT(*)
		FROM index_entries
		WHERE token = ANY($1)
		GROUP BY token`
	rows, err := r.pool.Query(ctx, sql, tokens)
	if err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to count token segments")
	}
	defer rows.Close()

	for rows.Next() {
		var token string
		var count int
		if err := rows.Scan(&token, &count); err != nil {
			return nil, common.HandlePostgreSQLError(err, "failed to scan token count")
		}
		counts[token] = count
	}

	if err := rows.Err(); err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to iterate token counts")
	}

	return counts, nil
}

// SegmentCount returns the total number of indexed segments
func (r *indexRepository) SegmentCount(ctx context.Context) (int, error) {
	var count int
	row := r.pool.QueryRow(ctx, "SELECT COUNT(DISTINCT (video_id, seq)) FROM index_entries")
	if err := row.Scan(&count); err != nil {
		return 0, common.HandlePostgreSQLError(err, "failed to count indexed segments")
	}
	return count, nil
}

// HasVideo reports whether any postings exist for a video
func (r *indexRepository) HasVideo(ctx context.Context, videoID string) (bool, error) {
	var exists bool
	row := r.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM index_entries WHERE video_id = $1)", videoID)
	if err := row.Scan(&exists); err != nil {
		return false, common.HandlePostgreSQLError(err, "failed to check indexed video")
	}
	return exists, nil
}

// Clear deletes every posting
func (r *indexRepository) Clear(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM index_entries")
	if err != nil {
		return common.HandlePostgreSQLError(err, "failed to clear index")
	}
	return nil
}
