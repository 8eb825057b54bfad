package service

import (
	"context"
	"log/slog"
	"sort"

	"github.com/clipmine/clipmine/internal/model"
	"github.com/clipmine/clipmine/internal/repository/searchindex"
	"github.com/clipmine/clipmine/internal/repository/segment"
	"github.com/clipmine/clipmine/internal/repository/video"
)

// rebuildBatchSize is how many approved videos each rebuild page loads
const rebuildBatchSize = 100

// IndexerService maintains the inverted index as a derived view of the
// approved corpus
type IndexerService interface {
	// Reindex replaces a video's postings from its stored segments
	Reindex(ctx context.Context, videoID string) error

	// Remove deletes a video's postings
	Remove(ctx context.Context, videoID string) error

	// RebuildAll reconstructs the whole index from the approved corpus
	// and returns how many videos were indexed
	RebuildAll(ctx context.Context) (int, error)

	// Verify checks every approved video has postings, reindexes the ones
	// that do not, and returns how many were repaired
	Verify(ctx context.Context) (int, error)
}

// indexerService implements IndexerService
type indexerService struct {
	videoRepo   video.Repository
	segmentRepo segment.Repository
	indexRepo   searchindex.Repository
	logger      *slog.Logger
}

// NewIndexerService creates a new IndexerService
func NewIndexerService(
	videoRepo video.Repository,
	segmentRepo segment.Repository,
	indexRepo searchindex.Repository,
	logger *slog.Logger,
) IndexerService {
	return &indexerService{
		videoRepo:   videoRepo,
		segmentRepo: segmentRepo,
		indexRepo:   indexRepo,
		logger:      logger,
	}
}

// Reindex replaces a video's postings from its stored segments
func (s *indexerService) Reindex(ctx context.Context, videoID string) error {
	segments, err := s.segmentRepo.GetByVideoID(ctx, videoID)
	if err != nil {
		return err
	}
	postings := buildPostings(videoID, segments)
	if err := s.indexRepo.ReplaceForVideo(ctx, videoID, postings); err != nil {
		return err
	}
	s.logger.Debug("video reindexed", "video_id", videoID, "postings", len(postings))
	return nil
}

// Remove deletes a video's postings
func (s *indexerService) Remove(ctx context.Context, videoID string) error {
	return s.indexRepo.RemoveForVideo(ctx, videoID)
}

// RebuildAll reconstructs the whole index from the approved corpus
func (s *indexerService) RebuildAll(ctx context.Context) (int, error) {
	if err := s.indexRepo.Clear(ctx); err != nil {
		return 0, err
	}

	indexed := 0
	for offset := 0; ; offset += rebuildBatchSize {
		videos, err := s.videoRepo.ListByState(ctx, model.StateApproved, rebuildBatchSize, offset)
		if err != nil {
			return indexed, err
		}
		if len(videos) == 0 {
			break
		}
		for _, v := range videos {
			if err := s.Reindex(ctx, v.ID); err != nil {
				return indexed, err
			}
			indexed++
		}
	}

	s.logger.Info("index rebuilt", "videos", indexed)
	return indexed, nil
}

// Verify reindexes approved videos that have no postings
func (s *indexerService) Verify(ctx context.Context) (int, error) {
	repaired := 0
	for offset := 0; ; offset += rebuildBatchSize {
		videos, err := s.videoRepo.ListByState(ctx, model.StateApproved, rebuildBatchSize, offset)
		if err != nil {
			return repaired, err
		}
		if len(videos) == 0 {
			break
		}
		for _, v := range videos {
			indexed, err := s.indexRepo.HasVideo(ctx, v.ID)
			if err != nil {
				return repaired, err
			}
			if indexed {
				continue
			}
			s.logger.Warn("approved video missing from index", "video_id", v.ID)
			if err := s.Reindex(ctx, v.ID); err != nil {
				return repaired, err
			}
			repaired++
		}
	}

	s.logger.Info("index verified", "repaired", repaired)
	return repaired, nil
}

// buildPostings tokenizes segments into per-segment term frequencies.
// Tokens within a segment are emitted in sorted order so repeated builds
// over the same corpus are byte-identical.
func buildPostings(videoID string, segments []*model.Segment) []*model.Posting {
	postings := []*model.Posting{}
	for _, seg := range segments {
		freqs := map[string]int{}
		for _, token := range Tokenize(seg.Text) {
			freqs[token]++
		}

		tokens := make([]string, 0, len(freqs))
		for token := range freqs {
			tokens = append(tokens, token)
		}
		sort.Strings(tokens)

		for _, token := range tokens {
			postings = append(postings, &model.Posting{
				Token:    token,
				VideoID:  videoID,
				Seq:      seg.Seq,
				TermFreq: freqs[token],
			})
		}
	}
	return postings
}
