package service

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "github.com/clipmine/clipmine/internal/errors"
	"github.com/clipmine/clipmine/internal/model"
	"github.com/clipmine/clipmine/internal/repository/video"
)

// ReviewService drives the review state machine. Approving makes a video
// searchable; rejecting revokes it. Failed videos cannot be reviewed, only
// force re-ingested.
type ReviewService interface {
	// Approve transitions a pending or rejected video to approved and
	// makes its segments searchable
	Approve(ctx context.Context, videoID string) (*model.Video, error)

	// Reject transitions a pending or approved video to rejected and
	// revokes its segments from search
	Reject(ctx context.Context, videoID string) (*model.Video, error)

	// Get retrieves a video by ID
	Get(ctx context.Context, videoID string) (*model.Video, error)

	// ListByState retrieves videos in the given state with pagination
	ListByState(ctx context.Context, state model.ReviewState, limit, offset int) ([]*model.Video, error)
}

// reviewService implements ReviewService
type reviewService struct {
	videoRepo video.Repository
	indexer   IndexerService
	locks     *KeyedMutex
	logger    *slog.Logger
}

// NewReviewService creates a new ReviewService
func NewReviewService(
	videoRepo video.Repository,
	indexer IndexerService,
	locks *KeyedMutex,
	logger *slog.Logger,
) ReviewService {
	return &reviewService{
		videoRepo: videoRepo,
		indexer:   indexer,
		locks:     locks,
		logger:    logger,
	}
}

// Approve transitions a pending or rejected video to approved
func (s *reviewService) Approve(ctx context.Context, videoID string) (*model.Video, error) {
	s.locks.Lock(videoID)
	defer s.locks.Unlock(videoID)

	v, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if v.State != model.StatePending && v.State != model.StateRejected {
		return nil, apperrors.New(apperrors.CodeInvalidTransition,
			fmt.Sprintf("cannot approve video in state %q", v.State))
	}

	// Index first. If the state update then fails the extra postings are
	// rolled back; search also drops postings of non-approved videos.
	if err := s.indexer.Reindex(ctx, videoID); err != nil {
		return nil, err
	}
	if err := s.videoRepo.UpdateState(ctx, videoID, model.StateApproved, nil); err != nil {
		if removeErr := s.indexer.Remove(ctx, videoID); removeErr != nil {
			s.logger.Error("failed to roll back index after approval failure",
				"video_id", videoID, "error", removeErr)
		}
		return nil, err
	}

	v.State = model.StateApproved
	v.ErrorReason = nil
	s.logger.Info("video approved", "video_id", videoID)
	return v, nil
}

// Reject transitions a pending or approved video to rejected
func (s *reviewService) Reject(ctx context.Context, videoID string) (*model.Video, error) {
	s.locks.Lock(videoID)
	defer s.locks.Unlock(videoID)

	v, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if v.State != model.StatePending && v.State != model.StateApproved {
		return nil, apperrors.New(apperrors.CodeInvalidTransition,
			fmt.Sprintf("cannot reject video in state %q", v.State))
	}

	// Revoke from search before the state flips so a rejected video is
	// never still searchable
	if err := s.indexer.Remove(ctx, videoID); err != nil {
		return nil, err
	}
	if err := s.videoRepo.UpdateState(ctx, videoID, model.StateRejected, nil); err != nil {
		if v.State == model.StateApproved {
			if reindexErr := s.indexer.Reindex(ctx, videoID); reindexErr != nil {
				s.logger.Error("failed to restore index after rejection failure",
					"video_id", videoID, "error", reindexErr)
			}
		}
		return nil, err
	}

	v.State = model.StateRejected
	s.logger.Info("video rejected", "video_id", videoID)
	return v, nil
}

// Get retrieves a video by ID
func (s *reviewService) Get(ctx context.Context, videoID string) (*model.Video, error) {
	return s.videoRepo.GetByID(ctx, videoID)
}

// ListByState retrieves videos in the given state with pagination
func (s *reviewService) ListByState(ctx context.Context, state model.ReviewState, limit, offset int) ([]*model.Video, error) {
	if !state.Valid() {
		return nil, apperrors.New(apperrors.CodeInvalidArg,
			fmt.Sprintf("unknown review state %q", state))
	}
	return s.videoRepo.ListByState(ctx, state, limit, offset)
}
