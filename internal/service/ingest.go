package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	apperrors "github.com/clipmine/clipmine/internal/errors"
	"github.com/clipmine/clipmine/internal/model"
	"github.com/clipmine/clipmine/internal/repository/dedup"
	"github.com/clipmine/clipmine/internal/repository/segment"
	"github.com/clipmine/clipmine/internal/repository/video"
)

// videoIDPattern is the accepted shape of a video ID
var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{6,64}$`)

// IngestService fetches, validates, and persists video transcripts
type IngestService interface {
	// Ingest runs the pipeline for one video ID. It returns the video's
	// record for both successful and failed terminal outcomes; an error
	// return means no outcome was recorded.
	Ingest(ctx context.Context, videoID string, force bool) (*model.Video, error)
}

// ingestService implements IngestService
type ingestService struct {
	videoRepo    video.Repository
	segmentRepo  segment.Repository
	ledger       dedup.Ledger
	indexer      IndexerService
	supplier     TranscriptSupplier
	policy       ApprovalPolicy
	locks        *KeyedMutex
	fetchTimeout time.Duration
	logger       *slog.Logger
}

// NewIngestService creates a new IngestService
func NewIngestService(
	videoRepo video.Repository,
	segmentRepo segment.Repository,
	ledger dedup.Ledger,
	indexer IndexerService,
	supplier TranscriptSupplier,
	policy ApprovalPolicy,
	locks *KeyedMutex,
	fetchTimeout time.Duration,
	logger *slog.Logger,
) IngestService {
	return &ingestService{
		videoRepo:    videoRepo,
		segmentRepo:  segmentRepo,
		ledger:       ledger,
		indexer:      indexer,
		supplier:     supplier,
		policy:       policy,
		locks:        locks,
		fetchTimeout: fetchTimeout,
		logger:       logger,
	}
}

// Ingest runs the pipeline for one video ID
func (s *ingestService) Ingest(ctx context.Context, videoID string, force bool) (*model.Video, error) {
	if !videoIDPattern.MatchString(videoID) {
		return nil, apperrors.New(apperrors.CodeInvalidArg, "malformed video ID")
	}

	// One pipeline run per video at a time; concurrent submissions of the
	// same ID queue up and the later one short-circuits on the ledger.
	s.locks.Lock(videoID)
	defer s.locks.Unlock(videoID)

	if !force {
		seen, err := s.ledger.Contains(ctx, videoID)
		if err != nil {
			return nil, err
		}
		if seen {
			existing, err := s.videoRepo.GetByID(ctx, videoID)
			if err != nil {
				return nil, err
			}
			s.logger.Info("duplicate submission short-circuited",
				"video_id", videoID, "state", existing.State)
			return existing, nil
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()
	raw, err := s.supplier.Fetch(fetchCtx, videoID)
	if err != nil {
		// Caller cancellation abandons the run without recording an outcome
		if ctx.Err() != nil {
			return nil, apperrors.Wrap(ctx.Err(), apperrors.CodeInternal, "ingestion cancelled")
		}
		code := apperrors.CodeOf(err)
		if !apperrors.IsFetchError(code) {
			code = apperrors.CodeFetchUnavailable
		}
		s.logger.Warn("transcript fetch failed", "video_id", videoID, "code", code, "error", err)
		return s.recordFailure(ctx, videoID, nil, fmt.Sprintf("%s: transcript fetch failed", code))
	}

	segments, err := validateTranscript(videoID, raw.Lines)
	if err != nil {
		s.logger.Warn("malformed transcript", "video_id", videoID, "error", err)
		return s.recordFailure(ctx, videoID, raw, err.Error())
	}

	// Last cancellation check before writes begin; from here the pipeline
	// runs to a terminal outcome.
	if ctx.Err() != nil {
		return nil, apperrors.Wrap(ctx.Err(), apperrors.CodeInternal, "ingestion cancelled before persistence")
	}

	v := &model.Video{
		ID:          videoID,
		Title:       raw.Title,
		Channel:     raw.Channel,
		PublishedAt: raw.PublishedAt,
		Duration:    raw.Duration,
		State:       model.StatePending,
		FetchedAt:   time.Now().UTC(),
	}
	if err := s.videoRepo.Upsert(ctx, v); err != nil {
		return nil, err
	}
	if err := s.segmentRepo.ReplaceForVideo(ctx, videoID, segments); err != nil {
		return nil, err
	}
	// Superseded content leaves the index until the new transcript is approved
	if err := s.indexer.Remove(ctx, videoID); err != nil {
		return nil, err
	}
	if err := s.ledger.Record(ctx, videoID, model.StatePending); err != nil {
		return nil, err
	}

	if s.policy.AutoApprove(v, segments) {
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
		if err := s.ledger.Record(ctx, videoID, model.StateApproved); err != nil {
			return nil, err
		}
	}

	s.logger.Info("video ingested",
		"video_id", videoID, "segments", len(segments), "state", v.State)
	return v, nil
}

// recordFailure records a terminal failed outcome. Any content from an
// earlier ingestion is superseded: segments and postings are removed so the
// failed video contributes nothing to search.
func (s *ingestService) recordFailure(ctx context.Context, videoID string, raw *model.RawTranscript, reason string) (*model.Video, error) {
	v := &model.Video{
		ID:          videoID,
		State:       model.StateFailed,
		ErrorReason: &reason,
		FetchedAt:   time.Now().UTC(),
	}
	if raw != nil {
		v.Title = raw.Title
		v.Channel = raw.Channel
		v.PublishedAt = raw.PublishedAt
		v.Duration = raw.Duration
	}

	if err := s.videoRepo.Upsert(ctx, v); err != nil {
		return nil, err
	}
	if err := s.segmentRepo.DeleteForVideo(ctx, videoID); err != nil {
		return nil, err
	}
	if err := s.indexer.Remove(ctx, videoID); err != nil {
		return nil, err
	}
	if err := s.ledger.Record(ctx, videoID, model.StateFailed); err != nil {
		return nil, err
	}
	return v, nil
}

// validateTranscript turns supplier lines into segments, rejecting empty
// transcripts, blank text, and non-monotonic or negative offsets
func validateTranscript(videoID string, lines []model.RawLine) ([]*model.Segment, error) {
	if len(lines) == 0 {
		return nil, apperrors.New(apperrors.CodeMalformedTranscript, "transcript has no lines")
	}

	segments := make([]*model.Segment, 0, len(lines))
	prevStart := -1.0
	for i, line := range lines {
		text := strings.TrimSpace(line.Text)
		if text == "" {
			return nil, apperrors.New(apperrors.CodeMalformedTranscript,
				fmt.Sprintf("line %d has empty text", i))
		}
		if line.Start < 0 || line.End < line.Start {
			return nil, apperrors.New(apperrors.CodeMalformedTranscript,
				fmt.Sprintf("line %d has invalid offsets", i))
		}
		if line.Start < prevStart {
			return nil, apperrors.New(apperrors.CodeMalformedTranscript,
				fmt.Sprintf("line %d starts before its predecessor", i))
		}
		prevStart = line.Start

		segments = append(segments, &model.Segment{
			VideoID: videoID,
			Seq:     i,
			Start:   line.Start,
			End:     line.End,
			Text:    text,
		})
	}
	return segments, nil
}
