package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/clipmine/clipmine/internal/errors"
	"github.com/clipmine/clipmine/internal/model"
)

func newReviewService(videoRepo *mockVideoRepo, indexer *mockIndexer) ReviewService {
	return NewReviewService(videoRepo, indexer, NewKeyedMutex(), testLogger())
}

func TestReviewService_Approve(t *testing.T) {
	tests := []struct {
		name        string
		state       model.ReviewState
		wantErr     bool
		wantCode    string
		wantReindex bool
	}{
		{name: "pending can be approved", state: model.StatePending, wantReindex: true},
		{name: "rejected can be re-approved", state: model.StateRejected, wantReindex: true},
		{name: "approved cannot be approved again", state: model.StateApproved, wantErr: true, wantCode: apperrors.CodeInvalidTransition},
		{name: "failed cannot be approved", state: model.StateFailed, wantErr: true, wantCode: apperrors.CodeInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			videoRepo := &mockVideoRepo{
				GetByIDFunc: func(ctx context.Context, id string) (*model.Video, error) {
					return &model.Video{ID: id, State: tt.state}, nil
				},
			}
			reindexed := false
			indexer := &mockIndexer{
				ReindexFunc: func(ctx context.Context, videoID string) error {
					reindexed = true
					return nil
				},
			}

			result, err := newReviewService(videoRepo, indexer).Approve(context.Background(), "dQw4w9WgXcQ")

			if tt.wantErr {
				assert.True(t, apperrors.HasCode(err, tt.wantCode))
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.Equal(t, model.StateApproved, result.State)
			}
			assert.Equal(t, tt.wantReindex, reindexed)
		})
	}
}

func TestReviewService_Approve_RollsBackIndexOnStateFailure(t *testing.T) {
	videoRepo := &mockVideoRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*model.Video, error) {
			return &model.Video{ID: id, State: model.StatePending}, nil
		},
		UpdateStateFunc: func(ctx context.Context, id string, state model.ReviewState, errorReason *string) error {
			return assert.AnError
		},
	}
	removed := false
	indexer := &mockIndexer{
		RemoveFunc: func(ctx context.Context, videoID string) error {
			removed = true
			return nil
		},
	}

	_, err := newReviewService(videoRepo, indexer).Approve(context.Background(), "dQw4w9WgXcQ")

	assert.Error(t, err)
	assert.True(t, removed, "postings added for a failed approval must be rolled back")
}

func TestReviewService_Reject(t *testing.T) {
	tests := []struct {
		name     string
		state    model.ReviewState
		wantErr  bool
		wantCode string
	}{
		{name: "pending can be rejected", state: model.StatePending},
		{name: "approved can be rejected", state: model.StateApproved},
		{name: "rejected cannot be rejected again", state: model.StateRejected, wantErr: true, wantCode: apperrors.CodeInvalidTransition},
		{name: "failed cannot be rejected", state: model.StateFailed, wantErr: true, wantCode: apperrors.CodeInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			videoRepo := &mockVideoRepo{
				GetByIDFunc: func(ctx context.Context, id string) (*model.Video, error) {
					return &model.Video{ID: id, State: tt.state}, nil
				},
			}
			removed := false
			indexer := &mockIndexer{
				RemoveFunc: func(ctx context.Context, videoID string) error {
					removed = true
					return nil
				},
			}

			result, err := newReviewService(videoRepo, indexer).Reject(context.Background(), "dQw4w9WgXcQ")

			if tt.wantErr {
				assert.True(t, apperrors.HasCode(err, tt.wantCode))
				assert.Nil(t, result)
				assert.False(t, removed)
			} else {
				require.NoError(t, err)
				assert.Equal(t, model.StateRejected, result.State)
				assert.True(t, removed, "a rejected video must be revoked from the index")
			}
		})
	}
}

func TestReviewService_Reject_RestoresIndexOnStateFailure(t *testing.T) {
	videoRepo := &mockVideoRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*model.Video, error) {
			return &model.Video{ID: id, State: model.StateApproved}, nil
		},
		UpdateStateFunc: func(ctx context.Context, id string, state model.ReviewState, errorReason *string) error {
			return assert.AnError
		},
	}
	reindexed := false
	indexer := &mockIndexer{
		ReindexFunc: func(ctx context.Context, videoID string) error {
			reindexed = true
			return nil
		},
	}

	_, err := newReviewService(videoRepo, indexer).Reject(context.Background(), "dQw4w9WgXcQ")

	assert.Error(t, err)
	assert.True(t, reindexed, "an approved video whose rejection failed must stay searchable")
}

func TestReviewService_Approve_VideoNotFound(t *testing.T) {
	videoRepo := &mockVideoRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*model.Video, error) {
			return nil, apperrors.New(apperrors.CodeNotFound, "video not found")
		},
	}

	_, err := newReviewService(videoRepo, &mockIndexer{}).Approve(context.Background(), "notfound99")

	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestReviewService_ListByState_RejectsUnknownState(t *testing.T) {
	svc := newReviewService(&mockVideoRepo{}, &mockIndexer{})

	_, err := svc.ListByState(context.Background(), model.ReviewState("bogus"), 10, 0)

	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidArg))
}
