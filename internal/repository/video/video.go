package video

import (
	"context"

	"github.com/clipmine/clipmine/internal/model"
)

// Repository defines operations for Video metadata persistence
type Repository interface {
	// Upsert creates a video record or refreshes it by ID
	Upsert(ctx context.Context, video *model.Video) error

	// GetByID retrieves a video by its ID
	GetByID(ctx context.Context, id string) (*model.Video, error)

	// GetByIDs retrieves videos for the given IDs
	GetByIDs(ctx context.Context, ids []string) ([]*model.Video, error)

	// ListByState retrieves videos in the given review state with pagination
	ListByState(ctx context.Context, state model.ReviewState, limit, offset int) ([]*model.Video, error)

	// UpdateState sets the review state and error reason for a video
	UpdateState(ctx context.Context, id string, state model.ReviewState, errorReason *string) error

	// Delete deletes a video by its ID
	Delete(ctx context.Context, id string) error
}
