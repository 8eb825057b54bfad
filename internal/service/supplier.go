package service

import (
	"context"

	"github.com/clipmine/clipmine/internal/model"
)

// TranscriptSupplier fetches a video's transcript and metadata from the
// external platform. Implementations map their failure modes onto the
// fetch error codes so the ingestion pipeline can record terminal outcomes.
type TranscriptSupplier interface {
	Fetch(ctx context.Context, videoID string) (*model.RawTranscript, error)
}
