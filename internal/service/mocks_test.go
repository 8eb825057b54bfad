package service

import (
	"context"

	"github.com/clipmine/clipmine/internal/model"
	"github.com/clipmine/clipmine/internal/repository/dedup"
)

// Mock repositories and collaborators for testing

// mockVideoRepo mocks video.Repository
type mockVideoRepo struct {
	UpsertFunc      func(ctx context.Context, video *model.Video) error
	GetByIDFunc     func(ctx context.Context, id string) (*model.Video, error)
	GetByIDsFunc    func(ctx context.Context, ids []string) ([]*model.Video, error)
	ListByStateFunc func(ctx context.Context, state model.ReviewState, limit, offset int) ([]*model.Video, error)
	UpdateStateFunc func(ctx context.Context, id string, state model.ReviewState, errorReason *string) error
	DeleteFunc      func(ctx context.Context, id string) error
}

func (m *mockVideoRepo) Upsert(ctx context.Context, video *model.Video) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, video)
	}
	return nil
}

func (m *mockVideoRepo) GetByID(ctx context.Context, id string) (*model.Video, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockVideoRepo) GetByIDs(ctx context.Context, ids []string) ([]*model.Video, error) {
	if m.GetByIDsFunc != nil {
		return m.GetByIDsFunc(ctx, ids)
	}
	return []*model.Video{}, nil
}

func (m *mockVideoRepo) ListByState(ctx context.Context, state model.ReviewState, limit, offset int) ([]*model.Video, error) {
	if m.ListByStateFunc != nil {
		return m.ListByStateFunc(ctx, state, limit, offset)
	}
	return []*model.Video{}, nil
}

func (m *mockVideoRepo) UpdateState(ctx context.Context, id string, state model.ReviewState, errorReason *string) error {
	if m.UpdateStateFunc != nil {
		return m.UpdateStateFunc(ctx, id, state, errorReason)
	}
	return nil
}

func (m *mockVideoRepo) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// mockSegmentRepo mocks segment.Repository
type mockSegmentRepo struct {
	ReplaceForVideoFunc func(ctx context.Context, videoID string, segments []*model.Segment) error
	GetByVideoIDFunc    func(ctx context.Context, videoID string) ([]*model.Segment, error)
	CountFunc           func(ctx context.Context, videoID string) (int, error)
	DeleteForVideoFunc  func(ctx context.Context, videoID string) error
}

func (m *mockSegmentRepo) ReplaceForVideo(ctx context.Context, videoID string, segments []*model.Segment) error {
	if m.ReplaceForVideoFunc != nil {
		return m.ReplaceForVideoFunc(ctx, videoID, segments)
	}
	return nil
}

func (m *mockSegmentRepo) GetByVideoID(ctx context.Context, videoID string) ([]*model.Segment, error) {
	if m.GetByVideoIDFunc != nil {
		return m.GetByVideoIDFunc(ctx, videoID)
	}
	return []*model.Segment{}, nil
}

func (m *mockSegmentRepo) Count(ctx context.Context, videoID string) (int, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx, videoID)
	}
	return 0, nil
}

func (m *mockSegmentRepo) DeleteForVideo(ctx context.Context, videoID string) error {
	if m.DeleteForVideoFunc != nil {
		return m.DeleteForVideoFunc(ctx, videoID)
	}
	return nil
}

// mockLedger mocks dedup.Ledger
type mockLedger struct {
	ContainsFunc func(ctx context.Context, videoID string) (bool, error)
	RecordFunc   func(ctx context.Context, videoID string, outcome model.ReviewState) error
	GetFunc      func(ctx context.Context, videoID string) (*dedup.Entry, error)
}

func (m *mockLedger) Contains(ctx context.Context, videoID string) (bool, error) {
	if m.ContainsFunc != nil {
		return m.ContainsFunc(ctx, videoID)
	}
	return false, nil
}

func (m *mockLedger) Record(ctx context.Context, videoID string, outcome model.ReviewState) error {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, videoID, outcome)
	}
	return nil
}

func (m *mockLedger) Get(ctx context.Context, videoID string) (*dedup.Entry, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, videoID)
	}
	return nil, nil
}

// mockIndexRepo mocks searchindex.Repository
type mockIndexRepo struct {
	ReplaceForVideoFunc    func(ctx context.Context, videoID string, postings []*model.Posting) error
	RemoveForVideoFunc     func(ctx context.Context, videoID string) error
	SearchTokensFunc       func(ctx context.Context, tokens []string) ([]*model.Posting, error)
	TokenSegmentCountsFunc func(ctx context.Context, tokens []string) (map[string]int, error)
	SegmentCountFunc       func(ctx context.Context) (int, error)
	HasVideoFunc           func(ctx context.Context, videoID string) (bool, error)
	ClearFunc              func(ctx context.Context) error
}

func (m *mockIndexRepo) ReplaceForVideo(ctx context.Context, videoID string, postings []*model.Posting) error {
	if m.ReplaceForVideoFunc != nil {
		return m.ReplaceForVideoFunc(ctx, videoID, postings)
	}
	return nil
}

func (m *mockIndexRepo) RemoveForVideo(ctx context.Context, videoID string) error {
	if m.RemoveForVideoFunc != nil {
		return m.RemoveForVideoFunc(ctx, videoID)
	}
	return nil
}

func (m *mockIndexRepo) SearchTokens(ctx context.Context, tokens []string) ([]*model.Posting, error) {
	if m.SearchTokensFunc != nil {
		return m.SearchTokensFunc(ctx, tokens)
	}
	return []*model.Posting{}, nil
}

func (m *mockIndexRepo) TokenSegmentCounts(ctx context.Context, tokens []string) (map[string]int, error) {
	if m.TokenSegmentCountsFunc != nil {
		return m.TokenSegmentCountsFunc(ctx, tokens)
	}
	return map[string]int{}, nil
}

func (m *mockIndexRepo) SegmentCount(ctx context.Context) (int, error) {
	if m.SegmentCountFunc != nil {
		return m.SegmentCountFunc(ctx)
	}
	return 0, nil
}

func (m *mockIndexRepo) HasVideo(ctx context.Context, videoID string) (bool, error) {
	if m.HasVideoFunc != nil {
		return m.HasVideoFunc(ctx, videoID)
	}
	return false, nil
}

func (m *mockIndexRepo) Clear(ctx context.Context) error {
	if m.ClearFunc != nil {
		return m.ClearFunc(ctx)
	}
	return nil
}

// mockIndexer mocks IndexerService
type mockIndexer struct {
	ReindexFunc    func(ctx context.Context, videoID string) error
	RemoveFunc     func(ctx context.Context, videoID string) error
	RebuildAllFunc func(ctx context.Context) (int, error)
	VerifyFunc     func(ctx context.Context) (int, error)
}

func (m *mockIndexer) Reindex(ctx context.Context, videoID string) error {
	if m.ReindexFunc != nil {
		return m.ReindexFunc(ctx, videoID)
	}
	return nil
}

func (m *mockIndexer) Remove(ctx context.Context, videoID string) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, videoID)
	}
	return nil
}

func (m *mockIndexer) RebuildAll(ctx context.Context) (int, error) {
	if m.RebuildAllFunc != nil {
		return m.RebuildAllFunc(ctx)
	}
	return 0, nil
}

func (m *mockIndexer) Verify(ctx context.Context) (int, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx)
	}
	return 0, nil
}

// mockSupplier mocks TranscriptSupplier
type mockSupplier struct {
	FetchFunc func(ctx context.Context, videoID string) (*model.RawTranscript, error)
}

func (m *mockSupplier) Fetch(ctx context.Context, videoID string) (*model.RawTranscript, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, videoID)
	}
	return nil, nil
}

// mockCmdRunner mocks CmdRunner
type mockCmdRunner struct {
	RunFunc func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func (m *mockCmdRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if m.RunFunc != nil {
		return m.RunFunc(ctx, name, args...)
	}
	return nil, nil
}
