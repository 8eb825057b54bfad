package service

import "github.com/clipmine/clipmine/internal/model"

// ApprovalPolicy decides whether a freshly ingested video becomes
// searchable without an operator decision
type ApprovalPolicy interface {
	AutoApprove(video *model.Video, segments []*model.Segment) bool
}

// manualApprovalPolicy never auto-approves; every video waits in pending
type manualApprovalPolicy struct{}

// NewManualApprovalPolicy creates the default policy: manual review only
func NewManualApprovalPolicy() ApprovalPolicy {
	return manualApprovalPolicy{}
}

func (manualApprovalPolicy) AutoApprove(*model.Video, []*model.Segment) bool {
	return false
}

// autoApprovalPolicy approves every successfully ingested video
type autoApprovalPolicy struct{}

// NewAutoApprovalPolicy creates a policy that approves everything on ingest
func NewAutoApprovalPolicy() ApprovalPolicy {
	return autoApprovalPolicy{}
}

func (autoApprovalPolicy) AutoApprove(*model.Video, []*model.Segment) bool {
	return true
}
