package domain

import "context"

// 交易事件类型
const (
	EventDealStatusChanged   = "deal.status_changed"
	EventCommitmentCreated   = "deal.commitment_created"
	EventCommitmentAdvanced  = "deal.commitment_advanced"
	EventCommitmentCancelled = "deal.commitment_cancelled"
)

// DealEvent 交易生命周期事件
type DealEvent struct {
	Event        string `json:"event"`
	DealID       string `json:"deal_id"`
	CommitmentID string `json:"commitment_id,omitempty"`
	InvestorID   string `json:"investor_id,omitempty"`
	FromStatus   string `json:"from_status,omitempty"`
	ToStatus     string `json:"to_status,omitempty"`
}

// EventPublisher 交易事件发布接口
type EventPublisher interface {
	PublishDealEvent(ctx context.Context, event DealEvent) error
}
