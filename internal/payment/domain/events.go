package domain

import "context"

// 支付事件类型
const (
	EventPaymentCompleted = "payment.completed"
	EventPaymentFailed    = "payment.failed"
)

// PaymentEvent 支付生命周期事件
type PaymentEvent struct {
	Event        string `json:"event"`
	PaymentID    string `json:"payment_id"`
	CommitmentID string `json:"commitment_id"`
	UserID       string `json:"user_id"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
}

// EventPublisher 支付事件发布接口
type EventPublisher interface {
	PublishPaymentEvent(ctx context.Context, event PaymentEvent) error
}
