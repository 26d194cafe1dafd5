package domain

import "context"

// 申请事件类型
const (
	EventApplicationSubmitted = "application.submitted"
	EventApplicationReviewed  = "application.reviewed"
)

// ApplicationEvent 申请生命周期事件
type ApplicationEvent struct {
	Event         string `json:"event"`
	ApplicationID string `json:"application_id"`
	UserID        string `json:"user_id"`
	Kind          string `json:"kind"` // investor 或 founder
	Status        string `json:"status"`
}

// EventPublisher 申请事件发布接口
type EventPublisher interface {
	PublishApplicationEvent(ctx context.Context, event ApplicationEvent) error
}
