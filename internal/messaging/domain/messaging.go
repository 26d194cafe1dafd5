package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotParticipant       = errors.New("user is not a participant of this conversation")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrEmptyMessage         = errors.New("message body is empty")
)

// Conversation 两名用户之间的会话
type Conversation struct {
	gorm.Model
	ConversationID string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"conversation_id"`
	ParticipantA   string     `gorm:"type:varchar(64);index;not null" json:"participant_a"`
	ParticipantB   string     `gorm:"type:varchar(64);index;not null" json:"participant_b"`
	Subject        string     `gorm:"type:varchar(255)" json:"subject,omitempty"`
	DealID         string     `gorm:"type:varchar(64);index" json:"deal_id,omitempty"`
	LastMessageAt  *time.Time `gorm:"index" json:"last_message_at,omitempty"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// HasParticipant 判断用户是否在会话内
func (c *Conversation) HasParticipant(userID string) bool {
	return c.ParticipantA == userID || c.ParticipantB == userID
}

// Message 会话消息
type Message struct {
	gorm.Model
	MessageID      string `gorm:"type:varchar(64);uniqueIndex;not null" json:"message_id"`
	ConversationID string `gorm:"type:varchar(64);index;not null" json:"conversation_id"`
	SenderID       string `gorm:"type:varchar(64);not null" json:"sender_id"`
	Body           string `gorm:"type:text;not null" json:"body"`
	Read           bool   `gorm:"not null;default:false" json:"read"`
}

func (Message) TableName() string {
	return "messages"
}

// Notification 站内通知
type Notification struct {
	gorm.Model
	NotificationID string `gorm:"type:varchar(64);uniqueIndex;not null" json:"notification_id"`
	UserID         string `gorm:"type:varchar(64);index;not null" json:"user_id"`
	Kind           string `gorm:"type:varchar(32);not null" json:"kind"`
	Title          string `gorm:"type:varchar(255);not null" json:"title"`
	Body           string `gorm:"type:text" json:"body,omitempty"`
	RefID          string `gorm:"type:varchar(64)" json:"ref_id,omitempty"`
	Read           bool   `gorm:"not null;default:false" json:"read"`
}

func (Notification) TableName() string {
	return "notifications"
}

// ConversationRepository 会话仓储接口
type ConversationRepository interface {
	Save(ctx context.Context, conversation *Conversation) error
	// CreateWithFirstMessage 会话与首条消息同事务落库
	CreateWithFirstMessage(ctx context.Context, conversation *Conversation, message *Message) error
	Get(ctx context.Context, conversationID string) (*Conversation, error)
	ListByUser(ctx context.Context, userID string) ([]*Conversation, error)
}

// MessageRepository 消息仓储接口
type MessageRepository interface {
	Save(ctx context.Context, message *Message) error
	ListByConversation(ctx context.Context, conversationID string, limit, offset int) ([]*Message, int64, error)
	// MarkRead 把会话内他人发送的未读消息置为已读
	MarkRead(ctx context.Context, conversationID, readerID string) error
	UnreadCount(ctx context.Context, userID string) (int64, error)
}

// NotificationRepository 通知仓储接口
type NotificationRepository interface {
	Save(ctx context.Context, notification *Notification) error
	Get(ctx context.Context, notificationID string) (*Notification, error)
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*Notification, int64, error)
	MarkAllRead(ctx context.Context, userID string) error
}
