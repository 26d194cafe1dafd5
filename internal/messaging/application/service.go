package application

import (
	"context"
	"strings"
	"time"

	"github.com/venturecrest/angelnet/internal/messaging/domain"
	"github.com/venturecrest/angelnet/pkg/logger"
	"github.com/venturecrest/angelnet/pkg/utils"
)

// MessagingService 会话与通知服务
type MessagingService struct {
	conversations domain.ConversationRepository
	messages      domain.MessageRepository
	notifications domain.NotificationRepository
}

func NewMessagingService(
	conversations domain.ConversationRepository,
	messages domain.MessageRepository,
	notifications domain.NotificationRepository,
) *MessagingService {
	return &MessagingService{
		conversations: conversations,
		messages:      messages,
		notifications: notifications,
	}
}

// StartConversation 发起会话并发送首条消息
func (s *MessagingService) StartConversation(ctx context.Context, initiatorID, otherID, subject, dealID, body string) (*domain.Conversation, error) {
	if strings.TrimSpace(body) == "" {
		return nil, domain.ErrEmptyMessage
	}

	now := time.Now()
	conversation := &domain.Conversation{
		ConversationID: utils.NewID("conv"),
		ParticipantA:   initiatorID,
		ParticipantB:   otherID,
		Subject:        subject,
		DealID:         dealID,
		LastMessageAt:  &now,
	}
	message := &domain.Message{
		MessageID:      utils.NewID("msg"),
		ConversationID: conversation.ConversationID,
		SenderID:       initiatorID,
		Body:           body,
	}
	if err := s.conversations.CreateWithFirstMessage(ctx, conversation, message); err != nil {
		return nil, err
	}
	return conversation, nil
}

// SendMessage 在会话内发送消息；仅参与者可发
func (s *MessagingService) SendMessage(ctx context.Context, conversationID, senderID, body string) (*domain.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, domain.ErrEmptyMessage
	}

	conversation, err := s.getConversation(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}

	message := &domain.Message{
		MessageID:      utils.NewID("msg"),
		ConversationID: conversation.ConversationID,
		SenderID:       senderID,
		Body:           body,
	}
	if err := s.messages.Save(ctx, message); err != nil {
		return nil, err
	}

	now := time.Now()
	conversation.LastMessageAt = &now
	if err := s.conversations.Save(ctx, conversation); err != nil {
		return nil, err
	}
	return message, nil
}

func (s *MessagingService) ListConversations(ctx context.Context, userID string) ([]*domain.Conversation, error) {
	return s.conversations.ListByUser(ctx, userID)
}

// ListMessages 读取会话消息，同时把对方消息置为已读
func (s *MessagingService) ListMessages(ctx context.Context, conversationID, readerID string, page, pageSize int) ([]*domain.Message, *utils.Pagination, error) {
	if _, err := s.getConversation(ctx, conversationID, readerID); err != nil {
		return nil, nil, err
	}

	p := utils.NewPagination(page, pageSize, 0)
	messages, total, err := s.messages.ListByConversation(ctx, conversationID, p.Limit(), p.Offset())
	if err != nil {
		return nil, nil, err
	}

	if err := s.messages.MarkRead(ctx, conversationID, readerID); err != nil {
		logger.Warn(ctx, "Failed to mark messages read", "conversation_id", conversationID, "error", err)
	}
	return messages, utils.NewPagination(p.Page, p.PageSize, total), nil
}

func (s *MessagingService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.messages.UnreadCount(ctx, userID)
}

// Notify 写入站内通知；事件消费侧与业务侧共用
func (s *MessagingService) Notify(ctx context.Context, userID, kind, title, body, refID string) error {
	notification := &domain.Notification{
		NotificationID: utils.NewID("ntf"),
		UserID:         userID,
		Kind:           kind,
		Title:          title,
		Body:           body,
		RefID:          refID,
	}
	return s.notifications.Save(ctx, notification)
}

func (s *MessagingService) ListNotifications(ctx context.Context, userID string, unreadOnly bool, page, pageSize int) ([]*domain.Notification, *utils.Pagination, error) {
	p := utils.NewPagination(page, pageSize, 0)
	notifications, total, err := s.notifications.ListByUser(ctx, userID, unreadOnly, p.Limit(), p.Offset())
	if err != nil {
		return nil, nil, err
	}
	return notifications, utils.NewPagination(p.Page, p.PageSize, total), nil
}

// MarkNotificationRead 把单条通知置为已读；仅属主可操作
func (s *MessagingService) MarkNotificationRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	notification, err := s.notifications.Get(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if notification == nil || notification.UserID != userID {
		return nil, domain.ErrNotificationNotFound
	}

	notification.Read = true
	if err := s.notifications.Save(ctx, notification); err != nil {
		return nil, err
	}
	return notification, nil
}

func (s *MessagingService) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	return s.notifications.MarkAllRead(ctx, userID)
}

func (s *MessagingService) getConversation(ctx context.Context, conversationID, userID string) (*domain.Conversation, error) {
	conversation, err := s.conversations.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, domain.ErrConversationNotFound
	}
	if !conversation.HasParticipant(userID) {
		return nil, domain.ErrNotParticipant
	}
	return conversation, nil
}
