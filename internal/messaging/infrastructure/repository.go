package infrastructure

import (
	"context"
	"errors"
	"time"

	"github.com/venturecrest/angelnet/internal/messaging/domain"
	pkgdb "github.com/venturecrest/angelnet/pkg/db"
	"gorm.io/gorm"
)

// GormConversationRepository 会话仓储 Gorm 实现
type GormConversationRepository struct {
	db *pkgdb.DB
}

func NewGormConversationRepository(db *pkgdb.DB) *GormConversationRepository {
	return &GormConversationRepository{db: db}
}

func (r *GormConversationRepository) Save(ctx context.Context, conversation *domain.Conversation) error {
	return r.db.WithContext(ctx).Save(conversation).Error
}

func (r *GormConversationRepository) CreateWithFirstMessage(ctx context.Context, conversation *domain.Conversation, message *domain.Message) error {
	return r.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(conversation).Error; err != nil {
			return err
		}
		return tx.Create(message).Error
	})
}

func (r *GormConversationRepository) Get(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	var conversation domain.Conversation
	err := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID).First(&conversation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conversation, nil
}

func (r *GormConversationRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Conversation, error) {
	var conversations []*domain.Conversation
	err := r.db.WithContext(ctx).
		Where("participant_a = ? OR participant_b = ?", userID, userID).
		Order("last_message_at DESC").
		Find(&conversations).Error
	return conversations, err
}

// GormMessageRepository 消息仓储 Gorm 实现
type GormMessageRepository struct {
	db *gorm.DB
}

func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

func (r *GormMessageRepository) Save(ctx context.Context, message *domain.Message) error {
	return r.db.WithContext(ctx).Save(message).Error
}

func (r *GormMessageRepository) ListByConversation(ctx context.Context, conversationID string, limit, offset int) ([]*domain.Message, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Message{}).Where("conversation_id = ?", conversationID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var messages []*domain.Message
	err := query.Order("created_at ASC").Limit(limit).Offset(offset).Find(&messages).Error
	return messages, total, err
}

func (r *GormMessageRepository) MarkRead(ctx context.Context, conversationID, readerID string) error {
	return r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("conversation_id = ? AND sender_id != ? AND `read` = ?", conversationID, readerID, false).
		Update("read", true).Error
}

func (r *GormMessageRepository) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Joins("JOIN conversations ON conversations.conversation_id = messages.conversation_id").
		Where("(conversations.participant_a = ? OR conversations.participant_b = ?)", userID, userID).
		Where("messages.sender_id != ? AND messages.`read` = ?", userID, false).
		Count(&count).Error
	return count, err
}

// GormNotificationRepository 通知仓储 Gorm 实现
type GormNotificationRepository struct {
	db *gorm.DB
}

func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

func (r *GormNotificationRepository) Save(ctx context.Context, notification *domain.Notification) error {
	return r.db.WithContext(ctx).Save(notification).Error
}

func (r *GormNotificationRepository) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	var notification domain.Notification
	err := r.db.WithContext(ctx).Where("notification_id = ?", notificationID).First(&notification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &notification, nil
}

func (r *GormNotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*domain.Notification, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("`read` = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []*domain.Notification
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&notifications).Error
	return notifications, total, err
}

func (r *GormNotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("user_id = ? AND `read` = ?", userID, false).
		Updates(map[string]interface{}{"read": true, "updated_at": time.Now()}).Error
}
