package infrastructure

import (
	"context"
	"errors"

	"github.com/venturecrest/angelnet/internal/payment/domain"
	"gorm.io/gorm"
)

// GormPaymentRepository 支付仓储 Gorm 实现
type GormPaymentRepository struct {
	db *gorm.DB
}

func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) Save(ctx context.Context, payment *domain.Payment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}

func (r *GormPaymentRepository) Get(ctx context.Context, paymentID string) (*domain.Payment, error) {
	return r.first(ctx, "payment_id = ?", paymentID)
}

func (r *GormPaymentRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	return r.first(ctx, "gateway_order_id = ?", orderID)
}

func (r *GormPaymentRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Payment, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Payment{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var payments []*domain.Payment
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&payments).Error
	return payments, total, err
}

func (r *GormPaymentRepository) first(ctx context.Context, cond, arg string) (*domain.Payment, error) {
	var payment domain.Payment
	err := r.db.WithContext(ctx).Where(cond, arg).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}
