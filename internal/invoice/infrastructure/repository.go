package infrastructure

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/venturecrest/angelnet/internal/invoice/domain"
	"gorm.io/gorm"
)

// GormInvoiceRepository 发票仓储 Gorm 实现
type GormInvoiceRepository struct {
	db *gorm.DB
}

func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *domain.Invoice) error {
	return r.db.WithContext(ctx).Save(invoice).Error
}

func (r *GormInvoiceRepository) GetByNumber(ctx context.Context, number string) (*domain.Invoice, error) {
	return r.first(ctx, "invoice_number = ?", number)
}

func (r *GormInvoiceRepository) GetByPayment(ctx context.Context, paymentID string) (*domain.Invoice, error) {
	return r.first(ctx, "payment_id = ?", paymentID)
}

// NextSequence 查询当月最大编号并加一；并发下的冲突由唯一索引兜底
func (r *GormInvoiceRepository) NextSequence(ctx context.Context, monthPrefix string) (int, error) {
	var last string
	err := r.db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("invoice_number LIKE ?", monthPrefix+"%").
		Order("invoice_number DESC").
		Limit(1).
		Pluck("invoice_number", &last).Error
	if err != nil {
		return 0, err
	}
	if last == "" {
		return 1, nil
	}

	seq, err := strconv.Atoi(strings.TrimPrefix(last, monthPrefix))
	if err != nil {
		return 0, err
	}
	return seq + 1, nil
}

func (r *GormInvoiceRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Invoice, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Invoice{}).Where("buyer_user_id = ?", userID)
	return r.page(query, limit, offset)
}

func (r *GormInvoiceRepository) List(ctx context.Context, limit, offset int) ([]*domain.Invoice, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Invoice{})
	return r.page(query, limit, offset)
}

func (r *GormInvoiceRepository) page(query *gorm.DB, limit, offset int) ([]*domain.Invoice, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var invoices []*domain.Invoice
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&invoices).Error
	return invoices, total, err
}

func (r *GormInvoiceRepository) first(ctx context.Context, cond, arg string) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := r.db.WithContext(ctx).Where(cond, arg).First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}
