package infrastructure

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venturecrest/angelnet/internal/invoice/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepo(t *testing.T) *GormInvoiceRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Invoice{}))
	return NewGormInvoiceRepository(db)
}

func testInvoice(number, paymentID string, issuedAt time.Time) *domain.Invoice {
	return &domain.Invoice{
		InvoiceNumber: number,
		PaymentID:     paymentID,
		BuyerUserID:   "usr_1",
		BuyerName:     "Asha Rao",
		LineItems:     []byte(`[]`),
		Subtotal:      decimal.NewFromInt(100000),
		GSTRate:       decimal.NewFromInt(18),
		Total:         decimal.NewFromInt(118000),
		IssuedAt:      issuedAt,
	}
}

func TestNextSequence(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	at := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	prefix := domain.MonthPrefix(at)

	// 空月份从 1 开始
	seq, err := repo.NextSequence(ctx, prefix)
	require.NoError(t, err)
	assert.Equal(t, 1, seq)

	require.NoError(t, repo.Save(ctx, testInvoice(domain.FormatInvoiceNumber(at, 1), "pay_1", at)))
	require.NoError(t, repo.Save(ctx, testInvoice(domain.FormatInvoiceNumber(at, 2), "pay_2", at)))

	seq, err = repo.NextSequence(ctx, prefix)
	require.NoError(t, err)
	assert.Equal(t, 3, seq)

	// 序号按月独立
	nextMonth := at.AddDate(0, 1, 0)
	seq, err = repo.NextSequence(ctx, domain.MonthPrefix(nextMonth))
	require.NoError(t, err)
	assert.Equal(t, 1, seq)
}

func TestSaveDuplicateNumber(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	at := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	number := domain.FormatInvoiceNumber(at, 1)

	require.NoError(t, repo.Save(ctx, testInvoice(number, "pay_1", at)))

	// 撞唯一索引要翻译成 gorm.ErrDuplicatedKey，开票重试依赖这一点
	err := repo.Save(ctx, testInvoice(number, "pay_2", at))
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestGetByNumberAndPayment(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	at := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)

	missing, err := repo.GetByNumber(ctx, "INV-2026-08-00001")
	require.NoError(t, err)
	assert.Nil(t, missing)

	saved := testInvoice(domain.FormatInvoiceNumber(at, 1), "pay_1", at)
	require.NoError(t, repo.Save(ctx, saved))

	byNumber, err := repo.GetByNumber(ctx, saved.InvoiceNumber)
	require.NoError(t, err)
	require.NotNil(t, byNumber)
	assert.Equal(t, "pay_1", byNumber.PaymentID)

	byPayment, err := repo.GetByPayment(ctx, "pay_1")
	require.NoError(t, err)
	require.NotNil(t, byPayment)
	assert.Equal(t, saved.InvoiceNumber, byPayment.InvoiceNumber)
}
