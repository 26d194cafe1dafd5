package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrInvoiceNotFound      = errors.New("invoice not found")
	ErrPaymentNotCompleted  = errors.New("invoice requires a completed payment")
	ErrInvoiceAlreadyIssued = errors.New("invoice already issued for this payment")
)

// LineItem 发票行项目
type LineItem struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// Invoice 税务发票
type Invoice struct {
	gorm.Model
	InvoiceNumber  string          `gorm:"type:varchar(32);uniqueIndex;not null" json:"invoice_number"`
	PaymentID      string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"payment_id"`
	BuyerUserID    string          `gorm:"type:varchar(64);index;not null" json:"buyer_user_id"`
	BuyerName      string          `gorm:"type:varchar(255);not null" json:"buyer_name"`
	BuyerAddress   string          `gorm:"type:varchar(512)" json:"buyer_address,omitempty"`
	BuyerGSTIN     string          `gorm:"type:varchar(32)" json:"buyer_gstin,omitempty"`
	BuyerStateCode string          `gorm:"type:varchar(8)" json:"buyer_state_code,omitempty"`
	LineItems      datatypes.JSON  `gorm:"type:json" json:"line_items"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"subtotal"`
	GSTRate        decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"gst_rate"`
	CGST           decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"cgst"`
	SGST           decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"sgst"`
	IGST           decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"igst"`
	Total          decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"total"`
	PDFPath        string          `gorm:"type:varchar(255)" json:"pdf_path,omitempty"`
	IssuedAt       time.Time       `gorm:"not null" json:"issued_at"`
}

func (Invoice) TableName() string {
	return "invoices"
}

// FormatInvoiceNumber 生成 INV-YYYY-MM-NNNNN 格式编号，序号按月递增
func FormatInvoiceNumber(issuedAt time.Time, seq int) string {
	return fmt.Sprintf("INV-%04d-%02d-%05d", issuedAt.Year(), int(issuedAt.Month()), seq)
}

// MonthPrefix 某月编号前缀，用于查询当月最大序号
func MonthPrefix(issuedAt time.Time) string {
	return fmt.Sprintf("INV-%04d-%02d-", issuedAt.Year(), int(issuedAt.Month()))
}

// InvoiceRepository 发票仓储接口
type InvoiceRepository interface {
	Save(ctx context.Context, invoice *Invoice) error
	GetByNumber(ctx context.Context, number string) (*Invoice, error)
	GetByPayment(ctx context.Context, paymentID string) (*Invoice, error)
	// NextSequence 返回某月下一个可用序号（当月最大序号 + 1）
	NextSequence(ctx context.Context, monthPrefix string) (int, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Invoice, int64, error)
	List(ctx context.Context, limit, offset int) ([]*Invoice, int64, error)
}

// PDFRenderer 发票 PDF 渲染接口
type PDFRenderer interface {
	Render(invoice *Invoice, sellerName, sellerAddress, sellerGSTIN string) (string, error)
}
