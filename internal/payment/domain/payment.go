package domain

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentStatus 支付状态
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
)

const GatewayRazorpay = "razorpay"

var (
	ErrPaymentNotFound        = errors.New("payment not found")
	ErrAmountBelowMinimum     = errors.New("amount is below the minimum investment of ₹25,000")
	ErrAmountAboveMaximum     = errors.New("amount exceeds the maximum investment of ₹1,00,00,000")
	ErrSignatureMismatch      = errors.New("payment signature verification failed")
	ErrPaymentAlreadyComplete = errors.New("payment is already completed")
	ErrCommitmentNotPayable   = errors.New("commitment is not awaiting payment")
)

// Payment 支付单
type Payment struct {
	gorm.Model
	PaymentID        string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"payment_id"`
	CommitmentID     string          `gorm:"type:varchar(64);index;not null" json:"commitment_id"`
	UserID           string          `gorm:"type:varchar(64);index;not null" json:"user_id"`
	Gateway          string          `gorm:"type:varchar(16);not null" json:"gateway"`
	GatewayOrderID   string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"gateway_order_id"`
	GatewayPaymentID string          `gorm:"type:varchar(64)" json:"gateway_payment_id,omitempty"`
	Amount           decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Currency         string          `gorm:"type:varchar(8);not null" json:"currency"`
	Status           PaymentStatus   `gorm:"type:varchar(16);index;not null" json:"status"`
	Signature        string          `gorm:"type:varchar(128)" json:"signature,omitempty"`
	FailureReason    string          `gorm:"type:varchar(255)" json:"failure_reason,omitempty"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty"`
}

func (Payment) TableName() string {
	return "payments"
}

// VerifySignature 校验网关回传签名。
// 期望值为 hex(HMAC-SHA256(secret, orderID + "|" + paymentID))，常量时间比较。
func VerifySignature(secret, orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// PaymentGateway 支付网关接口
type PaymentGateway interface {
	// CreateOrder 以最小货币单位（派萨）创建网关订单，返回订单号
	CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (string, error)
}

// PaymentRepository 支付仓储接口
type PaymentRepository interface {
	Save(ctx context.Context, payment *Payment) error
	Get(ctx context.Context, paymentID string) (*Payment, error)
	GetByOrderID(ctx context.Context, orderID string) (*Payment, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Payment, int64, error)
}
