package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CommitmentStatus 认购状态
type CommitmentStatus string

const (
	CommitmentPending          CommitmentStatus = "pending"
	CommitmentCommitted        CommitmentStatus = "committed"
	CommitmentDocumentsPending CommitmentStatus = "documents-pending"
	CommitmentPaymentPending   CommitmentStatus = "payment-pending"
	CommitmentPaymentReceived  CommitmentStatus = "payment-received"
	CommitmentFunded           CommitmentStatus = "funded"
	CommitmentCancelled        CommitmentStatus = "cancelled"
)

var (
	// ErrCommitmentNotFound 认购不存在
	ErrCommitmentNotFound = errors.New("commitment not found")
	// ErrInvalidCommitmentTransition 非法的认购状态流转
	ErrInvalidCommitmentTransition = errors.New("invalid commitment status transition")
	// ErrDealNotOpen 交易未开放认购
	ErrDealNotOpen = errors.New("deal is not open for commitments")
	// ErrCommitmentAmountOutOfRange 认购金额超出交易允许区间
	ErrCommitmentAmountOutOfRange = errors.New("commitment amount outside deal min/max bounds")
)

// commitmentTransitions 认购状态邻接表；payment-received 之前可取消
var commitmentTransitions = map[CommitmentStatus][]CommitmentStatus{
	CommitmentPending:          {CommitmentCommitted, CommitmentCancelled},
	CommitmentCommitted:        {CommitmentDocumentsPending, CommitmentCancelled},
	CommitmentDocumentsPending: {CommitmentPaymentPending, CommitmentCancelled},
	CommitmentPaymentPending:   {CommitmentPaymentReceived, CommitmentCancelled},
	CommitmentPaymentReceived:  {CommitmentFunded},
	CommitmentFunded:           {},
	CommitmentCancelled:        {},
}

// CanCommitmentTransition 判断认购状态流转是否允许
func CanCommitmentTransition(from, to CommitmentStatus) bool {
	for _, next := range commitmentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// DealCommitment 投资人对交易的认购实体
type DealCommitment struct {
	gorm.Model
	CommitmentID string `gorm:"column:commitment_id;type:varchar(32);uniqueIndex;not null" json:"commitment_id"`
	DealID       string `gorm:"column:deal_id;type:varchar(32);index;not null" json:"deal_id"`
	InvestorID   string `gorm:"column:investor_id;type:varchar(32);index;not null" json:"investor_id"`
	// 认购金额（卢比）
	Amount decimal.Decimal  `gorm:"column:amount;type:decimal(20,2);not null" json:"amount"`
	Status CommitmentStatus `gorm:"column:status;type:varchar(20);index;not null;default:'pending'" json:"status"`
	// 托管账户引用
	EscrowRef string `gorm:"column:escrow_ref;type:varchar(64)" json:"escrow_ref"`
	// 关联支付引用
	PaymentRef string `gorm:"column:payment_ref;type:varchar(64)" json:"payment_ref"`
}

func (DealCommitment) TableName() string { return "deal_commitments" }

// NewCommitment 创建待确认认购
func NewCommitment(commitmentID, dealID, investorID string, amount decimal.Decimal) *DealCommitment {
	return &DealCommitment{
		CommitmentID: commitmentID,
		DealID:       dealID,
		InvestorID:   investorID,
		Amount:       amount,
		Status:       CommitmentPending,
	}
}

// CanBeCancelled 是否仍可取消
func (c *DealCommitment) CanBeCancelled() bool {
	return CanCommitmentTransition(c.Status, CommitmentCancelled)
}

// CommitmentRepository 认购仓储接口
type CommitmentRepository interface {
	Save(ctx context.Context, commitment *DealCommitment) error
	Get(ctx context.Context, commitmentID string) (*DealCommitment, error)
	ListByDeal(ctx context.Context, dealID string, limit, offset int) ([]*DealCommitment, int64, error)
	ListByInvestor(ctx context.Context, investorID string, limit, offset int) ([]*DealCommitment, int64, error)
}
