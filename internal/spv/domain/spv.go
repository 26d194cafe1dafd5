package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SPVStatus SPV 生命周期状态
type SPVStatus string

const (
	SPVForming   SPVStatus = "forming"
	SPVOpen      SPVStatus = "open"
	SPVAllocated SPVStatus = "allocated"
	SPVClosed    SPVStatus = "closed"
)

// InvitationStatus 邀约状态
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
)

var (
	ErrSPVNotFound           = errors.New("spv not found")
	ErrInvitationNotFound    = errors.New("spv invitation not found")
	ErrSPVNotOpen            = errors.New("spv is not open for responses")
	ErrInvitationResponded   = errors.New("invitation already responded")
	ErrNoAcceptedInvitations = errors.New("no accepted invitations to allocate")
	ErrSPVNotAllocatable     = errors.New("spv cannot be allocated in its current status")
)

// SPV 联合投资载体
type SPV struct {
	gorm.Model
	SPVID          string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"spv_id"`
	DealID         string          `gorm:"type:varchar(64);index;not null" json:"deal_id"`
	EntityName     string          `gorm:"type:varchar(255);not null" json:"entity_name"`
	RegistrationNo string          `gorm:"type:varchar(64)" json:"registration_no,omitempty"`
	Partners       datatypes.JSON  `gorm:"type:json" json:"partners,omitempty"`
	TargetAmount   decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"target_amount"`
	Status         SPVStatus       `gorm:"type:varchar(16);index;not null" json:"status"`
}

func (SPV) TableName() string {
	return "spvs"
}

// SPVInvitation 投资人邀约
type SPVInvitation struct {
	gorm.Model
	InvitationID    string           `gorm:"type:varchar(64);uniqueIndex;not null" json:"invitation_id"`
	SPVID           string           `gorm:"type:varchar(64);index;not null" json:"spv_id"`
	InvestorID      string           `gorm:"type:varchar(64);index;not null" json:"investor_id"`
	InvitedAmount   decimal.Decimal  `gorm:"type:decimal(20,2);not null" json:"invited_amount"`
	CommittedAmount decimal.Decimal  `gorm:"type:decimal(20,2);not null;default:0" json:"committed_amount"`
	AllocatedAmount decimal.Decimal  `gorm:"type:decimal(20,2);not null;default:0" json:"allocated_amount"`
	Status          InvitationStatus `gorm:"type:varchar(16);index;not null" json:"status"`
}

func (SPVInvitation) TableName() string {
	return "spv_invitations"
}

// SPVRepository SPV 仓储接口
type SPVRepository interface {
	Save(ctx context.Context, spv *SPV) error
	Get(ctx context.Context, spvID string) (*SPV, error)
	ListByDeal(ctx context.Context, dealID string) ([]*SPV, error)
}

// InvitationRepository 邀约仓储接口
type InvitationRepository interface {
	Save(ctx context.Context, invitation *SPVInvitation) error
	SaveAll(ctx context.Context, invitations []*SPVInvitation) error
	Get(ctx context.Context, invitationID string) (*SPVInvitation, error)
	ListBySPV(ctx context.Context, spvID string) ([]*SPVInvitation, error)
	ListByInvestor(ctx context.Context, investorID string) ([]*SPVInvitation, error)
}
