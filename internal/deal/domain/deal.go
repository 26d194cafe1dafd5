// Package domain 包含交易（deal）管道的领域模型
package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DealStatus 交易状态
type DealStatus string

const (
	DealStatusDraft     DealStatus = "draft"
	DealStatusLive      DealStatus = "live"
	DealStatusClosing   DealStatus = "closing"
	DealStatusClosed    DealStatus = "closed"
	DealStatusFunded    DealStatus = "funded"
	DealStatusExited    DealStatus = "exited"
	DealStatusCancelled DealStatus = "cancelled"
)

// Instrument 投资工具类型
type Instrument string

const (
	InstrumentEquity Instrument = "equity"
	InstrumentCCD    Instrument = "ccd"
	InstrumentSAFE   Instrument = "safe"
)

// Vehicle 投资载体
type Vehicle string

const (
	VehicleDirect Vehicle = "direct"
	VehicleSPV    Vehicle = "spv"
)

var (
	// ErrDealNotFound 交易不存在
	ErrDealNotFound = errors.New("deal not found")
	// ErrInvalidTransition 非法的交易状态流转
	ErrInvalidTransition = errors.New("invalid deal status transition")
	// ErrDealNotEditable 仅 draft 状态允许修改交易信息
	ErrDealNotEditable = errors.New("deal can only be edited in draft status")
)

// dealTransitions 交易状态静态邻接表；exited 与 cancelled 为终态
var dealTransitions = map[DealStatus][]DealStatus{
	DealStatusDraft:     {DealStatusLive, DealStatusCancelled},
	DealStatusLive:      {DealStatusClosing, DealStatusCancelled},
	DealStatusClosing:   {DealStatusClosed, DealStatusCancelled},
	DealStatusClosed:    {DealStatusFunded},
	DealStatusFunded:    {DealStatusExited},
	DealStatusExited:    {},
	DealStatusCancelled: {},
}

// CanTransition 判断交易状态流转是否允许；仅查表，无副作用
func CanTransition(from, to DealStatus) bool {
	for _, next := range dealTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Deal 交易实体
type Deal struct {
	gorm.Model
	DealID      string     `gorm:"column:deal_id;type:varchar(32);uniqueIndex;not null" json:"deal_id"`
	CompanyName string     `gorm:"column:company_name;type:varchar(100);not null" json:"company_name"`
	Sector      string     `gorm:"column:sector;type:varchar(50);index" json:"sector"`
	Stage       string     `gorm:"column:stage;type:varchar(30)" json:"stage"`
	Instrument  Instrument `gorm:"column:instrument;type:varchar(20);not null" json:"instrument"`
	Vehicle     Vehicle    `gorm:"column:vehicle;type:varchar(20);not null" json:"vehicle"`
	// 目标募集金额（卢比）
	TargetAmount decimal.Decimal `gorm:"column:target_amount;type:decimal(20,2);not null" json:"target_amount"`
	// 单笔最小/最大认购金额（卢比）
	MinCommitment decimal.Decimal `gorm:"column:min_commitment;type:decimal(20,2);not null" json:"min_commitment"`
	MaxCommitment decimal.Decimal `gorm:"column:max_commitment;type:decimal(20,2);not null" json:"max_commitment"`
	// 投前估值（卢比）
	Valuation decimal.Decimal `gorm:"column:valuation;type:decimal(20,2)" json:"valuation"`
	Status    DealStatus      `gorm:"column:status;type:varchar(20);index;not null;default:'draft'" json:"status"`
}

func (Deal) TableName() string { return "deals" }

// NewDeal 创建草稿态交易
func NewDeal(dealID, companyName, sector, stage string, instrument Instrument, vehicle Vehicle, target, min, max, valuation decimal.Decimal) *Deal {
	return &Deal{
		DealID:        dealID,
		CompanyName:   companyName,
		Sector:        sector,
		Stage:         stage,
		Instrument:    instrument,
		Vehicle:       vehicle,
		TargetAmount:  target,
		MinCommitment: min,
		MaxCommitment: max,
		Valuation:     valuation,
		Status:        DealStatusDraft,
	}
}

// IsOpenForCommitments 交易是否接受认购
func (d *Deal) IsOpenForCommitments() bool {
	return d.Status == DealStatusLive || d.Status == DealStatusClosing
}

// IsTerminal 是否处于终态
func (d *Deal) IsTerminal() bool {
	return d.Status == DealStatusExited || d.Status == DealStatusCancelled
}

// DealRepository 交易仓储接口
type DealRepository interface {
	Save(ctx context.Context, deal *Deal) error
	Get(ctx context.Context, dealID string) (*Deal, error)
	List(ctx context.Context, statuses []DealStatus, limit, offset int) ([]*Deal, int64, error)
}
