// Package domain 包含入会申请（投资人/创始人）的领域模型
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ReviewStatus 申请审核状态
type ReviewStatus string

const (
	StatusPendingReview ReviewStatus = "pending_review"
	StatusUnderReview   ReviewStatus = "under_review"
	StatusApproved      ReviewStatus = "approved"
	StatusRejected      ReviewStatus = "rejected"
	StatusWaitlisted    ReviewStatus = "waitlisted"
)

// AccreditationStatus 投资人合格认证状态
type AccreditationStatus string

const (
	AccreditationPending  AccreditationStatus = "pending"
	AccreditationVerified AccreditationStatus = "verified"
	AccreditationExpired  AccreditationStatus = "expired"
	AccreditationRejected AccreditationStatus = "rejected"
)

var (
	// ErrApplicationNotFound 申请不存在
	ErrApplicationNotFound = errors.New("application not found")
	// ErrInvalidReviewTransition 非法的审核状态流转
	ErrInvalidReviewTransition = errors.New("invalid review status transition")
)

// reviewTransitions 审核状态邻接表
var reviewTransitions = map[ReviewStatus][]ReviewStatus{
	StatusPendingReview: {StatusUnderReview},
	StatusUnderReview:   {StatusApproved, StatusRejected, StatusWaitlisted},
	StatusApproved:      {},
	StatusRejected:      {},
	StatusWaitlisted:    {StatusUnderReview},
}

// CanReviewTransition 判断审核状态流转是否允许
func CanReviewTransition(from, to ReviewStatus) bool {
	for _, next := range reviewTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// InvestorApplication 投资人入会申请实体
type InvestorApplication struct {
	gorm.Model
	ApplicationID string `gorm:"column:application_id;type:varchar(32);uniqueIndex;not null" json:"application_id"`
	// 提交申请的用户，审批通过后被授予 investor 角色
	UserID       string `gorm:"column:user_id;type:varchar(32);index;not null" json:"user_id"`
	FullName     string `gorm:"column:full_name;type:varchar(100);not null" json:"full_name"`
	Email        string `gorm:"column:email;type:varchar(100);index;not null" json:"email"`
	Phone        string `gorm:"column:phone;type:varchar(20)" json:"phone"`
	PAN          string `gorm:"column:pan;type:varchar(10)" json:"pan"`
	InvestorType string `gorm:"column:investor_type;type:varchar(30)" json:"investor_type"`
	// 申报净资产（卢比）
	NetWorth        decimal.Decimal `gorm:"column:net_worth;type:decimal(20,2)" json:"net_worth"`
	ExperienceYears int             `gorm:"column:experience_years" json:"experience_years"`
	// 表单附加字段
	Extras              datatypes.JSON      `gorm:"column:extras" json:"extras"`
	Status              ReviewStatus        `gorm:"column:status;type:varchar(20);index;not null;default:'pending_review'" json:"status"`
	AccreditationStatus AccreditationStatus `gorm:"column:accreditation_status;type:varchar(20);not null;default:'pending'" json:"accreditation_status"`
	AccreditationExpiry *time.Time          `gorm:"column:accreditation_expiry" json:"accreditation_expiry,omitempty"`
	ReviewerNote        string              `gorm:"column:reviewer_note;type:varchar(500)" json:"reviewer_note"`
}

func (InvestorApplication) TableName() string { return "investor_applications" }

// FounderApplication 创始人入会申请实体
type FounderApplication struct {
	gorm.Model
	ApplicationID string `gorm:"column:application_id;type:varchar(32);uniqueIndex;not null" json:"application_id"`
	UserID        string `gorm:"column:user_id;type:varchar(32);index;not null" json:"user_id"`
	FounderName   string `gorm:"column:founder_name;type:varchar(100);not null" json:"founder_name"`
	Email         string `gorm:"column:email;type:varchar(100);index;not null" json:"email"`
	CompanyName   string `gorm:"column:company_name;type:varchar(100);not null" json:"company_name"`
	Sector        string `gorm:"column:sector;type:varchar(50)" json:"sector"`
	Stage         string `gorm:"column:stage;type:varchar(30)" json:"stage"`
	PitchSummary  string `gorm:"column:pitch_summary;type:text" json:"pitch_summary"`
	// 计划融资金额（卢比）
	RaiseAmount  decimal.Decimal `gorm:"column:raise_amount;type:decimal(20,2)" json:"raise_amount"`
	Extras       datatypes.JSON  `gorm:"column:extras" json:"extras"`
	Status       ReviewStatus    `gorm:"column:status;type:varchar(20);index;not null;default:'pending_review'" json:"status"`
	ReviewerNote string          `gorm:"column:reviewer_note;type:varchar(500)" json:"reviewer_note"`
}

func (FounderApplication) TableName() string { return "founder_applications" }

// InvestorApplicationRepository 投资人申请仓储接口
type InvestorApplicationRepository interface {
	Save(ctx context.Context, app *InvestorApplication) error
	Get(ctx context.Context, applicationID string) (*InvestorApplication, error)
	GetByUser(ctx context.Context, userID string) (*InvestorApplication, error)
	List(ctx context.Context, status ReviewStatus, limit, offset int) ([]*InvestorApplication, int64, error)
}

// FounderApplicationRepository 创始人申请仓储接口
type FounderApplicationRepository interface {
	Save(ctx context.Context, app *FounderApplication) error
	Get(ctx context.Context, applicationID string) (*FounderApplication, error)
	GetByUser(ctx context.Context, userID string) (*FounderApplication, error)
	List(ctx context.Context, status ReviewStatus, limit, offset int) ([]*FounderApplication, int64, error)
}
