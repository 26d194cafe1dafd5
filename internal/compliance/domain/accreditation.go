package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// AccreditationDecision 合格投资人审议结论
type AccreditationDecision string

const (
	DecisionApproved AccreditationDecision = "approved"
	DecisionRejected AccreditationDecision = "rejected"
)

var ErrInvalidDecision = errors.New("invalid accreditation decision")

// AccreditationReview 合格投资人审议记录
type AccreditationReview struct {
	gorm.Model
	ReviewID      string                `gorm:"type:varchar(64);uniqueIndex;not null" json:"review_id"`
	ApplicationID string                `gorm:"type:varchar(64);index;not null" json:"application_id"`
	Decision      AccreditationDecision `gorm:"type:varchar(16);not null" json:"decision"`
	Reviewer      string                `gorm:"type:varchar(64);not null" json:"reviewer"`
	Note          string                `gorm:"type:varchar(1024)" json:"note,omitempty"`
	ValidUntil    *time.Time            `json:"valid_until,omitempty"`
}

func (AccreditationReview) TableName() string {
	return "accreditation_reviews"
}

// AccreditationReviewRepository 审议记录仓储接口
type AccreditationReviewRepository interface {
	Save(ctx context.Context, review *AccreditationReview) error
	ListByApplication(ctx context.Context, applicationID string) ([]*AccreditationReview, error)
}
