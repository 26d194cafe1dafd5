package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// ScreeningStatus AML 筛查状态
type ScreeningStatus string

const (
	ScreeningPending   ScreeningStatus = "pending"
	ScreeningClear     ScreeningStatus = "clear"
	ScreeningFlagged   ScreeningStatus = "flagged"
	ScreeningEscalated ScreeningStatus = "escalated"
)

// ScreeningType 筛查类型
type ScreeningType string

const (
	ScreeningSanctions    ScreeningType = "sanctions"
	ScreeningPEP          ScreeningType = "pep"
	ScreeningAdverseMedia ScreeningType = "adverse_media"
)

var (
	ErrScreeningNotFound          = errors.New("aml screening not found")
	ErrInvalidScreeningTransition = errors.New("invalid screening status transition")
	ErrInvalidScreeningType       = errors.New("invalid screening type")
)

var screeningTransitions = map[ScreeningStatus][]ScreeningStatus{
	ScreeningPending:   {ScreeningClear, ScreeningFlagged},
	ScreeningFlagged:   {ScreeningClear, ScreeningEscalated},
	ScreeningEscalated: {ScreeningClear},
	ScreeningClear:     {},
}

// CanScreeningTransition 校验筛查状态流转
func CanScreeningTransition(from, to ScreeningStatus) bool {
	for _, next := range screeningTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidScreeningType 校验筛查类型
func ValidScreeningType(t ScreeningType) bool {
	switch t {
	case ScreeningSanctions, ScreeningPEP, ScreeningAdverseMedia:
		return true
	}
	return false
}

// AMLScreening AML 筛查记录，独立成表
type AMLScreening struct {
	gorm.Model
	ScreeningID string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"screening_id"`
	UserID      string          `gorm:"type:varchar(64);index;not null" json:"user_id"`
	Type        ScreeningType   `gorm:"type:varchar(16);not null" json:"type"`
	RiskScore   int             `gorm:"not null;default:0" json:"risk_score"`
	Status      ScreeningStatus `gorm:"type:varchar(16);index;not null" json:"status"`
	Note        string          `gorm:"type:varchar(1024)" json:"note,omitempty"`
	ResolvedBy  string          `gorm:"type:varchar(64)" json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time      `json:"resolved_at,omitempty"`
}

func (AMLScreening) TableName() string {
	return "aml_screenings"
}

// ScreeningRepository AML 筛查仓储接口
type ScreeningRepository interface {
	Save(ctx context.Context, screening *AMLScreening) error
	Get(ctx context.Context, screeningID string) (*AMLScreening, error)
	ListByUser(ctx context.Context, userID string) ([]*AMLScreening, error)
	List(ctx context.Context, status ScreeningStatus, limit, offset int) ([]*AMLScreening, int64, error)
}
