package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// KYCStatus KYC 审核状态
type KYCStatus string

const (
	KYCPending  KYCStatus = "pending"
	KYCInReview KYCStatus = "in_review"
	KYCVerified KYCStatus = "verified"
	KYCRejected KYCStatus = "rejected"
)

// DocumentType 证件类型
type DocumentType string

const (
	DocumentPAN      DocumentType = "pan"
	DocumentAadhaar  DocumentType = "aadhaar"
	DocumentPassport DocumentType = "passport"
	DocumentBank     DocumentType = "bank"
)

var (
	ErrKYCRecordNotFound    = errors.New("kyc record not found")
	ErrInvalidKYCTransition = errors.New("invalid kyc status transition")
	ErrInvalidDocumentType  = errors.New("invalid document type")
)

var kycTransitions = map[KYCStatus][]KYCStatus{
	KYCPending:  {KYCInReview},
	KYCInReview: {KYCVerified, KYCRejected},
	KYCVerified: {},
	KYCRejected: {KYCInReview},
}

// CanKYCTransition 校验 KYC 状态流转
func CanKYCTransition(from, to KYCStatus) bool {
	for _, next := range kycTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidDocumentType 校验证件类型
func ValidDocumentType(t DocumentType) bool {
	switch t {
	case DocumentPAN, DocumentAadhaar, DocumentPassport, DocumentBank:
		return true
	}
	return false
}

// KYCRecord KYC 材料记录
type KYCRecord struct {
	gorm.Model
	RecordID     string       `gorm:"type:varchar(64);uniqueIndex;not null" json:"record_id"`
	UserID       string       `gorm:"type:varchar(64);index;not null" json:"user_id"`
	DocumentType DocumentType `gorm:"type:varchar(16);not null" json:"document_type"`
	FileRef      string       `gorm:"type:varchar(255);not null" json:"file_ref"`
	Status       KYCStatus    `gorm:"type:varchar(16);index;not null" json:"status"`
	Reviewer     string       `gorm:"type:varchar(64)" json:"reviewer,omitempty"`
	Note         string       `gorm:"type:varchar(1024)" json:"note,omitempty"`
	ReviewedAt   *time.Time   `json:"reviewed_at,omitempty"`
}

func (KYCRecord) TableName() string {
	return "kyc_records"
}

// KYCRepository KYC 仓储接口
type KYCRepository interface {
	Save(ctx context.Context, record *KYCRecord) error
	Get(ctx context.Context, recordID string) (*KYCRecord, error)
	ListByUser(ctx context.Context, userID string) ([]*KYCRecord, error)
	List(ctx context.Context, status KYCStatus, limit, offset int) ([]*KYCRecord, int64, error)
}
