package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	ErrTeamMemberNotFound = errors.New("team member not found")
	ErrPartnerNotFound    = errors.New("partner not found")
	ErrDocumentNotFound   = errors.New("content document not found")
	ErrInvalidPartnerKind = errors.New("invalid partner kind")
)

// PartnerKind 合作伙伴类别
type PartnerKind string

const (
	PartnerVC      PartnerKind = "vc"
	PartnerLegal   PartnerKind = "legal"
	PartnerBanking PartnerKind = "banking"
)

// ValidPartnerKind 校验合作伙伴类别
func ValidPartnerKind(k PartnerKind) bool {
	switch k {
	case PartnerVC, PartnerLegal, PartnerBanking:
		return true
	}
	return false
}

// TeamMember 团队成员介绍
type TeamMember struct {
	gorm.Model
	MemberID     string `gorm:"type:varchar(64);uniqueIndex;not null" json:"member_id"`
	Name         string `gorm:"type:varchar(128);not null" json:"name"`
	Title        string `gorm:"type:varchar(128)" json:"title,omitempty"`
	Bio          string `gorm:"type:text" json:"bio,omitempty"`
	PhotoRef     string `gorm:"type:varchar(255)" json:"photo_ref,omitempty"`
	DisplayOrder int    `gorm:"not null;default:0;index" json:"display_order"`
	Published    bool   `gorm:"not null;default:false;index" json:"published"`
}

func (TeamMember) TableName() string {
	return "team_members"
}

// Partner 合作伙伴
type Partner struct {
	gorm.Model
	PartnerID    string      `gorm:"type:varchar(64);uniqueIndex;not null" json:"partner_id"`
	Name         string      `gorm:"type:varchar(128);not null" json:"name"`
	Kind         PartnerKind `gorm:"type:varchar(16);index;not null" json:"kind"`
	LogoRef      string      `gorm:"type:varchar(255)" json:"logo_ref,omitempty"`
	SiteURL      string      `gorm:"type:varchar(255)" json:"site_url,omitempty"`
	DisplayOrder int         `gorm:"not null;default:0;index" json:"display_order"`
	Published    bool        `gorm:"not null;default:false;index" json:"published"`
}

func (Partner) TableName() string {
	return "partners"
}

// ContentDocument 上传文档元数据
type ContentDocument struct {
	gorm.Model
	DocumentID string `gorm:"type:varchar(64);uniqueIndex;not null" json:"document_id"`
	Name       string `gorm:"type:varchar(255);not null" json:"name"`
	FileRef    string `gorm:"type:varchar(255);not null" json:"file_ref"`
	MimeType   string `gorm:"type:varchar(128)" json:"mime_type,omitempty"`
	Size       int64  `gorm:"not null;default:0" json:"size"`
	UploadedBy string `gorm:"type:varchar(64);not null" json:"uploaded_by"`
}

func (ContentDocument) TableName() string {
	return "content_documents"
}

// TeamMemberRepository 团队成员仓储接口
type TeamMemberRepository interface {
	Save(ctx context.Context, member *TeamMember) error
	Get(ctx context.Context, memberID string) (*TeamMember, error)
	List(ctx context.Context, publishedOnly bool) ([]*TeamMember, error)
	Delete(ctx context.Context, memberID string) error
}

// PartnerRepository 合作伙伴仓储接口
type PartnerRepository interface {
	Save(ctx context.Context, partner *Partner) error
	Get(ctx context.Context, partnerID string) (*Partner, error)
	List(ctx context.Context, publishedOnly bool) ([]*Partner, error)
	Delete(ctx context.Context, partnerID string) error
}

// DocumentRepository 文档仓储接口
type DocumentRepository interface {
	Save(ctx context.Context, document *ContentDocument) error
	Get(ctx context.Context, documentID string) (*ContentDocument, error)
	List(ctx context.Context, limit, offset int) ([]*ContentDocument, int64, error)
	Delete(ctx context.Context, documentID string) error
}
