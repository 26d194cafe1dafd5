package infrastructure

import (
	"context"
	"errors"

	"github.com/venturecrest/angelnet/internal/cms/domain"
	"gorm.io/gorm"
)

// GormTeamMemberRepository 团队成员仓储 Gorm 实现
type GormTeamMemberRepository struct {
	db *gorm.DB
}

func NewGormTeamMemberRepository(db *gorm.DB) *GormTeamMemberRepository {
	return &GormTeamMemberRepository{db: db}
}

func (r *GormTeamMemberRepository) Save(ctx context.Context, member *domain.TeamMember) error {
	return r.db.WithContext(ctx).Save(member).Error
}

func (r *GormTeamMemberRepository) Get(ctx context.Context, memberID string) (*domain.TeamMember, error) {
	var member domain.TeamMember
	err := r.db.WithContext(ctx).Where("member_id = ?", memberID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func (r *GormTeamMemberRepository) List(ctx context.Context, publishedOnly bool) ([]*domain.TeamMember, error) {
	query := r.db.WithContext(ctx)
	if publishedOnly {
		query = query.Where("published = ?", true)
	}

	var members []*domain.TeamMember
	err := query.Order("display_order ASC, created_at ASC").Find(&members).Error
	return members, err
}

func (r *GormTeamMemberRepository) Delete(ctx context.Context, memberID string) error {
	return r.db.WithContext(ctx).Where("member_id = ?", memberID).Delete(&domain.TeamMember{}).Error
}

// GormPartnerRepository 合作伙伴仓储 Gorm 实现
type GormPartnerRepository struct {
	db *gorm.DB
}

func NewGormPartnerRepository(db *gorm.DB) *GormPartnerRepository {
	return &GormPartnerRepository{db: db}
}

func (r *GormPartnerRepository) Save(ctx context.Context, partner *domain.Partner) error {
	return r.db.WithContext(ctx).Save(partner).Error
}

func (r *GormPartnerRepository) Get(ctx context.Context, partnerID string) (*domain.Partner, error) {
	var partner domain.Partner
	err := r.db.WithContext(ctx).Where("partner_id = ?", partnerID).First(&partner).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &partner, nil
}

func (r *GormPartnerRepository) List(ctx context.Context, publishedOnly bool) ([]*domain.Partner, error) {
	query := r.db.WithContext(ctx)
	if publishedOnly {
		query = query.Where("published = ?", true)
	}

	var partners []*domain.Partner
	err := query.Order("display_order ASC, created_at ASC").Find(&partners).Error
	return partners, err
}

func (r *GormPartnerRepository) Delete(ctx context.Context, partnerID string) error {
	return r.db.WithContext(ctx).Where("partner_id = ?", partnerID).Delete(&domain.Partner{}).Error
}

// GormDocumentRepository 文档仓储 Gorm 实现
type GormDocumentRepository struct {
	db *gorm.DB
}

func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

func (r *GormDocumentRepository) Save(ctx context.Context, document *domain.ContentDocument) error {
	return r.db.WithContext(ctx).Save(document).Error
}

func (r *GormDocumentRepository) Get(ctx context.Context, documentID string) (*domain.ContentDocument, error) {
	var document domain.ContentDocument
	err := r.db.WithContext(ctx).Where("document_id = ?", documentID).First(&document).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &document, nil
}

func (r *GormDocumentRepository) List(ctx context.Context, limit, offset int) ([]*domain.ContentDocument, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.ContentDocument{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var documents []*domain.ContentDocument
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&documents).Error
	return documents, total, err
}

func (r *GormDocumentRepository) Delete(ctx context.Context, documentID string) error {
	return r.db.WithContext(ctx).Where("document_id = ?", documentID).Delete(&domain.ContentDocument{}).Error
}
