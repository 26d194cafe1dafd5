package infrastructure

import (
	"context"
	"errors"

	"github.com/venturecrest/angelnet/internal/spv/domain"
	"gorm.io/gorm"
)

// GormSPVRepository SPV 仓储 Gorm 实现
type GormSPVRepository struct {
	db *gorm.DB
}

func NewGormSPVRepository(db *gorm.DB) *GormSPVRepository {
	return &GormSPVRepository{db: db}
}

func (r *GormSPVRepository) Save(ctx context.Context, spv *domain.SPV) error {
	return r.db.WithContext(ctx).Save(spv).Error
}

func (r *GormSPVRepository) Get(ctx context.Context, spvID string) (*domain.SPV, error) {
	var spv domain.SPV
	err := r.db.WithContext(ctx).Where("spv_id = ?", spvID).First(&spv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &spv, nil
}

func (r *GormSPVRepository) ListByDeal(ctx context.Context, dealID string) ([]*domain.SPV, error) {
	var spvs []*domain.SPV
	err := r.db.WithContext(ctx).
		Where("deal_id = ?", dealID).
		Order("created_at DESC").
		Find(&spvs).Error
	return spvs, err
}

// GormInvitationRepository 邀约仓储 Gorm 实现
type GormInvitationRepository struct {
	db *gorm.DB
}

func NewGormInvitationRepository(db *gorm.DB) *GormInvitationRepository {
	return &GormInvitationRepository{db: db}
}

func (r *GormInvitationRepository) Save(ctx context.Context, invitation *domain.SPVInvitation) error {
	return r.db.WithContext(ctx).Save(invitation).Error
}

// SaveAll 批量保存，分配结果在一个事务内落库
func (r *GormInvitationRepository) SaveAll(ctx context.Context, invitations []*domain.SPVInvitation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, inv := range invitations {
			if err := tx.Save(inv).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *GormInvitationRepository) Get(ctx context.Context, invitationID string) (*domain.SPVInvitation, error) {
	var invitation domain.SPVInvitation
	err := r.db.WithContext(ctx).Where("invitation_id = ?", invitationID).First(&invitation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invitation, nil
}

func (r *GormInvitationRepository) ListBySPV(ctx context.Context, spvID string) ([]*domain.SPVInvitation, error) {
	var invitations []*domain.SPVInvitation
	err := r.db.WithContext(ctx).
		Where("spv_id = ?", spvID).
		Order("created_at ASC").
		Find(&invitations).Error
	return invitations, err
}

func (r *GormInvitationRepository) ListByInvestor(ctx context.Context, investorID string) ([]*domain.SPVInvitation, error) {
	var invitations []*domain.SPVInvitation
	err := r.db.WithContext(ctx).
		Where("investor_id = ?", investorID).
		Order("created_at DESC").
		Find(&invitations).Error
	return invitations, err
}
