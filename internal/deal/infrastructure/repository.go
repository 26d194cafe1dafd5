package infrastructure

import (
	"context"
	"errors"

	"github.com/venturecrest/angelnet/internal/deal/domain"
	"gorm.io/gorm"
)

// GormDealRepository 交易仓储实现
type GormDealRepository struct {
	db *gorm.DB
}

func NewGormDealRepository(db *gorm.DB) *GormDealRepository {
	return &GormDealRepository{db: db}
}

func (r *GormDealRepository) Save(ctx context.Context, deal *domain.Deal) error {
	return r.db.WithContext(ctx).Save(deal).Error
}

func (r *GormDealRepository) Get(ctx context.Context, dealID string) (*domain.Deal, error) {
	var deal domain.Deal
	err := r.db.WithContext(ctx).Where("deal_id = ?", dealID).First(&deal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &deal, err
}

func (r *GormDealRepository) List(ctx context.Context, statuses []domain.DealStatus, limit, offset int) ([]*domain.Deal, int64, error) {
	var deals []*domain.Deal
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Deal{})
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&deals).Error
	return deals, total, err
}

// GormCommitmentRepository 认购仓储实现
type GormCommitmentRepository struct {
	db *gorm.DB
}

func NewGormCommitmentRepository(db *gorm.DB) *GormCommitmentRepository {
	return &GormCommitmentRepository{db: db}
}

func (r *GormCommitmentRepository) Save(ctx context.Context, commitment *domain.DealCommitment) error {
	return r.db.WithContext(ctx).Save(commitment).Error
}

func (r *GormCommitmentRepository) Get(ctx context.Context, commitmentID string) (*domain.DealCommitment, error) {
	var commitment domain.DealCommitment
	err := r.db.WithContext(ctx).Where("commitment_id = ?", commitmentID).First(&commitment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &commitment, err
}

func (r *GormCommitmentRepository) ListByDeal(ctx context.Context, dealID string, limit, offset int) ([]*domain.DealCommitment, int64, error) {
	return r.list(ctx, "deal_id", dealID, limit, offset)
}

func (r *GormCommitmentRepository) ListByInvestor(ctx context.Context, investorID string, limit, offset int) ([]*domain.DealCommitment, int64, error) {
	return r.list(ctx, "investor_id", investorID, limit, offset)
}

func (r *GormCommitmentRepository) list(ctx context.Context, column, value string, limit, offset int) ([]*domain.DealCommitment, int64, error) {
	var commitments []*domain.DealCommitment
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.DealCommitment{}).Where(column+" = ?", value)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&commitments).Error
	return commitments, total, err
}
