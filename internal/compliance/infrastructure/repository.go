package infrastructure

import (
	"context"
	"errors"

	"github.com/venturecrest/angelnet/internal/compliance/domain"
	"gorm.io/gorm"
)

// GormKYCRepository KYC 仓储 Gorm 实现
type GormKYCRepository struct {
	db *gorm.DB
}

func NewGormKYCRepository(db *gorm.DB) *GormKYCRepository {
	return &GormKYCRepository{db: db}
}

func (r *GormKYCRepository) Save(ctx context.Context, record *domain.KYCRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *GormKYCRepository) Get(ctx context.Context, recordID string) (*domain.KYCRecord, error) {
	var record domain.KYCRecord
	err := r.db.WithContext(ctx).Where("record_id = ?", recordID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *GormKYCRepository) ListByUser(ctx context.Context, userID string) ([]*domain.KYCRecord, error) {
	var records []*domain.KYCRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&records).Error
	return records, err
}

func (r *GormKYCRepository) List(ctx context.Context, status domain.KYCStatus, limit, offset int) ([]*domain.KYCRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.KYCRecord{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []*domain.KYCRecord
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&records).Error
	return records, total, err
}

// GormScreeningRepository AML 筛查仓储 Gorm 实现
type GormScreeningRepository struct {
	db *gorm.DB
}

func NewGormScreeningRepository(db *gorm.DB) *GormScreeningRepository {
	return &GormScreeningRepository{db: db}
}

func (r *GormScreeningRepository) Save(ctx context.Context, screening *domain.AMLScreening) error {
	return r.db.WithContext(ctx).Save(screening).Error
}

func (r *GormScreeningRepository) Get(ctx context.Context, screeningID string) (*domain.AMLScreening, error) {
	var screening domain.AMLScreening
	err := r.db.WithContext(ctx).Where("screening_id = ?", screeningID).First(&screening).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &screening, nil
}

func (r *GormScreeningRepository) ListByUser(ctx context.Context, userID string) ([]*domain.AMLScreening, error) {
	var screenings []*domain.AMLScreening
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&screenings).Error
	return screenings, err
}

func (r *GormScreeningRepository) List(ctx context.Context, status domain.ScreeningStatus, limit, offset int) ([]*domain.AMLScreening, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.AMLScreening{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var screenings []*domain.AMLScreening
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&screenings).Error
	return screenings, total, err
}

// GormAccreditationReviewRepository 审议记录仓储 Gorm 实现
type GormAccreditationReviewRepository struct {
	db *gorm.DB
}

func NewGormAccreditationReviewRepository(db *gorm.DB) *GormAccreditationReviewRepository {
	return &GormAccreditationReviewRepository{db: db}
}

func (r *GormAccreditationReviewRepository) Save(ctx context.Context, review *domain.AccreditationReview) error {
	return r.db.WithContext(ctx).Save(review).Error
}

func (r *GormAccreditationReviewRepository) ListByApplication(ctx context.Context, applicationID string) ([]*domain.AccreditationReview, error) {
	var reviews []*domain.AccreditationReview
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("created_at DESC").
		Find(&reviews).Error
	return reviews, err
}
