package infrastructure

import (
	"context"
	"errors"

	"github.com/venturecrest/angelnet/internal/intake/domain"
	"gorm.io/gorm"
)

// GormInvestorApplicationRepository 投资人申请仓储实现
type GormInvestorApplicationRepository struct {
	db *gorm.DB
}

func NewGormInvestorApplicationRepository(db *gorm.DB) *GormInvestorApplicationRepository {
	return &GormInvestorApplicationRepository{db: db}
}

func (r *GormInvestorApplicationRepository) Save(ctx context.Context, app *domain.InvestorApplication) error {
	return r.db.WithContext(ctx).Save(app).Error
}

func (r *GormInvestorApplicationRepository) Get(ctx context.Context, applicationID string) (*domain.InvestorApplication, error) {
	var app domain.InvestorApplication
	err := r.db.WithContext(ctx).Where("application_id = ?", applicationID).First(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &app, err
}

func (r *GormInvestorApplicationRepository) GetByUser(ctx context.Context, userID string) (*domain.InvestorApplication, error) {
	var app domain.InvestorApplication
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").First(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &app, err
}

func (r *GormInvestorApplicationRepository) List(ctx context.Context, status domain.ReviewStatus, limit, offset int) ([]*domain.InvestorApplication, int64, error) {
	var apps []*domain.InvestorApplication
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.InvestorApplication{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&apps).Error
	return apps, total, err
}

// GormFounderApplicationRepository 创始人申请仓储实现
type GormFounderApplicationRepository struct {
	db *gorm.DB
}

func NewGormFounderApplicationRepository(db *gorm.DB) *GormFounderApplicationRepository {
	return &GormFounderApplicationRepository{db: db}
}

func (r *GormFounderApplicationRepository) Save(ctx context.Context, app *domain.FounderApplication) error {
	return r.db.WithContext(ctx).Save(app).Error
}

func (r *GormFounderApplicationRepository) Get(ctx context.Context, applicationID string) (*domain.FounderApplication, error) {
	var app domain.FounderApplication
	err := r.db.WithContext(ctx).Where("application_id = ?", applicationID).First(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &app, err
}

func (r *GormFounderApplicationRepository) GetByUser(ctx context.Context, userID string) (*domain.FounderApplication, error) {
	var app domain.FounderApplication
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").First(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &app, err
}

func (r *GormFounderApplicationRepository) List(ctx context.Context, status domain.ReviewStatus, limit, offset int) ([]*domain.FounderApplication, int64, error) {
	var apps []*domain.FounderApplication
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.FounderApplication{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&apps).Error
	return apps, total, err
}
