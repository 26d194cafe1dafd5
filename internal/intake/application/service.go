package application

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/venturecrest/angelnet/internal/intake/domain"
	"github.com/venturecrest/angelnet/pkg/logger"
	"github.com/venturecrest/angelnet/pkg/utils"
	"gorm.io/datatypes"
)

// accreditationValidity 认证有效期
const accreditationValidity = 12 * 30 * 24 * time.Hour

// RoleGranter 审批通过后授予平台角色
type RoleGranter interface {
	GrantRole(ctx context.Context, userID, role string) error
}

// IntakeService 入会申请服务
type IntakeService struct {
	investors domain.InvestorApplicationRepository
	founders  domain.FounderApplicationRepository
	roles     RoleGranter
	events    domain.EventPublisher
}

func NewIntakeService(
	investors domain.InvestorApplicationRepository,
	founders domain.FounderApplicationRepository,
	roles RoleGranter,
	events domain.EventPublisher,
) *IntakeService {
	return &IntakeService{investors: investors, founders: founders, roles: roles, events: events}
}

// SubmitInvestorCommand 投资人申请提交命令
type SubmitInvestorCommand struct {
	UserID          string
	FullName        string
	Email           string
	Phone           string
	PAN             string
	InvestorType    string
	NetWorth        decimal.Decimal
	ExperienceYears int
	Extras          datatypes.JSON
}

// SubmitInvestorApplication 提交投资人申请
func (s *IntakeService) SubmitInvestorApplication(ctx context.Context, cmd SubmitInvestorCommand) (*domain.InvestorApplication, error) {
	app := &domain.InvestorApplication{
		ApplicationID:       utils.NewID("app"),
		UserID:              cmd.UserID,
		FullName:            cmd.FullName,
		Email:               cmd.Email,
		Phone:               cmd.Phone,
		PAN:                 cmd.PAN,
		InvestorType:        cmd.InvestorType,
		NetWorth:            cmd.NetWorth,
		ExperienceYears:     cmd.ExperienceYears,
		Extras:              cmd.Extras,
		Status:              domain.StatusPendingReview,
		AccreditationStatus: domain.AccreditationPending,
	}

	if err := s.investors.Save(ctx, app); err != nil {
		return nil, err
	}

	s.publish(ctx, domain.ApplicationEvent{
		Event:         domain.EventApplicationSubmitted,
		ApplicationID: app.ApplicationID,
		UserID:        app.UserID,
		Kind:          "investor",
		Status:        string(app.Status),
	})

	return app, nil
}

// SubmitFounderCommand 创始人申请提交命令
type SubmitFounderCommand struct {
	UserID       string
	FounderName  string
	Email        string
	CompanyName  string
	Sector       string
	Stage        string
	PitchSummary string
	RaiseAmount  decimal.Decimal
	Extras       datatypes.JSON
}

// SubmitFounderApplication 提交创始人申请
func (s *IntakeService) SubmitFounderApplication(ctx context.Context, cmd SubmitFounderCommand) (*domain.FounderApplication, error) {
	app := &domain.FounderApplication{
		ApplicationID: utils.NewID("app"),
		UserID:        cmd.UserID,
		FounderName:   cmd.FounderName,
		Email:         cmd.Email,
		CompanyName:   cmd.CompanyName,
		Sector:        cmd.Sector,
		Stage:         cmd.Stage,
		PitchSummary:  cmd.PitchSummary,
		RaiseAmount:   cmd.RaiseAmount,
		Extras:        cmd.Extras,
		Status:        domain.StatusPendingReview,
	}

	if err := s.founders.Save(ctx, app); err != nil {
		return nil, err
	}

	s.publish(ctx, domain.ApplicationEvent{
		Event:         domain.EventApplicationSubmitted,
		ApplicationID: app.ApplicationID,
		UserID:        app.UserID,
		Kind:          "founder",
		Status:        string(app.Status),
	})

	return app, nil
}

// GetInvestorApplication 获取投资人申请
func (s *IntakeService) GetInvestorApplication(ctx context.Context, applicationID string) (*domain.InvestorApplication, error) {
	app, err := s.investors.Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, domain.ErrApplicationNotFound
	}
	return app, nil
}

// GetOwnInvestorApplication 获取用户自己的投资人申请
func (s *IntakeService) GetOwnInvestorApplication(ctx context.Context, userID string) (*domain.InvestorApplication, error) {
	app, err := s.investors.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, domain.ErrApplicationNotFound
	}
	return app, nil
}

// GetFounderApplication 获取创始人申请
func (s *IntakeService) GetFounderApplication(ctx context.Context, applicationID string) (*domain.FounderApplication, error) {
	app, err := s.founders.Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, domain.ErrApplicationNotFound
	}
	return app, nil
}

// GetOwnFounderApplication 获取用户自己的创始人申请
func (s *IntakeService) GetOwnFounderApplication(ctx context.Context, userID string) (*domain.FounderApplication, error) {
	app, err := s.founders.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, domain.ErrApplicationNotFound
	}
	return app, nil
}

// ListInvestorApplications 分页查询投资人申请
func (s *IntakeService) ListInvestorApplications(ctx context.Context, status domain.ReviewStatus, page, pageSize int) ([]*domain.InvestorApplication, *utils.Pagination, error) {
	pagination := utils.NewPagination(page, pageSize, 0)
	apps, total, err := s.investors.List(ctx, status, pagination.Limit(), pagination.Offset())
	if err != nil {
		return nil, nil, err
	}
	return apps, utils.NewPagination(page, pageSize, total), nil
}

// ListFounderApplications 分页查询创始人申请
func (s *IntakeService) ListFounderApplications(ctx context.Context, status domain.ReviewStatus, page, pageSize int) ([]*domain.FounderApplication, *utils.Pagination, error) {
	pagination := utils.NewPagination(page, pageSize, 0)
	apps, total, err := s.founders.List(ctx, status, pagination.Limit(), pagination.Offset())
	if err != nil {
		return nil, nil, err
	}
	return apps, utils.NewPagination(page, pageSize, total), nil
}

// ReviewInvestorApplication 审核投资人申请；审批通过时授予 investor 角色
func (s *IntakeService) ReviewInvestorApplication(ctx context.Context, applicationID string, target domain.ReviewStatus, note string) (*domain.InvestorApplication, error) {
	app, err := s.GetInvestorApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	if !domain.CanReviewTransition(app.Status, target) {
		return nil, domain.ErrInvalidReviewTransition
	}

	app.Status = target
	if note != "" {
		app.ReviewerNote = note
	}

	if err := s.investors.Save(ctx, app); err != nil {
		return nil, err
	}

	if target == domain.StatusApproved && s.roles != nil {
		if err := s.roles.GrantRole(ctx, app.UserID, "investor"); err != nil {
			logger.Error(ctx, "Failed to grant investor role", "user_id", app.UserID, "error", err)
		}
	}

	s.publish(ctx, domain.ApplicationEvent{
		Event:         domain.EventApplicationReviewed,
		ApplicationID: app.ApplicationID,
		UserID:        app.UserID,
		Kind:          "investor",
		Status:        string(app.Status),
	})

	return app, nil
}

// ReviewFounderApplication 审核创始人申请
func (s *IntakeService) ReviewFounderApplication(ctx context.Context, applicationID string, target domain.ReviewStatus, note string) (*domain.FounderApplication, error) {
	app, err := s.GetFounderApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	if !domain.CanReviewTransition(app.Status, target) {
		return nil, domain.ErrInvalidReviewTransition
	}

	app.Status = target
	if note != "" {
		app.ReviewerNote = note
	}

	if err := s.founders.Save(ctx, app); err != nil {
		return nil, err
	}

	if target == domain.StatusApproved && s.roles != nil {
		if err := s.roles.GrantRole(ctx, app.UserID, "founder"); err != nil {
			logger.Error(ctx, "Failed to grant founder role", "user_id", app.UserID, "error", err)
		}
	}

	s.publish(ctx, domain.ApplicationEvent{
		Event:         domain.EventApplicationReviewed,
		ApplicationID: app.ApplicationID,
		UserID:        app.UserID,
		Kind:          "founder",
		Status:        string(app.Status),
	})

	return app, nil
}

// VerifyAccreditation 合规人员认证投资人资格，有效期 12 个月
func (s *IntakeService) VerifyAccreditation(ctx context.Context, applicationID string) (*domain.InvestorApplication, error) {
	app, err := s.GetInvestorApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	expiry := time.Now().Add(accreditationValidity)
	app.AccreditationStatus = domain.AccreditationVerified
	app.AccreditationExpiry = &expiry

	if err := s.investors.Save(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// ExpireAccreditation 标记认证过期或驳回
func (s *IntakeService) ExpireAccreditation(ctx context.Context, applicationID string, target domain.AccreditationStatus) (*domain.InvestorApplication, error) {
	if target != domain.AccreditationExpired && target != domain.AccreditationRejected {
		return nil, domain.ErrInvalidReviewTransition
	}

	app, err := s.GetInvestorApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	app.AccreditationStatus = target
	if err := s.investors.Save(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

func (s *IntakeService) publish(ctx context.Context, event domain.ApplicationEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishApplicationEvent(ctx, event); err != nil {
		logger.Error(ctx, "Failed to publish application event", "event", event.Event, "application_id", event.ApplicationID, "error", err)
	}
}
