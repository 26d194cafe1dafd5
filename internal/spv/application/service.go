package application

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
	"github.com/venturecrest/angelnet/internal/spv/domain"
	"github.com/venturecrest/angelnet/pkg/logger"
	"github.com/venturecrest/angelnet/pkg/utils"
	"gorm.io/datatypes"
)

// DealChecker 校验交易存在性；由交易模块实现
type DealChecker interface {
	DealExists(ctx context.Context, dealID string) (bool, error)
}

// SPVService 联合投资载体服务
type SPVService struct {
	spvs        domain.SPVRepository
	invitations domain.InvitationRepository
	deals       DealChecker
}

func NewSPVService(spvs domain.SPVRepository, invitations domain.InvitationRepository, deals DealChecker) *SPVService {
	return &SPVService{spvs: spvs, invitations: invitations, deals: deals}
}

// CreateSPVCommand 创建 SPV 命令
type CreateSPVCommand struct {
	DealID         string
	EntityName     string
	RegistrationNo string
	Partners       []string
	TargetAmount   decimal.Decimal
}

// CreateSPV 为交易创建 SPV，初始 forming
func (s *SPVService) CreateSPV(ctx context.Context, cmd CreateSPVCommand) (*domain.SPV, error) {
	if s.deals != nil {
		exists, err := s.deals.DealExists(ctx, cmd.DealID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, domain.ErrSPVNotFound
		}
	}

	partners, err := json.Marshal(cmd.Partners)
	if err != nil {
		return nil, err
	}

	spv := &domain.SPV{
		SPVID:          utils.NewID("spv"),
		DealID:         cmd.DealID,
		EntityName:     cmd.EntityName,
		RegistrationNo: cmd.RegistrationNo,
		Partners:       datatypes.JSON(partners),
		TargetAmount:   cmd.TargetAmount,
		Status:         domain.SPVForming,
	}
	if err := s.spvs.Save(ctx, spv); err != nil {
		return nil, err
	}
	return spv, nil
}

// OpenSPV forming → open，开放投资人响应
func (s *SPVService) OpenSPV(ctx context.Context, spvID string) (*domain.SPV, error) {
	spv, err := s.getSPV(ctx, spvID)
	if err != nil {
		return nil, err
	}
	if spv.Status != domain.SPVForming {
		return nil, domain.ErrSPVNotOpen
	}
	spv.Status = domain.SPVOpen
	if err := s.spvs.Save(ctx, spv); err != nil {
		return nil, err
	}
	return spv, nil
}

// CloseSPV allocated → closed
func (s *SPVService) CloseSPV(ctx context.Context, spvID string) (*domain.SPV, error) {
	spv, err := s.getSPV(ctx, spvID)
	if err != nil {
		return nil, err
	}
	if spv.Status != domain.SPVAllocated {
		return nil, domain.ErrSPVNotAllocatable
	}
	spv.Status = domain.SPVClosed
	if err := s.spvs.Save(ctx, spv); err != nil {
		return nil, err
	}
	return spv, nil
}

// InviteInvestor 向投资人发出邀约
func (s *SPVService) InviteInvestor(ctx context.Context, spvID, investorID string, invitedAmount decimal.Decimal) (*domain.SPVInvitation, error) {
	spv, err := s.getSPV(ctx, spvID)
	if err != nil {
		return nil, err
	}
	if spv.Status != domain.SPVForming && spv.Status != domain.SPVOpen {
		return nil, domain.ErrSPVNotOpen
	}

	invitation := &domain.SPVInvitation{
		InvitationID:  utils.NewID("inv"),
		SPVID:         spv.SPVID,
		InvestorID:    investorID,
		InvitedAmount: invitedAmount,
		Status:        domain.InvitationPending,
	}
	if err := s.invitations.Save(ctx, invitation); err != nil {
		return nil, err
	}
	return invitation, nil
}

// RespondInvitation 投资人接受或拒绝邀约；接受时承诺金额缺省为邀约额
func (s *SPVService) RespondInvitation(ctx context.Context, invitationID, investorID string, accept bool, committedAmount decimal.Decimal) (*domain.SPVInvitation, error) {
	invitation, err := s.invitations.Get(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if invitation == nil || invitation.InvestorID != investorID {
		return nil, domain.ErrInvitationNotFound
	}
	if invitation.Status != domain.InvitationPending {
		return nil, domain.ErrInvitationResponded
	}

	spv, err := s.getSPV(ctx, invitation.SPVID)
	if err != nil {
		return nil, err
	}
	if spv.Status != domain.SPVOpen {
		return nil, domain.ErrSPVNotOpen
	}

	if accept {
		if committedAmount.IsZero() {
			committedAmount = invitation.InvitedAmount
		}
		invitation.CommittedAmount = committedAmount
		invitation.Status = domain.InvitationAccepted
	} else {
		invitation.Status = domain.InvitationDeclined
	}

	if err := s.invitations.Save(ctx, invitation); err != nil {
		return nil, err
	}
	return invitation, nil
}

// AllocateSPV 对已接受邀约执行按比例分配，SPV → allocated
func (s *SPVService) AllocateSPV(ctx context.Context, spvID string) (*domain.SPV, []*domain.SPVInvitation, error) {
	spv, err := s.getSPV(ctx, spvID)
	if err != nil {
		return nil, nil, err
	}
	if spv.Status != domain.SPVOpen {
		return nil, nil, domain.ErrSPVNotAllocatable
	}

	all, err := s.invitations.ListBySPV(ctx, spv.SPVID)
	if err != nil {
		return nil, nil, err
	}
	var accepted []*domain.SPVInvitation
	for _, inv := range all {
		if inv.Status == domain.InvitationAccepted {
			accepted = append(accepted, inv)
		}
	}

	if err := domain.Allocate(spv.TargetAmount, accepted); err != nil {
		return nil, nil, err
	}
	if err := s.invitations.SaveAll(ctx, accepted); err != nil {
		return nil, nil, err
	}

	spv.Status = domain.SPVAllocated
	if err := s.spvs.Save(ctx, spv); err != nil {
		return nil, nil, err
	}

	logger.Info(ctx, "SPV allocated", "spv_id", spv.SPVID, "deal_id", spv.DealID, "participants", len(accepted))
	return spv, accepted, nil
}

func (s *SPVService) GetSPV(ctx context.Context, spvID string) (*domain.SPV, error) {
	return s.getSPV(ctx, spvID)
}

func (s *SPVService) ListByDeal(ctx context.Context, dealID string) ([]*domain.SPV, error) {
	return s.spvs.ListByDeal(ctx, dealID)
}

func (s *SPVService) ListInvitations(ctx context.Context, spvID string) ([]*domain.SPVInvitation, error) {
	return s.invitations.ListBySPV(ctx, spvID)
}

func (s *SPVService) ListOwnInvitations(ctx context.Context, investorID string) ([]*domain.SPVInvitation, error) {
	return s.invitations.ListByInvestor(ctx, investorID)
}

func (s *SPVService) getSPV(ctx context.Context, spvID string) (*domain.SPV, error) {
	spv, err := s.spvs.Get(ctx, spvID)
	if err != nil {
		return nil, err
	}
	if spv == nil {
		return nil, domain.ErrSPVNotFound
	}
	return spv, nil
}
