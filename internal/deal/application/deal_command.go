package application

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/venturecrest/angelnet/internal/deal/domain"
	"github.com/venturecrest/angelnet/pkg/logger"
	"github.com/venturecrest/angelnet/pkg/metrics"
	"github.com/venturecrest/angelnet/pkg/utils"
)

// DealCommandService 交易与认购的写路径
type DealCommandService struct {
	deals       domain.DealRepository
	commitments domain.CommitmentRepository
	events      domain.EventPublisher
	cache       ListingCache
	metrics     *metrics.Metrics
}

func NewDealCommandService(
	deals domain.DealRepository,
	commitments domain.CommitmentRepository,
	events domain.EventPublisher,
	cache ListingCache,
	m *metrics.Metrics,
) *DealCommandService {
	return &DealCommandService{
		deals:       deals,
		commitments: commitments,
		events:      events,
		cache:       cache,
		metrics:     m,
	}
}

// CreateDealCommand 创建交易命令
type CreateDealCommand struct {
	CompanyName   string
	Sector        string
	Stage         string
	Instrument    domain.Instrument
	Vehicle       domain.Vehicle
	TargetAmount  decimal.Decimal
	MinCommitment decimal.Decimal
	MaxCommitment decimal.Decimal
	Valuation     decimal.Decimal
}

// CreateDeal 创建草稿态交易
func (s *DealCommandService) CreateDeal(ctx context.Context, cmd CreateDealCommand) (*domain.Deal, error) {
	deal := domain.NewDeal(
		utils.NewID("deal"),
		cmd.CompanyName,
		cmd.Sector,
		cmd.Stage,
		cmd.Instrument,
		cmd.Vehicle,
		cmd.TargetAmount,
		cmd.MinCommitment,
		cmd.MaxCommitment,
		cmd.Valuation,
	)

	if err := s.deals.Save(ctx, deal); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.DealsTotal.Inc()
	}

	return deal, nil
}

// UpdateDeal 更新交易信息；仅 draft 状态允许
func (s *DealCommandService) UpdateDeal(ctx context.Context, dealID string, cmd CreateDealCommand) (*domain.Deal, error) {
	deal, err := s.getDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if deal.Status != domain.DealStatusDraft {
		return nil, domain.ErrDealNotEditable
	}

	deal.CompanyName = cmd.CompanyName
	deal.Sector = cmd.Sector
	deal.Stage = cmd.Stage
	deal.Instrument = cmd.Instrument
	deal.Vehicle = cmd.Vehicle
	deal.TargetAmount = cmd.TargetAmount
	deal.MinCommitment = cmd.MinCommitment
	deal.MaxCommitment = cmd.MaxCommitment
	deal.Valuation = cmd.Valuation

	if err := s.deals.Save(ctx, deal); err != nil {
		return nil, err
	}
	return deal, nil
}

// TransitionDeal 按静态邻接表流转交易状态
func (s *DealCommandService) TransitionDeal(ctx context.Context, dealID string, target domain.DealStatus) (*domain.Deal, error) {
	deal, err := s.getDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}

	from := deal.Status
	if !domain.CanTransition(from, target) {
		return nil, domain.ErrInvalidTransition
	}

	deal.Status = target
	if err := s.deals.Save(ctx, deal); err != nil {
		return nil, err
	}

	s.invalidateListing(ctx)

	if s.metrics != nil {
		s.metrics.DealTransitionsTotal.Inc()
	}

	s.publish(ctx, domain.DealEvent{
		Event:      domain.EventDealStatusChanged,
		DealID:     deal.DealID,
		FromStatus: string(from),
		ToStatus:   string(target),
	})

	return deal, nil
}

// ExpressInterest 投资人表达认购意向，创建 pending 认购
func (s *DealCommandService) ExpressInterest(ctx context.Context, dealID, investorID string, amount decimal.Decimal) (*domain.DealCommitment, error) {
	deal, err := s.getDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if !deal.IsOpenForCommitments() {
		return nil, domain.ErrDealNotOpen
	}

	commitment := domain.NewCommitment(utils.NewID("cmt"), deal.DealID, investorID, amount)
	if err := s.commitments.Save(ctx, commitment); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.CommitmentsTotal.Inc()
	}

	s.publish(ctx, domain.DealEvent{
		Event:        domain.EventCommitmentCreated,
		DealID:       deal.DealID,
		CommitmentID: commitment.CommitmentID,
		InvestorID:   investorID,
		ToStatus:     string(commitment.Status),
	})

	return commitment, nil
}

// ConfirmCommitment 投资人确认认购；金额必须落在交易的单笔区间内
func (s *DealCommandService) ConfirmCommitment(ctx context.Context, commitmentID, investorID string) (*domain.DealCommitment, error) {
	commitment, err := s.getCommitment(ctx, commitmentID)
	if err != nil {
		return nil, err
	}
	if commitment.InvestorID != investorID {
		return nil, domain.ErrCommitmentNotFound
	}

	deal, err := s.getDeal(ctx, commitment.DealID)
	if err != nil {
		return nil, err
	}
	if commitment.Amount.LessThan(deal.MinCommitment) || commitment.Amount.GreaterThan(deal.MaxCommitment) {
		return nil, domain.ErrCommitmentAmountOutOfRange
	}

	return s.advance(ctx, commitment, domain.CommitmentCommitted)
}

// AdvanceCommitment 管理端推进认购状态
func (s *DealCommandService) AdvanceCommitment(ctx context.Context, commitmentID string, target domain.CommitmentStatus) (*domain.DealCommitment, error) {
	commitment, err := s.getCommitment(ctx, commitmentID)
	if err != nil {
		return nil, err
	}
	return s.advance(ctx, commitment, target)
}

// CancelCommitment 投资人取消认购；payment-received 之后不可取消
func (s *DealCommandService) CancelCommitment(ctx context.Context, commitmentID, investorID string) (*domain.DealCommitment, error) {
	commitment, err := s.getCommitment(ctx, commitmentID)
	if err != nil {
		return nil, err
	}
	if commitment.InvestorID != investorID {
		return nil, domain.ErrCommitmentNotFound
	}

	updated, err := s.advance(ctx, commitment, domain.CommitmentCancelled)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, domain.DealEvent{
		Event:        domain.EventCommitmentCancelled,
		DealID:       updated.DealID,
		CommitmentID: updated.CommitmentID,
		InvestorID:   updated.InvestorID,
		ToStatus:     string(updated.Status),
	})
	return updated, nil
}

// MarkPaymentReceived 支付校验通过后推进认购到 payment-received
func (s *DealCommandService) MarkPaymentReceived(ctx context.Context, commitmentID, paymentRef string) error {
	commitment, err := s.getCommitment(ctx, commitmentID)
	if err != nil {
		return err
	}

	if !domain.CanCommitmentTransition(commitment.Status, domain.CommitmentPaymentReceived) {
		return domain.ErrInvalidCommitmentTransition
	}

	commitment.Status = domain.CommitmentPaymentReceived
	commitment.PaymentRef = paymentRef
	if err := s.commitments.Save(ctx, commitment); err != nil {
		return err
	}

	s.publish(ctx, domain.DealEvent{
		Event:        domain.EventCommitmentAdvanced,
		DealID:       commitment.DealID,
		CommitmentID: commitment.CommitmentID,
		InvestorID:   commitment.InvestorID,
		ToStatus:     string(commitment.Status),
	})
	return nil
}

func (s *DealCommandService) advance(ctx context.Context, commitment *domain.DealCommitment, target domain.CommitmentStatus) (*domain.DealCommitment, error) {
	from := commitment.Status
	if !domain.CanCommitmentTransition(from, target) {
		return nil, domain.ErrInvalidCommitmentTransition
	}

	commitment.Status = target
	if err := s.commitments.Save(ctx, commitment); err != nil {
		return nil, err
	}

	s.publish(ctx, domain.DealEvent{
		Event:        domain.EventCommitmentAdvanced,
		DealID:       commitment.DealID,
		CommitmentID: commitment.CommitmentID,
		InvestorID:   commitment.InvestorID,
		FromStatus:   string(from),
		ToStatus:     string(target),
	})

	return commitment, nil
}

func (s *DealCommandService) getDeal(ctx context.Context, dealID string) (*domain.Deal, error) {
	deal, err := s.deals.Get(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if deal == nil {
		return nil, domain.ErrDealNotFound
	}
	return deal, nil
}

func (s *DealCommandService) getCommitment(ctx context.Context, commitmentID string) (*domain.DealCommitment, error) {
	commitment, err := s.commitments.Get(ctx, commitmentID)
	if err != nil {
		return nil, err
	}
	if commitment == nil {
		return nil, domain.ErrCommitmentNotFound
	}
	return commitment, nil
}

func (s *DealCommandService) invalidateListing(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, listingCacheKey); err != nil {
		logger.Warn(ctx, "Failed to invalidate deal listing cache", "error", err)
	}
}

func (s *DealCommandService) publish(ctx context.Context, event domain.DealEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishDealEvent(ctx, event); err != nil {
		logger.Error(ctx, "Failed to publish deal event", "event", event.Event, "deal_id", event.DealID, "error", err)
	}
}
