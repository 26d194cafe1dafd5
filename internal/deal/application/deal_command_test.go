package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venturecrest/angelnet/internal/deal/domain"
)

type fakeDealRepo struct {
	deals map[string]*domain.Deal
}

func (r *fakeDealRepo) Save(_ context.Context, deal *domain.Deal) error {
	r.deals[deal.DealID] = deal
	return nil
}

func (r *fakeDealRepo) Get(_ context.Context, dealID string) (*domain.Deal, error) {
	return r.deals[dealID], nil
}

func (r *fakeDealRepo) List(_ context.Context, statuses []domain.DealStatus, _, _ int) ([]*domain.Deal, int64, error) {
	var out []*domain.Deal
	for _, deal := range r.deals {
		for _, status := range statuses {
			if deal.Status == status {
				out = append(out, deal)
			}
		}
	}
	return out, int64(len(out)), nil
}

type fakeCommitmentRepo struct {
	commitments map[string]*domain.DealCommitment
}

func (r *fakeCommitmentRepo) Save(_ context.Context, c *domain.DealCommitment) error {
	r.commitments[c.CommitmentID] = c
	return nil
}

func (r *fakeCommitmentRepo) Get(_ context.Context, id string) (*domain.DealCommitment, error) {
	return r.commitments[id], nil
}

func (r *fakeCommitmentRepo) ListByDeal(_ context.Context, dealID string, _, _ int) ([]*domain.DealCommitment, int64, error) {
	var out []*domain.DealCommitment
	for _, c := range r.commitments {
		if c.DealID == dealID {
			out = append(out, c)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeCommitmentRepo) ListByInvestor(_ context.Context, investorID string, _, _ int) ([]*domain.DealCommitment, int64, error) {
	var out []*domain.DealCommitment
	for _, c := range r.commitments {
		if c.InvestorID == investorID {
			out = append(out, c)
		}
	}
	return out, int64(len(out)), nil
}

type fakeListingCache struct {
	deleted []string
}

func (c *fakeListingCache) Get(_ context.Context, _ string, _ interface{}) error {
	return errors.New("cache miss")
}

func (c *fakeListingCache) Set(_ context.Context, _ string, _ interface{}, _ time.Duration) error {
	return nil
}

func (c *fakeListingCache) Delete(_ context.Context, keys ...string) error {
	c.deleted = append(c.deleted, keys...)
	return nil
}

type capturedDealEvents struct {
	events []domain.DealEvent
}

func (c *capturedDealEvents) PublishDealEvent(_ context.Context, e domain.DealEvent) error {
	c.events = append(c.events, e)
	return nil
}

func newCommandService() (*DealCommandService, *fakeDealRepo, *fakeCommitmentRepo, *fakeListingCache, *capturedDealEvents) {
	deals := &fakeDealRepo{deals: map[string]*domain.Deal{}}
	commitments := &fakeCommitmentRepo{commitments: map[string]*domain.DealCommitment{}}
	cache := &fakeListingCache{}
	events := &capturedDealEvents{}
	svc := NewDealCommandService(deals, commitments, events, cache, nil)
	return svc, deals, commitments, cache, events
}

func sampleDealCommand() CreateDealCommand {
	return CreateDealCommand{
		CompanyName:   "Acme Robotics",
		Sector:        "deeptech",
		Stage:         "seed",
		Instrument:    domain.InstrumentCCD,
		Vehicle:       domain.VehicleSPV,
		TargetAmount:  decimal.NewFromInt(20000000),
		MinCommitment: decimal.NewFromInt(100000),
		MaxCommitment: decimal.NewFromInt(2000000),
		Valuation:     decimal.NewFromInt(120000000),
	}
}

func TestCreateAndUpdateDeal(t *testing.T) {
	svc, _, _, _, _ := newCommandService()
	ctx := context.Background()

	deal, err := svc.CreateDeal(ctx, sampleDealCommand())
	require.NoError(t, err)
	assert.Equal(t, domain.DealStatusDraft, deal.Status)

	cmd := sampleDealCommand()
	cmd.CompanyName = "Acme Robotics Pvt Ltd"
	updated, err := svc.UpdateDeal(ctx, deal.DealID, cmd)
	require.NoError(t, err)
	assert.Equal(t, "Acme Robotics Pvt Ltd", updated.CompanyName)

	// live 之后不再可编辑
	_, err = svc.TransitionDeal(ctx, deal.DealID, domain.DealStatusLive)
	require.NoError(t, err)
	_, err = svc.UpdateDeal(ctx, deal.DealID, cmd)
	assert.ErrorIs(t, err, domain.ErrDealNotEditable)
}

func TestTransitionDeal(t *testing.T) {
	svc, _, _, cache, events := newCommandService()
	ctx := context.Background()

	deal, err := svc.CreateDeal(ctx, sampleDealCommand())
	require.NoError(t, err)

	// 不允许跳状态
	_, err = svc.TransitionDeal(ctx, deal.DealID, domain.DealStatusClosed)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	for _, target := range []domain.DealStatus{
		domain.DealStatusLive, domain.DealStatusClosing, domain.DealStatusClosed,
		domain.DealStatusFunded, domain.DealStatusExited,
	} {
		transitioned, err := svc.TransitionDeal(ctx, deal.DealID, target)
		require.NoError(t, err, "transition to %s", target)
		assert.Equal(t, target, transitioned.Status)
	}

	// 终态拒绝一切流转
	_, err = svc.TransitionDeal(ctx, deal.DealID, domain.DealStatusLive)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// 每次流转失效一次列表缓存并发布事件
	assert.Len(t, cache.deleted, 5)
	require.Len(t, events.events, 5)
	assert.Equal(t, domain.EventDealStatusChanged, events.events[0].Event)
	assert.Equal(t, string(domain.DealStatusDraft), events.events[0].FromStatus)
	assert.Equal(t, string(domain.DealStatusLive), events.events[0].ToStatus)

	_, err = svc.TransitionDeal(ctx, "deal_missing", domain.DealStatusLive)
	assert.ErrorIs(t, err, domain.ErrDealNotFound)
}

func TestExpressInterest(t *testing.T) {
	svc, _, _, _, _ := newCommandService()
	ctx := context.Background()

	deal, err := svc.CreateDeal(ctx, sampleDealCommand())
	require.NoError(t, err)

	// draft 不接受认购
	_, err = svc.ExpressInterest(ctx, deal.DealID, "usr_1", decimal.NewFromInt(500000))
	assert.ErrorIs(t, err, domain.ErrDealNotOpen)

	_, err = svc.TransitionDeal(ctx, deal.DealID, domain.DealStatusLive)
	require.NoError(t, err)

	commitment, err := svc.ExpressInterest(ctx, deal.DealID, "usr_1", decimal.NewFromInt(500000))
	require.NoError(t, err)
	assert.Equal(t, domain.CommitmentPending, commitment.Status)
	assert.Equal(t, deal.DealID, commitment.DealID)
}

func TestConfirmCommitmentBounds(t *testing.T) {
	tests := []struct {
		name    string
		amount  int64
		wantErr error
	}{
		{"below deal minimum", 99999, domain.ErrCommitmentAmountOutOfRange},
		{"at minimum", 100000, nil},
		{"at maximum", 2000000, nil},
		{"above deal maximum", 2000001, domain.ErrCommitmentAmountOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _, _, _ := newCommandService()
			ctx := context.Background()

			deal, err := svc.CreateDeal(ctx, sampleDealCommand())
			require.NoError(t, err)
			_, err = svc.TransitionDeal(ctx, deal.DealID, domain.DealStatusLive)
			require.NoError(t, err)

			commitment, err := svc.ExpressInterest(ctx, deal.DealID, "usr_1", decimal.NewFromInt(tt.amount))
			require.NoError(t, err)

			confirmed, err := svc.ConfirmCommitment(ctx, commitment.CommitmentID, "usr_1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, domain.CommitmentCommitted, confirmed.Status)
			}
		})
	}
}

func TestConfirmCommitmentOwnership(t *testing.T) {
	svc, _, _, _, _ := newCommandService()
	ctx := context.Background()

	deal, err := svc.CreateDeal(ctx, sampleDealCommand())
	require.NoError(t, err)
	_, err = svc.TransitionDeal(ctx, deal.DealID, domain.DealStatusLive)
	require.NoError(t, err)
	commitment, err := svc.ExpressInterest(ctx, deal.DealID, "usr_1", decimal.NewFromInt(500000))
	require.NoError(t, err)

	_, err = svc.ConfirmCommitment(ctx, commitment.CommitmentID, "usr_other")
	assert.ErrorIs(t, err, domain.ErrCommitmentNotFound)
}

func TestCommitmentLifecycle(t *testing.T) {
	svc, _, _, _, events := newCommandService()
	ctx := context.Background()

	deal, err := svc.CreateDeal(ctx, sampleDealCommand())
	require.NoError(t, err)
	_, err = svc.TransitionDeal(ctx, deal.DealID, domain.DealStatusLive)
	require.NoError(t, err)
	commitment, err := svc.ExpressInterest(ctx, deal.DealID, "usr_1", decimal.NewFromInt(500000))
	require.NoError(t, err)
	_, err = svc.ConfirmCommitment(ctx, commitment.CommitmentID, "usr_1")
	require.NoError(t, err)

	// 管理端推进到待支付
	_, err = svc.AdvanceCommitment(ctx, commitment.CommitmentID, domain.CommitmentDocumentsPending)
	require.NoError(t, err)
	_, err = svc.AdvanceCommitment(ctx, commitment.CommitmentID, domain.CommitmentPaymentPending)
	require.NoError(t, err)

	// 支付回调推进到收款
	require.NoError(t, svc.MarkPaymentReceived(ctx, commitment.CommitmentID, "pay_1"))
	assert.Equal(t, "pay_1", commitment.PaymentRef)
	assert.Equal(t, domain.CommitmentPaymentReceived, commitment.Status)

	// 收款后不可取消
	_, err = svc.CancelCommitment(ctx, commitment.CommitmentID, "usr_1")
	assert.ErrorIs(t, err, domain.ErrInvalidCommitmentTransition)

	// 重复标记收款拒绝
	assert.ErrorIs(t, svc.MarkPaymentReceived(ctx, commitment.CommitmentID, "pay_2"), domain.ErrInvalidCommitmentTransition)

	_, err = svc.AdvanceCommitment(ctx, commitment.CommitmentID, domain.CommitmentFunded)
	require.NoError(t, err)

	var kinds []string
	for _, e := range events.events {
		kinds = append(kinds, e.Event)
	}
	assert.Contains(t, kinds, domain.EventCommitmentCreated)
	assert.Contains(t, kinds, domain.EventCommitmentAdvanced)
}

func TestCancelCommitment(t *testing.T) {
	svc, _, _, _, events := newCommandService()
	ctx := context.Background()

	deal, err := svc.CreateDeal(ctx, sampleDealCommand())
	require.NoError(t, err)
	_, err = svc.TransitionDeal(ctx, deal.DealID, domain.DealStatusLive)
	require.NoError(t, err)
	commitment, err := svc.ExpressInterest(ctx, deal.DealID, "usr_1", decimal.NewFromInt(500000))
	require.NoError(t, err)

	// 只有本人能取消
	_, err = svc.CancelCommitment(ctx, commitment.CommitmentID, "usr_other")
	assert.ErrorIs(t, err, domain.ErrCommitmentNotFound)

	cancelled, err := svc.CancelCommitment(ctx, commitment.CommitmentID, "usr_1")
	require.NoError(t, err)
	assert.Equal(t, domain.CommitmentCancelled, cancelled.Status)

	last := events.events[len(events.events)-1]
	assert.Equal(t, domain.EventCommitmentCancelled, last.Event)
}
