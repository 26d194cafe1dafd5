package application

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venturecrest/angelnet/internal/spv/domain"
)

type fakeSPVRepo struct {
	spvs map[string]*domain.SPV
}

func (r *fakeSPVRepo) Save(_ context.Context, spv *domain.SPV) error {
	r.spvs[spv.SPVID] = spv
	return nil
}

func (r *fakeSPVRepo) Get(_ context.Context, spvID string) (*domain.SPV, error) {
	return r.spvs[spvID], nil
}

func (r *fakeSPVRepo) ListByDeal(_ context.Context, dealID string) ([]*domain.SPV, error) {
	var out []*domain.SPV
	for _, spv := range r.spvs {
		if spv.DealID == dealID {
			out = append(out, spv)
		}
	}
	return out, nil
}

type fakeInvitationRepo struct {
	invitations map[string]*domain.SPVInvitation
}

func (r *fakeInvitationRepo) Save(_ context.Context, inv *domain.SPVInvitation) error {
	r.invitations[inv.InvitationID] = inv
	return nil
}

func (r *fakeInvitationRepo) SaveAll(_ context.Context, invs []*domain.SPVInvitation) error {
	for _, inv := range invs {
		r.invitations[inv.InvitationID] = inv
	}
	return nil
}

func (r *fakeInvitationRepo) Get(_ context.Context, id string) (*domain.SPVInvitation, error) {
	return r.invitations[id], nil
}

func (r *fakeInvitationRepo) ListBySPV(_ context.Context, spvID string) ([]*domain.SPVInvitation, error) {
	var out []*domain.SPVInvitation
	for _, inv := range r.invitations {
		if inv.SPVID == spvID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r *fakeInvitationRepo) ListByInvestor(_ context.Context, investorID string) ([]*domain.SPVInvitation, error) {
	var out []*domain.SPVInvitation
	for _, inv := range r.invitations {
		if inv.InvestorID == investorID {
			out = append(out, inv)
		}
	}
	return out, nil
}

type fakeDealChecker struct {
	existing map[string]bool
}

func (c *fakeDealChecker) DealExists(_ context.Context, dealID string) (bool, error) {
	return c.existing[dealID], nil
}

func newSPVService() (*SPVService, *fakeDealChecker) {
	checker := &fakeDealChecker{existing: map[string]bool{"deal_1": true}}
	svc := NewSPVService(
		&fakeSPVRepo{spvs: map[string]*domain.SPV{}},
		&fakeInvitationRepo{invitations: map[string]*domain.SPVInvitation{}},
		checker,
	)
	return svc, checker
}

func createSPV(t *testing.T, svc *SPVService, target int64) *domain.SPV {
	t.Helper()
	spv, err := svc.CreateSPV(context.Background(), CreateSPVCommand{
		DealID:       "deal_1",
		EntityName:   "Acme Syndicate LLP",
		Partners:     []string{"VentureCrest Partners"},
		TargetAmount: decimal.NewFromInt(target),
	})
	require.NoError(t, err)
	return spv
}

func TestCreateSPV(t *testing.T) {
	svc, _ := newSPVService()

	spv := createSPV(t, svc, 1000000)
	assert.Equal(t, domain.SPVForming, spv.Status)
	assert.Equal(t, "deal_1", spv.DealID)

	// 交易不存在时拒绝建 SPV
	_, err := svc.CreateSPV(context.Background(), CreateSPVCommand{DealID: "deal_missing", EntityName: "x"})
	assert.ErrorIs(t, err, domain.ErrSPVNotFound)
}

func TestSPVLifecycleGuards(t *testing.T) {
	svc, _ := newSPVService()
	ctx := context.Background()
	spv := createSPV(t, svc, 1000000)

	// forming 不能直接 close
	_, err := svc.CloseSPV(ctx, spv.SPVID)
	assert.ErrorIs(t, err, domain.ErrSPVNotAllocatable)

	opened, err := svc.OpenSPV(ctx, spv.SPVID)
	require.NoError(t, err)
	assert.Equal(t, domain.SPVOpen, opened.Status)

	// 重复 open 拒绝
	_, err = svc.OpenSPV(ctx, spv.SPVID)
	assert.ErrorIs(t, err, domain.ErrSPVNotOpen)
}

func TestInvitationFlow(t *testing.T) {
	svc, _ := newSPVService()
	ctx := context.Background()
	spv := createSPV(t, svc, 1000000)

	invitation, err := svc.InviteInvestor(ctx, spv.SPVID, "usr_1", decimal.NewFromInt(400000))
	require.NoError(t, err)
	assert.Equal(t, domain.InvitationPending, invitation.Status)

	// SPV 未 open 前不能响应
	_, err = svc.RespondInvitation(ctx, invitation.InvitationID, "usr_1", true, decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrSPVNotOpen)

	_, err = svc.OpenSPV(ctx, spv.SPVID)
	require.NoError(t, err)

	// 只有受邀人本人能响应
	_, err = svc.RespondInvitation(ctx, invitation.InvitationID, "usr_other", true, decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvitationNotFound)

	// 接受时承诺金额缺省为邀约额
	accepted, err := svc.RespondInvitation(ctx, invitation.InvitationID, "usr_1", true, decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, domain.InvitationAccepted, accepted.Status)
	assert.True(t, accepted.CommittedAmount.Equal(decimal.NewFromInt(400000)))

	// 响应过的邀约不可再改
	_, err = svc.RespondInvitation(ctx, invitation.InvitationID, "usr_1", false, decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvitationResponded)
}

func TestAllocateSPV(t *testing.T) {
	svc, _ := newSPVService()
	ctx := context.Background()
	spv := createSPV(t, svc, 1000000)

	// open 之前不可分配
	_, _, err := svc.AllocateSPV(ctx, spv.SPVID)
	assert.ErrorIs(t, err, domain.ErrSPVNotAllocatable)

	inv1, err := svc.InviteInvestor(ctx, spv.SPVID, "usr_1", decimal.NewFromInt(900000))
	require.NoError(t, err)
	inv2, err := svc.InviteInvestor(ctx, spv.SPVID, "usr_2", decimal.NewFromInt(600000))
	require.NoError(t, err)
	inv3, err := svc.InviteInvestor(ctx, spv.SPVID, "usr_3", decimal.NewFromInt(300000))
	require.NoError(t, err)

	_, err = svc.OpenSPV(ctx, spv.SPVID)
	require.NoError(t, err)

	_, err = svc.RespondInvitation(ctx, inv1.InvitationID, "usr_1", true, decimal.Zero)
	require.NoError(t, err)
	_, err = svc.RespondInvitation(ctx, inv2.InvitationID, "usr_2", true, decimal.Zero)
	require.NoError(t, err)
	// 第三人拒绝，不参与分配
	_, err = svc.RespondInvitation(ctx, inv3.InvitationID, "usr_3", false, decimal.Zero)
	require.NoError(t, err)

	allocated, participants, err := svc.AllocateSPV(ctx, spv.SPVID)
	require.NoError(t, err)
	assert.Equal(t, domain.SPVAllocated, allocated.Status)
	require.Len(t, participants, 2)

	total := decimal.Zero
	for _, p := range participants {
		total = total.Add(p.AllocatedAmount)
	}
	assert.True(t, total.Equal(decimal.NewFromInt(1000000)), "allocations must sum to target, got %s", total)

	// allocated 后可关闭
	closed, err := svc.CloseSPV(ctx, spv.SPVID)
	require.NoError(t, err)
	assert.Equal(t, domain.SPVClosed, closed.Status)
}

func TestAllocateSPVNoAcceptances(t *testing.T) {
	svc, _ := newSPVService()
	ctx := context.Background()
	spv := createSPV(t, svc, 1000000)

	_, err := svc.OpenSPV(ctx, spv.SPVID)
	require.NoError(t, err)

	_, _, err = svc.AllocateSPV(ctx, spv.SPVID)
	assert.ErrorIs(t, err, domain.ErrNoAcceptedInvitations)
}
