package application

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venturecrest/angelnet/internal/intake/domain"
)

type fakeInvestorRepo struct {
	apps map[string]*domain.InvestorApplication
}

func (r *fakeInvestorRepo) Save(_ context.Context, app *domain.InvestorApplication) error {
	r.apps[app.ApplicationID] = app
	return nil
}

func (r *fakeInvestorRepo) Get(_ context.Context, id string) (*domain.InvestorApplication, error) {
	return r.apps[id], nil
}

func (r *fakeInvestorRepo) GetByUser(_ context.Context, userID string) (*domain.InvestorApplication, error) {
	for _, app := range r.apps {
		if app.UserID == userID {
			return app, nil
		}
	}
	return nil, nil
}

func (r *fakeInvestorRepo) List(_ context.Context, status domain.ReviewStatus, _, _ int) ([]*domain.InvestorApplication, int64, error) {
	var out []*domain.InvestorApplication
	for _, app := range r.apps {
		if status == "" || app.Status == status {
			out = append(out, app)
		}
	}
	return out, int64(len(out)), nil
}

type fakeFounderRepo struct {
	apps map[string]*domain.FounderApplication
}

func (r *fakeFounderRepo) Save(_ context.Context, app *domain.FounderApplication) error {
	r.apps[app.ApplicationID] = app
	return nil
}

func (r *fakeFounderRepo) Get(_ context.Context, id string) (*domain.FounderApplication, error) {
	return r.apps[id], nil
}

func (r *fakeFounderRepo) GetByUser(_ context.Context, userID string) (*domain.FounderApplication, error) {
	for _, app := range r.apps {
		if app.UserID == userID {
			return app, nil
		}
	}
	return nil, nil
}

func (r *fakeFounderRepo) List(_ context.Context, status domain.ReviewStatus, _, _ int) ([]*domain.FounderApplication, int64, error) {
	var out []*domain.FounderApplication
	for _, app := range r.apps {
		if status == "" || app.Status == status {
			out = append(out, app)
		}
	}
	return out, int64(len(out)), nil
}

type fakeRoleGranter struct {
	granted map[string][]string
}

func (g *fakeRoleGranter) GrantRole(_ context.Context, userID, role string) error {
	if g.granted == nil {
		g.granted = map[string][]string{}
	}
	g.granted[userID] = append(g.granted[userID], role)
	return nil
}

func newIntakeService() (*IntakeService, *fakeInvestorRepo, *fakeFounderRepo, *fakeRoleGranter) {
	investors := &fakeInvestorRepo{apps: map[string]*domain.InvestorApplication{}}
	founders := &fakeFounderRepo{apps: map[string]*domain.FounderApplication{}}
	roles := &fakeRoleGranter{}
	svc := NewIntakeService(investors, founders, roles, nil)
	return svc, investors, founders, roles
}

func TestSubmitInvestorApplication(t *testing.T) {
	svc, _, _, _ := newIntakeService()

	app, err := svc.SubmitInvestorApplication(context.Background(), SubmitInvestorCommand{
		UserID:       "usr_1",
		FullName:     "Asha Rao",
		Email:        "asha@example.com",
		PAN:          "ABCPR1234F",
		InvestorType: "individual",
		NetWorth:     decimal.NewFromInt(50000000),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, app.ApplicationID)
	assert.Equal(t, domain.StatusPendingReview, app.Status)
	assert.Equal(t, domain.AccreditationPending, app.AccreditationStatus)
}

func TestReviewInvestorApplicationFlow(t *testing.T) {
	svc, _, _, roles := newIntakeService()
	ctx := context.Background()

	app, err := svc.SubmitInvestorApplication(ctx, SubmitInvestorCommand{UserID: "usr_1", FullName: "Asha Rao", Email: "asha@example.com"})
	require.NoError(t, err)

	// 不允许从 pending_review 直接批准
	_, err = svc.ReviewInvestorApplication(ctx, app.ApplicationID, domain.StatusApproved, "")
	assert.ErrorIs(t, err, domain.ErrInvalidReviewTransition)
	assert.Empty(t, roles.granted)

	_, err = svc.ReviewInvestorApplication(ctx, app.ApplicationID, domain.StatusUnderReview, "")
	require.NoError(t, err)

	reviewed, err := svc.ReviewInvestorApplication(ctx, app.ApplicationID, domain.StatusApproved, "profile checks out")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, reviewed.Status)
	assert.Equal(t, "profile checks out", reviewed.ReviewerNote)

	// 批准即授予 investor 角色
	assert.Equal(t, []string{"investor"}, roles.granted["usr_1"])
}

func TestReviewFounderApplicationGrantsRole(t *testing.T) {
	svc, _, _, roles := newIntakeService()
	ctx := context.Background()

	app, err := svc.SubmitFounderApplication(ctx, SubmitFounderCommand{
		UserID:      "usr_2",
		FounderName: "Rohit Khanna",
		Email:       "rohit@example.com",
		CompanyName: "Acme Robotics",
		RaiseAmount: decimal.NewFromInt(20000000),
	})
	require.NoError(t, err)

	_, err = svc.ReviewFounderApplication(ctx, app.ApplicationID, domain.StatusUnderReview, "")
	require.NoError(t, err)
	_, err = svc.ReviewFounderApplication(ctx, app.ApplicationID, domain.StatusApproved, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"founder"}, roles.granted["usr_2"])
}

func TestReviewRejectionDoesNotGrantRole(t *testing.T) {
	svc, _, _, roles := newIntakeService()
	ctx := context.Background()

	app, err := svc.SubmitInvestorApplication(ctx, SubmitInvestorCommand{UserID: "usr_1", FullName: "Asha Rao", Email: "asha@example.com"})
	require.NoError(t, err)

	_, err = svc.ReviewInvestorApplication(ctx, app.ApplicationID, domain.StatusUnderReview, "")
	require.NoError(t, err)
	rejected, err := svc.ReviewInvestorApplication(ctx, app.ApplicationID, domain.StatusRejected, "net worth unverifiable")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusRejected, rejected.Status)
	assert.Empty(t, roles.granted)

	// 终态后不可再流转
	_, err = svc.ReviewInvestorApplication(ctx, app.ApplicationID, domain.StatusUnderReview, "")
	assert.ErrorIs(t, err, domain.ErrInvalidReviewTransition)
}

func TestWaitlistRoundTrip(t *testing.T) {
	svc, _, _, _ := newIntakeService()
	ctx := context.Background()

	app, err := svc.SubmitInvestorApplication(ctx, SubmitInvestorCommand{UserID: "usr_1", FullName: "Asha Rao", Email: "asha@example.com"})
	require.NoError(t, err)

	_, err = svc.ReviewInvestorApplication(ctx, app.ApplicationID, domain.StatusUnderReview, "")
	require.NoError(t, err)
	_, err = svc.ReviewInvestorApplication(ctx, app.ApplicationID, domain.StatusWaitlisted, "")
	require.NoError(t, err)

	// 候补后可重新进入审核并批准
	_, err = svc.ReviewInvestorApplication(ctx, app.ApplicationID, domain.StatusUnderReview, "")
	require.NoError(t, err)
	approved, err := svc.ReviewInvestorApplication(ctx, app.ApplicationID, domain.StatusApproved, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Status)
}

func TestVerifyAccreditation(t *testing.T) {
	svc, _, _, _ := newIntakeService()
	ctx := context.Background()

	app, err := svc.SubmitInvestorApplication(ctx, SubmitInvestorCommand{UserID: "usr_1", FullName: "Asha Rao", Email: "asha@example.com"})
	require.NoError(t, err)

	verified, err := svc.VerifyAccreditation(ctx, app.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, domain.AccreditationVerified, verified.AccreditationStatus)
	require.NotNil(t, verified.AccreditationExpiry)
	assert.True(t, verified.AccreditationExpiry.After(verified.CreatedAt))

	// 过期标记只接受 expired/rejected
	_, err = svc.ExpireAccreditation(ctx, app.ApplicationID, domain.AccreditationVerified)
	assert.ErrorIs(t, err, domain.ErrInvalidReviewTransition)

	expired, err := svc.ExpireAccreditation(ctx, app.ApplicationID, domain.AccreditationExpired)
	require.NoError(t, err)
	assert.Equal(t, domain.AccreditationExpired, expired.AccreditationStatus)
}

func TestGetOwnApplication(t *testing.T) {
	svc, _, _, _ := newIntakeService()
	ctx := context.Background()

	_, err := svc.GetOwnInvestorApplication(ctx, "usr_missing")
	assert.ErrorIs(t, err, domain.ErrApplicationNotFound)

	submitted, err := svc.SubmitInvestorApplication(ctx, SubmitInvestorCommand{UserID: "usr_1", FullName: "Asha Rao", Email: "asha@example.com"})
	require.NoError(t, err)

	got, err := svc.GetOwnInvestorApplication(ctx, "usr_1")
	require.NoError(t, err)
	assert.Equal(t, submitted.ApplicationID, got.ApplicationID)
}
