package application

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venturecrest/angelnet/internal/compliance/domain"
)

type fakeKYCRepo struct {
	records map[string]*domain.KYCRecord
}

func (r *fakeKYCRepo) Save(_ context.Context, record *domain.KYCRecord) error {
	r.records[record.RecordID] = record
	return nil
}

func (r *fakeKYCRepo) Get(_ context.Context, id string) (*domain.KYCRecord, error) {
	return r.records[id], nil
}

func (r *fakeKYCRepo) ListByUser(_ context.Context, userID string) ([]*domain.KYCRecord, error) {
	var out []*domain.KYCRecord
	for _, record := range r.records {
		if record.UserID == userID {
			out = append(out, record)
		}
	}
	return out, nil
}

func (r *fakeKYCRepo) List(_ context.Context, status domain.KYCStatus, _, _ int) ([]*domain.KYCRecord, int64, error) {
	var out []*domain.KYCRecord
	for _, record := range r.records {
		if status == "" || record.Status == status {
			out = append(out, record)
		}
	}
	return out, int64(len(out)), nil
}

type fakeScreeningRepo struct {
	screenings map[string]*domain.AMLScreening
}

func (r *fakeScreeningRepo) Save(_ context.Context, s *domain.AMLScreening) error {
	r.screenings[s.ScreeningID] = s
	return nil
}

func (r *fakeScreeningRepo) Get(_ context.Context, id string) (*domain.AMLScreening, error) {
	return r.screenings[id], nil
}

func (r *fakeScreeningRepo) ListByUser(_ context.Context, userID string) ([]*domain.AMLScreening, error) {
	var out []*domain.AMLScreening
	for _, s := range r.screenings {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeScreeningRepo) List(_ context.Context, status domain.ScreeningStatus, _, _ int) ([]*domain.AMLScreening, int64, error) {
	var out []*domain.AMLScreening
	for _, s := range r.screenings {
		if status == "" || s.Status == status {
			out = append(out, s)
		}
	}
	return out, int64(len(out)), nil
}

type fakeReviewRepo struct {
	reviews []*domain.AccreditationReview
}

func (r *fakeReviewRepo) Save(_ context.Context, review *domain.AccreditationReview) error {
	r.reviews = append(r.reviews, review)
	return nil
}

func (r *fakeReviewRepo) ListByApplication(_ context.Context, applicationID string) ([]*domain.AccreditationReview, error) {
	var out []*domain.AccreditationReview
	for _, review := range r.reviews {
		if review.ApplicationID == applicationID {
			out = append(out, review)
		}
	}
	return out, nil
}

type fakeStorage struct {
	files map[string][]byte
}

func (s *fakeStorage) Save(_ context.Context, category, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	ref := category + "/" + filename
	s.files[ref] = data
	return ref, nil
}

func (s *fakeStorage) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.files[ref])), nil
}

func (s *fakeStorage) Delete(_ context.Context, ref string) error {
	delete(s.files, ref)
	return nil
}

type fakeVerifier struct {
	verified []string
}

func (v *fakeVerifier) VerifyAccreditation(_ context.Context, applicationID string) error {
	v.verified = append(v.verified, applicationID)
	return nil
}

func newComplianceService() (*ComplianceService, *fakeStorage, *fakeVerifier, *fakeReviewRepo) {
	files := &fakeStorage{files: map[string][]byte{}}
	verifier := &fakeVerifier{}
	reviews := &fakeReviewRepo{}
	svc := NewComplianceService(
		&fakeKYCRepo{records: map[string]*domain.KYCRecord{}},
		&fakeScreeningRepo{screenings: map[string]*domain.AMLScreening{}},
		reviews,
		files,
		verifier,
	)
	return svc, files, verifier, reviews
}

func TestSubmitKYC(t *testing.T) {
	svc, files, _, _ := newComplianceService()
	ctx := context.Background()

	record, err := svc.SubmitKYC(ctx, "usr_1", domain.DocumentPAN, "pan.pdf", strings.NewReader("pan card scan"))
	require.NoError(t, err)

	assert.Equal(t, domain.KYCPending, record.Status)
	assert.Equal(t, domain.DocumentPAN, record.DocumentType)
	assert.Equal(t, []byte("pan card scan"), files.files[record.FileRef])

	// 文件可按记录回读
	f, got, err := svc.OpenKYCFile(ctx, record.RecordID)
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "pan card scan", string(data))
	assert.Equal(t, record.RecordID, got.RecordID)
}

func TestSubmitKYCInvalidDocumentType(t *testing.T) {
	svc, files, _, _ := newComplianceService()

	_, err := svc.SubmitKYC(context.Background(), "usr_1", "voter_id", "card.pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, domain.ErrInvalidDocumentType)
	assert.Empty(t, files.files, "invalid submissions must not be stored")
}

func TestReviewKYCFlow(t *testing.T) {
	svc, _, _, _ := newComplianceService()
	ctx := context.Background()

	record, err := svc.SubmitKYC(ctx, "usr_1", domain.DocumentAadhaar, "aadhaar.pdf", strings.NewReader("x"))
	require.NoError(t, err)

	// pending 不能直接 verified
	_, err = svc.ReviewKYC(ctx, record.RecordID, "ops_1", domain.KYCVerified, "")
	assert.ErrorIs(t, err, domain.ErrInvalidKYCTransition)

	_, err = svc.ReviewKYC(ctx, record.RecordID, "ops_1", domain.KYCInReview, "")
	require.NoError(t, err)

	rejected, err := svc.ReviewKYC(ctx, record.RecordID, "ops_1", domain.KYCRejected, "blurry scan")
	require.NoError(t, err)
	assert.Equal(t, domain.KYCRejected, rejected.Status)
	assert.Equal(t, "blurry scan", rejected.Note)
	require.NotNil(t, rejected.ReviewedAt)

	// 驳回后可重新提审并通过
	_, err = svc.ReviewKYC(ctx, record.RecordID, "ops_2", domain.KYCInReview, "")
	require.NoError(t, err)
	verified, err := svc.ReviewKYC(ctx, record.RecordID, "ops_2", domain.KYCVerified, "")
	require.NoError(t, err)
	assert.Equal(t, domain.KYCVerified, verified.Status)
	assert.Equal(t, "ops_2", verified.Reviewer)
}

func TestReviewKYCNotFound(t *testing.T) {
	svc, _, _, _ := newComplianceService()
	_, err := svc.ReviewKYC(context.Background(), "kyc_missing", "ops_1", domain.KYCInReview, "")
	assert.ErrorIs(t, err, domain.ErrKYCRecordNotFound)
}

func TestRunScreening(t *testing.T) {
	svc, _, _, _ := newComplianceService()
	ctx := context.Background()

	first, err := svc.RunScreening(ctx, "usr_1", domain.ScreeningSanctions)
	require.NoError(t, err)
	second, err := svc.RunScreening(ctx, "usr_1", domain.ScreeningSanctions)
	require.NoError(t, err)

	// 同一主体同类筛查的风险分是确定性的
	assert.Equal(t, first.RiskScore, second.RiskScore)
	assert.GreaterOrEqual(t, first.RiskScore, 0)
	assert.Less(t, first.RiskScore, 100)

	// 阈值与初始状态一致
	if first.RiskScore >= riskFlagThreshold {
		assert.Equal(t, domain.ScreeningFlagged, first.Status)
	} else {
		assert.Equal(t, domain.ScreeningPending, first.Status)
	}

	_, err = svc.RunScreening(ctx, "usr_1", "watchlist")
	assert.ErrorIs(t, err, domain.ErrInvalidScreeningType)
}

func TestResolveScreening(t *testing.T) {
	svc, _, _, _ := newComplianceService()
	ctx := context.Background()

	screening, err := svc.RunScreening(ctx, "usr_1", domain.ScreeningPEP)
	require.NoError(t, err)

	resolved, err := svc.ResolveScreening(ctx, screening.ScreeningID, "ops_1", domain.ScreeningClear, "no match")
	require.NoError(t, err)
	assert.Equal(t, domain.ScreeningClear, resolved.Status)
	assert.Equal(t, "ops_1", resolved.ResolvedBy)
	require.NotNil(t, resolved.ResolvedAt)

	// clear 为终态
	_, err = svc.ResolveScreening(ctx, screening.ScreeningID, "ops_1", domain.ScreeningFlagged, "")
	assert.ErrorIs(t, err, domain.ErrInvalidScreeningTransition)
}

func TestDecideAccreditation(t *testing.T) {
	svc, _, verifier, reviews := newComplianceService()
	ctx := context.Background()

	_, err := svc.DecideAccreditation(ctx, "app_1", "ops_1", "deferred", "")
	assert.ErrorIs(t, err, domain.ErrInvalidDecision)

	approved, err := svc.DecideAccreditation(ctx, "app_1", "ops_1", domain.DecisionApproved, "net worth verified")
	require.NoError(t, err)
	require.NotNil(t, approved.ValidUntil)
	// 批准回写申请侧认证状态
	assert.Equal(t, []string{"app_1"}, verifier.verified)

	rejected, err := svc.DecideAccreditation(ctx, "app_2", "ops_1", domain.DecisionRejected, "insufficient evidence")
	require.NoError(t, err)
	assert.Nil(t, rejected.ValidUntil)
	assert.Len(t, verifier.verified, 1, "rejection must not touch the application")

	listed, err := svc.ListAccreditationReviews(ctx, "app_1")
	require.NoError(t, err)
	assert.Len(t, listed, 1)
	assert.Len(t, reviews.reviews, 2)
}
