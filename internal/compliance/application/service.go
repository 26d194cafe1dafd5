package application

import (
	"context"
	"io"
	"time"

	"github.com/venturecrest/angelnet/internal/compliance/domain"
	"github.com/venturecrest/angelnet/pkg/logger"
	"github.com/venturecrest/angelnet/pkg/storage"
	"github.com/venturecrest/angelnet/pkg/utils"
)

// accreditationValidity 认证有效期，与申请模块保持一致
const accreditationValidity = 12 * 30 * 24 * time.Hour

// 风险分超过该阈值的筛查直接标记 flagged
const riskFlagThreshold = 75

// AccreditationVerifier 批准后回写申请侧认证状态；由申请模块实现
type AccreditationVerifier interface {
	VerifyAccreditation(ctx context.Context, applicationID string) error
}

// ComplianceService 合规流程服务
type ComplianceService struct {
	kyc           domain.KYCRepository
	screenings    domain.ScreeningRepository
	accreditation domain.AccreditationReviewRepository
	files         storage.Storage
	verifier      AccreditationVerifier
}

func NewComplianceService(
	kyc domain.KYCRepository,
	screenings domain.ScreeningRepository,
	accreditation domain.AccreditationReviewRepository,
	files storage.Storage,
	verifier AccreditationVerifier,
) *ComplianceService {
	return &ComplianceService{
		kyc:           kyc,
		screenings:    screenings,
		accreditation: accreditation,
		files:         files,
		verifier:      verifier,
	}
}

// SubmitKYC 上传 KYC 材料并落库为 pending 记录
func (s *ComplianceService) SubmitKYC(ctx context.Context, userID string, docType domain.DocumentType, filename string, file io.Reader) (*domain.KYCRecord, error) {
	if !domain.ValidDocumentType(docType) {
		return nil, domain.ErrInvalidDocumentType
	}

	ref, err := s.files.Save(ctx, "kyc", filename, file)
	if err != nil {
		return nil, err
	}

	record := &domain.KYCRecord{
		RecordID:     utils.NewID("kyc"),
		UserID:       userID,
		DocumentType: docType,
		FileRef:      ref,
		Status:       domain.KYCPending,
	}
	if err := s.kyc.Save(ctx, record); err != nil {
		return nil, err
	}

	logger.Info(ctx, "KYC document submitted", "record_id", record.RecordID, "user_id", userID, "document_type", docType)
	return record, nil
}

// ReviewKYC 审核 KYC 记录；目标状态必须合法
func (s *ComplianceService) ReviewKYC(ctx context.Context, recordID, reviewer string, target domain.KYCStatus, note string) (*domain.KYCRecord, error) {
	record, err := s.getKYC(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if !domain.CanKYCTransition(record.Status, target) {
		return nil, domain.ErrInvalidKYCTransition
	}

	now := time.Now()
	record.Status = target
	record.Reviewer = reviewer
	record.Note = note
	record.ReviewedAt = &now

	if err := s.kyc.Save(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *ComplianceService) GetKYC(ctx context.Context, recordID string) (*domain.KYCRecord, error) {
	return s.getKYC(ctx, recordID)
}

func (s *ComplianceService) ListOwnKYC(ctx context.Context, userID string) ([]*domain.KYCRecord, error) {
	return s.kyc.ListByUser(ctx, userID)
}

func (s *ComplianceService) ListKYC(ctx context.Context, status domain.KYCStatus, page, pageSize int) ([]*domain.KYCRecord, *utils.Pagination, error) {
	p := utils.NewPagination(page, pageSize, 0)
	records, total, err := s.kyc.List(ctx, status, p.Limit(), p.Offset())
	if err != nil {
		return nil, nil, err
	}
	return records, utils.NewPagination(p.Page, p.PageSize, total), nil
}

// OpenKYCFile 按记录读取材料文件，供审核下载
func (s *ComplianceService) OpenKYCFile(ctx context.Context, recordID string) (io.ReadCloser, *domain.KYCRecord, error) {
	record, err := s.getKYC(ctx, recordID)
	if err != nil {
		return nil, nil, err
	}
	f, err := s.files.Open(ctx, record.FileRef)
	if err != nil {
		return nil, nil, err
	}
	return f, record, nil
}

// RunScreening 发起一次 AML 筛查；风险分由主体指纹推导，超阈值直接 flagged
func (s *ComplianceService) RunScreening(ctx context.Context, userID string, screeningType domain.ScreeningType) (*domain.AMLScreening, error) {
	if !domain.ValidScreeningType(screeningType) {
		return nil, domain.ErrInvalidScreeningType
	}

	score := riskScore(userID, screeningType)
	status := domain.ScreeningPending
	if score >= riskFlagThreshold {
		status = domain.ScreeningFlagged
	}

	screening := &domain.AMLScreening{
		ScreeningID: utils.NewID("aml"),
		UserID:      userID,
		Type:        screeningType,
		RiskScore:   score,
		Status:      status,
	}
	if err := s.screenings.Save(ctx, screening); err != nil {
		return nil, err
	}

	logger.Info(ctx, "AML screening recorded", "screening_id", screening.ScreeningID, "user_id", userID, "type", screeningType, "risk_score", score, "status", status)
	return screening, nil
}

// ResolveScreening 处置筛查结果
func (s *ComplianceService) ResolveScreening(ctx context.Context, screeningID, resolver string, target domain.ScreeningStatus, note string) (*domain.AMLScreening, error) {
	screening, err := s.screenings.Get(ctx, screeningID)
	if err != nil {
		return nil, err
	}
	if screening == nil {
		return nil, domain.ErrScreeningNotFound
	}
	if !domain.CanScreeningTransition(screening.Status, target) {
		return nil, domain.ErrInvalidScreeningTransition
	}

	now := time.Now()
	screening.Status = target
	screening.Note = note
	screening.ResolvedBy = resolver
	screening.ResolvedAt = &now

	if err := s.screenings.Save(ctx, screening); err != nil {
		return nil, err
	}
	return screening, nil
}

func (s *ComplianceService) ListScreenings(ctx context.Context, status domain.ScreeningStatus, page, pageSize int) ([]*domain.AMLScreening, *utils.Pagination, error) {
	p := utils.NewPagination(page, pageSize, 0)
	screenings, total, err := s.screenings.List(ctx, status, p.Limit(), p.Offset())
	if err != nil {
		return nil, nil, err
	}
	return screenings, utils.NewPagination(p.Page, p.PageSize, total), nil
}

func (s *ComplianceService) ListScreeningsByUser(ctx context.Context, userID string) ([]*domain.AMLScreening, error) {
	return s.screenings.ListByUser(ctx, userID)
}

// DecideAccreditation 记录合格投资人审议结论；批准时回写申请侧认证状态
func (s *ComplianceService) DecideAccreditation(ctx context.Context, applicationID, reviewer string, decision domain.AccreditationDecision, note string) (*domain.AccreditationReview, error) {
	if decision != domain.DecisionApproved && decision != domain.DecisionRejected {
		return nil, domain.ErrInvalidDecision
	}

	review := &domain.AccreditationReview{
		ReviewID:      utils.NewID("acr"),
		ApplicationID: applicationID,
		Decision:      decision,
		Reviewer:      reviewer,
		Note:          note,
	}
	if decision == domain.DecisionApproved {
		until := time.Now().Add(accreditationValidity)
		review.ValidUntil = &until

		if s.verifier != nil {
			if err := s.verifier.VerifyAccreditation(ctx, applicationID); err != nil {
				return nil, err
			}
		}
	}

	if err := s.accreditation.Save(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ComplianceService) ListAccreditationReviews(ctx context.Context, applicationID string) ([]*domain.AccreditationReview, error) {
	return s.accreditation.ListByApplication(ctx, applicationID)
}

func (s *ComplianceService) getKYC(ctx context.Context, recordID string) (*domain.KYCRecord, error) {
	record, err := s.kyc.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domain.ErrKYCRecordNotFound
	}
	return record, nil
}

// riskScore 把主体指纹映射到 [0,100)
func riskScore(userID string, screeningType domain.ScreeningType) int {
	hash := utils.SHA256Hash(userID + ":" + string(screeningType))
	score := 0
	for _, b := range []byte(hash[:8]) {
		score = score*31 + int(b)
	}
	if score < 0 {
		score = -score
	}
	return score % 100
}
