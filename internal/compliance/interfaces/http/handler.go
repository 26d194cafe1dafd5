package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/venturecrest/angelnet/internal/compliance/application"
	"github.com/venturecrest/angelnet/internal/compliance/domain"
	"github.com/venturecrest/angelnet/pkg/middleware"
	"github.com/venturecrest/angelnet/pkg/response"
)

// ComplianceHandler 合规模块 HTTP 接入层
type ComplianceHandler struct {
	svc         *application.ComplianceService
	maxFileSize int64
}

func NewComplianceHandler(svc *application.ComplianceService, maxFileSize int64) *ComplianceHandler {
	return &ComplianceHandler{svc: svc, maxFileSize: maxFileSize}
}

func (h *ComplianceHandler) RegisterRoutes(r *gin.RouterGroup) {
	compliance := r.Group("/compliance")

	kyc := compliance.Group("/kyc")
	{
		kyc.POST("", h.SubmitKYC)
		kyc.GET("/me", h.ListOwnKYC)
		kyc.GET("", middleware.RequireRole("admin", "compliance"), h.ListKYC)
		kyc.GET("/:id", middleware.RequireRole("admin", "compliance"), h.GetKYC)
		kyc.GET("/:id/file", middleware.RequireRole("admin", "compliance"), h.DownloadKYCFile)
		kyc.POST("/:id/review", middleware.RequireRole("admin", "compliance"), h.ReviewKYC)
	}

	aml := compliance.Group("/aml", middleware.RequireRole("admin", "compliance"))
	{
		aml.POST("", h.RunScreening)
		aml.GET("", h.ListScreenings)
		aml.GET("/user/:id", h.ListUserScreenings)
		aml.POST("/:id/resolve", h.ResolveScreening)
	}

	accreditation := compliance.Group("/accreditation", middleware.RequireRole("admin", "compliance"))
	{
		accreditation.POST("/:applicationId/decide", h.DecideAccreditation)
		accreditation.GET("/:applicationId", h.ListAccreditationReviews)
	}
}

func (h *ComplianceHandler) SubmitKYC(c *gin.Context) {
	docType := domain.DocumentType(c.PostForm("document_type"))

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "file is required", "INVALID_REQUEST")
		return
	}
	if h.maxFileSize > 0 && fileHeader.Size > h.maxFileSize {
		response.ErrorWithStatus(c, http.StatusRequestEntityTooLarge, "file too large", "FILE_TOO_LARGE")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "cannot read file", "INVALID_REQUEST")
		return
	}
	defer file.Close()

	record, err := h.svc.SubmitKYC(c.Request.Context(), middleware.UserID(c), docType, fileHeader.Filename, file)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, record)
}

func (h *ComplianceHandler) ListOwnKYC(c *gin.Context) {
	records, err := h.svc.ListOwnKYC(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, records)
}

func (h *ComplianceHandler) ListKYC(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	status := domain.KYCStatus(c.Query("status"))

	records, pagination, err := h.svc.ListKYC(c.Request.Context(), status, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"records": records, "pagination": pagination})
}

func (h *ComplianceHandler) GetKYC(c *gin.Context) {
	record, err := h.svc.GetKYC(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, record)
}

func (h *ComplianceHandler) DownloadKYCFile(c *gin.Context) {
	f, record, err := h.svc.OpenKYCFile(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(record.RecordID))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, f); err != nil {
		_ = c.Error(err)
	}
}

func (h *ComplianceHandler) ReviewKYC(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
		Note   string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	}

	record, err := h.svc.ReviewKYC(c.Request.Context(), c.Param("id"), middleware.UserID(c), domain.KYCStatus(req.Status), req.Note)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, record)
}

func (h *ComplianceHandler) RunScreening(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id" binding:"required"`
		Type   string `json:"type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	}

	screening, err := h.svc.RunScreening(c.Request.Context(), req.UserID, domain.ScreeningType(req.Type))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, screening)
}

func (h *ComplianceHandler) ListScreenings(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	status := domain.ScreeningStatus(c.Query("status"))

	screenings, pagination, err := h.svc.ListScreenings(c.Request.Context(), status, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"screenings": screenings, "pagination": pagination})
}

func (h *ComplianceHandler) ListUserScreenings(c *gin.Context) {
	screenings, err := h.svc.ListScreeningsByUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, screenings)
}

func (h *ComplianceHandler) ResolveScreening(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
		Note   string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	}

	screening, err := h.svc.ResolveScreening(c.Request.Context(), c.Param("id"), middleware.UserID(c), domain.ScreeningStatus(req.Status), req.Note)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, screening)
}

func (h *ComplianceHandler) DecideAccreditation(c *gin.Context) {
	var req struct {
		Decision string `json:"decision" binding:"required"`
		Note     string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	}

	review, err := h.svc.DecideAccreditation(c.Request.Context(), c.Param("applicationId"), middleware.UserID(c), domain.AccreditationDecision(req.Decision), req.Note)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, review)
}

func (h *ComplianceHandler) ListAccreditationReviews(c *gin.Context) {
	reviews, err := h.svc.ListAccreditationReviews(c.Request.Context(), c.Param("applicationId"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, reviews)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrKYCRecordNotFound), errors.Is(err, domain.ErrScreeningNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, domain.ErrInvalidKYCTransition), errors.Is(err, domain.ErrInvalidScreeningTransition):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_TRANSITION")
	case errors.Is(err, domain.ErrInvalidDocumentType), errors.Is(err, domain.ErrInvalidScreeningType), errors.Is(err, domain.ErrInvalidDecision):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
	default:
		response.ErrorWithStatus(c, http.StatusInternalServerError, "internal error", "INTERNAL")
	}
}
