package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/venturecrest/angelnet/internal/intake/application"
	"github.com/venturecrest/angelnet/internal/intake/domain"
	"github.com/venturecrest/angelnet/pkg/logger"
	"github.com/venturecrest/angelnet/pkg/middleware"
	"github.com/venturecrest/angelnet/pkg/response"
	"gorm.io/datatypes"
)

// IntakeHandler 入会申请 HTTP 处理器
type IntakeHandler struct {
	svc *application.IntakeService
}

func NewIntakeHandler(svc *application.IntakeService) *IntakeHandler {
	return &IntakeHandler{svc: svc}
}

// RegisterRoutes 注册路由；router 已要求登录
func (h *IntakeHandler) RegisterRoutes(router *gin.RouterGroup) {
	investor := router.Group("/applications/investor")
	{
		investor.POST("", h.SubmitInvestor)
		investor.GET("/me", h.GetOwnInvestor)
		investor.GET("", middleware.RequireRole("admin", "compliance"), h.ListInvestor)
		investor.GET("/:id", middleware.RequireRole("admin", "compliance"), h.GetInvestor)
		investor.POST("/:id/review", middleware.RequireRole("admin"), h.ReviewInvestor)
		investor.POST("/:id/accreditation/verify", middleware.RequireRole("compliance"), h.VerifyAccreditation)
		investor.POST("/:id/accreditation/expire", middleware.RequireRole("compliance"), h.ExpireAccreditation)
	}

	founder := router.Group("/applications/founder")
	{
		founder.POST("", h.SubmitFounder)
		founder.GET("/me", h.GetOwnFounder)
		founder.GET("", middleware.RequireRole("admin"), h.ListFounder)
		founder.GET("/:id", middleware.RequireRole("admin"), h.GetFounder)
		founder.POST("/:id/review", middleware.RequireRole("admin"), h.ReviewFounder)
	}
}

// SubmitInvestorRequest 投资人申请提交请求
type SubmitInvestorRequest struct {
	FullName        string         `json:"full_name" binding:"required"`
	Email           string         `json:"email" binding:"required,email"`
	Phone           string         `json:"phone"`
	PAN             string         `json:"pan"`
	InvestorType    string         `json:"investor_type"`
	NetWorth        string         `json:"net_worth"`
	ExperienceYears int            `json:"experience_years"`
	Extras          map[string]any `json:"extras"`
}

// SubmitInvestor 提交投资人申请
func (h *IntakeHandler) SubmitInvestor(c *gin.Context) {
	var req SubmitInvestorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	netWorth := decimal.Zero
	if req.NetWorth != "" {
		parsed, err := decimal.NewFromString(req.NetWorth)
		if err != nil {
			response.ErrorWithStatus(c, http.StatusBadRequest, "invalid net_worth", "")
			return
		}
		netWorth = parsed
	}

	cmd := application.SubmitInvestorCommand{
		UserID:          middleware.UserID(c),
		FullName:        req.FullName,
		Email:           req.Email,
		Phone:           req.Phone,
		PAN:             req.PAN,
		InvestorType:    req.InvestorType,
		NetWorth:        netWorth,
		ExperienceYears: req.ExperienceYears,
		Extras:          toJSON(req.Extras),
	}

	app, err := h.svc.SubmitInvestorApplication(c.Request.Context(), cmd)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to submit investor application", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Created(c, app)
}

// SubmitFounderRequest 创始人申请提交请求
type SubmitFounderRequest struct {
	FounderName  string         `json:"founder_name" binding:"required"`
	Email        string         `json:"email" binding:"required,email"`
	CompanyName  string         `json:"company_name" binding:"required"`
	Sector       string         `json:"sector"`
	Stage        string         `json:"stage"`
	PitchSummary string         `json:"pitch_summary"`
	RaiseAmount  string         `json:"raise_amount"`
	Extras       map[string]any `json:"extras"`
}

// SubmitFounder 提交创始人申请
func (h *IntakeHandler) SubmitFounder(c *gin.Context) {
	var req SubmitFounderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	raise := decimal.Zero
	if req.RaiseAmount != "" {
		parsed, err := decimal.NewFromString(req.RaiseAmount)
		if err != nil {
			response.ErrorWithStatus(c, http.StatusBadRequest, "invalid raise_amount", "")
			return
		}
		raise = parsed
	}

	cmd := application.SubmitFounderCommand{
		UserID:       middleware.UserID(c),
		FounderName:  req.FounderName,
		Email:        req.Email,
		CompanyName:  req.CompanyName,
		Sector:       req.Sector,
		Stage:        req.Stage,
		PitchSummary: req.PitchSummary,
		RaiseAmount:  raise,
		Extras:       toJSON(req.Extras),
	}

	app, err := h.svc.SubmitFounderApplication(c.Request.Context(), cmd)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to submit founder application", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Created(c, app)
}

// GetOwnInvestor 查询自己的投资人申请
func (h *IntakeHandler) GetOwnInvestor(c *gin.Context) {
	app, err := h.svc.GetOwnInvestorApplication(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, app)
}

// GetOwnFounder 查询自己的创始人申请
func (h *IntakeHandler) GetOwnFounder(c *gin.Context) {
	app, err := h.svc.GetOwnFounderApplication(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, app)
}

// GetInvestor 查询投资人申请详情
func (h *IntakeHandler) GetInvestor(c *gin.Context) {
	app, err := h.svc.GetInvestorApplication(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, app)
}

// GetFounder 查询创始人申请详情
func (h *IntakeHandler) GetFounder(c *gin.Context) {
	app, err := h.svc.GetFounderApplication(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, app)
}

// ListInvestor 分页查询投资人申请
func (h *IntakeHandler) ListInvestor(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	status := domain.ReviewStatus(c.Query("status"))

	apps, pagination, err := h.svc.ListInvestorApplications(c.Request.Context(), status, page, pageSize)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, gin.H{"applications": apps, "pagination": pagination})
}

// ListFounder 分页查询创始人申请
func (h *IntakeHandler) ListFounder(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	status := domain.ReviewStatus(c.Query("status"))

	apps, pagination, err := h.svc.ListFounderApplications(c.Request.Context(), status, page, pageSize)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, gin.H{"applications": apps, "pagination": pagination})
}

// ReviewRequest 审核请求
type ReviewRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

// ReviewInvestor 审核投资人申请
func (h *IntakeHandler) ReviewInvestor(c *gin.Context) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	app, err := h.svc.ReviewInvestorApplication(c.Request.Context(), c.Param("id"), domain.ReviewStatus(req.Status), req.Note)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, app)
}

// ReviewFounder 审核创始人申请
func (h *IntakeHandler) ReviewFounder(c *gin.Context) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	app, err := h.svc.ReviewFounderApplication(c.Request.Context(), c.Param("id"), domain.ReviewStatus(req.Status), req.Note)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, app)
}

// VerifyAccreditation 认证投资人资格
func (h *IntakeHandler) VerifyAccreditation(c *gin.Context) {
	app, err := h.svc.VerifyAccreditation(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, app)
}

// ExpireAccreditationRequest 认证失效请求
type ExpireAccreditationRequest struct {
	Status string `json:"status" binding:"required,oneof=expired rejected"`
}

// ExpireAccreditation 标记认证过期/驳回
func (h *IntakeHandler) ExpireAccreditation(c *gin.Context) {
	var req ExpireAccreditationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	app, err := h.svc.ExpireAccreditation(c.Request.Context(), c.Param("id"), domain.AccreditationStatus(req.Status))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, app)
}

func (h *IntakeHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrApplicationNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, domain.ErrInvalidReviewTransition):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_TRANSITION")
	default:
		logger.Error(c.Request.Context(), "Intake request failed", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
	}
}

func toJSON(m map[string]any) datatypes.JSON {
	if len(m) == 0 {
		return nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return datatypes.JSON(data)
}
