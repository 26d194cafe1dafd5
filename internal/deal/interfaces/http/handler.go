package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/venturecrest/angelnet/internal/deal/application"
	"github.com/venturecrest/angelnet/internal/deal/domain"
	"github.com/venturecrest/angelnet/pkg/middleware"
	"github.com/venturecrest/angelnet/pkg/response"
)

// DealHandler 交易模块 HTTP 接入层
type DealHandler struct {
	commands *application.DealCommandService
	queries  *application.DealQueryService
}

func NewDealHandler(commands *application.DealCommandService, queries *application.DealQueryService) *DealHandler {
	return &DealHandler{commands: commands, queries: queries}
}

// RegisterPublicRoutes 无需登录的只读路由
func (h *DealHandler) RegisterPublicRoutes(r *gin.RouterGroup) {
	deals := r.Group("/deals")
	{
		deals.GET("", h.ListOpenDeals)
		deals.GET("/:id", h.GetDeal)
	}
}

// RegisterRoutes 登录后的交易与认购路由
func (h *DealHandler) RegisterRoutes(r *gin.RouterGroup) {
	deals := r.Group("/deals")
	{
		deals.POST("", middleware.RequireRole("admin"), h.CreateDeal)
		deals.PUT("/:id", middleware.RequireRole("admin"), h.UpdateDeal)
		deals.POST("/:id/transition", middleware.RequireRole("admin"), h.TransitionDeal)
		deals.GET("/:id/commitments", middleware.RequireRole("admin"), h.ListDealCommitments)
		deals.POST("/:id/interest", middleware.RequireRole("investor"), h.ExpressInterest)
	}

	admin := r.Group("/admin/deals", middleware.RequireRole("admin"))
	{
		admin.GET("", h.ListDeals)
	}

	commitments := r.Group("/commitments")
	{
		commitments.GET("/me", middleware.RequireRole("investor"), h.ListOwnCommitments)
		commitments.GET("/:id", h.GetCommitment)
		commitments.POST("/:id/confirm", middleware.RequireRole("investor"), h.ConfirmCommitment)
		commitments.POST("/:id/cancel", middleware.RequireRole("investor"), h.CancelCommitment)
		commitments.POST("/:id/advance", middleware.RequireRole("admin"), h.AdvanceCommitment)
	}
}

type dealRequest struct {
	CompanyName   string `json:"company_name" binding:"required"`
	Sector        string `json:"sector" binding:"required"`
	Stage         string `json:"stage" binding:"required"`
	Instrument    string `json:"instrument" binding:"required"`
	Vehicle       string `json:"vehicle" binding:"required"`
	TargetAmount  string `json:"target_amount" binding:"required"`
	MinCommitment string `json:"min_commitment" binding:"required"`
	MaxCommitment string `json:"max_commitment" binding:"required"`
	Valuation     string `json:"valuation" binding:"required"`
}

func (r *dealRequest) toCommand() (application.CreateDealCommand, error) {
	target, err := decimal.NewFromString(r.TargetAmount)
	if err != nil {
		return application.CreateDealCommand{}, err
	}
	min, err := decimal.NewFromString(r.MinCommitment)
	if err != nil {
		return application.CreateDealCommand{}, err
	}
	max, err := decimal.NewFromString(r.MaxCommitment)
	if err != nil {
		return application.CreateDealCommand{}, err
	}
	valuation, err := decimal.NewFromString(r.Valuation)
	if err != nil {
		return application.CreateDealCommand{}, err
	}
	return application.CreateDealCommand{
		CompanyName:   r.CompanyName,
		Sector:        r.Sector,
		Stage:         r.Stage,
		Instrument:    domain.Instrument(r.Instrument),
		Vehicle:       domain.Vehicle(r.Vehicle),
		TargetAmount:  target,
		MinCommitment: min,
		MaxCommitment: max,
		Valuation:     valuation,
	}, nil
}

func (h *DealHandler) CreateDeal(c *gin.Context) {
	var req dealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	}
	cmd, err := req.toCommand()
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid amount: "+err.Error(), "INVALID_AMOUNT")
		return
	}

	deal, err := h.commands.CreateDeal(c.Request.Context(), cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, deal)
}

func (h *DealHandler) UpdateDeal(c *gin.Context) {
	var req dealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	}
	cmd, err := req.toCommand()
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid amount: "+err.Error(), "INVALID_AMOUNT")
		return
	}

	deal, err := h.commands.UpdateDeal(c.Request.Context(), c.Param("id"), cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, deal)
}

func (h *DealHandler) TransitionDeal(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	}

	deal, err := h.commands.TransitionDeal(c.Request.Context(), c.Param("id"), domain.DealStatus(req.Status))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, deal)
}

func (h *DealHandler) GetDeal(c *gin.Context) {
	deal, err := h.queries.GetDeal(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, deal)
}

func (h *DealHandler) ListOpenDeals(c *gin.Context) {
	page, pageSize := pageParams(c)
	deals, pagination, err := h.queries.ListOpenDeals(c.Request.Context(), page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"deals": deals, "pagination": pagination})
}

func (h *DealHandler) ListDeals(c *gin.Context) {
	var statuses []domain.DealStatus
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			statuses = append(statuses, domain.DealStatus(strings.TrimSpace(s)))
		}
	}
	page, pageSize := pageParams(c)
	deals, pagination, err := h.queries.ListDeals(c.Request.Context(), statuses, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"deals": deals, "pagination": pagination})
}

func (h *DealHandler) ExpressInterest(c *gin.Context) {
	var req struct {
		Amount string `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid amount", "INVALID_AMOUNT")
		return
	}

	commitment, err := h.commands.ExpressInterest(c.Request.Context(), c.Param("id"), middleware.UserID(c), amount)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, commitment)
}

func (h *DealHandler) ConfirmCommitment(c *gin.Context) {
	commitment, err := h.commands.ConfirmCommitment(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, commitment)
}

func (h *DealHandler) CancelCommitment(c *gin.Context) {
	commitment, err := h.commands.CancelCommitment(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, commitment)
}

func (h *DealHandler) AdvanceCommitment(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	}

	commitment, err := h.commands.AdvanceCommitment(c.Request.Context(), c.Param("id"), domain.CommitmentStatus(req.Status))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, commitment)
}

func (h *DealHandler) GetCommitment(c *gin.Context) {
	commitment, err := h.queries.GetCommitment(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if commitment.InvestorID != middleware.UserID(c) && !middleware.HasRole(c, "admin") {
		response.ErrorWithStatus(c, http.StatusForbidden, "forbidden", "FORBIDDEN")
		return
	}
	response.Success(c, commitment)
}

func (h *DealHandler) ListOwnCommitments(c *gin.Context) {
	page, pageSize := pageParams(c)
	commitments, pagination, err := h.queries.ListCommitmentsByInvestor(c.Request.Context(), middleware.UserID(c), page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"commitments": commitments, "pagination": pagination})
}

func (h *DealHandler) ListDealCommitments(c *gin.Context) {
	page, pageSize := pageParams(c)
	commitments, pagination, err := h.queries.ListCommitmentsByDeal(c.Request.Context(), c.Param("id"), page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"commitments": commitments, "pagination": pagination})
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return page, pageSize
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrDealNotFound), errors.Is(err, domain.ErrCommitmentNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrInvalidCommitmentTransition):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_TRANSITION")
	case errors.Is(err, domain.ErrDealNotEditable):
		response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "DEAL_NOT_EDITABLE")
	case errors.Is(err, domain.ErrDealNotOpen):
		response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "DEAL_NOT_OPEN")
	case errors.Is(err, domain.ErrCommitmentAmountOutOfRange):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "AMOUNT_OUT_OF_RANGE")
	default:
		response.ErrorWithStatus(c, http.StatusInternalServerError, "internal error", "INTERNAL")
	}
}
