package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/venturecrest/angelnet/internal/spv/application"
	"github.com/venturecrest/angelnet/internal/spv/domain"
	"github.com/venturecrest/angelnet/pkg/middleware"
	"github.com/venturecrest/angelnet/pkg/response"
)

// SPVHandler SPV 模块 HTTP 接入层
type SPVHandler struct {
	svc *application.SPVService
}

func NewSPVHandler(svc *application.SPVService) *SPVHandler {
	return &SPVHandler{svc: svc}
}

func (h *SPVHandler) RegisterRoutes(r *gin.RouterGroup) {
	spvs := r.Group("/spvs")
	{
		spvs.POST("", middleware.RequireRole("admin"), h.CreateSPV)
		spvs.GET("/:id", h.GetSPV)
		spvs.POST("/:id/open", middleware.RequireRole("admin"), h.OpenSPV)
		spvs.POST("/:id/close", middleware.RequireRole("admin"), h.CloseSPV)
		spvs.POST("/:id/invitations", middleware.RequireRole("admin"), h.InviteInvestor)
		spvs.GET("/:id/invitations", middleware.RequireRole("admin"), h.ListInvitations)
		spvs.POST("/:id/allocate", middleware.RequireRole("admin"), h.AllocateSPV)
	}

	invitations := r.Group("/spv-invitations")
	{
		invitations.GET("/me", middleware.RequireRole("investor"), h.ListOwnInvitations)
		invitations.POST("/:id/respond", middleware.RequireRole("investor"), h.RespondInvitation)
	}

	r.GET("/deals/:id/spvs", h.ListDealSPVs)
}

func (h *SPVHandler) CreateSPV(c *gin.Context) {
	var req struct {
		DealID         string   `json:"deal_id" binding:"required"`
		EntityName     string   `json:"entity_name" binding:"required"`
		RegistrationNo string   `json:"registration_no"`
		Partners       []string `json:"partners"`
		TargetAmount   string   `json:"target_amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	}
	target, err := decimal.NewFromString(req.TargetAmount)
	if err != nil || !target.IsPositive() {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid target amount", "INVALID_AMOUNT")
		return
	}

	spv, err := h.svc.CreateSPV(c.Request.Context(), application.CreateSPVCommand{
		DealID:         req.DealID,
		EntityName:     req.EntityName,
		RegistrationNo: req.RegistrationNo,
		Partners:       req.Partners,
		TargetAmount:   target,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, spv)
}

func (h *SPVHandler) GetSPV(c *gin.Context) {
	spv, err := h.svc.GetSPV(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, spv)
}

func (h *SPVHandler) OpenSPV(c *gin.Context) {
	spv, err := h.svc.OpenSPV(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, spv)
}

func (h *SPVHandler) CloseSPV(c *gin.Context) {
	spv, err := h.svc.CloseSPV(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, spv)
}

func (h *SPVHandler) InviteInvestor(c *gin.Context) {
	var req struct {
		InvestorID    string `json:"investor_id" binding:"required"`
		InvitedAmount string `json:"invited_amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	}
	amount, err := decimal.NewFromString(req.InvitedAmount)
	if err != nil || !amount.IsPositive() {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid invited amount", "INVALID_AMOUNT")
		return
	}

	invitation, err := h.svc.InviteInvestor(c.Request.Context(), c.Param("id"), req.InvestorID, amount)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, invitation)
}

func (h *SPVHandler) RespondInvitation(c *gin.Context) {
	var req struct {
		Accept          bool   `json:"accept"`
		CommittedAmount string `json:"committed_amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	}

	committed := decimal.Zero
	if req.CommittedAmount != "" {
		var err error
		committed, err = decimal.NewFromString(req.CommittedAmount)
		if err != nil || committed.IsNegative() {
			response.ErrorWithStatus(c, http.StatusBadRequest, "invalid committed amount", "INVALID_AMOUNT")
			return
		}
	}

	invitation, err := h.svc.RespondInvitation(c.Request.Context(), c.Param("id"), middleware.UserID(c), req.Accept, committed)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, invitation)
}

func (h *SPVHandler) AllocateSPV(c *gin.Context) {
	spv, allocations, err := h.svc.AllocateSPV(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"spv": spv, "allocations": allocations})
}

func (h *SPVHandler) ListInvitations(c *gin.Context) {
	invitations, err := h.svc.ListInvitations(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, invitations)
}

func (h *SPVHandler) ListOwnInvitations(c *gin.Context) {
	invitations, err := h.svc.ListOwnInvitations(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, invitations)
}

func (h *SPVHandler) ListDealSPVs(c *gin.Context) {
	spvs, err := h.svc.ListByDeal(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, spvs)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrSPVNotFound), errors.Is(err, domain.ErrInvitationNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, domain.ErrSPVNotOpen), errors.Is(err, domain.ErrInvitationResponded), errors.Is(err, domain.ErrSPVNotAllocatable):
		response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "INVALID_STATE")
	case errors.Is(err, domain.ErrNoAcceptedInvitations):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "NO_ACCEPTED_INVITATIONS")
	default:
		response.ErrorWithStatus(c, http.StatusInternalServerError, "internal error", "INTERNAL")
	}
}
