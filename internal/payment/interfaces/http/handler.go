package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/venturecrest/angelnet/internal/payment/application"
	"github.com/venturecrest/angelnet/internal/payment/domain"
	"github.com/venturecrest/angelnet/pkg/middleware"
	"github.com/venturecrest/angelnet/pkg/response"
)

// PaymentHandler 支付模块 HTTP 接入层
type PaymentHandler struct {
	svc *application.PaymentService
}

func NewPaymentHandler(svc *application.PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup) {
	payments := r.Group("/payments", middleware.RequireRole("investor"))
	{
		payments.POST("/create-order", h.CreateOrder)
		payments.POST("/verify", h.Verify)
		payments.GET("/me", h.ListOwnPayments)
		payments.GET("/:id", h.GetPayment)
	}
}

func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var req struct {
		CommitmentID string `json:"commitment_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	}

	order, err := h.svc.CreateOrder(c.Request.Context(), middleware.UserID(c), req.CommitmentID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, order)
}

func (h *PaymentHandler) Verify(c *gin.Context) {
	var req struct {
		OrderID   string `json:"razorpay_order_id" binding:"required"`
		PaymentID string `json:"razorpay_payment_id" binding:"required"`
		Signature string `json:"razorpay_signature" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	}

	payment, err := h.svc.Verify(c.Request.Context(), middleware.UserID(c), req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"success": true, "verified": true, "payment": payment})
}

func (h *PaymentHandler) GetPayment(c *gin.Context) {
	payment, err := h.svc.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if payment.UserID != middleware.UserID(c) && !middleware.HasRole(c, "admin") {
		response.ErrorWithStatus(c, http.StatusForbidden, "forbidden", "FORBIDDEN")
		return
	}
	response.Success(c, payment)
}

func (h *PaymentHandler) ListOwnPayments(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	payments, pagination, err := h.svc.ListOwnPayments(c.Request.Context(), middleware.UserID(c), page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"payments": payments, "pagination": pagination})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrPaymentNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, domain.ErrAmountBelowMinimum), errors.Is(err, domain.ErrAmountAboveMaximum):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "AMOUNT_OUT_OF_RANGE")
	case errors.Is(err, domain.ErrSignatureMismatch):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "SIGNATURE_MISMATCH")
	case errors.Is(err, domain.ErrPaymentAlreadyComplete):
		response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "ALREADY_COMPLETED")
	case errors.Is(err, domain.ErrCommitmentNotPayable):
		response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "COMMITMENT_NOT_PAYABLE")
	default:
		response.ErrorWithStatus(c, http.StatusInternalServerError, "internal error", "INTERNAL")
	}
}
