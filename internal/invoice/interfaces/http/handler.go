package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/venturecrest/angelnet/internal/invoice/application"
	"github.com/venturecrest/angelnet/internal/invoice/domain"
	"github.com/venturecrest/angelnet/pkg/middleware"
	"github.com/venturecrest/angelnet/pkg/response"
)

// InvoiceHandler 发票模块 HTTP 接入层
type InvoiceHandler struct {
	svc *application.InvoiceService
}

func NewInvoiceHandler(svc *application.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{svc: svc}
}

func (h *InvoiceHandler) RegisterRoutes(r *gin.RouterGroup) {
	invoices := r.Group("/invoices")
	{
		invoices.POST("", middleware.RequireRole("investor"), h.Generate)
		invoices.GET("/me", middleware.RequireRole("investor"), h.ListOwn)
		invoices.GET("", middleware.RequireRole("admin"), h.List)
		invoices.GET("/:number", h.Get)
		invoices.GET("/:number/pdf", h.DownloadPDF)
	}
}

func (h *InvoiceHandler) Generate(c *gin.Context) {
	var req struct {
		PaymentID      string `json:"payment_id" binding:"required"`
		BuyerName      string `json:"buyer_name" binding:"required"`
		BuyerAddress   string `json:"buyer_address"`
		BuyerGSTIN     string `json:"buyer_gstin"`
		BuyerStateCode string `json:"buyer_state_code"`
		Description    string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	}

	invoice, err := h.svc.Generate(c.Request.Context(), application.GenerateCommand{
		PaymentID:      req.PaymentID,
		BuyerName:      req.BuyerName,
		BuyerAddress:   req.BuyerAddress,
		BuyerGSTIN:     req.BuyerGSTIN,
		BuyerStateCode: req.BuyerStateCode,
		Description:    req.Description,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, invoice)
}

func (h *InvoiceHandler) Get(c *gin.Context) {
	invoice, err := h.svc.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		writeError(c, err)
		return
	}
	if invoice.BuyerUserID != middleware.UserID(c) && !middleware.HasRole(c, "admin") {
		response.ErrorWithStatus(c, http.StatusForbidden, "forbidden", "FORBIDDEN")
		return
	}
	response.Success(c, invoice)
}

func (h *InvoiceHandler) DownloadPDF(c *gin.Context) {
	invoice, err := h.svc.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		writeError(c, err)
		return
	}
	if invoice.BuyerUserID != middleware.UserID(c) && !middleware.HasRole(c, "admin") {
		response.ErrorWithStatus(c, http.StatusForbidden, "forbidden", "FORBIDDEN")
		return
	}
	if invoice.PDFPath == "" {
		response.ErrorWithStatus(c, http.StatusNotFound, "invoice pdf not available", "NOT_FOUND")
		return
	}
	c.FileAttachment(invoice.PDFPath, invoice.InvoiceNumber+".pdf")
}

func (h *InvoiceHandler) ListOwn(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	invoices, pagination, err := h.svc.ListOwn(c.Request.Context(), middleware.UserID(c), page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"invoices": invoices, "pagination": pagination})
}

func (h *InvoiceHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	invoices, pagination, err := h.svc.List(c.Request.Context(), page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"invoices": invoices, "pagination": pagination})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvoiceNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, domain.ErrPaymentNotCompleted):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "PAYMENT_NOT_COMPLETED")
	case errors.Is(err, domain.ErrInvoiceAlreadyIssued):
		response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "ALREADY_ISSUED")
	default:
		response.ErrorWithStatus(c, http.StatusInternalServerError, "internal error", "INTERNAL")
	}
}
