package application

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/venturecrest/angelnet/internal/invoice/domain"
	"github.com/venturecrest/angelnet/pkg/config"
	"github.com/venturecrest/angelnet/pkg/logger"
	"github.com/venturecrest/angelnet/pkg/metrics"
	"github.com/venturecrest/angelnet/pkg/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 编号冲突时的最大重试次数
const numberRetries = 5

var hundred = decimal.NewFromInt(100)

// CompletedPayment 发票视角的支付快照
type CompletedPayment struct {
	PaymentID string
	UserID    string
	Amount    decimal.Decimal
	Completed bool
}

// PaymentDirectory 支付查询；由支付模块实现
type PaymentDirectory interface {
	GetCompletedPayment(ctx context.Context, paymentID string) (*CompletedPayment, error)
}

// InvoiceService 发票服务
type InvoiceService struct {
	invoices domain.InvoiceRepository
	renderer domain.PDFRenderer
	payments PaymentDirectory
	cfg      config.InvoiceConfig
	metrics  *metrics.Metrics
}

func NewInvoiceService(
	invoices domain.InvoiceRepository,
	renderer domain.PDFRenderer,
	payments PaymentDirectory,
	cfg config.InvoiceConfig,
	m *metrics.Metrics,
) *InvoiceService {
	return &InvoiceService{
		invoices: invoices,
		renderer: renderer,
		payments: payments,
		cfg:      cfg,
		metrics:  m,
	}
}

// GenerateCommand 开票命令
type GenerateCommand struct {
	PaymentID      string
	BuyerName      string
	BuyerAddress   string
	BuyerGSTIN     string
	BuyerStateCode string
	Description    string
}

// Generate 为已完成支付开具发票。编号按月递增，
// 并发下唯一索引冲突时换下一个序号重试。
func (s *InvoiceService) Generate(ctx context.Context, cmd GenerateCommand) (*domain.Invoice, error) {
	payment, err := s.payments.GetCompletedPayment(ctx, cmd.PaymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, domain.ErrInvoiceNotFound
	}
	if !payment.Completed {
		return nil, domain.ErrPaymentNotCompleted
	}

	existing, err := s.invoices.GetByPayment(ctx, cmd.PaymentID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrInvoiceAlreadyIssued
	}

	description := cmd.Description
	if description == "" {
		description = "Investment commitment payment"
	}
	items := []domain.LineItem{{Description: description, Amount: payment.Amount}}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}

	rate := decimal.NewFromFloat(s.cfg.GSTRate)
	subtotal := payment.Amount
	gstAmount := subtotal.Mul(rate).Div(hundred).Round(2)

	invoice := &domain.Invoice{
		PaymentID:      payment.PaymentID,
		BuyerUserID:    payment.UserID,
		BuyerName:      cmd.BuyerName,
		BuyerAddress:   cmd.BuyerAddress,
		BuyerGSTIN:     cmd.BuyerGSTIN,
		BuyerStateCode: cmd.BuyerStateCode,
		LineItems:      datatypes.JSON(itemsJSON),
		Subtotal:       subtotal,
		GSTRate:        rate,
		Total:          subtotal.Add(gstAmount),
		IssuedAt:       time.Now(),
	}

	// 同邦拆分 CGST/SGST，跨邦走 IGST
	if cmd.BuyerStateCode != "" && cmd.BuyerStateCode == s.cfg.SellerStateCode {
		half := gstAmount.Div(two).Round(2)
		invoice.CGST = half
		invoice.SGST = gstAmount.Sub(half)
	} else {
		invoice.IGST = gstAmount
	}

	if err := s.saveWithNumber(ctx, invoice); err != nil {
		return nil, err
	}

	path, err := s.renderer.Render(invoice, s.cfg.SellerName, s.cfg.SellerAddress, s.cfg.SellerGSTIN)
	if err != nil {
		logger.Error(ctx, "Invoice persisted but PDF rendering failed", "invoice_number", invoice.InvoiceNumber, "error", err)
		return nil, err
	}
	invoice.PDFPath = path
	if err := s.invoices.Save(ctx, invoice); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.InvoicesGenerated.Inc()
	}
	logger.Info(ctx, "Invoice issued", "invoice_number", invoice.InvoiceNumber, "payment_id", payment.PaymentID)
	return invoice, nil
}

// saveWithNumber 取号落库，编号撞唯一索引则换号重试
func (s *InvoiceService) saveWithNumber(ctx context.Context, invoice *domain.Invoice) error {
	prefix := domain.MonthPrefix(invoice.IssuedAt)

	var lastErr error
	for attempt := 0; attempt < numberRetries; attempt++ {
		seq, err := s.invoices.NextSequence(ctx, prefix)
		if err != nil {
			return err
		}
		invoice.InvoiceNumber = domain.FormatInvoiceNumber(invoice.IssuedAt, seq)

		err = s.invoices.Save(ctx, invoice)
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

func (s *InvoiceService) GetByNumber(ctx context.Context, number string) (*domain.Invoice, error) {
	invoice, err := s.invoices.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, domain.ErrInvoiceNotFound
	}
	return invoice, nil
}

func (s *InvoiceService) ListOwn(ctx context.Context, userID string, page, pageSize int) ([]*domain.Invoice, *utils.Pagination, error) {
	p := utils.NewPagination(page, pageSize, 0)
	invoices, total, err := s.invoices.ListByUser(ctx, userID, p.Limit(), p.Offset())
	if err != nil {
		return nil, nil, err
	}
	return invoices, utils.NewPagination(p.Page, p.PageSize, total), nil
}

func (s *InvoiceService) List(ctx context.Context, page, pageSize int) ([]*domain.Invoice, *utils.Pagination, error) {
	p := utils.NewPagination(page, pageSize, 0)
	invoices, total, err := s.invoices.List(ctx, p.Limit(), p.Offset())
	if err != nil {
		return nil, nil, err
	}
	return invoices, utils.NewPagination(p.Page, p.PageSize, total), nil
}

var two = decimal.NewFromInt(2)
