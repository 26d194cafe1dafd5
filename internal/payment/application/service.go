package application

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/venturecrest/angelnet/internal/payment/domain"
	"github.com/venturecrest/angelnet/pkg/config"
	"github.com/venturecrest/angelnet/pkg/logger"
	"github.com/venturecrest/angelnet/pkg/metrics"
	"github.com/venturecrest/angelnet/pkg/utils"
)

// Commitment 支付视角的认购快照
type Commitment struct {
	CommitmentID   string
	DealID         string
	InvestorID     string
	Amount         decimal.Decimal
	PaymentPending bool
}

// CommitmentDirectory 认购查询与推进；由交易模块实现
type CommitmentDirectory interface {
	GetCommitment(ctx context.Context, commitmentID string) (*Commitment, error)
	MarkPaymentReceived(ctx context.Context, commitmentID, paymentRef string) error
}

// PaymentService 支付服务
type PaymentService struct {
	payments    domain.PaymentRepository
	gateway     domain.PaymentGateway
	commitments CommitmentDirectory
	events      domain.EventPublisher
	cfg         config.RazorpayConfig
	metrics     *metrics.Metrics
}

func NewPaymentService(
	payments domain.PaymentRepository,
	gateway domain.PaymentGateway,
	commitments CommitmentDirectory,
	events domain.EventPublisher,
	cfg config.RazorpayConfig,
	m *metrics.Metrics,
) *PaymentService {
	return &PaymentService{
		payments:    payments,
		gateway:     gateway,
		commitments: commitments,
		events:      events,
		cfg:         cfg,
		metrics:     m,
	}
}

// OrderResponse 下单响应，amount 单位为派萨，供前端 checkout 使用
type OrderResponse struct {
	OrderID  string          `json:"order_id"`
	Amount   int64           `json:"amount"`
	Currency string          `json:"currency"`
	KeyID    string          `json:"key_id"`
	Payment  *domain.Payment `json:"payment"`
}

// CreateOrder 为认购创建支付订单。金额取自认购并校验单笔上下限。
func (s *PaymentService) CreateOrder(ctx context.Context, userID, commitmentID string) (*OrderResponse, error) {
	commitment, err := s.commitments.GetCommitment(ctx, commitmentID)
	if err != nil {
		return nil, err
	}
	if commitment == nil || commitment.InvestorID != userID {
		return nil, domain.ErrPaymentNotFound
	}
	if !commitment.PaymentPending {
		return nil, domain.ErrCommitmentNotPayable
	}

	if commitment.Amount.LessThan(decimal.NewFromInt(s.cfg.MinAmount)) {
		return nil, domain.ErrAmountBelowMinimum
	}
	if commitment.Amount.GreaterThan(decimal.NewFromInt(s.cfg.MaxAmount)) {
		return nil, domain.ErrAmountAboveMaximum
	}

	paymentID := utils.NewID("pay")
	amountPaise := commitment.Amount.Mul(decimal.NewFromInt(100)).IntPart()

	orderID, err := s.gateway.CreateOrder(ctx, amountPaise, "INR", paymentID)
	if err != nil {
		return nil, err
	}

	payment := &domain.Payment{
		PaymentID:      paymentID,
		CommitmentID:   commitment.CommitmentID,
		UserID:         userID,
		Gateway:        domain.GatewayRazorpay,
		GatewayOrderID: orderID,
		Amount:         commitment.Amount,
		Currency:       "INR",
		Status:         domain.PaymentPending,
	}
	if err := s.payments.Save(ctx, payment); err != nil {
		return nil, err
	}

	logger.Info(ctx, "Payment order created", "payment_id", paymentID, "order_id", orderID, "commitment_id", commitmentID, "amount_paise", amountPaise)
	return &OrderResponse{
		OrderID:  orderID,
		Amount:   amountPaise,
		Currency: "INR",
		KeyID:    s.cfg.KeyID,
		Payment:  payment,
	}, nil
}

// Verify 校验网关回传签名。签名匹配则支付完成并推进认购；
// 不匹配标记 FAILED 并返回签名错误。
func (s *PaymentService) Verify(ctx context.Context, userID, orderID, gatewayPaymentID, signature string) (*domain.Payment, error) {
	payment, err := s.payments.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if payment == nil || payment.UserID != userID {
		return nil, domain.ErrPaymentNotFound
	}
	if payment.Status == domain.PaymentCompleted {
		return nil, domain.ErrPaymentAlreadyComplete
	}

	if !domain.VerifySignature(s.cfg.KeySecret, orderID, gatewayPaymentID, signature) {
		payment.Status = domain.PaymentFailed
		payment.GatewayPaymentID = gatewayPaymentID
		payment.FailureReason = "signature mismatch"
		if saveErr := s.payments.Save(ctx, payment); saveErr != nil {
			logger.Error(ctx, "Failed to persist failed payment", "payment_id", payment.PaymentID, "error", saveErr)
		}
		if s.metrics != nil {
			s.metrics.PaymentsFailed.Inc()
		}
		s.publish(ctx, domain.PaymentEvent{
			Event:        domain.EventPaymentFailed,
			PaymentID:    payment.PaymentID,
			CommitmentID: payment.CommitmentID,
			UserID:       payment.UserID,
			Amount:       payment.Amount.String(),
			Currency:     payment.Currency,
		})
		return nil, domain.ErrSignatureMismatch
	}

	now := time.Now()
	payment.Status = domain.PaymentCompleted
	payment.GatewayPaymentID = gatewayPaymentID
	payment.Signature = signature
	payment.CompletedAt = &now
	if err := s.payments.Save(ctx, payment); err != nil {
		return nil, err
	}

	if err := s.commitments.MarkPaymentReceived(ctx, payment.CommitmentID, payment.PaymentID); err != nil {
		logger.Error(ctx, "Payment verified but commitment advance failed", "payment_id", payment.PaymentID, "commitment_id", payment.CommitmentID, "error", err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.PaymentsVerified.Inc()
	}
	s.publish(ctx, domain.PaymentEvent{
		Event:        domain.EventPaymentCompleted,
		PaymentID:    payment.PaymentID,
		CommitmentID: payment.CommitmentID,
		UserID:       payment.UserID,
		Amount:       payment.Amount.String(),
		Currency:     payment.Currency,
	})

	logger.Info(ctx, "Payment verified", "payment_id", payment.PaymentID, "order_id", orderID)
	return payment, nil
}

func (s *PaymentService) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	payment, err := s.payments.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, domain.ErrPaymentNotFound
	}
	return payment, nil
}

func (s *PaymentService) ListOwnPayments(ctx context.Context, userID string, page, pageSize int) ([]*domain.Payment, *utils.Pagination, error) {
	p := utils.NewPagination(page, pageSize, 0)
	payments, total, err := s.payments.ListByUser(ctx, userID, p.Limit(), p.Offset())
	if err != nil {
		return nil, nil, err
	}
	return payments, utils.NewPagination(p.Page, p.PageSize, total), nil
}

func (s *PaymentService) publish(ctx context.Context, event domain.PaymentEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishPaymentEvent(ctx, event); err != nil {
		logger.Error(ctx, "Failed to publish payment event", "event", event.Event, "payment_id", event.PaymentID, "error", err)
	}
}
