package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/venturecrest/angelnet/internal/messaging/application"
	"github.com/venturecrest/angelnet/pkg/logger"
	"github.com/venturecrest/angelnet/pkg/mq"
)

// 事件主题
const (
	TopicDealEvents        = "angelnet.deal.events"
	TopicPaymentEvents     = "angelnet.payment.events"
	TopicApplicationEvents = "angelnet.application.events"
)

// DealInvestorDirectory 查询交易下有认购的投资人；由交易模块实现
type DealInvestorDirectory interface {
	InvestorsForDeal(ctx context.Context, dealID string) ([]string, error)
}

type topicConsumer struct {
	consumer *mq.KafkaConsumer
	handler  mq.MessageHandler
}

// EventNotifier 把业务事件落成站内通知
type EventNotifier struct {
	svc       *application.MessagingService
	investors DealInvestorDirectory
	consumers []topicConsumer
}

func NewEventNotifier(cfg mq.KafkaConfig, svc *application.MessagingService, investors DealInvestorDirectory) (*EventNotifier, error) {
	n := &EventNotifier{svc: svc, investors: investors}

	bindings := []struct {
		topic   string
		handler mq.MessageHandler
	}{
		{TopicDealEvents, n.handleDealEvent},
		{TopicPaymentEvents, n.handlePaymentEvent},
		{TopicApplicationEvents, n.handleApplicationEvent},
	}
	for _, b := range bindings {
		consumer, err := mq.NewConsumer(cfg, b.topic)
		if err != nil {
			return nil, fmt.Errorf("create consumer for %s: %w", b.topic, err)
		}
		n.consumers = append(n.consumers, topicConsumer{consumer: consumer, handler: b.handler})
	}
	return n, nil
}

// Run 启动全部主题的消费循环，阻塞到 ctx 取消
func (n *EventNotifier) Run(ctx context.Context) {
	for _, tc := range n.consumers {
		go tc.consumer.Run(ctx, tc.handler)
	}
	<-ctx.Done()
}

// Close 关闭全部消费者
func (n *EventNotifier) Close() {
	for _, tc := range n.consumers {
		if err := tc.consumer.Close(); err != nil {
			logger.Warn(context.Background(), "Failed to close consumer", "error", err)
		}
	}
}

func (n *EventNotifier) handleDealEvent(ctx context.Context, key, value []byte) error {
	var event struct {
		Event        string `json:"event"`
		DealID       string `json:"deal_id"`
		CommitmentID string `json:"commitment_id"`
		InvestorID   string `json:"investor_id"`
		ToStatus     string `json:"to_status"`
	}
	if err := json.Unmarshal(value, &event); err != nil {
		logger.Warn(ctx, "Skipping malformed deal event", "error", err)
		return nil
	}

	switch event.Event {
	case "deal.status_changed":
		investors, err := n.investors.InvestorsForDeal(ctx, event.DealID)
		if err != nil {
			return err
		}
		for _, investorID := range investors {
			if err := n.svc.Notify(ctx, investorID, event.Event,
				"Deal status updated",
				fmt.Sprintf("A deal you committed to is now %s", event.ToStatus),
				event.DealID); err != nil {
				return err
			}
		}
	case "deal.commitment_advanced", "deal.commitment_cancelled":
		if event.InvestorID == "" {
			return nil
		}
		return n.svc.Notify(ctx, event.InvestorID, event.Event,
			"Commitment updated",
			fmt.Sprintf("Your commitment is now %s", event.ToStatus),
			event.CommitmentID)
	}
	return nil
}

func (n *EventNotifier) handlePaymentEvent(ctx context.Context, key, value []byte) error {
	var event struct {
		Event     string `json:"event"`
		PaymentID string `json:"payment_id"`
		UserID    string `json:"user_id"`
		Amount    string `json:"amount"`
	}
	if err := json.Unmarshal(value, &event); err != nil {
		logger.Warn(ctx, "Skipping malformed payment event", "error", err)
		return nil
	}
	if event.Event != "payment.completed" || event.UserID == "" {
		return nil
	}
	return n.svc.Notify(ctx, event.UserID, event.Event,
		"Payment received",
		fmt.Sprintf("Your payment of INR %s has been verified", event.Amount),
		event.PaymentID)
}

func (n *EventNotifier) handleApplicationEvent(ctx context.Context, key, value []byte) error {
	var event struct {
		Event         string `json:"event"`
		ApplicationID string `json:"application_id"`
		UserID        string `json:"user_id"`
		Status        string `json:"status"`
	}
	if err := json.Unmarshal(value, &event); err != nil {
		logger.Warn(ctx, "Skipping malformed application event", "error", err)
		return nil
	}
	if event.Event != "application.reviewed" || event.UserID == "" {
		return nil
	}
	return n.svc.Notify(ctx, event.UserID, event.Event,
		"Application reviewed",
		fmt.Sprintf("Your application is now %s", event.Status),
		event.ApplicationID)
}
