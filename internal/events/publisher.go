package events

import (
	"context"

	dealdomain "github.com/venturecrest/angelnet/internal/deal/domain"
	intakedomain "github.com/venturecrest/angelnet/internal/intake/domain"
	paymentdomain "github.com/venturecrest/angelnet/internal/payment/domain"
	"github.com/venturecrest/angelnet/pkg/mq"
)

// 事件主题
const (
	TopicDealEvents        = "angelnet.deal.events"
	TopicPaymentEvents     = "angelnet.payment.events"
	TopicApplicationEvents = "angelnet.application.events"
)

// KafkaBus 把各模块领域事件发到对应 Kafka 主题
type KafkaBus struct {
	producer *mq.KafkaProducer
}

func NewKafkaBus(producer *mq.KafkaProducer) *KafkaBus {
	return &KafkaBus{producer: producer}
}

func (b *KafkaBus) PublishDealEvent(ctx context.Context, event dealdomain.DealEvent) error {
	return b.producer.SendMessage(ctx, TopicDealEvents, event.DealID, event)
}

func (b *KafkaBus) PublishPaymentEvent(ctx context.Context, event paymentdomain.PaymentEvent) error {
	return b.producer.SendMessage(ctx, TopicPaymentEvents, event.PaymentID, event)
}

func (b *KafkaBus) PublishApplicationEvent(ctx context.Context, event intakedomain.ApplicationEvent) error {
	return b.producer.SendMessage(ctx, TopicApplicationEvents, event.ApplicationID, event)
}

// NoopBus 事件总线空实现，Kafka 未启用时使用
type NoopBus struct{}

func (NoopBus) PublishDealEvent(ctx context.Context, event dealdomain.DealEvent) error {
	return nil
}

func (NoopBus) PublishPaymentEvent(ctx context.Context, event paymentdomain.PaymentEvent) error {
	return nil
}

func (NoopBus) PublishApplicationEvent(ctx context.Context, event intakedomain.ApplicationEvent) error {
	return nil
}
