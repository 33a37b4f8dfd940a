package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// SyncJobPayload asks the worker to pull conversations for one lead.
type SyncJobPayload struct {
	LeadID string `json:"lead_id"`
	Origin string `json:"origin"` // e.g. WEBHOOK_GETSALES
}

type SyncJobProducerInterface interface {
	PublishSyncJob(ctx context.Context, payload SyncJobPayload) error
}

type RabbitMQProducer struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewProducer(conn *amqp.Connection, ch *amqp.Channel) *RabbitMQProducer {
	return &RabbitMQProducer{Conn: conn, Ch: ch}
}

func (p *RabbitMQProducer) PublishSyncJob(ctx context.Context, payload SyncJobPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("sync job marshal failed: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("sync job publish failed: %w", err)
	}
	return nil
}
