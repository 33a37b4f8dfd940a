package queue

import (
	"context"
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// SyncRunner is the slice of the sync use case the worker needs.
type SyncRunner interface {
	Run(ctx context.Context, leadID string) error
}

type Worker struct {
	Channel *amqp.Channel
	Syncer  SyncRunner
}

func NewWorker(ch *amqp.Channel, syncer SyncRunner) *Worker {
	return &Worker{Channel: ch, Syncer: syncer}
}

func (w *Worker) Start(queueName string) {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		log.Fatalf("❌ [WORKER] Failed to register RabbitMQ consumer: %s", err)
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			var payload SyncJobPayload
			if err := json.Unmarshal(d.Body, &payload); err != nil {
				log.Printf("❌ [WORKER] Malformed sync job, rejecting: %s", err)
				d.Nack(false, false)
				continue
			}

			log.Printf("⚙️ [WORKER] Syncing conversations for lead %s (origin: %s)", payload.LeadID, payload.Origin)

			if err := w.Syncer.Run(context.Background(), payload.LeadID); err != nil {
				log.Printf("❌ [WORKER] Sync failed for lead %s: %s", payload.LeadID, err)
				// Reject without requeue; the DLQ keeps the job for inspection.
				d.Nack(false, false)
			} else {
				d.Ack(false)
			}
		}
	}()

	log.Printf(" [*] Sync worker waiting on queue '%s'", queueName)
	<-forever
}
