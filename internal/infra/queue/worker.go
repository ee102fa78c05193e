package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// LeadMailer delivers the emails triggered by lead events.
type LeadMailer interface {
	SendNewLeadAlert(event LeadEvent) error
	SendAssignmentNotice(event LeadEvent) error
}

// Consumer is satisfied by *amqp.Channel.
type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

type Worker struct {
	Channel Consumer
	Mailer  LeadMailer
	Logger  *zap.Logger
}

func NewWorker(ch Consumer, mailer LeadMailer, logger *zap.Logger) *Worker {
	return &Worker{
		Channel: ch,
		Mailer:  mailer,
		Logger:  logger,
	}
}

// Start blocks until ctx is cancelled or the delivery channel closes.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack (manual é mais seguro)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("falha ao registrar consumidor RabbitMQ: %w", err)
	}

	w.Logger.Info("lead worker waiting for messages", zap.String("queue", queueName))

	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("lead worker stopped")
			return nil
		case d, ok := <-msgs:
			if !ok {
				w.Logger.Warn("delivery channel closed")
				return nil
			}
			w.handle(ctx, d)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	var event LeadEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		// Mensagem malformada: rejeita sem requeue para não travar a fila
		w.Logger.Error("invalid lead event payload", zap.Error(err))
		d.Nack(false, false)
		return
	}

	if err := w.processMessage(ctx, event); err != nil {
		w.Logger.Error("lead event failed",
			zap.String("type", event.Type),
			zap.String("lead_id", event.LeadID),
			zap.Error(err),
		)
		d.Nack(false, false)
		return
	}

	d.Ack(false)
}

func (w *Worker) processMessage(_ context.Context, event LeadEvent) error {
	switch event.Type {
	case EventLeadCaptured:
		return w.Mailer.SendNewLeadAlert(event)

	case EventLeadAssigned:
		if event.OwnerEmail == "" {
			w.Logger.Info("assignment without owner email, skipping notice", zap.String("lead_id", event.LeadID))
			return nil
		}
		return w.Mailer.SendAssignmentNotice(event)

	default:
		// Sem handler: ACK para tirar a mensagem da fila
		w.Logger.Warn("unknown lead event type", zap.String("type", event.Type))
		return nil
	}
}
