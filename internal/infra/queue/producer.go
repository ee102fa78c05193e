package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventLeadCaptured = "lead.captured"
	EventLeadAssigned = "lead.assigned"
)

type LeadEvent struct {
	Type      string `json:"type"`
	LeadID    string `json:"lead_id"`
	LeadName  string `json:"lead_name"`
	LeadEmail string `json:"lead_email"`
	LeadPhone string `json:"lead_phone"`
	Treatment string `json:"treatment"`
	Source    string `json:"source,omitempty"`
	Message   string `json:"message,omitempty"`

	OwnerName  string `json:"owner_name,omitempty"`
	OwnerEmail string `json:"owner_email,omitempty"`
	AssignedBy string `json:"assigned_by,omitempty"`

	OccurredAt time.Time `json:"occurred_at"`
}

type QueueProducerInterface interface {
	PublishLeadEvent(ctx context.Context, event LeadEvent) error
}

// Publisher is satisfied by *amqp.Channel.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQProducer struct {
	Ch Publisher
}

func NewProducer(ch Publisher) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch}
}

func (p *RabbitMQProducer) PublishLeadEvent(ctx context.Context, event LeadEvent) error {
	key, err := routingKeyFor(event.Type)
	if err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("erro ao converter payload: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		key,
		false, // Mandatory
		false, // Immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.OccurredAt,
			Type:         event.Type,
		},
	)
	if err != nil {
		return fmt.Errorf("falha ao publicar no RabbitMQ: %w", err)
	}

	return nil
}

func routingKeyFor(eventType string) (string, error) {
	switch eventType {
	case EventLeadCaptured:
		return RoutingKeyCaptured, nil
	case EventLeadAssigned:
		return RoutingKeyAssigned, nil
	}
	return "", fmt.Errorf("unknown lead event type %q", eventType)
}
