package notify

import (
	"context"
	"encoding/json"
	"time"

	"clientdesk/backend/chat/models"
	"clientdesk/backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

// Routing key for message-created events consumed by the email sender
const messageCreatedKey = "chat.message.created"

// Event is the envelope published for every persisted message
type Event struct {
	ID         string             `json:"id"`
	Type       string             `json:"type"`
	OccurredAt time.Time          `json:"occurred_at"`
	Message    models.ChatMessage `json:"message"`
}

// Publisher emits notification events. The email sender consuming them is
// a separate service; publishing is fire-and-forget from the chat core's
// point of view.
type Publisher interface {
	MessageCreated(ctx context.Context, message *models.ChatMessage) error
	Close() error
}

// AMQPPublisher publishes events to a topic exchange
type AMQPPublisher struct {
	conn     *amqp091.Connection
	exchange string
	log      *logger.Logger
}

// NewAMQPPublisher connects and declares the exchange
func NewAMQPPublisher(url, exchange string, log *logger.Logger) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(
		exchange, "topic", true, false, false, false, nil,
	); err != nil {
		conn.Close()
		return nil, err
	}

	return &AMQPPublisher{
		conn:     conn,
		exchange: exchange,
		log:      log,
	}, nil
}

func (p *AMQPPublisher) MessageCreated(ctx context.Context, message *models.ChatMessage) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	event := Event{
		ID:         uuid.NewString(),
		Type:       messageCreatedKey,
		OccurredAt: time.Now(),
		Message:    *message,
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(
		ctx, p.exchange, messageCreatedKey, false, false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    event.ID,
			Timestamp:    event.OccurredAt,
			Body:         body,
		},
	)
	if err == nil {
		p.log.Info("notification event published", "key", messageCreatedKey, "message_id", message.ID)
	}
	return err
}

func (p *AMQPPublisher) Close() error {
	return p.conn.Close()
}

// FallbackPublisher is used when AMQP is not configured; it logs and drops
type FallbackPublisher struct {
	log *logger.Logger
}

func NewFallback(log *logger.Logger) *FallbackPublisher {
	return &FallbackPublisher{log: log}
}

func (p *FallbackPublisher) MessageCreated(ctx context.Context, message *models.ChatMessage) error {
	p.log.Warn("FallbackPublisher: skipped notification event", "message_id", message.ID)
	return nil
}

func (p *FallbackPublisher) Close() error {
	return nil
}
