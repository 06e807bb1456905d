package notify

import (
	"context"
	"errors"

	"clientdesk/backend/chat/models"
	"clientdesk/backend/pkg/logger"
	"clientdesk/backend/pkg/resilience"
)

// ResilientPublisher wraps a publisher with a circuit breaker. Notification
// delivery is best-effort, so when the broker keeps failing the breaker
// short-circuits publishes instead of paying the connection timeout on
// every message.
type ResilientPublisher struct {
	inner   Publisher
	breaker *resilience.CircuitBreaker
	log     *logger.Logger
}

func NewResilient(inner Publisher, log *logger.Logger) *ResilientPublisher {
	return &ResilientPublisher{
		inner:   inner,
		breaker: resilience.NewCircuitBreaker(resilience.DefaultConfig("notify-amqp"), log),
		log:     log,
	}
}

func (p *ResilientPublisher) MessageCreated(ctx context.Context, message *models.ChatMessage) error {
	err := p.breaker.Execute(func() error {
		return p.inner.MessageCreated(ctx, message)
	})
	if errors.Is(err, resilience.ErrOpen) {
		p.log.Warn("notification dropped, broker circuit open", "message_id", message.ID)
	}
	return err
}

func (p *ResilientPublisher) Close() error {
	return p.inner.Close()
}
