package realtime

import (
	"context"
	"sync"

	"clientdesk/backend/chat/models"
	"clientdesk/backend/pkg/errors"
	"clientdesk/backend/pkg/logger"
	"clientdesk/backend/shared/observability"
	"clientdesk/backend/user/service"
)

// Status of a conversation subscription
type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusSubscribed   Status = "subscribed"
	StatusDisconnected Status = "disconnected"
	StatusError        Status = "error"
)

// Handler receives each fully hydrated message exactly once
type Handler func(message models.ChatMessage)

// StatusFunc receives subscription status transitions. Any status other
// than Subscribed after the initial attempt means the live feed is gone;
// the manager never retries internally, reconnecting is the caller's job.
type StatusFunc func(status Status, err error)

// ReadMarker marks an incoming message read, best-effort
type ReadMarker interface {
	MarkRead(ctx context.Context, messageID string)
}

// SingleResolver resolves one sender id on the live path
type SingleResolver interface {
	ResolveName(ctx context.Context, senderID string) string
}

// Manager turns broker feeds into hydrated per-conversation streams:
// it applies the read-marking policy, fills in sender_name when the
// payload lacks it, and invokes the handler once per event.
type Manager struct {
	broker   Broker
	marker   ReadMarker
	resolver SingleResolver
	log      *logger.Logger
	metrics  *observability.Metrics
}

func NewManager(broker Broker, marker ReadMarker, resolver SingleResolver, log *logger.Logger, metrics *observability.Metrics) *Manager {
	return &Manager{
		broker:   broker,
		marker:   marker,
		resolver: resolver,
		log:      log,
		metrics:  metrics,
	}
}

// Subscription is the disposable handle returned by Subscribe. Closing it
// stops further handler invocations and releases the underlying feed.
type Subscription struct {
	closeOnce sync.Once
	done      chan struct{}
}

// Close tears the subscription down; safe to call more than once
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	return nil
}

// Subscribe opens a live feed for one conversation. viewerIsClient states
// which side of the conversation the subscriber is on; messages from the
// other side count as incoming and get marked read.
func (m *Manager) Subscribe(ctx context.Context, clientID string, viewerIsClient bool, onMessage Handler, onStatus StatusFunc) (*Subscription, error) {
	notify := func(status Status, err error) {
		if onStatus != nil {
			onStatus(status, err)
		}
	}

	notify(StatusConnecting, nil)

	source, err := m.broker.Subscribe(ctx, clientID)
	if err != nil {
		notify(StatusError, err)
		return nil, errors.NewSubscriptionError("failed to open realtime channel", err)
	}

	notify(StatusSubscribed, nil)
	m.metrics.SubscriptionOpened(ctx)

	sub := &Subscription{done: make(chan struct{})}
	go m.run(clientID, viewerIsClient, source, sub, onMessage, notify)

	return sub, nil
}

func (m *Manager) run(clientID string, viewerIsClient bool, source EventSource, sub *Subscription, onMessage Handler, notify func(Status, error)) {
	log := m.log.WithConversation(clientID)
	defer m.metrics.SubscriptionClosed(context.Background())
	defer source.Close()

	for {
		select {
		case message, ok := <-source.Events():
			if !ok {
				// Feed dropped underneath us; surface it and stop.
				// Reconnection is an explicit re-subscribe by the caller.
				log.Warn("realtime feed lost")
				notify(StatusDisconnected, nil)
				return
			}
			m.deliver(message, viewerIsClient, onMessage)

		case <-sub.done:
			return
		}
	}
}

// deliver applies the read-marking policy, hydrates the sender name and
// invokes the handler exactly once
func (m *Manager) deliver(message models.ChatMessage, viewerIsClient bool, onMessage Handler) {
	// A message is incoming when the viewer did not author it
	incoming := message.IsFromClient != viewerIsClient
	if incoming {
		// Fire-and-forget; a failed mark-read must not break delivery
		go m.marker.MarkRead(context.Background(), message.ID)
	}

	// Payloads may arrive with sender_name pre-populated; treat that as a
	// hint only and resolve when absent
	if message.SenderName == "" {
		message.SenderName = m.resolver.ResolveName(context.Background(), message.SenderID)
		if message.SenderName == "" {
			message.SenderName = service.UnknownUser
		}
	}

	onMessage(message)
}
