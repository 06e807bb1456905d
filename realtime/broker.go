package realtime

import (
	"context"

	"clientdesk/backend/chat/models"
)

// Broker fans message-insert events out to live conversation subscribers.
// Each conversation (client_id) is its own channel; conversations never
// interact.
type Broker interface {
	Publish(ctx context.Context, clientID string, message models.ChatMessage) error
	Subscribe(ctx context.Context, clientID string) (EventSource, error)
}

// EventSource is one live feed of insert events for a single conversation.
// The events channel closes when the feed drops; Close releases the feed.
type EventSource interface {
	Events() <-chan models.ChatMessage
	Close() error
}
