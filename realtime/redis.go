package realtime

import (
	"context"
	"encoding/json"

	"clientdesk/backend/chat/models"
	"clientdesk/backend/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "chat:inserts:"

// RedisBroker implements Broker on redis pub/sub, one redis channel per
// conversation partition
type RedisBroker struct {
	rdb *redis.Client
	log *logger.Logger
}

func NewRedisBroker(rdb *redis.Client, log *logger.Logger) *RedisBroker {
	return &RedisBroker{rdb: rdb, log: log}
}

func channelName(clientID string) string {
	return channelPrefix + clientID
}

// Publish sends a message-insert event to all subscribers of the conversation
func (b *RedisBroker) Publish(ctx context.Context, clientID string, message models.ChatMessage) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, channelName(clientID), payload).Err()
}

// Subscribe opens a live feed for one conversation. The returned source's
// channel closes when the underlying pub/sub connection drops.
func (b *RedisBroker) Subscribe(ctx context.Context, clientID string) (EventSource, error) {
	pubsub := b.rdb.Subscribe(ctx, channelName(clientID))

	// Confirm the subscription before handing the source to the caller
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	source := &redisEventSource{
		pubsub: pubsub,
		events: make(chan models.ChatMessage, 16),
	}
	go source.pump(b.log)
	return source, nil
}

type redisEventSource struct {
	pubsub *redis.PubSub
	events chan models.ChatMessage
}

func (s *redisEventSource) Events() <-chan models.ChatMessage {
	return s.events
}

func (s *redisEventSource) Close() error {
	return s.pubsub.Close()
}

// pump converts raw pub/sub payloads into typed events. It exits, closing
// the events channel, when the pub/sub channel closes.
func (s *redisEventSource) pump(log *logger.Logger) {
	defer close(s.events)

	for raw := range s.pubsub.Channel() {
		var message models.ChatMessage
		if err := json.Unmarshal([]byte(raw.Payload), &message); err != nil {
			log.Warn("dropping malformed realtime payload", "error", err.Error())
			continue
		}
		s.events <- message
	}
}
