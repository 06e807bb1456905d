package service

import (
	"context"
	"strings"

	"clientdesk/backend/chat/models"
	"clientdesk/backend/chat/repository"
	"clientdesk/backend/pkg/errors"
	"clientdesk/backend/pkg/logger"
	"clientdesk/backend/shared/observability"
)

// NameResolver batch-resolves sender ids to display names
type NameResolver interface {
	ResolveNames(ctx context.Context, senderIDs []string) map[string]string
}

// EventPublisher forwards a freshly persisted message to live subscribers
type EventPublisher interface {
	Publish(ctx context.Context, clientID string, message models.ChatMessage) error
}

// NotificationPublisher emits message-created events for the external
// email sender
type NotificationPublisher interface {
	MessageCreated(ctx context.Context, message *models.ChatMessage) error
}

// ChatService implements the message store access layer
type ChatService struct {
	repo     repository.MessageRepository
	resolver NameResolver
	events   EventPublisher
	notify   NotificationPublisher
	log      *logger.Logger
	metrics  *observability.Metrics
}

func NewChatService(
	repo repository.MessageRepository,
	resolver NameResolver,
	events EventPublisher,
	notify NotificationPublisher,
	log *logger.Logger,
	metrics *observability.Metrics,
) *ChatService {
	return &ChatService{
		repo:     repo,
		resolver: resolver,
		events:   events,
		notify:   notify,
		log:      log,
		metrics:  metrics,
	}
}

// SendMessage persists a new message. Text is trimmed; when both the
// trimmed text and the attachment are absent the send is a deliberate
// no-op and returns (nil, nil) without writing anything.
func (s *ChatService) SendMessage(ctx context.Context, clientID, senderID, text string, isFromClient bool, attachmentURL, attachmentType string) (*models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" && attachmentURL == "" {
		return nil, nil
	}

	message := &models.ChatMessage{
		ClientID:       clientID,
		SenderID:       senderID,
		IsFromClient:   isFromClient,
		Message:        text,
		AttachmentURL:  attachmentURL,
		AttachmentType: attachmentType,
		IsRead:         false,
	}

	if err := s.repo.Create(ctx, message); err != nil {
		return nil, errors.NewPersistenceError("failed to persist chat message", err)
	}

	s.metrics.RecordMessageSent(ctx)

	// Fan-out and notification are fire-and-forget for the sender; a
	// failure here must not fail the send.
	if s.events != nil {
		if err := s.events.Publish(ctx, clientID, *message); err != nil {
			s.log.LogError(err, "failed to publish realtime message event", "message_id", message.ID)
		}
	}
	if s.notify != nil {
		if err := s.notify.MessageCreated(ctx, message); err != nil {
			s.log.LogError(err, "failed to publish notification event", "message_id", message.ID)
		}
	}

	return message, nil
}

// FetchConversation returns the full conversation ascending by created_at,
// with sender_name resolved for every entry in a single batched lookup.
func (s *ChatService) FetchConversation(ctx context.Context, clientID string) ([]models.ChatMessage, error) {
	messages, err := s.repo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, errors.NewPersistenceError("failed to load conversation", err)
	}

	if len(messages) == 0 {
		return messages, nil
	}

	senderIDs := make([]string, 0, len(messages))
	for _, m := range messages {
		senderIDs = append(senderIDs, m.SenderID)
	}

	names := s.resolver.ResolveNames(ctx, senderIDs)
	for i := range messages {
		messages[i].SenderName = names[messages[i].SenderID]
	}

	return messages, nil
}

// MarkRead flips a message to read. Read-state is best-effort: failures
// are logged and swallowed, and re-marking an already-read message is a
// harmless no-op.
func (s *ChatService) MarkRead(ctx context.Context, messageID string) {
	if err := s.repo.MarkRead(ctx, messageID); err != nil {
		s.log.Warn("failed to mark message read", "message_id", messageID, "error", err.Error())
	}
}
