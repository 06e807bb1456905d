package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the chat core instruments
type Metrics struct {
	MessagesSent        metric.Int64Counter
	AttachmentsUploaded metric.Int64Counter
	ActiveSubscriptions metric.Int64UpDownCounter
}

// NewMetrics creates the chat instruments on the global meter provider
func NewMetrics() (*Metrics, error) {
	meter := otel.GetMeterProvider().Meter("clientdesk/backend")

	messagesSent, err := meter.Int64Counter("chat_messages_sent_total",
		metric.WithDescription("Messages persisted by the chat service"))
	if err != nil {
		return nil, err
	}

	attachmentsUploaded, err := meter.Int64Counter("chat_attachments_uploaded_total",
		metric.WithDescription("Attachments uploaded to object storage"))
	if err != nil {
		return nil, err
	}

	activeSubscriptions, err := meter.Int64UpDownCounter("chat_subscriptions_active",
		metric.WithDescription("Open realtime conversation subscriptions"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		MessagesSent:        messagesSent,
		AttachmentsUploaded: attachmentsUploaded,
		ActiveSubscriptions: activeSubscriptions,
	}, nil
}

// RecordMessageSent increments the sent-message counter
func (m *Metrics) RecordMessageSent(ctx context.Context) {
	if m == nil {
		return
	}
	m.MessagesSent.Add(ctx, 1)
}

// RecordAttachmentUploaded increments the upload counter
func (m *Metrics) RecordAttachmentUploaded(ctx context.Context) {
	if m == nil {
		return
	}
	m.AttachmentsUploaded.Add(ctx, 1)
}

// SubscriptionOpened and SubscriptionClosed track the live subscription gauge

func (m *Metrics) SubscriptionOpened(ctx context.Context) {
	if m == nil {
		return
	}
	m.ActiveSubscriptions.Add(ctx, 1)
}

func (m *Metrics) SubscriptionClosed(ctx context.Context) {
	if m == nil {
		return
	}
	m.ActiveSubscriptions.Add(ctx, -1)
}
