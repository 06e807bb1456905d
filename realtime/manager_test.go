package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"clientdesk/backend/chat/models"
	apperrors "clientdesk/backend/pkg/errors"
	"clientdesk/backend/pkg/logger"
	"clientdesk/backend/user/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	events    chan models.ChatMessage
	closeOnce sync.Once
	closed    chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		events: make(chan models.ChatMessage, 16),
		closed: make(chan struct{}),
	}
}

func (f *fakeSource) Events() <-chan models.ChatMessage { return f.events }

func (f *fakeSource) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

type fakeBroker struct {
	source *fakeSource
	err    error
}

func (f *fakeBroker) Publish(ctx context.Context, clientID string, message models.ChatMessage) error {
	return nil
}

func (f *fakeBroker) Subscribe(ctx context.Context, clientID string) (EventSource, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.source, nil
}

type fakeMarker struct {
	mu     sync.Mutex
	marked []string
}

func (f *fakeMarker) MarkRead(ctx context.Context, messageID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, messageID)
}

func (f *fakeMarker) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.marked...)
}

type fakeSingleResolver struct {
	names map[string]string
}

func (f *fakeSingleResolver) ResolveName(ctx context.Context, senderID string) string {
	if name, ok := f.names[senderID]; ok {
		return name
	}
	return service.UnknownUser
}

type statusRecorder struct {
	mu       sync.Mutex
	statuses []Status
	errs     []error
}

func (r *statusRecorder) record(status Status, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
	r.errs = append(r.errs, err)
}

func (r *statusRecorder) all() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Status(nil), r.statuses...)
}

func testLogger() *logger.Logger {
	cfg := logger.DefaultConfig()
	cfg.Level = "error"
	return logger.New(cfg)
}

func newTestManager(broker Broker, marker ReadMarker, resolver SingleResolver) *Manager {
	return NewManager(broker, marker, resolver, testLogger(), nil)
}

func collectMessages(buf chan models.ChatMessage) Handler {
	return func(message models.ChatMessage) {
		buf <- message
	}
}

func waitFor(t *testing.T, buf chan models.ChatMessage) models.ChatMessage {
	t.Helper()
	select {
	case m := <-buf:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
		return models.ChatMessage{}
	}
}

func TestSubscribeReportsStatusTransitions(t *testing.T) {
	broker := &fakeBroker{source: newFakeSource()}
	recorder := &statusRecorder{}
	manager := newTestManager(broker, &fakeMarker{}, &fakeSingleResolver{})

	sub, err := manager.Subscribe(context.Background(), "c1", false, func(models.ChatMessage) {}, recorder.record)
	require.NoError(t, err)
	defer sub.Close()

	assert.Equal(t, []Status{StatusConnecting, StatusSubscribed}, recorder.all())
}

func TestSubscribeFailureIsSubscriptionError(t *testing.T) {
	broker := &fakeBroker{err: errors.New("redis gone")}
	recorder := &statusRecorder{}
	manager := newTestManager(broker, &fakeMarker{}, &fakeSingleResolver{})

	sub, err := manager.Subscribe(context.Background(), "c1", false, func(models.ChatMessage) {}, recorder.record)
	require.Error(t, err)
	assert.Nil(t, sub)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeSubscription))
	assert.Equal(t, []Status{StatusConnecting, StatusError}, recorder.all())
}

func TestIncomingMessageIsMarkedReadAndHydrated(t *testing.T) {
	source := newFakeSource()
	broker := &fakeBroker{source: source}
	marker := &fakeMarker{}
	resolver := &fakeSingleResolver{names: map[string]string{"portal-1": "Grace"}}
	manager := newTestManager(broker, marker, resolver)

	buf := make(chan models.ChatMessage, 1)
	// Admin viewer: a message from the client side counts as incoming
	sub, err := manager.Subscribe(context.Background(), "c1", false, collectMessages(buf), nil)
	require.NoError(t, err)
	defer sub.Close()

	source.events <- models.ChatMessage{ID: "m1", SenderID: "portal-1", IsFromClient: true}

	got := waitFor(t, buf)
	assert.Equal(t, "Grace", got.SenderName)

	assert.Eventually(t, func() bool {
		marked := marker.all()
		return len(marked) == 1 && marked[0] == "m1"
	}, 2*time.Second, 10*time.Millisecond, "incoming message must be marked read exactly once")
}

func TestOwnSideMessageIsNotMarkedRead(t *testing.T) {
	source := newFakeSource()
	broker := &fakeBroker{source: source}
	marker := &fakeMarker{}
	manager := newTestManager(broker, marker, &fakeSingleResolver{})

	buf := make(chan models.ChatMessage, 1)
	sub, err := manager.Subscribe(context.Background(), "c1", true, collectMessages(buf), nil)
	require.NoError(t, err)
	defer sub.Close()

	// Client viewer receiving a client-authored message: not incoming
	source.events <- models.ChatMessage{ID: "m1", SenderID: "portal-1", IsFromClient: true}
	waitFor(t, buf)

	assert.Empty(t, marker.all())
}

func TestPrePopulatedSenderNameIsKept(t *testing.T) {
	source := newFakeSource()
	broker := &fakeBroker{source: source}
	resolver := &fakeSingleResolver{names: map[string]string{"u1": "FromLookup"}}
	manager := newTestManager(broker, &fakeMarker{}, resolver)

	buf := make(chan models.ChatMessage, 1)
	sub, err := manager.Subscribe(context.Background(), "c1", true, collectMessages(buf), nil)
	require.NoError(t, err)
	defer sub.Close()

	source.events <- models.ChatMessage{ID: "m1", SenderID: "u1", SenderName: "FromPayload", IsFromClient: true}

	got := waitFor(t, buf)
	assert.Equal(t, "FromPayload", got.SenderName, "payload hint wins over a fresh lookup")
}

func TestUnresolvableSenderGetsFallbackName(t *testing.T) {
	source := newFakeSource()
	broker := &fakeBroker{source: source}
	manager := newTestManager(broker, &fakeMarker{}, &fakeSingleResolver{})

	buf := make(chan models.ChatMessage, 1)
	sub, err := manager.Subscribe(context.Background(), "c1", true, collectMessages(buf), nil)
	require.NoError(t, err)
	defer sub.Close()

	source.events <- models.ChatMessage{ID: "m1", SenderID: "ghost", IsFromClient: true}

	got := waitFor(t, buf)
	assert.Equal(t, service.UnknownUser, got.SenderName)
}

func TestCloseStopsDeliveryAndReleasesSource(t *testing.T) {
	source := newFakeSource()
	broker := &fakeBroker{source: source}
	manager := newTestManager(broker, &fakeMarker{}, &fakeSingleResolver{})

	buf := make(chan models.ChatMessage, 16)
	sub, err := manager.Subscribe(context.Background(), "c1", true, collectMessages(buf), nil)
	require.NoError(t, err)

	require.NoError(t, sub.Close())
	// Closing twice is safe
	require.NoError(t, sub.Close())

	select {
	case <-source.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("underlying feed was not released on close")
	}
}

func TestLostFeedReportsDisconnected(t *testing.T) {
	source := newFakeSource()
	broker := &fakeBroker{source: source}
	recorder := &statusRecorder{}
	manager := newTestManager(broker, &fakeMarker{}, &fakeSingleResolver{})

	sub, err := manager.Subscribe(context.Background(), "c1", true, func(models.ChatMessage) {}, recorder.record)
	require.NoError(t, err)
	defer sub.Close()

	close(source.events)

	assert.Eventually(t, func() bool {
		statuses := recorder.all()
		return len(statuses) == 3 && statuses[2] == StatusDisconnected
	}, 2*time.Second, 10*time.Millisecond, "a dropped feed must surface as disconnected, not retry")
}
