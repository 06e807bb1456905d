package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"clientdesk/backend/chat/models"
	"clientdesk/backend/chat/service"
	apperrors "clientdesk/backend/pkg/errors"
	"clientdesk/backend/pkg/jwt"
	"clientdesk/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMessageRepo struct {
	stored    []models.ChatMessage
	createErr error
}

func (s *stubMessageRepo) Create(ctx context.Context, message *models.ChatMessage) error {
	if s.createErr != nil {
		return s.createErr
	}
	message.ID = "msg-1"
	s.stored = append(s.stored, *message)
	return nil
}

func (s *stubMessageRepo) GetByID(ctx context.Context, id string) (*models.ChatMessage, error) {
	return nil, errors.New("not implemented")
}

func (s *stubMessageRepo) ListByClient(ctx context.Context, clientID string) ([]models.ChatMessage, error) {
	return s.stored, nil
}

func (s *stubMessageRepo) ListByClientPaginated(ctx context.Context, clientID string, limit, offset int) ([]models.ChatMessage, error) {
	return s.stored, nil
}

func (s *stubMessageRepo) MarkRead(ctx context.Context, id string) error { return nil }

type stubResolver struct{}

func (stubResolver) ResolveNames(ctx context.Context, senderIDs []string) map[string]string {
	out := make(map[string]string, len(senderIDs))
	for _, id := range senderIDs {
		out[id] = "Ada"
	}
	return out
}

func testLogger() *logger.Logger {
	cfg := logger.DefaultConfig()
	cfg.Level = "error"
	return logger.New(cfg)
}

func setClaims(claims *jwt.Claims) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("claims", claims)
		c.Next()
	}
}

func newTestRouter(repo *stubMessageRepo, claims *jwt.Claims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	chat := service.NewChatService(repo, stubResolver{}, nil, nil, testLogger(), nil)
	handler := NewMessageHandler(chat, nil)

	r := gin.New()
	r.Use(apperrors.ErrorHandler())
	v1 := r.Group("/api/v1")
	handler.RegisterRoutesV1(v1, setClaims(claims))
	return r
}

func adminClaims() *jwt.Claims {
	return &jwt.Claims{UserID: "admin-1", Role: jwt.RoleAdmin}
}

func TestSendMessageEndpoint(t *testing.T) {
	repo := &stubMessageRepo{}
	r := newTestRouter(repo, adminClaims())

	body, _ := json.Marshal(SendMessageRequest{Message: "hello"})
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/chat/client-1/messages", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, repo.stored, 1)
	assert.Equal(t, "client-1", repo.stored[0].ClientID)
	assert.False(t, repo.stored[0].IsFromClient, "admin sends are flagged as the dashboard side")
}

func TestSendMessageEmptyBodyIsNoContent(t *testing.T) {
	repo := &stubMessageRepo{}
	r := newTestRouter(repo, adminClaims())

	body, _ := json.Marshal(SendMessageRequest{Message: "   "})
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/chat/client-1/messages", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, repo.stored)
}

func TestSendMessagePersistenceFailureIsServerError(t *testing.T) {
	repo := &stubMessageRepo{createErr: errors.New("deadline exceeded")}
	r := newTestRouter(repo, adminClaims())

	body, _ := json.Marshal(SendMessageRequest{Message: "hello"})
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/chat/client-1/messages", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), apperrors.CodePersistence)
}

func TestGetConversationEndpoint(t *testing.T) {
	repo := &stubMessageRepo{stored: []models.ChatMessage{
		{ID: "m1", ClientID: "client-1", SenderID: "admin-1", Message: "hi"},
	}}
	r := newTestRouter(repo, adminClaims())

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/chat/client-1/messages", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var messages []models.ChatMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &messages))
	require.Len(t, messages, 1)
	assert.Equal(t, "Ada", messages[0].SenderName, "history must come back hydrated")
}

func TestConversationAccessDeniedForOtherClient(t *testing.T) {
	repo := &stubMessageRepo{}
	claims := &jwt.Claims{UserID: "portal-1", Role: jwt.RoleClient, ClientID: "client-1"}
	r := newTestRouter(repo, claims)

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/chat/client-2/messages", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMarkReadEndpointAlwaysAcknowledges(t *testing.T) {
	repo := &stubMessageRepo{}
	r := newTestRouter(repo, adminClaims())

	req, _ := http.NewRequest(http.MethodPost, "/api/v1/chat/messages/m1/read", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}
