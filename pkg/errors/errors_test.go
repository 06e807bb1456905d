package errors

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodesAndStatus(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")

	persistence := NewPersistenceError("write failed", cause)
	assert.Equal(t, http.StatusInternalServerError, persistence.StatusCode)
	assert.Equal(t, CodePersistence, persistence.Code)
	assert.ErrorIs(t, persistence, cause, "the cause must stay reachable through Unwrap")

	upload := NewUploadError("put failed", cause)
	assert.Equal(t, http.StatusBadGateway, upload.StatusCode)
	assert.Equal(t, CodeUpload, upload.Code)

	subscription := NewSubscriptionError("channel gone", cause)
	assert.Equal(t, http.StatusServiceUnavailable, subscription.StatusCode)
	assert.Equal(t, CodeSubscription, subscription.Code)
}

func TestHasCodeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("handler: %w", NewPersistenceError("write failed", nil))

	assert.True(t, HasCode(err, CodePersistence))
	assert.False(t, HasCode(err, CodeUpload))
	assert.False(t, HasCode(errors.New("plain"), CodePersistence))
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, appErr.StatusCode)
	assert.Equal(t, "INTERNAL_ERROR", appErr.Code)

	// An existing AppError passes through untouched
	original := NewNotFoundError("CLIENT_NOT_FOUND", "Client not found")
	assert.Same(t, original, FromError(original))
}

func TestErrorHandlerRendersEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/boom", func(c *gin.Context) {
		c.Error(NewUploadError("attachment bucket unavailable", errors.New("access denied")))
	})

	req, _ := http.NewRequest(http.MethodGet, "/boom", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), CodeUpload)
	assert.Contains(t, w.Body.String(), "attachment bucket unavailable")
}

func TestRecoveryRendersServerError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RecoveryWithLogger())
	r.GET("/panic", func(c *gin.Context) {
		panic("unexpected")
	})

	req, _ := http.NewRequest(http.MethodGet, "/panic", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "SERVER_ERROR")
}
