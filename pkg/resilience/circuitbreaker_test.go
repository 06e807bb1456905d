package resilience

import (
	"errors"
	"testing"
	"time"

	"clientdesk/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logger.Logger {
	cfg := logger.DefaultConfig()
	cfg.Level = "error"
	return logger.New(cfg)
}

func failing() error { return errors.New("broker down") }
func succeeding() error { return nil }

func TestBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(Config{
		Name:             "test",
		FailureThreshold: 3,
		SuccessThreshold: 1,
		RetryTimeout:     time.Minute,
	}, testLogger())

	for i := 0; i < 3; i++ {
		require.Error(t, cb.Execute(failing))
	}
	assert.Equal(t, StateOpen, cb.State())

	err := cb.Execute(succeeding)
	assert.ErrorIs(t, err, ErrOpen, "open circuit must short-circuit without calling fn")
}

func TestBreakerRecoversThroughHalfOpen(t *testing.T) {
	cb := NewCircuitBreaker(Config{
		Name:             "test",
		FailureThreshold: 1,
		SuccessThreshold: 2,
		RetryTimeout:     10 * time.Millisecond,
	}, testLogger())

	require.Error(t, cb.Execute(failing))
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)

	require.NoError(t, cb.Execute(succeeding))
	assert.Equal(t, StateHalfOpen, cb.State())
	require.NoError(t, cb.Execute(succeeding))
	assert.Equal(t, StateClosed, cb.State())
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(Config{
		Name:             "test",
		FailureThreshold: 1,
		SuccessThreshold: 2,
		RetryTimeout:     10 * time.Millisecond,
	}, testLogger())

	require.Error(t, cb.Execute(failing))
	time.Sleep(20 * time.Millisecond)

	require.Error(t, cb.Execute(failing))
	assert.Equal(t, StateOpen, cb.State())
}

func TestClosedSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(Config{
		Name:             "test",
		FailureThreshold: 2,
		SuccessThreshold: 1,
		RetryTimeout:     time.Minute,
	}, testLogger())

	require.Error(t, cb.Execute(failing))
	require.NoError(t, cb.Execute(succeeding))
	require.Error(t, cb.Execute(failing))

	assert.Equal(t, StateClosed, cb.State(), "interleaved successes keep the circuit closed")
}
