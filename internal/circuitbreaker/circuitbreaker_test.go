package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/zoeholiday/pricingservice/internal/metrics"
)

var errDown = errors.New("redis: connection refused")

func newTestBreaker(t *testing.T, now *time.Time) *CircuitBreaker {
	cb := New(t.Name(), Config{
		MaxFailures:      2,
		Timeout:          10 * time.Second,
		SuccessThreshold: 2,
	}, zap.NewNop())
	cb.now = func() time.Time { return *now }
	return cb
}

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	now := time.Date(2026, time.May, 10, 9, 0, 0, 0, time.UTC)
	cb := newTestBreaker(t, &now)
	fail := func() error { return errDown }

	assert.ErrorIs(t, cb.Execute(fail), errDown)
	assert.Equal(t, StateClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(fail), errDown)
	assert.Equal(t, StateOpen, cb.State())
	assert.Equal(t, float64(StateOpen), testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues(cb.name)))

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	now := time.Date(2026, time.May, 10, 9, 0, 0, 0, time.UTC)
	cb := newTestBreaker(t, &now)

	_ = cb.Execute(func() error { return errDown })
	_ = cb.Execute(func() error { return nil })
	_ = cb.Execute(func() error { return errDown })

	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	now := time.Date(2026, time.May, 10, 9, 0, 0, 0, time.UTC)
	cb := newTestBreaker(t, &now)
	ok := func() error { return nil }

	_ = cb.Execute(func() error { return errDown })
	_ = cb.Execute(func() error { return errDown })
	assert.Equal(t, StateOpen, cb.State())

	now = now.Add(11 * time.Second)
	assert.NoError(t, cb.Execute(ok))
	assert.Equal(t, StateHalfOpen, cb.State())
	assert.NoError(t, cb.Execute(ok))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Date(2026, time.May, 10, 9, 0, 0, 0, time.UTC)
	cb := newTestBreaker(t, &now)

	_ = cb.Execute(func() error { return errDown })
	_ = cb.Execute(func() error { return errDown })

	now = now.Add(11 * time.Second)
	assert.ErrorIs(t, cb.Execute(func() error { return errDown }), errDown)
	assert.Equal(t, StateOpen, cb.State())
	assert.ErrorIs(t, cb.Execute(func() error { return nil }), ErrCircuitOpen)

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(9).String())
}
