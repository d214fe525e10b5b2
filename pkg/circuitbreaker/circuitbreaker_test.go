package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errBoom = errors.New("boom")

func failing() error    { return errBoom }
func succeeding() error { return nil }

func newTestBreaker(maxFailures int, clock *time.Time) *CircuitBreaker {
	cb := NewCircuitBreakerWithWindow(maxFailures, 10*time.Second, time.Minute)
	cb.now = func() time.Time { return *clock }
	return cb
}

func TestOpensAfterTooManyFailures(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := newTestBreaker(2, &clock)

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, cb.Execute(failing, nil), errBoom)
		assert.Equal(t, StateClosed, cb.GetState())
	}
	assert.ErrorIs(t, cb.Execute(failing, nil), errBoom)
	assert.Equal(t, StateOpen, cb.GetState())

	called := false
	err := cb.Execute(func() error { called = true; return nil }, nil)
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestFallbackRunsWhileOpen(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := newTestBreaker(0, &clock)

	assert.Error(t, cb.Execute(failing, nil))
	assert.Equal(t, StateOpen, cb.GetState())

	err := cb.Execute(succeeding, func() error { return nil })
	assert.NoError(t, err)
	assert.Equal(t, StateOpen, cb.GetState())
}

func TestHalfOpenClosesOnSuccess(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := newTestBreaker(0, &clock)
	cb.Execute(failing, nil)
	assert.Equal(t, StateOpen, cb.GetState())

	clock = clock.Add(11 * time.Second)
	assert.NoError(t, cb.Execute(succeeding, nil))
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestHalfOpenReopensOnFailure(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := newTestBreaker(5, &clock)
	for i := 0; i < 6; i++ {
		cb.Execute(failing, nil)
	}
	assert.Equal(t, StateOpen, cb.GetState())

	clock = clock.Add(11 * time.Second)
	assert.ErrorIs(t, cb.Execute(failing, nil), errBoom)
	assert.Equal(t, StateOpen, cb.GetState())
}

func TestHalfOpenLetsOneTrialThrough(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := newTestBreaker(0, &clock)
	cb.Execute(failing, nil)
	assert.Equal(t, StateOpen, cb.GetState())

	clock = clock.Add(11 * time.Second)
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error)
	go func() {
		done <- cb.Execute(func() error {
			close(started)
			<-release
			return nil
		}, nil)
	}()
	<-started
	assert.Equal(t, StateHalfOpen, cb.GetState())

	called := false
	err := cb.Execute(func() error { called = true; return nil }, nil)
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)

	close(release)
	assert.NoError(t, <-done)
	assert.Equal(t, StateClosed, cb.GetState())
	assert.NoError(t, cb.Execute(succeeding, nil))
}

func TestOldFailuresLeaveTheWindow(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := newTestBreaker(1, &clock)

	cb.Execute(failing, nil)
	clock = clock.Add(2 * time.Minute)
	cb.Execute(failing, nil)

	assert.Equal(t, StateClosed, cb.GetState())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "CLOSED", StateClosed.String())
	assert.Equal(t, "OPEN", StateOpen.String())
	assert.Equal(t, "HALF_OPEN", StateHalfOpen.String())
}
