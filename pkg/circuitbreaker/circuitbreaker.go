package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

var ErrOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// CircuitBreaker opens after more than maxFailures failures inside window and
// rejects calls until timeout has passed. The first call after that runs in
// half-open state: success closes the breaker, failure opens it again.
type CircuitBreaker struct {
	maxFailures     int
	window          time.Duration
	failures        []time.Time
	timeout         time.Duration
	lastFailureTime time.Time
	state           State
	trialInFlight   bool
	now             func() time.Time
	mu              sync.Mutex
}

func NewCircuitBreaker(maxFailures int, timeout time.Duration) *CircuitBreaker {
	return NewCircuitBreakerWithWindow(maxFailures, timeout, 60*time.Second)
}

func NewCircuitBreakerWithWindow(maxFailures int, timeout time.Duration, window time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		maxFailures: maxFailures,
		window:      window,
		timeout:     timeout,
		state:       StateClosed,
		failures:    make([]time.Time, 0),
		now:         time.Now,
	}
}

// Execute runs fn unless the breaker is open, in which case fallback runs
// instead (or ErrOpen is returned when fallback is nil). fn runs without the
// breaker's lock held. While half-open only one trial call is let through.
func (cb *CircuitBreaker) Execute(fn func() error, fallback func() error) error {
	ok, trial := cb.allow()
	if !ok {
		if fallback != nil {
			return fallback()
		}
		return ErrOpen
	}

	err := fn()
	cb.record(err, trial)
	return err
}

func (cb *CircuitBreaker) allow() (ok, trial bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true, false
	case StateOpen:
		if cb.now().Sub(cb.lastFailureTime) < cb.timeout {
			return false, false
		}
		cb.state = StateHalfOpen
		cb.failures = cb.failures[:0]
	}
	if cb.trialInFlight {
		return false, false
	}
	cb.trialInFlight = true
	return true, true
}

// record accounts for a finished call. Only the trial call decides how the
// half-open state ends; calls admitted earlier just count as failures.
func (cb *CircuitBreaker) record(err error, trial bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if trial {
		cb.trialInFlight = false
	}

	now := cb.now()
	if err != nil {
		cb.lastFailureTime = now
		cb.failures = append(cb.failures, now)
		cb.cleanOldFailures(now)

		if len(cb.failures) > cb.maxFailures || trial {
			cb.state = StateOpen
		}
		return
	}

	cb.cleanOldFailures(now)
	if trial && cb.state == StateHalfOpen {
		cb.state = StateClosed
		cb.failures = cb.failures[:0]
	}
}

// cleanOldFailures drops failures that fell out of the window. Failures are
// appended in time order, so the first one inside the window marks the cut.
func (cb *CircuitBreaker) cleanOldFailures(now time.Time) {
	cutoff := now.Add(-cb.window)
	i := 0
	for i < len(cb.failures) && !cb.failures[i].After(cutoff) {
		i++
	}
	if i > 0 {
		cb.failures = append(cb.failures[:0], cb.failures[i:]...)
	}
}

func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
