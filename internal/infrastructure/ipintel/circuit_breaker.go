package ipintel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/davidleathers/loan-fraud-features/internal/infrastructure/config"
)

// CircuitState is the breaker position.
type CircuitState int32

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrCircuitBreakerOpen is returned without calling the lookup while the
// breaker is open.
var ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

// CircuitBreaker stops calling a failing lookup after FailureThreshold
// consecutive failures and probes it again once Timeout has elapsed.
type CircuitBreaker struct {
	failureThreshold int64
	successThreshold int64
	timeout          time.Duration

	state           int32 // atomic CircuitState
	lastFailureTime int64 // atomic: unix nano
	failureCount    int64 // atomic
	successCount    int64 // atomic

	mutex         sync.RWMutex
	onStateChange func(from, to CircuitState)
	now           func() time.Time
}

// NewCircuitBreaker creates a closed breaker. Zero settings fall back to
// 5 failures, 3 successes and a 30s open period.
func NewCircuitBreaker(cfg config.CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &CircuitBreaker{
		failureThreshold: int64(cfg.FailureThreshold),
		successThreshold: int64(cfg.SuccessThreshold),
		timeout:          cfg.Timeout,
		now:              time.Now,
	}
}

// Execute runs fn unless the breaker is open. Errors for which countable
// returns false pass through without moving the breaker.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if !cb.allowRequest() {
		return ErrCircuitBreakerOpen
	}

	err := fn(ctx)
	switch {
	case err == nil:
		cb.recordSuccess()
	case countable(err):
		cb.recordFailure()
	}
	return err
}

// State returns the current position.
func (cb *CircuitBreaker) State() CircuitState {
	return CircuitState(atomic.LoadInt32(&cb.state))
}

// Reset closes the breaker and clears its counters.
func (cb *CircuitBreaker) Reset() {
	old := cb.State()
	atomic.StoreInt32(&cb.state, int32(CircuitClosed))
	atomic.StoreInt64(&cb.failureCount, 0)
	atomic.StoreInt64(&cb.successCount, 0)
	atomic.StoreInt64(&cb.lastFailureTime, 0)

	if old != CircuitClosed {
		cb.notifyStateChange(old, CircuitClosed)
	}
}

// SetStateChangeCallback registers fn, called synchronously on every transition.
func (cb *CircuitBreaker) SetStateChangeCallback(fn func(from, to CircuitState)) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.onStateChange = fn
}

func (cb *CircuitBreaker) allowRequest() bool {
	switch cb.State() {
	case CircuitClosed, CircuitHalfOpen:
		return true
	case CircuitOpen:
		lastFailure := atomic.LoadInt64(&cb.lastFailureTime)
		if cb.now().Sub(time.Unix(0, lastFailure)) < cb.timeout {
			return false
		}
		if atomic.CompareAndSwapInt32(&cb.state, int32(CircuitOpen), int32(CircuitHalfOpen)) {
			atomic.StoreInt64(&cb.successCount, 0)
			cb.notifyStateChange(CircuitOpen, CircuitHalfOpen)
		}
		return true
	default:
		return false
	}
}

func (cb *CircuitBreaker) recordFailure() {
	failures := atomic.AddInt64(&cb.failureCount, 1)
	atomic.StoreInt64(&cb.lastFailureTime, cb.now().UnixNano())

	switch cb.State() {
	case CircuitHalfOpen:
		// a failed probe reopens immediately
		if atomic.CompareAndSwapInt32(&cb.state, int32(CircuitHalfOpen), int32(CircuitOpen)) {
			cb.notifyStateChange(CircuitHalfOpen, CircuitOpen)
		}
	case CircuitClosed:
		if failures >= cb.failureThreshold {
			if atomic.CompareAndSwapInt32(&cb.state, int32(CircuitClosed), int32(CircuitOpen)) {
				cb.notifyStateChange(CircuitClosed, CircuitOpen)
			}
		}
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	switch cb.State() {
	case CircuitClosed:
		atomic.StoreInt64(&cb.failureCount, 0)
	case CircuitHalfOpen:
		successes := atomic.AddInt64(&cb.successCount, 1)
		if successes >= cb.successThreshold {
			if atomic.CompareAndSwapInt32(&cb.state, int32(CircuitHalfOpen), int32(CircuitClosed)) {
				atomic.StoreInt64(&cb.failureCount, 0)
				atomic.StoreInt64(&cb.successCount, 0)
				cb.notifyStateChange(CircuitHalfOpen, CircuitClosed)
			}
		}
	}
}

func (cb *CircuitBreaker) notifyStateChange(from, to CircuitState) {
	cb.mutex.RLock()
	fn := cb.onStateChange
	cb.mutex.RUnlock()
	if fn != nil {
		fn(from, to)
	}
}

// countable reports whether err says something about the lookup's health.
// Bad input and caller cancellation do not.
func countable(err error) bool {
	return !errors.Is(err, ErrInvalidIP) &&
		!errors.Is(err, context.Canceled)
}
