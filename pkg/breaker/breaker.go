// Package breaker provides the process-wide circuit breaker guarding the
// upstream GraphQL API. It is constructed once and injected into every
// request-scoped client, so all requests share one failure picture.
package breaker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// Breaker states as reported by Status.
const (
	StateClosed   = "closed"
	StateOpen     = "open"
	StateHalfOpen = "half_open"
)

// Config holds the circuit breaker tuning knobs. The defaults are a
// starting point, not a correctness requirement.
type Config struct {
	// FailureThreshold is the number of consecutive failures that trips
	// the breaker from closed to open.
	FailureThreshold uint32

	// ResetTimeout is how long the breaker stays open before allowing a
	// half-open trial request.
	ResetTimeout time.Duration

	// HalfOpenMaxRequests is the number of trial requests allowed while
	// half-open.
	HalfOpenMaxRequests uint32
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		FailureThreshold:    5,
		ResetTimeout:        30 * time.Second,
		HalfOpenMaxRequests: 1,
	}
}

// Status is a read-only snapshot of the breaker for health endpoints.
type Status struct {
	State               string `json:"state"`
	Requests            uint32 `json:"requests"`
	TotalFailures       uint32 `json:"total_failures"`
	ConsecutiveFailures uint32 `json:"consecutive_failures"`
}

// Breaker wraps a single circuit breaker over results of type T.
//
// State machine: closed (normal) → open after FailureThreshold consecutive
// failures → half-open after ResetTimeout → closed on trial success or
// back to open on trial failure. A call rejected while open does not
// count as a failure, and neither does a call the caller canceled.
type Breaker[T any] struct {
	cb     *gobreaker.CircuitBreaker[T]
	logger zerolog.Logger
}

// New creates a breaker with the given configuration.
func New[T any](name string, cfg Config, logger zerolog.Logger) *Breaker[T] {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.ResetTimeout == 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if cfg.HalfOpenMaxRequests == 0 {
		cfg.HalfOpenMaxRequests = 1
	}

	b := &Breaker[T]{logger: logger}

	b.cb = gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenMaxRequests,
		Timeout:     cfg.ResetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		// A caller abandoning its request says nothing about upstream
		// health, so cancellations never count toward tripping. Deadline
		// expiry still does: a call that ran out of time waiting on the
		// upstream is failure evidence.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.onStateChange(name, from, to)
		},
	})

	logger.Info().
		Str("name", name).
		Uint32("failure_threshold", cfg.FailureThreshold).
		Dur("reset_timeout", cfg.ResetTimeout).
		Uint32("half_open_max_requests", cfg.HalfOpenMaxRequests).
		Msg("Circuit breaker created")

	return b
}

// Execute runs fn under breaker protection. While the breaker is open,
// fn is not invoked and the rejection satisfies IsOpenRejection.
func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	result, err := b.cb.Execute(fn)
	if err != nil && IsOpenRejection(err) {
		breakerRejections.Inc()
		b.logger.Warn().
			Str("state", stateToString(b.cb.State())).
			Msg("Circuit breaker rejected call")
	}
	return result, err
}

// Status returns a snapshot of the breaker state and counters.
func (b *Breaker[T]) Status() Status {
	counts := b.cb.Counts()
	return Status{
		State:               stateToString(b.cb.State()),
		Requests:            counts.Requests,
		TotalFailures:       counts.TotalFailures,
		ConsecutiveFailures: counts.ConsecutiveFailures,
	}
}

// IsOpenRejection reports whether err is the breaker refusing a call
// (open state, or half-open trial quota exceeded) rather than a failure
// of the call itself.
func IsOpenRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) ||
		errors.Is(err, gobreaker.ErrTooManyRequests)
}

func (b *Breaker[T]) onStateChange(name string, from, to gobreaker.State) {
	fromStr, toStr := stateToString(from), stateToString(to)
	breakerStateChanges.WithLabelValues(fromStr, toStr).Inc()
	b.logger.Info().
		Str("name", name).
		Str("from", fromStr).
		Str("to", toStr).
		Msg("Circuit breaker state changed")
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return StateClosed
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	case gobreaker.StateOpen:
		return StateOpen
	default:
		return "unknown"
	}
}
