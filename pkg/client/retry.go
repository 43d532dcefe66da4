package client

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/commercekit/storefront-graphql-client/pkg/apierrors"
)

// callWithRetry executes the transport attempt with exponential backoff
// retry. Only classified network-level failures (connection errors, 5xx,
// timeouts) are retried; GraphQL-level and 4xx errors return immediately.
// Jitter (±20%) spreads retries to avoid thundering-herd bursts.
func (c *Client) callWithRetry(ctx context.Context, op Operation, variables map[string]any) (json.RawMessage, error) {
	maxAttempts := c.cfg.MaxRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	backoff := c.cfg.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		data, err := c.doAttempt(ctx, op, variables)
		if err == nil {
			if attempt > 1 {
				c.logger.Info().
					Str("operation", op.Name).
					Int("attempt", attempt).
					Msg("Operation succeeded after retry")
			}
			return data, nil
		}

		lastErr = err

		if !apierrors.IsRetryable(err) {
			return nil, err
		}

		if attempt >= maxAttempts {
			break
		}

		kind := string(apierrors.KindOf(err))
		retriesTotal.WithLabelValues(kind).Inc()

		// ±20% jitter around the current backoff.
		wait := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))
		retryBackoffSeconds.WithLabelValues(kind).Observe(wait.Seconds())

		c.logger.Debug().
			Str("operation", op.Name).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Str("kind", kind).
			Msg("Retrying operation after backoff")

		select {
		case <-ctx.Done():
			return nil, apierrors.FromTransport(ctx.Err(), c.rc.TraceID).
				WithContext("operation", op.Name)
		case <-time.After(wait):
		}

		backoff *= 2
		if backoff > c.cfg.MaxBackoff {
			backoff = c.cfg.MaxBackoff
		}
	}

	retryExhaustedTotal.WithLabelValues(string(apierrors.KindOf(lastErr))).Inc()
	c.logger.Warn().
		Str("operation", op.Name).
		Int("max_attempts", maxAttempts).
		Msg("Retry attempts exhausted")

	return nil, lastErr
}
