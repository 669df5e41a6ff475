package llm

import (
	"context"
	"math/rand"
	"time"

	"flou/internal/logging"
)

// RetryConfig controls backoff between retried completion calls.
type RetryConfig struct {
	MaxAttempts  int
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	JitterFactor float64
}

// DefaultRetryConfig retries transient failures up to 3 attempts with
// exponential backoff and jitter.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		BaseDelay:    time.Second,
		MaxDelay:     30 * time.Second,
		JitterFactor: 0.25,
	}
}

type retryClient struct {
	inner  Client
	config RetryConfig
	logger logging.Logger
}

// WrapWithRetry adds transparent retry of transient failures to Complete.
// StreamComplete is never retried: once deltas have been forwarded to the
// caller a retry would duplicate partial output.
func WrapWithRetry(inner Client, config RetryConfig, logger logging.Logger) Client {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	return &retryClient{
		inner:  inner,
		config: config,
		logger: logging.OrNop(logger),
	}
}

func (c *retryClient) Model() string { return c.inner.Model() }

func (c *retryClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	var lastErr error

	for attempt := 1; attempt <= c.config.MaxAttempts; attempt++ {
		resp, err := c.inner.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !IsTransient(err) || attempt == c.config.MaxAttempts {
			return nil, err
		}

		delay := c.backoff(attempt)
		c.logger.Warn("completion attempt %d/%d failed, retrying in %s: %v",
			attempt, c.config.MaxAttempts, delay, err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, lastErr
}

func (c *retryClient) StreamComplete(ctx context.Context, req CompletionRequest, callbacks StreamCallbacks) (*CompletionResponse, error) {
	return c.inner.StreamComplete(ctx, req, callbacks)
}

func (c *retryClient) backoff(attempt int) time.Duration {
	delay := c.config.BaseDelay << (attempt - 1)
	if delay > c.config.MaxDelay {
		delay = c.config.MaxDelay
	}
	if c.config.JitterFactor > 0 {
		jitter := 1 + c.config.JitterFactor*(2*rand.Float64()-1)
		delay = time.Duration(float64(delay) * jitter)
	}
	return delay
}
