package conversation

import (
	"context"
	"time"

	"calagent/pkg/logging"
)

// FallbackLLMClient wraps a primary LLM client with a fallback provider.
// Each provider call is bounded by its own timeout; if the primary fails
// for any reason the request is retried once against the fallback.
type FallbackLLMClient struct {
	primary  LLMClient
	fallback LLMClient
	timeout  time.Duration
	logger   *logging.Logger

	// onFallback is invoked with the outcome ("recovered" or "exhausted")
	// whenever the primary fails. Used for metrics.
	onFallback func(outcome string)
}

// NewFallbackLLMClient creates a fallback-enabled LLM client. fallback may be
// nil, in which case only the primary is used. A non-positive timeout
// disables the per-provider deadline.
func NewFallbackLLMClient(primary, fallback LLMClient, timeout time.Duration, logger *logging.Logger) *FallbackLLMClient {
	if logger == nil {
		logger = logging.Default()
	}
	return &FallbackLLMClient{
		primary:  primary,
		fallback: fallback,
		timeout:  timeout,
		logger:   logger,
	}
}

// OnFallback registers a hook observing fallback outcomes.
func (c *FallbackLLMClient) OnFallback(fn func(outcome string)) {
	c.onFallback = fn
}

// Complete tries the primary provider, then the fallback.
func (c *FallbackLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	resp, err := c.complete(ctx, c.primary, req)
	if err == nil {
		return resp, nil
	}

	c.logger.Warn("primary LLM failed, attempting fallback",
		"error", err.Error(),
		"fallback_available", c.fallback != nil,
	)

	if c.fallback == nil {
		c.notify("exhausted")
		return LLMResponse{}, err
	}

	fallbackResp, fallbackErr := c.complete(ctx, c.fallback, req)
	if fallbackErr != nil {
		c.logger.Error("fallback LLM also failed",
			"primary_error", err.Error(),
			"fallback_error", fallbackErr.Error(),
		)
		c.notify("exhausted")
		return LLMResponse{}, fallbackErr
	}

	c.logger.Info("fallback LLM succeeded after primary failure")
	c.notify("recovered")
	return fallbackResp, nil
}

func (c *FallbackLLMClient) complete(ctx context.Context, client LLMClient, req LLMRequest) (LLMResponse, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return client.Complete(ctx, req)
}

func (c *FallbackLLMClient) notify(outcome string) {
	if c.onFallback != nil {
		c.onFallback(outcome)
	}
}
