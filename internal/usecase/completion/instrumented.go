package completion

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reconciler/internal/domain"
	"github.com/kailas-cloud/reconciler/internal/metrics"
)

// BudgetChecker is the local interface for budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
	RemainingDaily() int64
	RemainingMonthly() int64
}

// InstrumentedCompleter wraps a provider with a timeout, budget enforcement and logging.
// Transport metrics (requests, duration, tokens) are recorded in the provider packages.
type InstrumentedCompleter struct {
	inner    domain.Completer
	provider string
	model    string
	timeout  time.Duration
	budget   BudgetChecker
	logger   *zap.Logger
}

// NewInstrumentedCompleter wraps a completer. budget may be nil; a zero
// timeout leaves the caller's deadline untouched.
func NewInstrumentedCompleter(
	inner domain.Completer, provider, model string, timeout time.Duration,
	budget BudgetChecker, logger *zap.Logger,
) *InstrumentedCompleter {
	return &InstrumentedCompleter{
		inner:    inner,
		provider: provider,
		model:    model,
		timeout:  timeout,
		budget:   budget,
		logger:   logger,
	}
}

// Complete checks the budget, delegates to the provider and records usage.
func (c *InstrumentedCompleter) Complete(
	ctx context.Context, prompt string, opts domain.CompletionOptions,
) (domain.Completion, error) {
	if c.budget != nil {
		if err := c.budget.Check(ctx); err != nil {
			c.logger.Error("LLM budget exceeded",
				zap.String("provider", c.provider),
				zap.String("model", c.model),
				zap.Error(err),
			)
			return domain.Completion{}, fmt.Errorf("budget check: %w", err)
		}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := c.inner.Complete(ctx, prompt, opts)
	duration := time.Since(start)

	if err != nil {
		c.logger.Error("LLM completion failed",
			zap.String("provider", c.provider),
			zap.String("model", c.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.Completion{}, fmt.Errorf("complete: %w", err)
	}

	if c.budget != nil && res.TotalTokens > 0 {
		c.budget.Record(int64(res.TotalTokens))
		remaining := metrics.LLMBudgetTokensRemaining
		remaining.WithLabelValues(c.provider, "daily").Set(float64(c.budget.RemainingDaily()))
		remaining.WithLabelValues(c.provider, "monthly").Set(float64(c.budget.RemainingMonthly()))
	}

	c.logger.Debug("LLM completion done",
		zap.String("provider", c.provider),
		zap.String("model", c.model),
		zap.Duration("duration", duration),
		zap.Int("prompt_chars", len(prompt)),
		zap.Int("prompt_tokens", res.PromptTokens),
		zap.Int("total_tokens", res.TotalTokens),
	)
	return res, nil
}

// HealthCheck delegates to the provider when it supports health checks.
func (c *InstrumentedCompleter) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
