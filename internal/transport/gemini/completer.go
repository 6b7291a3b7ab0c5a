package gemini

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/reconciler/internal/domain"
	"github.com/kailas-cloud/reconciler/internal/metrics"
)

// DefaultSystemRole is sent when the caller does not override the system instruction.
const DefaultSystemRole = "You are a data reconciliation assistant. Answer with JSON only."

// Compile-time checks.
var (
	_ domain.Completer     = (*Completer)(nil)
	_ domain.HealthChecker = (*Completer)(nil)
)

// Config holds the Gemini provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// Provider is the configured provider name used in metrics labels.
	Provider   string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Completer is an LLM provider backed by the Gemini API.
type Completer struct {
	client   *genai.Client
	model    string
	provider string
	logger   *zap.Logger
}

// NewCompleter creates a Gemini completion provider.
func NewCompleter(ctx context.Context, cfg *Config) (*Completer, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("gemini model is required")
	}
	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Completer{client: client, model: cfg.Model, provider: cfg.Provider, logger: logger}, nil
}

// Complete implements domain.Completer with transport-level metrics.
func (c *Completer) Complete(
	ctx context.Context, prompt string, opts domain.CompletionOptions,
) (domain.Completion, error) {
	system := opts.SystemRole
	if system == "" {
		system = DefaultSystemRole
	}
	temp := float32(opts.Temperature)
	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
		Temperature:       &temp,
	}
	if opts.MaxTokens > 0 {
		genCfg.MaxOutputTokens = int32(opts.MaxTokens) //nolint:gosec // bounded by config
	}
	if opts.JSON {
		genCfg.ResponseMIMEType = "application/json"
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{{Role: genai.RoleUser, Parts: []*genai.Part{{Text: prompt}}}},
		genCfg,
	)
	duration := time.Since(start)

	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(c.provider, c.model, "error").Inc()
		metrics.LLMErrorsTotal.WithLabelValues(c.provider, c.model, "api_error").Inc()
		return domain.Completion{}, fmt.Errorf("gemini generate content: %v: %w", err, domain.ErrChannel)
	}

	text := ""
	if resp != nil {
		text = resp.Text()
	}
	if text == "" {
		metrics.LLMRequestsTotal.WithLabelValues(c.provider, c.model, "error").Inc()
		metrics.LLMErrorsTotal.WithLabelValues(c.provider, c.model, "empty_response").Inc()
		return domain.Completion{}, fmt.Errorf("empty completion from %s: %w", c.provider, domain.ErrLLMResponse)
	}

	metrics.LLMRequestsTotal.WithLabelValues(c.provider, c.model, "success").Inc()
	metrics.LLMRequestDuration.WithLabelValues(c.provider, c.model).Observe(duration.Seconds())

	var promptTokens, totalTokens int
	if u := resp.UsageMetadata; u != nil {
		promptTokens = int(u.PromptTokenCount)
		totalTokens = int(u.TotalTokenCount)
	}
	if totalTokens > 0 {
		metrics.LLMTokensTotal.WithLabelValues(c.provider, c.model, "prompt").Add(float64(promptTokens))
		metrics.LLMTokensTotal.WithLabelValues(c.provider, c.model, "total").Add(float64(totalTokens))
	}

	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == genai.FinishReasonMaxTokens {
		c.logger.Warn("completion truncated by max tokens",
			zap.String("provider", c.provider),
			zap.String("model", c.model),
			zap.Int("max_tokens", opts.MaxTokens),
		)
	}

	return domain.Completion{Text: text, PromptTokens: promptTokens, TotalTokens: totalTokens}, nil
}

// HealthCheck verifies the configured model is reachable.
func (c *Completer) HealthCheck(ctx context.Context) error {
	if _, err := c.client.Models.Get(ctx, c.model, nil); err != nil {
		return fmt.Errorf("get model %s: %w", c.model, err)
	}
	return nil
}
