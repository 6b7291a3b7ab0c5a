package reconciler

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/reconciler/internal/config"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	dsn      string
	maxConns int32

	providers       map[string]config.LLMProviderConfig
	defaultProvider string
	geocoder        *config.GeocodingConfig

	serviceName  string
	namespace    string
	threshold    float64
	maxBatchSize int
	lookups      []config.LookupConfig
	disabled     []string

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithPostgres sets the database connection string.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.dsn = dsn
	})
}

// WithMaxConns caps the connection pool size.
func WithMaxConns(n int32) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxConns = n
	})
}

// WithOpenAI registers an OpenAI-compatible completion provider under name.
// The first registered provider becomes the default.
func WithOpenAI(name, apiKey, baseURL, model string) Option {
	return withProvider(name, config.LLMProviderConfig{
		Kind:    "openai",
		APIKey:  apiKey,
		BaseURL: baseURL,
		Model:   model,
	})
}

// WithGemini registers a Gemini completion provider under name.
func WithGemini(name, apiKey, model string) Option {
	return withProvider(name, config.LLMProviderConfig{
		Kind:   "gemini",
		APIKey: apiKey,
		Model:  model,
	})
}

func withProvider(name string, p config.LLMProviderConfig) Option {
	return optionFunc(func(c *clientConfig) {
		if c.providers == nil {
			c.providers = make(map[string]config.LLMProviderConfig)
		}
		c.providers[name] = p
		if c.defaultProvider == "" {
			c.defaultProvider = name
		}
	})
}

// WithGeocoder enables the location type on a Nominatim-compatible API.
func WithGeocoder(baseURL, userAgent string) Option {
	return optionFunc(func(c *clientConfig) {
		c.geocoder = &config.GeocodingConfig{
			Enabled:   true,
			BaseURL:   baseURL,
			UserAgent: userAgent,
		}
	})
}

// WithServiceName sets the name reported by Manifest.
func WithServiceName(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.serviceName = name
	})
}

// WithNamespace sets the prefix of candidate identifiers.
func WithNamespace(ns string) Option {
	return optionFunc(func(c *clientConfig) {
		c.namespace = ns
	})
}

// WithThreshold sets the default auto-match threshold in (0,1].
func WithThreshold(t float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.threshold = t
	})
}

// WithMaxBatchSize sets the maximum number of queries per Reconcile call.
func WithMaxBatchSize(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxBatchSize = size
	})
}

// Lookup declares a controlled vocabulary reconciled by the LLM channel.
// TableSQL must return id and label columns, optionally description.
type Lookup struct {
	Key         string
	Name        string
	TableSQL    string
	DetailsSQL  string
	Description string
	Context     string
}

// WithLookup registers a controlled vocabulary.
func WithLookup(l Lookup) Option {
	return optionFunc(func(c *clientConfig) {
		c.lookups = append(c.lookups, config.LookupConfig{
			Key:         l.Key,
			Name:        l.Name,
			TableSQL:    l.TableSQL,
			DetailsSQL:  l.DetailsSQL,
			Description: l.Description,
			Context:     l.Context,
		})
	})
}

// WithoutEntityType disables a built-in entity type such as "reference".
func WithoutEntityType(key string) Option {
	return optionFunc(func(c *clientConfig) {
		c.disabled = append(c.disabled, key)
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// build turns the options into a server configuration with defaults applied.
func (c *clientConfig) build() config.Config {
	cfg := config.Config{
		Database: config.DatabaseConfig{
			DSN:      c.dsn,
			MaxConns: c.maxConns,
		},
		LLM: config.LLMConfig{
			Provider:  c.defaultProvider,
			Providers: c.providers,
		},
		Reconcile: config.ReconcileConfig{
			ServiceName:  c.serviceName,
			Namespace:    c.namespace,
			Threshold:    c.threshold,
			MaxBatchSize: c.maxBatchSize,
			Lookups:      c.lookups,
		},
	}
	if c.geocoder != nil {
		cfg.Geocoding = *c.geocoder
	}
	if len(c.disabled) > 0 {
		cfg.Reconcile.Entities = make(map[string]config.EntityOverride, len(c.disabled))
		for _, key := range c.disabled {
			cfg.Reconcile.Entities[key] = config.EntityOverride{Disabled: true}
		}
	}
	cfg.ApplyDefaults()
	return cfg
}
