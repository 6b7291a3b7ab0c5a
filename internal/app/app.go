// Package app is the composition root shared by the HTTP server and the CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reconciler/internal/catalog"
	"github.com/kailas-cloud/reconciler/internal/config"
	"github.com/kailas-cloud/reconciler/internal/db"
	"github.com/kailas-cloud/reconciler/internal/db/postgres"
	"github.com/kailas-cloud/reconciler/internal/domain"
	"github.com/kailas-cloud/reconciler/internal/metrics"
	entityrepo "github.com/kailas-cloud/reconciler/internal/repository/entity"
	"github.com/kailas-cloud/reconciler/internal/rowformat"
	"github.com/kailas-cloud/reconciler/internal/transport/gemini"
	"github.com/kailas-cloud/reconciler/internal/transport/geocoder"
	"github.com/kailas-cloud/reconciler/internal/transport/openai"
	"github.com/kailas-cloud/reconciler/internal/usecase/completion"
	"github.com/kailas-cloud/reconciler/internal/usecase/health"
	"github.com/kailas-cloud/reconciler/internal/usecase/reconcile"
	"github.com/kailas-cloud/reconciler/internal/usecase/usage"
	"github.com/kailas-cloud/reconciler/internal/version"
)

// Provider is a configured LLM completer with a health check.
type Provider interface {
	domain.Completer
	domain.HealthChecker
}

// Store is the database surface the services need.
type Store interface {
	db.Pinger
	db.Querier
}

// Deps are the external connections the services are built on.
type Deps struct {
	Store     Store
	Providers map[string]Provider
	// Budgets holds one entry per provider; nil means no budget.
	Budgets map[string]usage.BudgetReader
	// Geocoder serves the location type; nil disables it.
	Geocoder reconcile.Channel
}

// App holds the assembled services.
type App struct {
	Reconcile *reconcile.Service
	Health    *health.Service
	Usage     *usage.Service
	Manifest  Manifest
	closers   []func()
}

// Manifest is the service identity published to reconciliation clients.
type Manifest struct {
	Name            string
	IdentifierSpace string
	SchemaSpace     string
}

// Close releases the external connections.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// New connects to PostgreSQL, the LLM providers and the geocoder and builds the services.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	metrics.Register()

	store, err := postgres.NewStore(ctx, postgres.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnIdleTime: time.Duration(cfg.Database.MaxConnIdleSec) * time.Second,
		ApplicationName: "reconciler/" + version.Version,
	})
	if err != nil {
		return nil, fmt.Errorf("create database store: %w", err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database")

	providers, budgets, err := buildProviders(ctx, cfg.LLM, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	deps := Deps{Store: store, Providers: providers, Budgets: budgets}
	if cfg.Geocoding.Enabled {
		gc, err := geocoder.New(geocoder.Config{
			BaseURL:      cfg.Geocoding.BaseURL,
			UserAgent:    cfg.Geocoding.UserAgent,
			Email:        cfg.Geocoding.Email,
			Language:     cfg.Geocoding.Language,
			CountryCodes: cfg.Geocoding.CountryCodes,
			RatePerSec:   cfg.Geocoding.RatePerSec,
			Burst:        cfg.Geocoding.Burst,
			Timeout:      cfg.Geocoding.Timeout(),
			Logger:       logger,
		})
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("create geocoder: %w", err)
		}
		deps.Geocoder = gc
	}

	a, err := Build(cfg, deps, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	a.closers = append(a.closers, store.Close)
	return a, nil
}

// Build assembles the strategy registry and services from deps.
func Build(cfg config.Config, deps Deps, logger *zap.Logger) (*App, error) {
	defs, err := catalog.Build(cfg.Reconcile, catalog.Options{Geocoding: deps.Geocoder != nil})
	if err != nil {
		return nil, fmt.Errorf("entity catalog: %w", err)
	}

	settings := reconcile.Settings{
		Namespace: cfg.Reconcile.Namespace,
		Threshold: cfg.Reconcile.Threshold,
	}
	entries := make([]reconcile.Entry, 0, len(defs))
	for _, d := range defs {
		build, err := strategyBuilder(d, cfg, deps, settings, logger)
		if err != nil {
			return nil, err
		}
		entries = append(entries, reconcile.Entry{Key: d.Spec.Key(), Build: build})
	}

	registry, err := reconcile.NewRegistry(entries...)
	if err != nil {
		return nil, fmt.Errorf("strategy registry: %w", err)
	}
	for _, spec := range registry.Specs() {
		logger.Info("Entity type registered",
			zap.String("key", spec.Key()),
			zap.String("type_path", spec.TypePath()),
		)
	}

	checkers := make(map[string]health.ProviderChecker, len(deps.Providers))
	for name, p := range deps.Providers {
		checkers[name] = p
	}

	return &App{
		Reconcile: reconcile.New(registry, reconcile.Limits{
			DefaultLimit: cfg.Reconcile.DefaultLimit,
			MaxLimit:     cfg.Reconcile.MaxLimit,
			MaxBatch:     cfg.Reconcile.MaxBatchSize,
		}),
		Health: health.New(deps.Store, checkers),
		Usage:  usage.New(deps.Budgets),
		Manifest: Manifest{
			Name:            cfg.Reconcile.ServiceName,
			IdentifierSpace: cfg.Reconcile.Namespace,
			SchemaSpace:     cfg.Reconcile.SchemaSpace,
		},
	}, nil
}

func strategyBuilder(
	d catalog.Definition, cfg config.Config, deps Deps,
	settings reconcile.Settings, logger *zap.Logger,
) (func() (reconcile.Strategy, error), error) {
	spec := d.Spec
	repo := func() *entityrepo.Repo {
		return entityrepo.New(deps.Store, spec,
			entityrepo.WithTimeout(cfg.Database.QueryTimeout()),
			entityrepo.WithLogger(logger),
		)
	}

	switch d.Kind {
	case catalog.KindSite:
		return func() (reconcile.Strategy, error) {
			return reconcile.Instrument(reconcile.NewSite(spec, repo(), settings)), nil
		}, nil
	case catalog.KindLocation:
		return func() (reconcile.Strategy, error) {
			return reconcile.Instrument(reconcile.NewLocation(spec, deps.Geocoder, settings)), nil
		}, nil
	case catalog.KindBibliography:
		return func() (reconcile.Strategy, error) {
			b, err := reconcile.NewBibliography(spec, repo(), settings)
			if err != nil {
				return nil, err
			}
			return reconcile.Instrument(b), nil
		}, nil
	case catalog.KindLookup:
		return func() (reconcile.Strategy, error) {
			opts := cfg.LLM.Resolve(spec.Key())
			provider, ok := deps.Providers[opts.Provider]
			if !ok {
				return nil, fmt.Errorf("llm provider %q is not configured", opts.Provider)
			}
			llmOpts, err := llmOptions(spec.Key(), opts, d.Columns)
			if err != nil {
				return nil, err
			}
			l, err := reconcile.NewLLM(spec, repo(), provider, llmOpts, settings)
			if err != nil {
				return nil, err
			}
			return reconcile.Instrument(l), nil
		}, nil
	default:
		return nil, fmt.Errorf("entity %s: unknown kind %q", spec.Key(), d.Kind)
	}
}

func llmOptions(key string, o config.LLMOptions, columns map[string]string) (reconcile.LLMOptions, error) {
	format, err := rowformat.ParseFormat(o.Format)
	if err != nil {
		return reconcile.LLMOptions{}, err
	}
	prompt, err := reconcile.ParsePrompt(key, o.Prompt)
	if err != nil {
		return reconcile.LLMOptions{}, err
	}
	opts := reconcile.LLMOptions{
		Completion: domain.CompletionOptions{
			MaxTokens:  o.MaxTokens,
			SystemRole: o.SystemRole,
		},
		Format:  format,
		Mapping: columns,
		Prompt:  prompt,
	}
	if o.Temperature != nil {
		opts.Completion.Temperature = *o.Temperature
	}
	return opts, nil
}

// buildProviders assembles one decorator chain per configured provider:
// transport (with metrics) -> instrumented (timeout + budget).
func buildProviders(
	ctx context.Context, cfg config.LLMConfig, logger *zap.Logger,
) (map[string]Provider, map[string]usage.BudgetReader, error) {
	out := make(map[string]Provider, len(cfg.Providers))
	budgets := make(map[string]usage.BudgetReader, len(cfg.Providers))
	for name, pc := range cfg.Providers {
		var inner Provider
		switch pc.Kind {
		case "openai":
			inner = openai.NewCompleter(&openai.Config{
				APIKey:   pc.APIKey,
				BaseURL:  pc.BaseURL,
				Model:    pc.Model,
				Provider: name,
				Logger:   logger,
			})
		case "gemini":
			g, err := gemini.NewCompleter(ctx, &gemini.Config{
				APIKey:   pc.APIKey,
				BaseURL:  pc.BaseURL,
				Model:    pc.Model,
				Provider: name,
				Logger:   logger,
			})
			if err != nil {
				return nil, nil, fmt.Errorf("llm provider %s: %w", name, err)
			}
			inner = g
		default:
			return nil, nil, fmt.Errorf("llm provider %s: unknown kind %q", name, pc.Kind)
		}

		// Pass a nil interface, not a typed nil pointer, when no budget is configured.
		var budget completion.BudgetChecker
		budgets[name] = nil
		if pc.Budget.DailyTokenLimit > 0 || pc.Budget.MonthlyTokenLimit > 0 {
			tracker := completion.NewBudgetTracker(
				name, pc.Budget.DailyTokenLimit, pc.Budget.MonthlyTokenLimit,
				completion.ParseBudgetAction(pc.Budget.Action), logger,
			)
			budget = tracker
			budgets[name] = tracker
		}
		out[name] = completion.NewInstrumentedCompleter(inner, name, pc.Model, cfg.Timeout(), budget, logger)
		logger.Info("LLM provider created",
			zap.String("provider", name),
			zap.String("kind", pc.Kind),
			zap.String("model", pc.Model),
		)
	}
	return out, budgets, nil
}
