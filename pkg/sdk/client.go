package reconciler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reconciler/internal/app"
	"github.com/kailas-cloud/reconciler/internal/domain/candidate"
	"github.com/kailas-cloud/reconciler/internal/domain/entity"
	"github.com/kailas-cloud/reconciler/internal/usecase/reconcile"
)

// reconcileUseCase is the internal interface for swapping in tests.
type reconcileUseCase interface {
	Reconcile(ctx context.Context, items []reconcile.Item) ([]reconcile.Result, error)
	Details(ctx context.Context, entityType, id string) (entity.Details, error)
	Types() []entity.Spec
}

// Client is the reconciler SDK entry point.
type Client struct {
	svc       reconcileUseCase
	healthSvc healthUseCase
	manifest  Manifest
	closer    func()
	obs       *observer
}

// New creates a Client, connects to PostgreSQL and the configured providers.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.dsn == "" {
		return nil, errors.New("reconciler: database dsn required (use WithPostgres)")
	}
	if len(cfg.lookups) > 0 && len(cfg.providers) == 0 {
		return nil, errors.New("reconciler: lookups need an LLM provider (use WithOpenAI or WithGemini)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	a, err := app.New(ctx, cfg.build(), zap.NewNop())
	if err != nil {
		return nil, fmt.Errorf("reconciler: %w", err)
	}
	return &Client{
		svc:       a.Reconcile,
		healthSvc: a.Health,
		manifest: Manifest{
			Name:            a.Manifest.Name,
			IdentifierSpace: a.Manifest.IdentifierSpace,
			SchemaSpace:     a.Manifest.SchemaSpace,
		},
		closer: a.Close,
		obs:    obs,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.closer != nil {
		c.closer()
	}
}

// Manifest returns the service identity.
func (c *Client) Manifest() Manifest {
	return c.manifest
}

// Reconcile runs queries in order. Every query is validated before any
// channel runs; the first failing query aborts the batch.
func (c *Client) Reconcile(ctx context.Context, queries ...Query) (res []Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("reconcile", start, err, "queries", len(queries)) }()
	c.obs.countQueries(len(queries))

	items := make([]reconcile.Item, len(queries))
	for i, q := range queries {
		id := q.ID
		if id == "" {
			id = fmt.Sprintf("q%d", i)
		}
		items[i] = reconcile.Item{
			ID:         id,
			Text:       q.Text,
			Type:       q.Type,
			Limit:      q.Limit,
			Properties: q.Properties,
		}
	}

	results, err := c.svc.Reconcile(ctx, items)
	if err != nil {
		return nil, err
	}
	res = make([]Result, len(results))
	for i, r := range results {
		res[i] = Result{QueryID: r.ID, Candidates: toCandidates(r.Candidates)}
	}
	return res, nil
}

// ReconcileOne runs a single query.
func (c *Client) ReconcileOne(ctx context.Context, q Query) ([]Candidate, error) {
	res, err := c.Reconcile(ctx, q)
	if err != nil {
		return nil, err
	}
	return res[0].Candidates, nil
}

// Details returns the stored record of one entity.
func (c *Client) Details(ctx context.Context, entityType, id string) (e Entity, err error) {
	start := time.Now()
	defer func() { c.obs.observe("details", start, err, "type", entityType) }()

	d, err := c.svc.Details(ctx, entityType, id)
	if err != nil {
		return Entity{}, err
	}
	return Entity{ID: d.ID, Type: d.Type, Fields: d.Fields}, nil
}

// Types lists the registered entity types in registration order.
func (c *Client) Types() []EntityType {
	specs := c.svc.Types()
	out := make([]EntityType, len(specs))
	for i, s := range specs {
		props := s.Properties()
		et := EntityType{
			Key:        s.Key(),
			Name:       s.Name(),
			TypePath:   s.TypePath(),
			Properties: make([]Property, len(props)),
		}
		for j, p := range props {
			et.Properties[j] = Property{ID: p.ID, Name: p.Name, Description: p.Description}
		}
		out[i] = et
	}
	return out
}

func toCandidates(envs []candidate.Envelope) []Candidate {
	out := make([]Candidate, len(envs))
	for i, e := range envs {
		types := make([]string, len(e.Type))
		for j, t := range e.Type {
			types[j] = t.ID
		}
		out[i] = Candidate{
			ID:          e.ID,
			Name:        e.Name,
			Score:       e.Score,
			Match:       e.Match,
			Types:       types,
			DistanceKm:  e.DistanceKm,
			Description: e.Description,
		}
	}
	return out
}
