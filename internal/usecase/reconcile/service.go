package reconcile

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/reconciler/internal/domain"
	"github.com/kailas-cloud/reconciler/internal/domain/candidate"
	"github.com/kailas-cloud/reconciler/internal/domain/entity"
	"github.com/kailas-cloud/reconciler/internal/domain/query"
)

// Resolver maps entity type keys to strategies.
type Resolver interface {
	Resolve(key string) (Strategy, error)
	Specs() []entity.Spec
}

// Limits bounds query and batch sizes.
type Limits struct {
	DefaultLimit int
	MaxLimit     int
	MaxBatch     int
}

// Item is one raw query of a batch, keyed by the caller's query id.
type Item struct {
	ID         string
	Text       string
	Type       string
	Limit      int
	Properties query.Properties
}

// Result holds the candidates of one batch item.
type Result struct {
	ID         string
	Candidates []candidate.Envelope
}

// Service runs reconciliation queries against the registered strategies.
type Service struct {
	strategies Resolver
	limits     Limits
}

// New creates a reconciliation service.
func New(strategies Resolver, limits Limits) *Service {
	if limits.DefaultLimit <= 0 {
		limits.DefaultLimit = query.DefaultLimit
	}
	if limits.MaxLimit <= 0 || limits.MaxLimit > query.MaxLimit {
		limits.MaxLimit = query.MaxLimit
	}
	return &Service{strategies: strategies, limits: limits}
}

// Reconcile runs a batch. Every item is validated and its entity type
// resolved before any channel runs; items then run sequentially in input
// order and the first failure aborts the batch.
func (s *Service) Reconcile(ctx context.Context, items []Item) ([]Result, error) {
	if s.limits.MaxBatch > 0 && len(items) > s.limits.MaxBatch {
		return nil, fmt.Errorf("%w: batch of %d queries exceeds %d", domain.ErrInvalidQuery, len(items), s.limits.MaxBatch)
	}

	type job struct {
		id       string
		q        query.Query
		strategy Strategy
	}
	jobs := make([]job, 0, len(items))
	for _, it := range items {
		q, err := query.New(it.Text, it.Type, s.limit(it.Limit), it.Properties)
		if err != nil {
			return nil, fmt.Errorf("query %q: %w", it.ID, err)
		}
		st, err := s.strategies.Resolve(q.EntityType())
		if err != nil {
			return nil, fmt.Errorf("query %q: %w", it.ID, err)
		}
		jobs = append(jobs, job{id: it.ID, q: q, strategy: st})
	}

	results := make([]Result, 0, len(jobs))
	for _, j := range jobs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		envs, err := j.strategy.FindCandidates(ctx, j.q)
		if err != nil {
			return nil, fmt.Errorf("query %q: %w", j.id, err)
		}
		results = append(results, Result{ID: j.id, Candidates: envs})
	}
	return results, nil
}

// ReconcileOne runs a single query.
func (s *Service) ReconcileOne(ctx context.Context, it Item) ([]candidate.Envelope, error) {
	res, err := s.Reconcile(ctx, []Item{it})
	if err != nil {
		return nil, err
	}
	return res[0].Candidates, nil
}

// Details returns the record of one entity.
func (s *Service) Details(ctx context.Context, entityType, id string) (entity.Details, error) {
	st, err := s.strategies.Resolve(entityType)
	if err != nil {
		return entity.Details{}, err
	}
	d, err := st.GetDetails(ctx, id)
	if err != nil {
		return entity.Details{}, fmt.Errorf("details %s/%s: %w", entityType, id, err)
	}
	return d, nil
}

// Types lists the registered entity types.
func (s *Service) Types() []entity.Spec {
	return s.strategies.Specs()
}

func (s *Service) limit(requested int) int {
	switch {
	case requested <= 0:
		return s.limits.DefaultLimit
	case requested > s.limits.MaxLimit:
		return s.limits.MaxLimit
	default:
		return requested
	}
}
