package reconcile

import (
	"fmt"

	"github.com/kailas-cloud/reconciler/internal/domain"
	"github.com/kailas-cloud/reconciler/internal/domain/entity"
)

// Entry is one row of the startup strategy table.
type Entry struct {
	Key   string
	Build func() (Strategy, error)
}

// Registry resolves entity type keys to strategies. It is immutable after NewRegistry.
type Registry struct {
	strategies map[string]Strategy
	order      []string
}

// NewRegistry builds every entry in order. Duplicate keys, build failures and
// strategies whose spec key differs from the entry key are errors.
func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{strategies: make(map[string]Strategy, len(entries))}
	for _, e := range entries {
		if _, dup := r.strategies[e.Key]; dup {
			return nil, fmt.Errorf("duplicate entity type %q", e.Key)
		}
		s, err := e.Build()
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", e.Key, err)
		}
		if got := s.Spec().Key(); got != e.Key {
			return nil, fmt.Errorf("entity type %q built a strategy for %q", e.Key, got)
		}
		r.strategies[e.Key] = s
		r.order = append(r.order, e.Key)
	}
	return r, nil
}

// Resolve returns the strategy registered for key.
func (r *Registry) Resolve(key string) (Strategy, error) {
	s, ok := r.strategies[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownEntityType, key)
	}
	return s, nil
}

// Specs lists the registered entity types in registration order.
func (r *Registry) Specs() []entity.Spec {
	out := make([]entity.Spec, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.strategies[k].Spec())
	}
	return out
}
