package reconcile

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/reconciler/internal/domain/candidate"
	"github.com/kailas-cloud/reconciler/internal/domain/entity"
	"github.com/kailas-cloud/reconciler/internal/domain/query"
)

// Generic combines an optional exact alternate-identity lookup with fuzzy search.
type Generic struct {
	base
	ch Channel
}

// NewGeneric creates the default strategy for a template-backed entity type.
func NewGeneric(spec entity.Spec, ch Channel, settings Settings) *Generic {
	return &Generic{base: base{spec: spec, settings: settings}, ch: ch}
}

// FindCandidates runs the exact and fuzzy channels and ranks the union.
func (g *Generic) FindCandidates(ctx context.Context, q query.Query) ([]candidate.Envelope, error) {
	rows, err := g.candidates(ctx, q)
	if err != nil {
		return nil, err
	}
	return g.finish(q, rows), nil
}

// GetDetails returns the channel's record for id.
func (g *Generic) GetDetails(ctx context.Context, id string) (entity.Details, error) {
	return g.ch.GetDetails(ctx, id)
}

// candidates returns the merged rows of the exact and fuzzy channels, before ranking.
func (g *Generic) candidates(ctx context.Context, q query.Query) ([]candidate.Row, error) {
	var exact []candidate.Row
	if prop, ok := g.spec.AlternateIdentity(); ok {
		if value, ok := q.Properties().String(prop); ok {
			rows, err := g.ch.FetchByAlternateIdentity(ctx, value)
			if err != nil {
				return nil, fmt.Errorf("fetch by %s: %w", prop, err)
			}
			exact = withSimilarity(rows, 1)
		}
	}

	fuzzy, err := g.ch.Find(ctx, q.Text(), q.Limit(), q.Properties())
	if err != nil {
		return nil, fmt.Errorf("fuzzy search: %w", err)
	}
	return candidate.Merge(exact, fuzzy), nil
}

func withSimilarity(rows []candidate.Row, sim float64) []candidate.Row {
	out := make([]candidate.Row, len(rows))
	for i, r := range rows {
		out[i] = r.WithSimilarity(sim)
	}
	return out
}
