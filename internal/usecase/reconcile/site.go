package reconcile

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/reconciler/internal/domain/candidate"
	"github.com/kailas-cloud/reconciler/internal/domain/entity"
	"github.com/kailas-cloud/reconciler/internal/domain/query"
	"github.com/kailas-cloud/reconciler/internal/domain/score"
)

// SiteChannel is a channel that can also rank candidates by location and place context.
type SiteChannel interface {
	Channel
	DistanceSource
	PlaceMatcher
}

// Site extends the generic pass with geographic and place-context boosts.
type Site struct {
	*Generic
	ch SiteChannel
}

// NewSite creates the site strategy.
func NewSite(spec entity.Spec, ch SiteChannel, settings Settings) *Site {
	return &Site{Generic: NewGeneric(spec, ch, settings), ch: ch}
}

// FindCandidates runs the generic pass, then the geo boost and the place boost.
func (s *Site) FindCandidates(ctx context.Context, q query.Query) ([]candidate.Envelope, error) {
	point, hasPoint, err := pointFromProperties(q.Properties())
	if err != nil {
		return nil, err
	}

	rows, err := s.candidates(ctx, q)
	if err != nil {
		return nil, err
	}
	ids := candidate.IDs(rows)

	if hasPoint && len(ids) > 0 {
		km, err := s.ch.Distances(ctx, ids, point)
		if err != nil {
			return nil, fmt.Errorf("geo boost: %w", err)
		}
		rows = applyDistances(rows, km)
	}

	if place, ok := q.Properties().String(PropertyPlace); ok && len(ids) > 0 {
		sims, err := s.ch.PlaceSimilarities(ctx, ids, place)
		if err != nil {
			return nil, fmt.Errorf("place boost: %w", err)
		}
		for i, r := range rows {
			if b := score.PlaceBoost(sims[r.ID()]); b > 0 {
				rows[i] = r.WithSimilarity(score.Apply(r.Similarity(), b))
			}
		}
	}

	return s.finish(q, rows), nil
}
