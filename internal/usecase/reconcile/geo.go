package reconcile

import (
	"fmt"

	"github.com/kailas-cloud/reconciler/internal/domain"
	"github.com/kailas-cloud/reconciler/internal/domain/candidate"
	"github.com/kailas-cloud/reconciler/internal/domain/geo"
	"github.com/kailas-cloud/reconciler/internal/domain/query"
	"github.com/kailas-cloud/reconciler/internal/domain/score"
)

// pointFromProperties reads the lat/lon pair. Both absent reports ok=false;
// a lone coordinate or an unparseable one is an invalid property.
func pointFromProperties(props query.Properties) (geo.Point, bool, error) {
	lat, hasLat := props.String(PropertyLat)
	lon, hasLon := props.String(PropertyLon)
	switch {
	case !hasLat && !hasLon:
		return geo.Point{}, false, nil
	case !hasLat:
		return geo.Point{}, false, domain.NewPropertyError(PropertyLat, "required together with lon")
	case !hasLon:
		return geo.Point{}, false, domain.NewPropertyError(PropertyLon, "required together with lat")
	}
	p, err := geo.ParsePoint(lat, lon)
	if err != nil {
		return geo.Point{}, false, fmt.Errorf("%w: %w", domain.ErrInvalidProperty, err)
	}
	return p, true, nil
}

// applyDistances sets the distance on every row found in km and adds the geo boost.
func applyDistances(rows []candidate.Row, km map[string]float64) []candidate.Row {
	out := make([]candidate.Row, len(rows))
	for i, r := range rows {
		d, ok := km[r.ID()]
		if !ok {
			out[i] = r
			continue
		}
		out[i] = r.WithDistanceKm(d).WithSimilarity(score.Apply(r.Similarity(), score.GeoBoost(d)))
	}
	return out
}
