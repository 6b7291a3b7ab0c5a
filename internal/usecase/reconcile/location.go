package reconcile

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/reconciler/internal/domain/candidate"
	"github.com/kailas-cloud/reconciler/internal/domain/entity"
	"github.com/kailas-cloud/reconciler/internal/domain/geo"
	"github.com/kailas-cloud/reconciler/internal/domain/query"
)

// Row attributes carrying the coordinates of a geocoded place.
const (
	AttrLat = "lat"
	AttrLon = "lon"
)

// Location ranks geocoder results, boosting those near the supplied point.
type Location struct {
	base
	ch Channel
}

// NewLocation creates the geocoding strategy.
func NewLocation(spec entity.Spec, ch Channel, settings Settings) *Location {
	return &Location{base: base{spec: spec, settings: settings}, ch: ch}
}

// FindCandidates queries the geocoder and applies a locally computed geo boost.
func (l *Location) FindCandidates(ctx context.Context, q query.Query) ([]candidate.Envelope, error) {
	point, hasPoint, err := pointFromProperties(q.Properties())
	if err != nil {
		return nil, err
	}
	rows, err := l.ch.Find(ctx, q.Text(), q.Limit(), q.Properties())
	if err != nil {
		return nil, fmt.Errorf("geocode: %w", err)
	}
	if hasPoint {
		km := make(map[string]float64, len(rows))
		for _, r := range rows {
			if p, ok := rowPoint(r); ok {
				km[r.ID()] = geo.DistanceKm(point, p)
			}
		}
		rows = applyDistances(rows, km)
	}
	return l.finish(q, rows), nil
}

// GetDetails returns the geocoder's record for id, typed with this entity type's key.
func (l *Location) GetDetails(ctx context.Context, id string) (entity.Details, error) {
	d, err := l.ch.GetDetails(ctx, id)
	if err != nil {
		return entity.Details{}, err
	}
	if d.Type == "" {
		d.Type = l.spec.Key()
	}
	return d, nil
}

func rowPoint(r candidate.Row) (geo.Point, bool) {
	lat, ok := r.Attr(AttrLat)
	if !ok {
		return geo.Point{}, false
	}
	lon, ok := r.Attr(AttrLon)
	if !ok {
		return geo.Point{}, false
	}
	la, ok := attrFloat(lat)
	if !ok {
		return geo.Point{}, false
	}
	lo, ok := attrFloat(lon)
	if !ok {
		return geo.Point{}, false
	}
	p, err := geo.NewPoint(la, lo)
	return p, err == nil
}
