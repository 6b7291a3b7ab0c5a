package candidate

import (
	"maps"
	"slices"

	"github.com/kailas-cloud/reconciler/internal/domain/score"
)

// Row is one candidate produced by an evidence channel (immutable value object).
// Similarity is always within [0,1].
type Row struct {
	id          string
	label       string
	similarity  float64
	distanceKm  *float64
	description string
	language    string
	reasons     []string
	attrs       map[string]any
}

// NewRow creates a Row, clamping similarity to [0,1].
func NewRow(id, label string, similarity float64) Row {
	return Row{id: id, label: label, similarity: score.Clamp(similarity)}
}

// ID returns the source entity id.
func (r Row) ID() string { return r.id }

// Label returns the display label.
func (r Row) Label() string { return r.label }

// Similarity returns the similarity in [0,1].
func (r Row) Similarity() float64 { return r.similarity }

// DistanceKm returns the distance to the query point, if computed.
func (r Row) DistanceKm() (float64, bool) {
	if r.distanceKm == nil {
		return 0, false
	}
	return *r.distanceKm, true
}

// Description returns the optional description.
func (r Row) Description() string { return r.description }

// Language returns the optional label language.
func (r Row) Language() string { return r.language }

// Reasons returns a copy of the match rationale.
func (r Row) Reasons() []string { return slices.Clone(r.reasons) }

// Attr returns a channel-specific attribute.
func (r Row) Attr(key string) (any, bool) {
	v, ok := r.attrs[key]
	return v, ok
}

// WithSimilarity returns a copy with a new (clamped) similarity.
func (r Row) WithSimilarity(sim float64) Row {
	r.similarity = score.Clamp(sim)
	return r
}

// WithDistanceKm returns a copy carrying the distance to the query point.
func (r Row) WithDistanceKm(km float64) Row {
	r.distanceKm = &km
	return r
}

// WithDescription returns a copy with a description.
func (r Row) WithDescription(d string) Row {
	r.description = d
	return r
}

// WithLanguage returns a copy with a label language.
func (r Row) WithLanguage(lang string) Row {
	r.language = lang
	return r
}

// WithReasons returns a copy with the given rationale.
func (r Row) WithReasons(reasons []string) Row {
	r.reasons = slices.Clone(reasons)
	return r
}

// WithAttr returns a copy with one attribute set.
func (r Row) WithAttr(key string, value any) Row {
	attrs := maps.Clone(r.attrs)
	if attrs == nil {
		attrs = make(map[string]any, 1)
	}
	attrs[key] = value
	r.attrs = attrs
	return r
}
