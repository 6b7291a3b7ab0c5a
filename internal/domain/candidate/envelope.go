package candidate

import (
	"github.com/kailas-cloud/reconciler/internal/domain/entity"
	"github.com/kailas-cloud/reconciler/internal/domain/score"
)

// TypeRef tags an envelope with its entity type.
type TypeRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Envelope is the externally visible candidate.
type Envelope struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Score       float64   `json:"score"`
	Match       bool      `json:"match"`
	Type        []TypeRef `json:"type"`
	DistanceKm  *float64  `json:"distance_km,omitempty"`
	Description string    `json:"description,omitempty"`
}

// Converter turns rows of one entity type into envelopes.
type Converter struct {
	Spec      entity.Spec
	Namespace string
	// Threshold is the auto-accept threshold in [0,1].
	Threshold float64
}

// Envelope converts a single row.
func (c Converter) Envelope(r Row, queryText string) Envelope {
	s := score.Normalize(r.similarity)
	env := Envelope{
		ID:          c.Spec.GlobalID(c.Namespace, r.id),
		Name:        r.label,
		Score:       s,
		Match:       score.IsMatch(r.label, queryText, s, c.Threshold),
		Type:        []TypeRef{{ID: c.Spec.Key(), Name: c.Spec.Name()}},
		Description: r.description,
	}
	if km, ok := r.DistanceKm(); ok {
		rounded := score.Round(km, 2)
		env.DistanceKm = &rounded
	}
	return env
}

// Envelopes converts rows in order.
func (c Converter) Envelopes(rows []Row, queryText string) []Envelope {
	out := make([]Envelope, 0, len(rows))
	for _, r := range rows {
		out = append(out, c.Envelope(r, queryText))
	}
	return out
}
