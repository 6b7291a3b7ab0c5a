package reconcile

import (
	"github.com/kailas-cloud/reconciler/internal/domain/candidate"
	"github.com/kailas-cloud/reconciler/internal/domain/entity"
	"github.com/kailas-cloud/reconciler/internal/domain/query"
	"github.com/kailas-cloud/reconciler/internal/domain/score"
)

// Property ids interpreted by the built-in strategies.
const (
	PropertyLat           = "lat"
	PropertyLon           = "lon"
	PropertyPlace         = "place"
	PropertyISBN          = "isbn"
	PropertyDOI           = "doi"
	PropertyReference     = "reference"
	PropertyReferenceCode = "reference_code"
	PropertyTitle         = "title"
	PropertyAuthor        = "author"
	PropertyYear          = "year"
)

// Settings carries the service-wide conversion parameters.
type Settings struct {
	Namespace string
	// Threshold is the auto-accept threshold used when the entity type has no override.
	Threshold float64
}

type base struct {
	spec     entity.Spec
	settings Settings
}

func (b base) Spec() entity.Spec { return b.spec }

func (b base) threshold() float64 {
	if t, ok := b.spec.Threshold(); ok {
		return t
	}
	if b.settings.Threshold > 0 {
		return b.settings.Threshold
	}
	return score.DefaultMatchThreshold
}

// finish merges, ranks, truncates and converts rows into envelopes.
func (b base) finish(q query.Query, rows ...[]candidate.Row) []candidate.Envelope {
	ranked := candidate.SortAndTruncate(candidate.Merge(rows...), q.Limit())
	conv := candidate.Converter{
		Spec:      b.spec,
		Namespace: b.settings.Namespace,
		Threshold: b.threshold(),
	}
	return conv.Envelopes(ranked, q.Text())
}
