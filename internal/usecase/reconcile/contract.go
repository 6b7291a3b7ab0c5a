package reconcile

import (
	"context"

	"github.com/kailas-cloud/reconciler/internal/domain"
	"github.com/kailas-cloud/reconciler/internal/domain/candidate"
	"github.com/kailas-cloud/reconciler/internal/domain/entity"
	"github.com/kailas-cloud/reconciler/internal/domain/geo"
	"github.com/kailas-cloud/reconciler/internal/domain/query"
	"github.com/kailas-cloud/reconciler/internal/rowformat"
)

// Channel is a single evidence source of candidate rows.
type Channel interface {
	Find(ctx context.Context, text string, limit int, props query.Properties) ([]candidate.Row, error)
	GetDetails(ctx context.Context, id string) (entity.Details, error)
	// FetchByAlternateIdentity returns domain.ErrNotImplemented when unsupported.
	FetchByAlternateIdentity(ctx context.Context, value string) ([]candidate.Row, error)
}

// TemplateRunner executes named query templates of an entity type.
type TemplateRunner interface {
	Run(ctx context.Context, template string, args ...any) ([]candidate.Row, error)
	Has(template string) bool
}

// DistanceSource computes distances in kilometers from a point for a batch of ids.
type DistanceSource interface {
	Distances(ctx context.Context, ids []string, p geo.Point) (map[string]float64, error)
}

// PlaceMatcher scores candidate descriptions against a place name.
type PlaceMatcher interface {
	PlaceSimilarities(ctx context.Context, ids []string, place string) (map[string]float64, error)
}

// LookupSource fetches the full vocabulary of a lookup entity type.
type LookupSource interface {
	LookupTable(ctx context.Context) ([]rowformat.Record, error)
	GetDetails(ctx context.Context, id string) (entity.Details, error)
}

// Completer sends a prompt to the configured LLM provider.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts domain.CompletionOptions) (domain.Completion, error)
}

// Strategy produces ranked candidates for one entity type.
type Strategy interface {
	Spec() entity.Spec
	FindCandidates(ctx context.Context, q query.Query) ([]candidate.Envelope, error)
	GetDetails(ctx context.Context, id string) (entity.Details, error)
}
