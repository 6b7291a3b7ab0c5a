package reconcile

import (
	"context"
	"fmt"
	"testing"

	"github.com/kailas-cloud/reconciler/internal/domain"
	"github.com/kailas-cloud/reconciler/internal/domain/candidate"
	"github.com/kailas-cloud/reconciler/internal/domain/entity"
	"github.com/kailas-cloud/reconciler/internal/domain/geo"
	"github.com/kailas-cloud/reconciler/internal/domain/query"
	"github.com/kailas-cloud/reconciler/internal/rowformat"
)

const testNamespace = "https://ref.example.org"

// mockChannel implements every channel contract for tests.
type mockChannel struct {
	findFn      func(ctx context.Context, text string, limit int, props query.Properties) ([]candidate.Row, error)
	altFn       func(ctx context.Context, value string) ([]candidate.Row, error)
	detailsFn   func(ctx context.Context, id string) (entity.Details, error)
	distancesFn func(ctx context.Context, ids []string, p geo.Point) (map[string]float64, error)
	placeFn     func(ctx context.Context, ids []string, place string) (map[string]float64, error)
	runFn       func(ctx context.Context, template string, args ...any) ([]candidate.Row, error)
	lookupFn    func(ctx context.Context) ([]rowformat.Record, error)
	// missing lists templates Has reports as absent.
	missing map[string]bool

	calls []string
}

func (m *mockChannel) Find(ctx context.Context, text string, limit int, props query.Properties) ([]candidate.Row, error) {
	m.calls = append(m.calls, "find")
	if m.findFn != nil {
		return m.findFn(ctx, text, limit, props)
	}
	return nil, nil
}

func (m *mockChannel) FetchByAlternateIdentity(ctx context.Context, value string) ([]candidate.Row, error) {
	m.calls = append(m.calls, "alternate")
	if m.altFn != nil {
		return m.altFn(ctx, value)
	}
	return nil, domain.ErrNotImplemented
}

func (m *mockChannel) GetDetails(ctx context.Context, id string) (entity.Details, error) {
	m.calls = append(m.calls, "details")
	if m.detailsFn != nil {
		return m.detailsFn(ctx, id)
	}
	return entity.Details{}, domain.ErrNotImplemented
}

func (m *mockChannel) Distances(ctx context.Context, ids []string, p geo.Point) (map[string]float64, error) {
	m.calls = append(m.calls, "distances")
	if m.distancesFn != nil {
		return m.distancesFn(ctx, ids, p)
	}
	return map[string]float64{}, nil
}

func (m *mockChannel) PlaceSimilarities(ctx context.Context, ids []string, place string) (map[string]float64, error) {
	m.calls = append(m.calls, "place")
	if m.placeFn != nil {
		return m.placeFn(ctx, ids, place)
	}
	return map[string]float64{}, nil
}

func (m *mockChannel) Run(ctx context.Context, template string, args ...any) ([]candidate.Row, error) {
	m.calls = append(m.calls, template)
	if m.runFn != nil {
		return m.runFn(ctx, template, args...)
	}
	return nil, nil
}

func (m *mockChannel) Has(template string) bool {
	return !m.missing[template]
}

func (m *mockChannel) LookupTable(ctx context.Context) ([]rowformat.Record, error) {
	m.calls = append(m.calls, "lookup")
	if m.lookupFn != nil {
		return m.lookupFn(ctx)
	}
	return nil, nil
}

// mockCompleter implements Completer for tests.
type mockCompleter struct {
	completeFn func(ctx context.Context, prompt string, opts domain.CompletionOptions) (domain.Completion, error)
	prompts    []string
	opts       []domain.CompletionOptions
}

func (m *mockCompleter) Complete(ctx context.Context, prompt string, opts domain.CompletionOptions) (domain.Completion, error) {
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	if m.completeFn != nil {
		return m.completeFn(ctx, prompt, opts)
	}
	return domain.Completion{}, fmt.Errorf("no completion: %w", domain.ErrChannel)
}

func testSettings() Settings {
	return Settings{Namespace: testNamespace, Threshold: 0.85}
}

func mustSpec(t *testing.T, cfg entity.Config) entity.Spec {
	t.Helper()
	s, err := entity.New(cfg)
	if err != nil {
		t.Fatalf("entity.New: %v", err)
	}
	return s
}

func mustQuery(t *testing.T, text, entityType string, limit int, props query.Properties) query.Query {
	t.Helper()
	q, err := query.New(text, entityType, limit, props)
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	return q
}

func row(id, label string, sim float64) candidate.Row {
	return candidate.NewRow(id, label, sim)
}

func scores(envs []candidate.Envelope) []float64 {
	out := make([]float64, len(envs))
	for i, e := range envs {
		out[i] = e.Score
	}
	return out
}

func ids(envs []candidate.Envelope) []string {
	out := make([]string, len(envs))
	for i, e := range envs {
		out[i] = e.ID
	}
	return out
}

func called(calls []string, name string) int {
	var n int
	for _, c := range calls {
		if c == name {
			n++
		}
	}
	return n
}
