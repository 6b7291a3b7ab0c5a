package entity

import (
	"context"
	"testing"

	"github.com/kailas-cloud/reconciler/internal/db"
	"github.com/kailas-cloud/reconciler/internal/domain/entity"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	queryFn func(ctx context.Context, sql string, args ...any) ([]db.Record, error)
	calls   []call
}

type call struct {
	sql  string
	args []any
}

func (m *mockStore) QueryRecords(ctx context.Context, sql string, args ...any) ([]db.Record, error) {
	m.calls = append(m.calls, call{sql: sql, args: args})
	if m.queryFn != nil {
		return m.queryFn(ctx, sql, args...)
	}
	return nil, nil
}

func testSpec(t *testing.T) entity.Spec {
	t.Helper()
	s, err := entity.New(entity.Config{
		Key:        "site",
		TypePath:   "/site",
		IDField:    "site_id",
		LabelField: "site_name",
		Templates: map[string]string{
			entity.TemplateFuzzy:           "SELECT fuzzy",
			entity.TemplateDetails:         "SELECT details",
			entity.TemplateDistance:        "SELECT distance",
			entity.TemplatePlaceSimilarity: "SELECT place",
			entity.TemplateLookupTable:     "SELECT lookup",
		},
	})
	if err != nil {
		t.Fatalf("entity.New: %v", err)
	}
	return s
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, testSpec(t)), ms
}
