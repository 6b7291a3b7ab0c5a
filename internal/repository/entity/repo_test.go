package entity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/reconciler/internal/db"
	"github.com/kailas-cloud/reconciler/internal/domain"
	"github.com/kailas-cloud/reconciler/internal/domain/geo"
)

func TestFind_MapsColumns(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.queryFn = func(_ context.Context, sql string, args ...any) ([]db.Record, error) {
		if sql != "SELECT fuzzy" {
			t.Errorf("unexpected sql %q", sql)
		}
		if len(args) != 2 || args[0] != "henge" || args[1] != 5 {
			t.Errorf("unexpected args %v", args)
		}
		return []db.Record{
			{
				{Name: "site_id", Value: int64(7)},
				{Name: "site_name", Value: "Stonehenge"},
				{Name: "similarity", Value: 0.64},
				{Name: "description", Value: "Neolithic monument"},
				{Name: "county", Value: "Wiltshire"},
			},
		}, nil
	}

	rows, err := repo.Find(context.Background(), "henge", 5, nil)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	r := rows[0]
	if r.ID() != "7" || r.Label() != "Stonehenge" || r.Similarity() != 0.64 {
		t.Errorf("unexpected row %s/%s/%v", r.ID(), r.Label(), r.Similarity())
	}
	if r.Description() != "Neolithic monument" {
		t.Errorf("description = %q", r.Description())
	}
	if v, ok := r.Attr("county"); !ok || v != "Wiltshire" {
		t.Errorf("county attr = %v", v)
	}
}

func TestRun_DefaultsSimilarityToOne(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.queryFn = func(context.Context, string, ...any) ([]db.Record, error) {
		return []db.Record{{{Name: "site_id", Value: "A1"}, {Name: "site_name", Value: "Avebury"}}}, nil
	}
	rows, err := repo.Run(context.Background(), "fuzzy", "x", 1)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rows[0].Similarity() != 1 {
		t.Errorf("similarity = %v", rows[0].Similarity())
	}
}

func TestFetchByAlternateIdentity_MissingTemplate(t *testing.T) {
	repo, ms := newTestRepo(t)
	_, err := repo.FetchByAlternateIdentity(context.Background(), "SU 123 456")
	if !errors.Is(err, domain.ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented, got %v", err)
	}
	if len(ms.calls) != 0 {
		t.Error("store must not be called without a template")
	}
}

func TestQuery_WrapsChannelError(t *testing.T) {
	repo, ms := newTestRepo(t)
	cause := &db.Error{Op: db.OpQuery, Err: errors.New("relation does not exist")}
	ms.queryFn = func(context.Context, string, ...any) ([]db.Record, error) { return nil, cause }

	_, err := repo.Find(context.Background(), "x", 1, nil)
	if !errors.Is(err, domain.ErrChannel) {
		t.Fatalf("expected ErrChannel, got %v", err)
	}
	var dbErr *db.Error
	if !errors.As(err, &dbErr) {
		t.Error("expected db.Error in chain")
	}
}

func TestQuery_AppliesTimeout(t *testing.T) {
	ms := &mockStore{queryFn: func(ctx context.Context, _ string, _ ...any) ([]db.Record, error) {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("expected deadline on context")
		}
		return nil, nil
	}}
	repo := New(ms, testSpec(t), WithTimeout(time.Second))
	if _, err := repo.Find(context.Background(), "x", 1, nil); err != nil {
		t.Fatalf("Find: %v", err)
	}
}

func TestGetDetails(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.queryFn = func(_ context.Context, _ string, args ...any) ([]db.Record, error) {
		if args[0] == "missing" {
			return nil, nil
		}
		return []db.Record{{{Name: "site_id", Value: "7"}, {Name: "period", Value: "Neolithic"}}}, nil
	}

	d, err := repo.GetDetails(context.Background(), "7")
	if err != nil {
		t.Fatalf("GetDetails: %v", err)
	}
	if d.ID != "7" || d.Type != "site" || d.Fields["period"] != "Neolithic" {
		t.Errorf("unexpected details %+v", d)
	}

	if _, err := repo.GetDetails(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDistances(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.queryFn = func(_ context.Context, _ string, args ...any) ([]db.Record, error) {
		ids, ok := args[0].([]string)
		if !ok || len(ids) != 2 {
			t.Errorf("expected ids slice, got %v", args[0])
		}
		if args[1] != 51.17 || args[2] != -1.82 {
			t.Errorf("unexpected point args %v", args[1:])
		}
		return []db.Record{
			{{Name: "site_id", Value: "1"}, {Name: "distance_km", Value: 0.5}},
			{{Name: "site_id", Value: "2"}, {Name: "distance_km", Value: nil}},
		}, nil
	}

	d, err := repo.Distances(context.Background(), []string{"1", "2"}, geo.Point{Lat: 51.17, Lon: -1.82})
	if err != nil {
		t.Fatalf("Distances: %v", err)
	}
	if len(d) != 1 || d["1"] != 0.5 {
		t.Errorf("distances = %v", d)
	}
}

func TestScores_EmptyIDsSkipsQuery(t *testing.T) {
	repo, ms := newTestRepo(t)
	got, err := repo.PlaceSimilarities(context.Background(), nil, "Wiltshire")
	if err != nil || len(got) != 0 {
		t.Fatalf("unexpected result %v %v", got, err)
	}
	if len(ms.calls) != 0 {
		t.Error("store must not be called for empty id list")
	}
}

func TestLookupTable(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.queryFn = func(context.Context, string, ...any) ([]db.Record, error) {
		return []db.Record{{{Name: "id", Value: "12"}, {Name: "label", Value: "Sherd"}}}, nil
	}
	recs, err := repo.LookupTable(context.Background())
	if err != nil {
		t.Fatalf("LookupTable: %v", err)
	}
	if len(recs) != 1 || recs[0][1].Key != "label" || recs[0][1].Value != "Sherd" {
		t.Errorf("unexpected records %+v", recs)
	}
}
