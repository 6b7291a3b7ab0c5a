package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kailas-cloud/reconciler/internal/domain/candidate"
	"github.com/kailas-cloud/reconciler/internal/domain/entity"
	"github.com/kailas-cloud/reconciler/internal/usecase/reconcile"
)

func TestParseProps(t *testing.T) {
	got, err := parseProps([]string{"lat=52.79", " place =Gniezno=Stare", "empty="})
	if err != nil {
		t.Fatalf("parseProps: %v", err)
	}
	if got["lat"] != "52.79" || got["place"] != "Gniezno=Stare" || got["empty"] != "" {
		t.Errorf("props = %v", got)
	}

	for _, bad := range []string{"lat", "=1"} {
		if _, err := parseProps([]string{bad}); err == nil {
			t.Errorf("parseProps(%q): expected error", bad)
		}
	}
}

func TestReadBatchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.yaml")
	data := `
- id: first
  query: Biskupin
  type: site
  limit: 3
  properties:
    lat: "52.79"
- query: Gniezno
  type: location
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	items, err := readBatchFile(path)
	if err != nil {
		t.Fatalf("readBatchFile: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[0].ID != "first" || items[0].Limit != 3 || items[0].Properties["lat"] != "52.79" {
		t.Errorf("items[0] = %+v", items[0])
	}
	if items[1].ID != "q1" || items[1].Type != "location" {
		t.Errorf("items[1] = %+v", items[1])
	}
}

func TestReadBatchFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.json")
	data := `[{"id":"a","query":"Biskupin","type":"site"}]`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	items, err := readBatchFile(path)
	if err != nil {
		t.Fatalf("readBatchFile: %v", err)
	}
	if len(items) != 1 || items[0].Text != "Biskupin" {
		t.Errorf("items = %+v", items)
	}
}

func TestWriteResults_Table(t *testing.T) {
	dist := 12.34
	results := []reconcile.Result{
		{ID: "q0", Candidates: []candidate.Envelope{
			{ID: "https://ref.example.org/site/1", Name: "Biskupin", Score: 90, Match: true, DistanceKm: &dist},
		}},
		{ID: "q1"},
	}
	var buf bytes.Buffer
	if err := writeResults(&buf, results, false); err != nil {
		t.Fatalf("writeResults: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Biskupin", "90.00", "12.3", "yes", "(no candidates)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteTypes_JSON(t *testing.T) {
	spec, err := entity.New(entity.Config{
		Key:        "site",
		TypePath:   "/site",
		Properties: []entity.Property{{ID: "lat"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := writeTypes(&buf, []entity.Spec{spec}, true); err != nil {
		t.Fatalf("writeTypes: %v", err)
	}
	if !strings.Contains(buf.String(), `"id": "site"`) {
		t.Errorf("output = %s", buf.String())
	}
}

func TestWriteDetails_SortedFields(t *testing.T) {
	var buf bytes.Buffer
	d := entity.Details{ID: "17", Type: "site", Fields: map[string]any{"b": 2, "a": "x"}}
	if err := writeDetails(&buf, d, false); err != nil {
		t.Fatalf("writeDetails: %v", err)
	}
	out := buf.String()
	if strings.Index(out, " a ") > strings.Index(out, " b ") {
		t.Errorf("fields not sorted:\n%s", out)
	}
}
