package catalog

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/reconciler/internal/config"
	"github.com/kailas-cloud/reconciler/internal/domain/entity"
)

func keys(defs []Definition) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.Spec.Key()
	}
	return out
}

func TestBuild_Defaults(t *testing.T) {
	defs, err := Build(config.ReconcileConfig{}, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := strings.Join(keys(defs), ","); got != "site,reference" {
		t.Errorf("keys = %s, want site,reference", got)
	}
	if defs[0].Kind != KindSite || defs[1].Kind != KindBibliography {
		t.Errorf("kinds = %s, %s", defs[0].Kind, defs[1].Kind)
	}
	if alt, ok := defs[0].Spec.AlternateIdentity(); !ok || alt != "register_code" {
		t.Errorf("site alternate identity = %q, %v", alt, ok)
	}
}

func TestBuild_GeocodingAddsLocation(t *testing.T) {
	defs, err := Build(config.ReconcileConfig{}, Options{Geocoding: true})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := strings.Join(keys(defs), ","); got != "site,location,reference" {
		t.Errorf("keys = %s", got)
	}
}

func TestBuild_Overrides(t *testing.T) {
	cfg := config.ReconcileConfig{
		Entities: map[string]config.EntityOverride{
			KeySite: {
				Threshold: 0.9,
				Templates: map[string]string{entity.TemplateFuzzy: "SELECT custom"},
			},
			KeyBibliography: {Disabled: true},
		},
	}
	defs, err := Build(cfg, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("keys = %v, want only site", keys(defs))
	}
	site := defs[0].Spec
	if th, ok := site.Threshold(); !ok || th != 0.9 {
		t.Errorf("threshold = %v, %v", th, ok)
	}
	if sql, _ := site.Template(entity.TemplateFuzzy); sql != "SELECT custom" {
		t.Errorf("fuzzy = %q", sql)
	}
	if _, ok := site.Template(entity.TemplateDistance); !ok {
		t.Error("override should keep the other templates")
	}
	if Site().Templates[entity.TemplateFuzzy] == "SELECT custom" {
		t.Error("override leaked into the built-in config")
	}
}

func TestBuild_Lookups(t *testing.T) {
	cfg := config.ReconcileConfig{
		Lookups: []config.LookupConfig{{
			Key:         "period",
			TableSQL:    "SELECT code AS id, name AS label FROM periods",
			Description: "Chronological periods",
			Columns:     map[string]string{"id": "code"},
		}},
	}
	defs, err := Build(cfg, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	d := defs[len(defs)-1]
	if d.Kind != KindLookup || d.Spec.Key() != "period" {
		t.Fatalf("last = %+v", d)
	}
	if d.Spec.TypePath() != "/period" || d.Spec.Name() != "period" {
		t.Errorf("type path = %q, name = %q", d.Spec.TypePath(), d.Spec.Name())
	}
	if d.Spec.LLMDescription() != "Chronological periods" {
		t.Errorf("description = %q", d.Spec.LLMDescription())
	}
	if _, ok := d.Spec.Template(entity.TemplateDetails); ok {
		t.Error("details template should be absent without details_sql")
	}
	if d.Columns["id"] != "code" {
		t.Errorf("columns = %v", d.Columns)
	}
}

func TestBuild_InvalidLookup(t *testing.T) {
	cfg := config.ReconcileConfig{
		Lookups: []config.LookupConfig{{Key: "Bad Key", TableSQL: "SELECT 1"}},
	}
	if _, err := Build(cfg, Options{}); err == nil {
		t.Fatal("expected error for invalid key")
	}
}
