package entity

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
)

var keyRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// Property is an extension property a caller may attach to a query.
type Property struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Settings    map[string]string `json:"settings,omitempty"`
}

// Config is the raw input for building a Spec.
type Config struct {
	Key               string
	Name              string
	TypePath          string
	IDField           string
	LabelField        string
	AlternateIdentity string
	Properties        []Property
	Templates         map[string]string
	// Threshold overrides the service-wide auto-accept threshold when > 0.
	Threshold      float64
	LLMDescription string
	LLMContext     string
}

// Spec describes one reconcilable entity type (immutable value object).
// Built once at startup and shared read-only by strategies.
type Spec struct {
	key               string
	name              string
	typePath          string
	idField           string
	labelField        string
	alternateIdentity string
	properties        []Property
	templates         map[string]string
	threshold         float64
	llmDescription    string
	llmContext        string
}

// New validates and creates a Spec.
// Key: ^[a-z][a-z0-9_-]*$, 1-64 chars. TypePath starts with "/".
// The alternate identity property, when set, must be declared in Properties.
func New(cfg Config) (Spec, error) {
	if cfg.Key == "" {
		return Spec{}, fmt.Errorf("entity key is required")
	}
	if len(cfg.Key) > 64 || !keyRegex.MatchString(cfg.Key) {
		return Spec{}, fmt.Errorf("invalid entity key %q", cfg.Key)
	}
	if !strings.HasPrefix(cfg.TypePath, "/") {
		return Spec{}, fmt.Errorf("entity %s: type path must start with '/'", cfg.Key)
	}
	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return Spec{}, fmt.Errorf("entity %s: threshold must be in [0,1]", cfg.Key)
	}

	seen := make(map[string]bool, len(cfg.Properties))
	props := make([]Property, 0, len(cfg.Properties))
	for _, p := range cfg.Properties {
		if p.ID == "" {
			return Spec{}, fmt.Errorf("entity %s: property id is required", cfg.Key)
		}
		if seen[p.ID] {
			return Spec{}, fmt.Errorf("entity %s: duplicate property %q", cfg.Key, p.ID)
		}
		seen[p.ID] = true
		if p.Name == "" {
			p.Name = p.ID
		}
		p.Settings = maps.Clone(p.Settings)
		props = append(props, p)
	}
	if cfg.AlternateIdentity != "" && !seen[cfg.AlternateIdentity] {
		return Spec{}, fmt.Errorf("entity %s: alternate identity %q is not a declared property",
			cfg.Key, cfg.AlternateIdentity)
	}

	name := cfg.Name
	if name == "" {
		name = cfg.Key
	}
	idField := cfg.IDField
	if idField == "" {
		idField = "id"
	}
	labelField := cfg.LabelField
	if labelField == "" {
		labelField = "label"
	}

	return Spec{
		key:               cfg.Key,
		name:              name,
		typePath:          strings.TrimRight(cfg.TypePath, "/"),
		idField:           idField,
		labelField:        labelField,
		alternateIdentity: cfg.AlternateIdentity,
		properties:        props,
		templates:         maps.Clone(cfg.Templates),
		threshold:         cfg.Threshold,
		llmDescription:    cfg.LLMDescription,
		llmContext:        cfg.LLMContext,
	}, nil
}

// Key returns the entity type key used in queries.
func (s Spec) Key() string { return s.key }

// Name returns the human-readable entity type name.
func (s Spec) Name() string { return s.name }

// TypePath returns the path segment appended to the namespace in global ids.
func (s Spec) TypePath() string { return s.typePath }

// IDField returns the source column holding entity ids.
func (s Spec) IDField() string { return s.idField }

// LabelField returns the source column holding display labels.
func (s Spec) LabelField() string { return s.labelField }

// AlternateIdentity returns the property carrying an exact alternate identifier.
func (s Spec) AlternateIdentity() (string, bool) {
	return s.alternateIdentity, s.alternateIdentity != ""
}

// Properties returns a copy of the declared extension properties.
func (s Spec) Properties() []Property { return slices.Clone(s.properties) }

// Template returns the named query template.
func (s Spec) Template(name string) (string, bool) {
	t, ok := s.templates[name]
	return t, ok && t != ""
}

// TemplateNames returns the declared template names, sorted.
func (s Spec) TemplateNames() []string {
	return slices.Sorted(maps.Keys(s.templates))
}

// Threshold returns the auto-accept threshold override; ok is false when unset.
func (s Spec) Threshold() (float64, bool) { return s.threshold, s.threshold > 0 }

// LLMDescription returns the entity description injected into LLM prompts.
func (s Spec) LLMDescription() string { return s.llmDescription }

// LLMContext returns the domain context injected into LLM prompts.
func (s Spec) LLMContext() string { return s.llmContext }

// GlobalID builds "{namespace}{typePath}/{entityID}".
func (s Spec) GlobalID(namespace, entityID string) string {
	return strings.TrimRight(namespace, "/") + s.typePath + "/" + entityID
}

// WithTemplates returns a copy with the given templates replacing same-named ones.
func (s Spec) WithTemplates(overrides map[string]string) Spec {
	if len(overrides) == 0 {
		return s
	}
	merged := maps.Clone(s.templates)
	if merged == nil {
		merged = make(map[string]string, len(overrides))
	}
	maps.Copy(merged, overrides)
	s.templates = merged
	return s
}
