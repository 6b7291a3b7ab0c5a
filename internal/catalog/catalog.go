// Package catalog declares the entity types served by the reconciler:
// the built-in site, location and bibliography types plus the LLM lookup
// vocabularies declared in configuration.
package catalog

import (
	"fmt"
	"maps"

	"github.com/kailas-cloud/reconciler/internal/config"
	"github.com/kailas-cloud/reconciler/internal/domain/entity"
)

// Kind selects the strategy that serves an entity type.
type Kind string

const (
	KindSite         Kind = "site"
	KindLocation     Kind = "location"
	KindBibliography Kind = "bibliography"
	KindLookup       Kind = "lookup"
)

// Definition is one entity type ready for registration.
type Definition struct {
	Kind Kind
	Spec entity.Spec
	// Columns maps logical columns onto lookup table columns (lookups only).
	Columns map[string]string
}

// Options selects optional built-ins.
type Options struct {
	// Geocoding enables the location type.
	Geocoding bool
}

// Build returns the definitions in registration order: built-ins first,
// then lookups in configuration order.
func Build(cfg config.ReconcileConfig, opts Options) ([]Definition, error) {
	builtins := []struct {
		kind Kind
		cfg  entity.Config
		on   bool
	}{
		{KindSite, Site(), true},
		{KindLocation, Location(), opts.Geocoding},
		{KindBibliography, Bibliography(), true},
	}

	var defs []Definition
	for _, b := range builtins {
		if !b.on {
			continue
		}
		ec := b.cfg
		if o, ok := cfg.Entities[ec.Key]; ok {
			if o.Disabled {
				continue
			}
			ec = applyOverride(ec, o)
		}
		spec, err := entity.New(ec)
		if err != nil {
			return nil, fmt.Errorf("entity %s: %w", ec.Key, err)
		}
		defs = append(defs, Definition{Kind: b.kind, Spec: spec})
	}

	for _, l := range cfg.Lookups {
		spec, err := entity.New(lookupConfig(l))
		if err != nil {
			return nil, fmt.Errorf("lookup %s: %w", l.Key, err)
		}
		defs = append(defs, Definition{Kind: KindLookup, Spec: spec, Columns: l.Columns})
	}
	return defs, nil
}

func applyOverride(ec entity.Config, o config.EntityOverride) entity.Config {
	if o.Threshold > 0 {
		ec.Threshold = o.Threshold
	}
	if len(o.Templates) > 0 {
		templates := maps.Clone(ec.Templates)
		if templates == nil {
			templates = make(map[string]string, len(o.Templates))
		}
		maps.Copy(templates, o.Templates)
		ec.Templates = templates
	}
	return ec
}

func lookupConfig(l config.LookupConfig) entity.Config {
	name := l.Name
	if name == "" {
		name = l.Key
	}
	typePath := l.TypePath
	if typePath == "" {
		typePath = "/" + l.Key
	}
	templates := map[string]string{entity.TemplateLookupTable: l.TableSQL}
	if l.DetailsSQL != "" {
		templates[entity.TemplateDetails] = l.DetailsSQL
	}
	return entity.Config{
		Key:            l.Key,
		Name:           name,
		TypePath:       typePath,
		Templates:      templates,
		Threshold:      l.Threshold,
		LLMDescription: l.Description,
		LLMContext:     l.Context,
	}
}
