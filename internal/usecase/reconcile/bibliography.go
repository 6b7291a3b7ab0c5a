package reconcile

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/reconciler/internal/domain/candidate"
	"github.com/kailas-cloud/reconciler/internal/domain/entity"
	"github.com/kailas-cloud/reconciler/internal/domain/identifier"
	"github.com/kailas-cloud/reconciler/internal/domain/query"
	"github.com/kailas-cloud/reconciler/internal/domain/score"
)

// AttrYear is the row attribute holding a reference's publication year.
const AttrYear = "year"

// BibliographyChannel runs the reference query templates.
type BibliographyChannel interface {
	TemplateRunner
	GetDetails(ctx context.Context, id string) (entity.Details, error)
}

var bibliographyTemplates = []string{
	entity.TemplateISBN,
	entity.TemplateDOI,
	entity.TemplateReferenceExact,
	entity.TemplateTitleYear,
	entity.TemplateReferenceCode,
	entity.TemplateReferencePartial,
	entity.TemplateAuthorFuzzy,
	entity.TemplateTitleFuzzy,
	entity.TemplateReferenceSimilar,
}

// Bibliography walks a ladder of exact identifier channels, strong fuzzy
// channels and a weak similarity fallback.
type Bibliography struct {
	base
	ch BibliographyChannel
}

// NewBibliography creates the bibliographic reference strategy.
// The channel must provide every reference template.
func NewBibliography(spec entity.Spec, ch BibliographyChannel, settings Settings) (*Bibliography, error) {
	for _, tpl := range bibliographyTemplates {
		if !ch.Has(tpl) {
			return nil, fmt.Errorf("entity %s: missing template %q", spec.Key(), tpl)
		}
	}
	if _, ok := spec.Threshold(); !ok {
		settings.Threshold = score.IdentifierMatchThreshold
	}
	return &Bibliography{base: base{spec: spec, settings: settings}, ch: ch}, nil
}

// bibInput holds the validated reference properties of one query.
type bibInput struct {
	isbn      string
	doi       string
	reference string
	code      string
	title     string
	author    string
	year      int
	hasYear   bool
}

func parseBibInput(props query.Properties) (bibInput, error) {
	var in bibInput
	var err error
	if raw, ok := props.String(PropertyISBN); ok {
		if in.isbn, err = identifier.NormalizeISBN(raw); err != nil {
			return bibInput{}, err
		}
	}
	if raw, ok := props.String(PropertyDOI); ok {
		if in.doi, err = identifier.NormalizeDOI(raw); err != nil {
			return bibInput{}, err
		}
	}
	if in.year, in.hasYear, err = props.Int(PropertyYear); err != nil {
		return bibInput{}, err
	}
	in.reference, _ = props.String(PropertyReference)
	in.code, _ = props.String(PropertyReferenceCode)
	in.title, _ = props.String(PropertyTitle)
	in.author, _ = props.String(PropertyAuthor)
	return in, nil
}

// FindCandidates runs the exact, strong fuzzy and fallback channels in order.
func (b *Bibliography) FindCandidates(ctx context.Context, q query.Query) ([]candidate.Envelope, error) {
	in, err := parseBibInput(q.Properties())
	if err != nil {
		return nil, err
	}

	exact, exactRef, err := b.exact(ctx, q, in)
	if err != nil {
		return nil, err
	}
	strong, err := b.strong(ctx, q, in)
	if err != nil {
		return nil, err
	}
	rows := candidate.Merge(exact, strong)

	if !exactRef {
		partial, err := b.ch.Run(ctx, entity.TemplateReferencePartial, q.Text(), q.Limit())
		if err != nil {
			return nil, fmt.Errorf("partial reference: %w", err)
		}
		rows = candidate.Merge(rows, partial)

		if len(rows) < q.Limit() {
			similar, err := b.ch.Run(ctx, entity.TemplateReferenceSimilar, q.Text(), q.Limit())
			if err != nil {
				return nil, fmt.Errorf("similar reference: %w", err)
			}
			rows = candidate.Merge(rows, mapSimilarity(similar, func(s float64) float64 {
				return score.Cap(s, score.WeakSimilarityCap)
			}))
		}
	}

	return b.finish(q, rows), nil
}

// exact runs the identifier channels. exactRef reports whether the raw query
// matched a full reference text.
func (b *Bibliography) exact(ctx context.Context, q query.Query, in bibInput) (rows []candidate.Row, exactRef bool, err error) {
	run := func(tpl string, args ...any) error {
		got, err := b.ch.Run(ctx, tpl, args...)
		if err != nil {
			return fmt.Errorf("exact %s: %w", tpl, err)
		}
		rows = append(rows, withSimilarity(got, 1)...)
		if tpl == entity.TemplateReferenceExact && len(got) > 0 {
			exactRef = true
		}
		return nil
	}

	if in.isbn != "" {
		if err = run(entity.TemplateISBN, in.isbn); err != nil {
			return nil, false, err
		}
	}
	if in.doi != "" {
		if err = run(entity.TemplateDOI, in.doi); err != nil {
			return nil, false, err
		}
	}
	if err = run(entity.TemplateReferenceExact, q.Text()); err != nil {
		return nil, false, err
	}
	if in.title != "" && in.hasYear {
		if err = run(entity.TemplateTitleYear, in.title, in.year); err != nil {
			return nil, false, err
		}
	}
	if in.code != "" {
		if err = run(entity.TemplateReferenceCode, in.code); err != nil {
			return nil, false, err
		}
	}
	return rows, exactRef, nil
}

// strong runs the fuzzy channels whose hits are floored at score.StrongFuzzyFloor.
func (b *Bibliography) strong(ctx context.Context, q query.Query, in bibInput) ([]candidate.Row, error) {
	floor := func(s float64) float64 { return score.Floor(s, score.StrongFuzzyFloor) }
	var rows []candidate.Row

	if in.reference != "" {
		got, err := b.ch.Run(ctx, entity.TemplateReferencePartial, in.reference, q.Limit())
		if err != nil {
			return nil, fmt.Errorf("reference property: %w", err)
		}
		rows = append(rows, mapSimilarity(got, floor)...)
	}
	if !in.hasYear {
		return rows, nil
	}
	for _, c := range []struct{ tpl, text string }{
		{entity.TemplateAuthorFuzzy, in.author},
		{entity.TemplateTitleFuzzy, in.title},
	} {
		if c.text == "" {
			continue
		}
		got, err := b.ch.Run(ctx, c.tpl, c.text, in.year, q.Limit())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.tpl, err)
		}
		rows = append(rows, mapSimilarity(sameYear(got, in.year), floor)...)
	}
	return rows, nil
}

// GetDetails returns the stored reference record.
func (b *Bibliography) GetDetails(ctx context.Context, id string) (entity.Details, error) {
	return b.ch.GetDetails(ctx, id)
}

// sameYear keeps rows whose year attribute is absent or equals year.
func sameYear(rows []candidate.Row, year int) []candidate.Row {
	out := rows[:0:0]
	for _, r := range rows {
		if v, ok := r.Attr(AttrYear); ok && v != nil {
			if y, ok := attrInt(v); !ok || y != year {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

func mapSimilarity(rows []candidate.Row, fn func(float64) float64) []candidate.Row {
	out := make([]candidate.Row, len(rows))
	for i, r := range rows {
		out[i] = r.WithSimilarity(fn(r.Similarity()))
	}
	return out
}
