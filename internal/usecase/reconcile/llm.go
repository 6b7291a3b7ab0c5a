package reconcile

import (
	"context"
	"errors"
	"fmt"
	"text/template"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reconciler/internal/domain"
	"github.com/kailas-cloud/reconciler/internal/domain/candidate"
	"github.com/kailas-cloud/reconciler/internal/domain/entity"
	"github.com/kailas-cloud/reconciler/internal/domain/llmresponse"
	"github.com/kailas-cloud/reconciler/internal/domain/query"
	"github.com/kailas-cloud/reconciler/internal/logger"
	"github.com/kailas-cloud/reconciler/internal/rowformat"
)

// LLMOptions configures an LLM-backed entity type.
type LLMOptions struct {
	Completion domain.CompletionOptions
	// Format pins the table encoding; empty selects it from the vocabulary shape.
	Format rowformat.Format
	// Mapping maps logical columns onto lookup table columns.
	Mapping map[string]string
	Prompt  *template.Template
}

// LLM asks a language model to pick candidates from a small vocabulary.
// Provider failures propagate; there is no fuzzy fallback.
type LLM struct {
	base
	src       LookupSource
	completer Completer
	opts      LLMOptions
}

// NewLLM creates an LLM strategy.
func NewLLM(spec entity.Spec, src LookupSource, c Completer, opts LLMOptions, settings Settings) (*LLM, error) {
	if opts.Prompt == nil {
		tpl, err := ParsePrompt(spec.Key(), "")
		if err != nil {
			return nil, err
		}
		opts.Prompt = tpl
	}
	opts.Completion.JSON = true
	return &LLM{base: base{spec: spec, settings: settings}, src: src, completer: c, opts: opts}, nil
}

// FindCandidates encodes the vocabulary and the query, asks the model and
// keeps the candidates that exist in the vocabulary.
func (l *LLM) FindCandidates(ctx context.Context, q query.Query) ([]candidate.Envelope, error) {
	universe, err := l.src.LookupTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("lookup table: %w", err)
	}
	if len(universe) == 0 {
		return []candidate.Envelope{}, nil
	}

	labels, err := l.labels(universe)
	if err != nil {
		return nil, err
	}
	table, err := rowformat.Encode(universe, rowformat.Options{Target: l.opts.Format, Mapping: l.opts.Mapping})
	if err != nil {
		return nil, fmt.Errorf("encode lookup table: %w", err)
	}
	input, err := rowformat.Encode([]rowformat.Record{{
		{Key: "id", Value: "q0"},
		{Key: "value", Value: q.Text()},
	}}, rowformat.Options{Target: table.Format})
	if err != nil {
		return nil, fmt.Errorf("encode input: %w", err)
	}

	prompt, err := renderPrompt(l.opts.Prompt, PromptData{
		EntityType:  l.spec.Key(),
		Description: l.spec.LLMDescription(),
		Context:     l.spec.LLMContext(),
		Format:      string(table.Format),
		Table:       table.Text,
		Input:       input.Text,
		Limit:       q.Limit(),
	})
	if err != nil {
		return nil, err
	}

	completion, err := l.completer.Complete(ctx, prompt, l.opts.Completion)
	if err != nil {
		return nil, fmt.Errorf("complete: %w", err)
	}
	resp, err := llmresponse.Parse(completion.Text)
	if err != nil {
		return nil, err
	}

	rows, dropped := resp.First().ToRows(labels, q.Limit())
	if len(dropped) > 0 {
		logger.FromContext(ctx).Warn("llm returned ids outside the vocabulary",
			zap.String("entity", l.spec.Key()),
			zap.Strings("ids", dropped),
		)
	}
	return l.finish(q, rows), nil
}

// labels maps vocabulary ids to display labels. Entries without a label use the id.
func (l *LLM) labels(universe []rowformat.Record) (map[string]string, error) {
	cols, err := rowformat.Columns(universe, l.opts.Mapping)
	if err != nil {
		return nil, err
	}
	var idSrc, labelSrc string
	for _, c := range cols {
		switch c.Key {
		case "id":
			idSrc = c.Source
		case "label":
			labelSrc = c.Source
		}
	}
	if idSrc == "" {
		return nil, fmt.Errorf("%w: lookup table for %s has no id column", domain.ErrInvalidColumn, l.spec.Key())
	}

	labels := make(map[string]string, len(universe))
	for _, rec := range universe {
		idv, _ := rec.Get(idSrc)
		id := rowformat.Text(idv)
		if id == "" {
			continue
		}
		label := id
		if labelSrc != "" {
			if v, ok := rec.Get(labelSrc); ok && rowformat.Text(v) != "" {
				label = rowformat.Text(v)
			}
		}
		labels[id] = label
	}
	return labels, nil
}

// GetDetails returns the lookup entry for id. Without a details query the
// vocabulary itself is searched.
func (l *LLM) GetDetails(ctx context.Context, id string) (entity.Details, error) {
	d, err := l.src.GetDetails(ctx, id)
	if !errors.Is(err, domain.ErrNotImplemented) {
		return d, err
	}

	universe, err := l.src.LookupTable(ctx)
	if err != nil {
		return entity.Details{}, fmt.Errorf("lookup table: %w", err)
	}
	cols, err := rowformat.Columns(universe, l.opts.Mapping)
	if err != nil {
		return entity.Details{}, err
	}
	for _, rec := range rowformat.Project(universe, cols) {
		v, _ := rec.Get("id")
		if rowformat.Text(v) != id {
			continue
		}
		fields := make(map[string]any, len(rec))
		for _, f := range rec {
			fields[f.Key] = f.Value
		}
		return entity.Details{ID: id, Type: l.spec.Key(), Fields: fields}, nil
	}
	return entity.Details{}, fmt.Errorf("%s %q: %w", l.spec.Key(), id, domain.ErrNotFound)
}
