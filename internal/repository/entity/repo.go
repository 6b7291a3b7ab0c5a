// Package entity is the PostgreSQL evidence channel. Every lookup runs a named
// SQL template from the entity type definition; fuzzy ranking is delegated to
// pg_trgm and distances to PostGIS.
package entity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reconciler/internal/db"
	"github.com/kailas-cloud/reconciler/internal/domain"
	"github.com/kailas-cloud/reconciler/internal/domain/candidate"
	"github.com/kailas-cloud/reconciler/internal/domain/entity"
	"github.com/kailas-cloud/reconciler/internal/domain/geo"
	"github.com/kailas-cloud/reconciler/internal/domain/query"
	"github.com/kailas-cloud/reconciler/internal/metrics"
	"github.com/kailas-cloud/reconciler/internal/rowformat"
)

const channelName = "postgres"

// Result column names shared by all templates. The id and label columns come
// from the entity type definition.
const (
	ColSimilarity  = "similarity"
	ColDescription = "description"
	ColLanguage    = "language"
	ColDistanceKm  = "distance_km"
)

// store is the consumer interface for template execution (ISP).
type store interface {
	QueryRecords(ctx context.Context, sql string, args ...any) ([]db.Record, error)
}

// Repo runs the SQL templates of one entity type.
type Repo struct {
	store   store
	spec    entity.Spec
	timeout time.Duration
	logger  *zap.Logger
}

// Option configures a Repo.
type Option func(*Repo)

// WithTimeout bounds every template execution.
func WithTimeout(d time.Duration) Option {
	return func(r *Repo) { r.timeout = d }
}

// WithLogger sets the debug logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Repo) { r.logger = l }
}

// New creates a template repository for spec.
func New(s store, spec entity.Spec, opts ...Option) *Repo {
	r := &Repo{store: s, spec: spec, logger: zap.NewNop()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Spec returns the entity type the repository serves.
func (r *Repo) Spec() entity.Spec { return r.spec }

// Has reports whether the named template is configured.
func (r *Repo) Has(template string) bool {
	_, ok := r.spec.Template(template)
	return ok
}

// Find runs the fuzzy template with ($1 text, $2 limit).
func (r *Repo) Find(ctx context.Context, text string, limit int, _ query.Properties) ([]candidate.Row, error) {
	return r.Run(ctx, entity.TemplateFuzzy, text, limit)
}

// FetchByAlternateIdentity runs the alternate template with ($1 value).
// Rows default to similarity 1.0.
func (r *Repo) FetchByAlternateIdentity(ctx context.Context, value string) ([]candidate.Row, error) {
	return r.Run(ctx, entity.TemplateAlternate, value)
}

// Run executes a candidate-producing template. Rows must carry the id and
// label columns; similarity defaults to 1.0 when absent. Description and
// language map onto the row, every other column becomes an attribute.
func (r *Repo) Run(ctx context.Context, template string, args ...any) ([]candidate.Row, error) {
	recs, err := r.query(ctx, template, args...)
	if err != nil {
		return nil, err
	}
	rows := make([]candidate.Row, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, r.toRow(rec))
	}
	return rows, nil
}

func (r *Repo) toRow(rec db.Record) candidate.Row {
	idField, labelField := r.spec.IDField(), r.spec.LabelField()
	sim, ok := rec.Float(ColSimilarity)
	if !ok {
		sim = 1
	}
	row := candidate.NewRow(rec.String(idField), rec.String(labelField), sim)
	for _, f := range rec {
		switch f.Name {
		case idField, labelField, ColSimilarity:
		case ColDescription:
			row = row.WithDescription(rec.String(ColDescription))
		case ColLanguage:
			row = row.WithLanguage(rec.String(ColLanguage))
		case ColDistanceKm:
			if km, ok := rec.Float(ColDistanceKm); ok {
				row = row.WithDistanceKm(km)
			}
		default:
			row = row.WithAttr(f.Name, f.Value)
		}
	}
	return row
}

// GetDetails runs the details template with ($1 id).
func (r *Repo) GetDetails(ctx context.Context, id string) (entity.Details, error) {
	recs, err := r.query(ctx, entity.TemplateDetails, id)
	if err != nil {
		return entity.Details{}, err
	}
	if len(recs) == 0 {
		return entity.Details{}, fmt.Errorf("%s %q: %w", r.spec.Key(), id, domain.ErrNotFound)
	}
	return entity.Details{ID: id, Type: r.spec.Key(), Fields: recs[0].Map()}, nil
}

// Distances runs the distance template with ($1 ids, $2 lat, $3 lon) and
// returns kilometres per id. Ids without geometry are absent from the result.
func (r *Repo) Distances(ctx context.Context, ids []string, p geo.Point) (map[string]float64, error) {
	return r.scores(ctx, entity.TemplateDistance, ColDistanceKm, ids, p.Lat, p.Lon)
}

// PlaceSimilarities runs the place_similarity template with ($1 ids, $2 place)
// and returns the textual similarity of each candidate's place context.
func (r *Repo) PlaceSimilarities(ctx context.Context, ids []string, place string) (map[string]float64, error) {
	return r.scores(ctx, entity.TemplatePlaceSimilarity, ColSimilarity, ids, place)
}

func (r *Repo) scores(
	ctx context.Context, template, column string, ids []string, args ...any,
) (map[string]float64, error) {
	out := make(map[string]float64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	recs, err := r.query(ctx, template, append([]any{ids}, args...)...)
	if err != nil {
		return nil, err
	}
	idField := r.spec.IDField()
	for _, rec := range recs {
		if v, ok := rec.Float(column); ok {
			out[rec.String(idField)] = v
		}
	}
	return out, nil
}

// LookupTable runs the lookup_table template and returns the whole vocabulary.
func (r *Repo) LookupTable(ctx context.Context) ([]rowformat.Record, error) {
	recs, err := r.query(ctx, entity.TemplateLookupTable)
	if err != nil {
		return nil, err
	}
	out := make([]rowformat.Record, 0, len(recs))
	for _, rec := range recs {
		fr := make(rowformat.Record, 0, len(rec))
		for _, f := range rec {
			fr = append(fr, rowformat.Field{Key: f.Name, Value: f.Value})
		}
		out = append(out, fr)
	}
	return out, nil
}

func (r *Repo) query(ctx context.Context, template string, args ...any) (recs []db.Record, err error) {
	sql, ok := r.spec.Template(template)
	if !ok {
		return nil, fmt.Errorf("%s template %q: %w", r.spec.Key(), template, domain.ErrNotImplemented)
	}

	start := time.Now()
	defer func() {
		metrics.ChannelRequestsTotal.WithLabelValues(channelName, template, metrics.Status(err)).Inc()
		metrics.ChannelRequestDuration.WithLabelValues(channelName, template).Observe(time.Since(start).Seconds())
	}()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	recs, err = r.store.QueryRecords(ctx, sql, args...)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", r.timeout, err)
		}
		return nil, fmt.Errorf("%s template %q: %w: %w", r.spec.Key(), template, domain.ErrChannel, err)
	}

	r.logger.Debug("template executed",
		zap.String("entity", r.spec.Key()),
		zap.String("template", template),
		zap.Int("rows", len(recs)),
		zap.Duration("duration", time.Since(start)),
	)
	return recs, nil
}
