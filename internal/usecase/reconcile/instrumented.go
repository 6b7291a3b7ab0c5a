package reconcile

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reconciler/internal/domain/candidate"
	"github.com/kailas-cloud/reconciler/internal/domain/entity"
	"github.com/kailas-cloud/reconciler/internal/domain/query"
	"github.com/kailas-cloud/reconciler/internal/logger"
	"github.com/kailas-cloud/reconciler/internal/metrics"
)

// InstrumentedStrategy records per-entity metrics and debug logs around a Strategy.
type InstrumentedStrategy struct {
	inner Strategy
}

// Instrument wraps s with metrics and logging.
func Instrument(s Strategy) *InstrumentedStrategy {
	return &InstrumentedStrategy{inner: s}
}

// Spec returns the wrapped strategy's spec.
func (s *InstrumentedStrategy) Spec() entity.Spec { return s.inner.Spec() }

// FindCandidates delegates and records latency, result count and auto-matches.
func (s *InstrumentedStrategy) FindCandidates(ctx context.Context, q query.Query) ([]candidate.Envelope, error) {
	key := s.inner.Spec().Key()
	start := time.Now()
	envs, err := s.inner.FindCandidates(ctx, q)
	elapsed := time.Since(start)

	metrics.QueryDuration.WithLabelValues(key).Observe(elapsed.Seconds())
	metrics.QueriesTotal.WithLabelValues(key, metrics.Status(err)).Inc()

	log := logger.FromContext(ctx)
	if err != nil {
		log.Debug("reconcile failed",
			zap.String("entity", key),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return nil, err
	}

	metrics.CandidatesReturned.WithLabelValues(key).Observe(float64(len(envs)))
	if len(envs) > 0 && envs[0].Match {
		metrics.MatchesTotal.WithLabelValues(key).Inc()
	}
	log.Debug("reconciled",
		zap.String("entity", key),
		zap.Int("candidates", len(envs)),
		zap.Duration("elapsed", elapsed),
	)
	return envs, nil
}

// GetDetails delegates to the wrapped strategy.
func (s *InstrumentedStrategy) GetDetails(ctx context.Context, id string) (entity.Details, error) {
	return s.inner.GetDetails(ctx, id)
}
