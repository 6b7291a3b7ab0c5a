package chi

import (
	"context"

	"github.com/kailas-cloud/reconciler/internal/domain/entity"
	"github.com/kailas-cloud/reconciler/internal/usecase/health"
	"github.com/kailas-cloud/reconciler/internal/usecase/reconcile"
	"github.com/kailas-cloud/reconciler/internal/usecase/usage"
)

// Reconciler runs reconciliation batches and entity lookups.
type Reconciler interface {
	Reconcile(ctx context.Context, items []reconcile.Item) ([]reconcile.Result, error)
	Details(ctx context.Context, entityType, id string) (entity.Details, error)
	Types() []entity.Spec
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) health.Report
}

// UsageReporter reports LLM token consumption per provider.
type UsageReporter interface {
	GetReport(ctx context.Context, period usage.Period) []usage.ProviderUsage
}
