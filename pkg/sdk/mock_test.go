package reconciler

import (
	"context"

	"github.com/kailas-cloud/reconciler/internal/domain/entity"
	healthuc "github.com/kailas-cloud/reconciler/internal/usecase/health"
	"github.com/kailas-cloud/reconciler/internal/usecase/reconcile"
)

// --- reconcileUseCase mock ---

type mockReconcileUC struct {
	reconcileFn func(ctx context.Context, items []reconcile.Item) ([]reconcile.Result, error)
	detailsFn   func(ctx context.Context, entityType, id string) (entity.Details, error)
	specs       []entity.Spec
}

func (m *mockReconcileUC) Reconcile(ctx context.Context, items []reconcile.Item) ([]reconcile.Result, error) {
	return m.reconcileFn(ctx, items)
}

func (m *mockReconcileUC) Details(ctx context.Context, entityType, id string) (entity.Details, error) {
	return m.detailsFn(ctx, entityType, id)
}

func (m *mockReconcileUC) Types() []entity.Spec { return m.specs }

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }
