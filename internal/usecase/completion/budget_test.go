package completion

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reconciler/internal/domain"
)

func newTestTracker(daily, monthly int64, action BudgetAction, now *time.Time) *BudgetTracker {
	b := NewBudgetTracker("test", daily, monthly, action, zap.NewNop())
	b.now = func() time.Time { return *now }
	b.day, b.month = time.Time{}, time.Time{}
	b.rollover()
	return b
}

func TestBudget_RejectWhenDailyExceeded(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	b := newTestTracker(100, 0, BudgetActionReject, &now)

	if err := b.Check(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b.Record(100)
	if err := b.Check(context.Background()); !errors.Is(err, domain.ErrLLMQuotaExceeded) {
		t.Fatalf("expected ErrLLMQuotaExceeded, got %v", err)
	}
	if got := b.RemainingDaily(); got != 0 {
		t.Errorf("RemainingDaily = %d", got)
	}
	if got := b.RemainingMonthly(); got != -1 {
		t.Errorf("RemainingMonthly = %d, want unlimited", got)
	}
}

func TestBudget_WarnAllows(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	b := newTestTracker(0, 10, BudgetActionWarn, &now)
	b.Record(50)
	if err := b.Check(context.Background()); err != nil {
		t.Fatalf("warn action should allow, got %v", err)
	}
}

func TestBudget_DailyRollover(t *testing.T) {
	now := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	b := newTestTracker(100, 1000, BudgetActionReject, &now)
	b.Record(100)

	now = now.Add(2 * time.Minute)
	if err := b.Check(context.Background()); err != nil {
		t.Fatalf("expected daily reset, got %v", err)
	}
	if got := b.RemainingDaily(); got != 100 {
		t.Errorf("RemainingDaily = %d", got)
	}
	if got := b.RemainingMonthly(); got != 900 {
		t.Errorf("RemainingMonthly = %d, month should carry over", got)
	}
}

func TestBudget_MonthlyRollover(t *testing.T) {
	now := time.Date(2026, 3, 31, 23, 0, 0, 0, time.UTC)
	b := newTestTracker(0, 100, BudgetActionReject, &now)
	b.Record(150)

	now = time.Date(2026, 4, 1, 0, 1, 0, 0, time.UTC)
	if got := b.RemainingMonthly(); got != 100 {
		t.Errorf("RemainingMonthly = %d after month change", got)
	}
}

func TestBudget_ConcurrentRecord(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	b := newTestTracker(0, 0, BudgetActionWarn, &now)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Record(2)
		}()
	}
	wg.Wait()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dailyUsed != 100 || b.monthlyUsed != 100 {
		t.Errorf("used = %d/%d", b.dailyUsed, b.monthlyUsed)
	}
}

func TestParseBudgetAction(t *testing.T) {
	if ParseBudgetAction("reject") != BudgetActionReject {
		t.Error("reject")
	}
	if ParseBudgetAction("") != BudgetActionWarn || ParseBudgetAction("warn") != BudgetActionWarn {
		t.Error("warn default")
	}
}

func TestBudget_UsedCountersRollOver(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	b := newTestTracker(500, 5000, BudgetActionWarn, &now)
	b.Record(120)

	if b.DailyUsed() != 120 || b.MonthlyUsed() != 120 {
		t.Fatalf("used = %d/%d", b.DailyUsed(), b.MonthlyUsed())
	}
	if b.DailyLimit() != 500 || b.MonthlyLimit() != 5000 {
		t.Errorf("limits = %d/%d", b.DailyLimit(), b.MonthlyLimit())
	}

	now = now.Add(24 * time.Hour)
	if b.DailyUsed() != 0 || b.MonthlyUsed() != 120 {
		t.Errorf("after day change used = %d/%d", b.DailyUsed(), b.MonthlyUsed())
	}
}
