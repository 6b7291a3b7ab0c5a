package usage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/reconciler/internal/domain"
)

// --- Mock ---

type mockBudgetReader struct {
	dailyLimit       int64
	monthlyLimit     int64
	dailyUsed        int64
	monthlyUsed      int64
	remainingDaily   int64
	remainingMonthly int64
}

func (m *mockBudgetReader) DailyLimit() int64       { return m.dailyLimit }
func (m *mockBudgetReader) MonthlyLimit() int64     { return m.monthlyLimit }
func (m *mockBudgetReader) DailyUsed() int64        { return m.dailyUsed }
func (m *mockBudgetReader) MonthlyUsed() int64      { return m.monthlyUsed }
func (m *mockBudgetReader) RemainingDaily() int64   { return m.remainingDaily }
func (m *mockBudgetReader) RemainingMonthly() int64 { return m.remainingMonthly }

func newTestService(readers map[string]BudgetReader) *Service {
	s := New(readers)
	s.now = func() time.Time { return time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC) }
	return s
}

// --- Tests ---

func TestGetReport_DailyPeriod(t *testing.T) {
	svc := newTestService(map[string]BudgetReader{
		"openai": &mockBudgetReader{
			dailyLimit:       10000,
			dailyUsed:        3000,
			remainingDaily:   7000,
			monthlyLimit:     100000,
			monthlyUsed:      50000,
			remainingMonthly: 50000,
		},
	})
	r := svc.GetReport(context.Background(), PeriodDay)
	if len(r) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(r))
	}
	u := r[0]

	dayStart := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	if u.PeriodStart != dayStart.UnixMilli() {
		t.Errorf("expected period start %d, got %d", dayStart.UnixMilli(), u.PeriodStart)
	}
	if u.PeriodEnd != dayStart.Add(24*time.Hour).UnixMilli() {
		t.Errorf("unexpected period end %d", u.PeriodEnd)
	}
	if u.Limit != 10000 || u.Used != 3000 || u.Remaining != 7000 {
		t.Errorf("usage = %+v", u)
	}
	if u.Exhausted {
		t.Error("budget should not be exhausted")
	}
}

func TestGetReport_MonthlyPeriod(t *testing.T) {
	svc := newTestService(map[string]BudgetReader{
		"openai": &mockBudgetReader{monthlyLimit: 100000, monthlyUsed: 80000, remainingMonthly: 20000},
	})
	u := svc.GetReport(context.Background(), PeriodMonth)[0]

	monthStart := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if u.PeriodStart != monthStart.UnixMilli() || u.PeriodEnd != monthStart.AddDate(0, 1, 0).UnixMilli() {
		t.Errorf("period = %d..%d", u.PeriodStart, u.PeriodEnd)
	}
	if u.Limit != 100000 || u.Used != 80000 {
		t.Errorf("usage = %+v", u)
	}
}

func TestGetReport_ProviderWithoutBudget(t *testing.T) {
	svc := newTestService(map[string]BudgetReader{
		"openai": &mockBudgetReader{dailyLimit: 5000, dailyUsed: 5000},
		"gemini": nil,
	})
	r := svc.GetReport(context.Background(), PeriodDay)
	if len(r) != 2 || r[0].Provider != "gemini" || r[1].Provider != "openai" {
		t.Fatalf("report = %+v", r)
	}
	if r[0].Limit != 0 || r[0].Remaining != -1 || r[0].Exhausted {
		t.Errorf("unbudgeted provider = %+v", r[0])
	}
	if !r[1].Exhausted {
		t.Error("budget should be exhausted when remaining is 0")
	}
}

func TestParsePeriod(t *testing.T) {
	for in, want := range map[string]Period{"": PeriodDay, "day": PeriodDay, "month": PeriodMonth} {
		got, err := ParsePeriod(in)
		if err != nil || got != want {
			t.Errorf("ParsePeriod(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParsePeriod("total"); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery, got %v", err)
	}
}
