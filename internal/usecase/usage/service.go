// Package usage reports LLM token consumption against the configured budgets.
package usage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kailas-cloud/reconciler/internal/domain"
)

// Period selects the budget window of a report.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod maps a request value onto a Period. Empty means day.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodDay:
		return PeriodDay, nil
	case PeriodMonth:
		return PeriodMonth, nil
	default:
		return "", fmt.Errorf("%w: period must be day or month, got %q", domain.ErrInvalidQuery, s)
	}
}

// ProviderUsage is one provider's consumption in a period.
// Limit 0 and Remaining -1 mean the provider has no budget.
type ProviderUsage struct {
	Provider    string
	Period      Period
	PeriodStart int64 // unix ms
	PeriodEnd   int64 // unix ms
	Limit       int64
	Used        int64
	Remaining   int64
	Exhausted   bool
}

// Service handles usage reporting.
type Service struct {
	readers map[string]BudgetReader
	now     func() time.Time
}

// New creates a Service. A nil reader marks a provider without a budget.
func New(readers map[string]BudgetReader) *Service {
	return &Service{readers: readers, now: time.Now}
}

// GetReport builds one entry per provider, sorted by provider name.
func (s *Service) GetReport(_ context.Context, period Period) []ProviderUsage {
	now := s.now().UTC()
	var start, end time.Time
	switch period {
	case PeriodMonth:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)
	default:
		period = PeriodDay
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		end = start.Add(24 * time.Hour)
	}

	names := make([]string, 0, len(s.readers))
	for name := range s.readers {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]ProviderUsage, 0, len(names))
	for _, name := range names {
		u := ProviderUsage{
			Provider:    name,
			Period:      period,
			PeriodStart: start.UnixMilli(),
			PeriodEnd:   end.UnixMilli(),
			Remaining:   -1,
		}
		if br := s.readers[name]; br != nil {
			if period == PeriodMonth {
				u.Limit, u.Used, u.Remaining = br.MonthlyLimit(), br.MonthlyUsed(), br.RemainingMonthly()
			} else {
				u.Limit, u.Used, u.Remaining = br.DailyLimit(), br.DailyUsed(), br.RemainingDaily()
			}
		}
		u.Exhausted = u.Limit > 0 && u.Remaining <= 0
		out = append(out, u)
	}
	return out
}
