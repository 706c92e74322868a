package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/labcompare/internal/domain"
)

// Period is a budget window.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod accepts "day" (the default for "") or "month".
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodDay:
		return PeriodDay, nil
	case PeriodMonth:
		return PeriodMonth, nil
	default:
		return "", fmt.Errorf("%w: period must be day or month, got %q", domain.ErrInvalidInput, s)
	}
}

// Report is the embedding token usage for one window. A zero limit means unlimited.
type Report struct {
	Period          Period `json:"period"`
	PeriodStart     int64  `json:"period_start_ms"`
	PeriodEnd       int64  `json:"period_end_ms"`
	TokensUsed      int64  `json:"tokens_used"`
	TokensLimit     int64  `json:"tokens_limit"`
	TokensRemaining int64  `json:"tokens_remaining"`
	Exhausted       bool   `json:"exhausted"`
}

// Service handles usage reporting.
type Service struct {
	br  BudgetReader
	now func() time.Time
}

// New creates a Service. br can be nil (unlimited mode).
func New(br BudgetReader) *Service {
	return &Service{br: br, now: time.Now}
}

// GetReport builds a usage report for the given period.
func (s *Service) GetReport(_ context.Context, period Period) Report {
	now := s.now().UTC()
	r := Report{Period: period}

	var start, end time.Time
	switch period {
	case PeriodMonth:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)
		if s.br != nil {
			r.TokensLimit, r.TokensUsed, r.TokensRemaining = s.br.MonthlyLimit(), s.br.MonthlyUsed(), s.br.RemainingMonthly()
		}
	default:
		r.Period = PeriodDay
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		end = start.Add(24 * time.Hour)
		if s.br != nil {
			r.TokensLimit, r.TokensUsed, r.TokensRemaining = s.br.DailyLimit(), s.br.DailyUsed(), s.br.RemainingDaily()
		}
	}

	r.PeriodStart = start.UnixMilli()
	r.PeriodEnd = end.UnixMilli()
	r.Exhausted = r.TokensLimit > 0 && r.TokensRemaining <= 0
	return r
}
