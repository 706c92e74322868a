package usage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/labcompare/internal/domain"
)

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

var fixedNow = time.Date(2026, 3, 15, 13, 30, 0, 0, time.UTC)

func newTestService(br BudgetReader) *Service {
	s := New(br)
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestGetReport_DailyPeriod(t *testing.T) {
	br := &mockBudgetReader{
		dailyLimit: 10000, dailyUsed: 3000, remainingDaily: 7000,
		monthlyLimit: 100000, monthlyUsed: 50000, remainingMonthly: 50000,
	}
	r := newTestService(br).GetReport(context.Background(), PeriodDay)

	want := Report{
		Period:          PeriodDay,
		PeriodStart:     time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC).UnixMilli(),
		PeriodEnd:       time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC).UnixMilli(),
		TokensUsed:      3000,
		TokensLimit:     10000,
		TokensRemaining: 7000,
	}
	if r != want {
		t.Errorf("report = %+v, want %+v", r, want)
	}
}

func TestGetReport_MonthlyPeriod(t *testing.T) {
	br := &mockBudgetReader{monthlyLimit: 100000, monthlyUsed: 80000, remainingMonthly: 20000}
	r := newTestService(br).GetReport(context.Background(), PeriodMonth)

	if r.Period != PeriodMonth {
		t.Errorf("expected period %q, got %q", PeriodMonth, r.Period)
	}
	if r.PeriodStart != time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).UnixMilli() {
		t.Errorf("unexpected period start %d", r.PeriodStart)
	}
	if r.PeriodEnd != time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC).UnixMilli() {
		t.Errorf("unexpected period end %d", r.PeriodEnd)
	}
	if r.TokensUsed != 80000 || r.TokensLimit != 100000 || r.TokensRemaining != 20000 {
		t.Errorf("unexpected tokens %+v", r)
	}
}

func TestGetReport_NilBudgetReader(t *testing.T) {
	r := newTestService(nil).GetReport(context.Background(), PeriodDay)

	if r.TokensLimit != 0 || r.TokensRemaining != 0 {
		t.Errorf("expected zero budget, got %+v", r)
	}
	if r.Exhausted {
		t.Error("unlimited budget should not be exhausted")
	}
}

func TestGetReport_Exhausted(t *testing.T) {
	br := &mockBudgetReader{dailyLimit: 5000, dailyUsed: 5000}
	r := newTestService(br).GetReport(context.Background(), PeriodDay)

	if !r.Exhausted {
		t.Error("budget should be exhausted when remaining is 0")
	}
}

func TestParsePeriod(t *testing.T) {
	for in, want := range map[string]Period{"": PeriodDay, "day": PeriodDay, "month": PeriodMonth} {
		got, err := ParsePeriod(in)
		if err != nil || got != want {
			t.Errorf("ParsePeriod(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParsePeriod("week"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
