package pricing

import (
	"testing"

	"github.com/kailas-cloud/labcompare/internal/domain"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"500", 500, true},
		{"₹500", 500, true},
		{"₹ 1,250.00", 1250, true},
		{"Rs. 450", 450, true},
		{"  480  ", 480, true},
		{"999.99", 999, true},
		{"N/A", 0, false},
		{"n/a", 0, false},
		{"", 0, false},
		{"   ", 0, false},
		{"Call for price", 0, false},
		{"0", 0, false},
		{"₹0.50", 0, false},
		{"1.2.3", 0, false},
		{"₹500 - ₹700", 500, true},
		{"₹700 ₹500", 700, true},
		{"MRP ₹1,200. Offer ₹999", 1200, true},
		{"Rs.450/-", 450, true},
		{"₹99999999999", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParsePrice(tt.in)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParsePrice(%q) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestReconcile_MinMaxAndCheapestLab(t *testing.T) {
	labs := []domain.LabID{"Lal PathLabs", "Metropolis Labs", "SRL Diagnostics"}
	prices := domain.PriceTable{}
	prices.Set(domain.TestCBC, "Lal PathLabs", 500)
	prices.Set(domain.TestCBC, "Metropolis Labs", 450)
	prices.Set(domain.TestCBC, "SRL Diagnostics", 480)

	recs := Reconcile(domain.DefaultCanonicalTests(), labs, prices)
	if len(recs) != 1 {
		t.Fatalf("expected 1 recommendation, got %+v", recs)
	}
	want := domain.Recommendation{Test: domain.TestCBC, Lab: "Metropolis Labs", Price: 450, Max: 500}
	if recs[0] != want {
		t.Errorf("got %+v, want %+v", recs[0], want)
	}
}

func TestReconcile_TieGoesToFirstLab(t *testing.T) {
	labs := []domain.LabID{"B", "A"}
	prices := domain.PriceTable{}
	prices.Set(domain.TestTSH, "A", 300)
	prices.Set(domain.TestTSH, "B", 300)

	recs := Reconcile([]domain.CanonicalTest{domain.TestTSH}, labs, prices)
	if len(recs) != 1 || recs[0].Lab != "B" {
		t.Errorf("expected lab B on tie, got %+v", recs)
	}
}

func TestReconcile_MissingPricesSkipped(t *testing.T) {
	labs := []domain.LabID{"Lal PathLabs", "Metropolis Labs", "SRL Diagnostics"}
	prices := domain.PriceTable{}
	// Metropolis reported N/A, so it never made it into the table.
	prices.Set(domain.TestTSH, "Lal PathLabs", 600)
	prices.Set(domain.TestTSH, "SRL Diagnostics", 550)

	recs := Reconcile(domain.DefaultCanonicalTests(), labs, prices)
	if len(recs) != 1 {
		t.Fatalf("expected 1 recommendation, got %+v", recs)
	}
	if recs[0].Lab != "SRL Diagnostics" || recs[0].Price != 550 || recs[0].Max != 600 {
		t.Errorf("unexpected recommendation %+v", recs[0])
	}
}

func TestReconcile_SingleLab(t *testing.T) {
	labs := []domain.LabID{"Only"}
	prices := domain.PriceTable{}
	prices.Set(domain.TestGlucose, "Only", 120)

	recs := Reconcile(domain.DefaultCanonicalTests(), labs, prices)
	if len(recs) != 1 || recs[0].Price != 120 || recs[0].Max != 120 || recs[0].Lab != "Only" {
		t.Errorf("unexpected recommendation %+v", recs)
	}
}

func TestReconcile_FollowsTestOrder(t *testing.T) {
	labs := []domain.LabID{"L"}
	prices := domain.PriceTable{}
	prices.Set(domain.TestSGPT, "L", 10)
	prices.Set(domain.TestCBC, "L", 20)

	recs := Reconcile(domain.DefaultCanonicalTests(), labs, prices)
	if len(recs) != 2 || recs[0].Test != domain.TestCBC || recs[1].Test != domain.TestSGPT {
		t.Errorf("recommendations out of taxonomy order: %+v", recs)
	}
}

func TestReconcile_IgnoresLabsOutsideOrder(t *testing.T) {
	prices := domain.PriceTable{}
	prices.Set(domain.TestCBC, "Unlisted", 1)

	if recs := Reconcile(domain.DefaultCanonicalTests(), []domain.LabID{"Listed"}, prices); len(recs) != 0 {
		t.Errorf("expected no recommendations, got %+v", recs)
	}
}
