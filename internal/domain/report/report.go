// Package report renders comparison results: the structured lab → test → price
// document, the one-line market summary and a spreadsheet export.
package report

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/labcompare/internal/domain"
	"github.com/kailas-cloud/labcompare/internal/domain/pricing"
)

// Separator joins per-test summary lines.
const Separator = " | "

// Data is the structured comparison: lab → test → price, plus the
// Recommended pseudo-lab holding each test's minimum price.
type Data map[domain.LabID]map[domain.CanonicalTest]int

// Structured builds Data for a comparison, keeping only the required tests.
// Every lab of the run appears, even when it priced none of them.
func Structured(c *domain.Comparison, required []domain.CanonicalTest) Data {
	keep := make(map[domain.CanonicalTest]struct{}, len(required))
	for _, t := range required {
		keep[t] = struct{}{}
	}

	out := make(Data, len(c.Labs)+1)
	for _, lab := range c.Labs {
		out[lab] = make(map[domain.CanonicalTest]int)
	}
	for test, byLab := range c.Prices {
		if _, ok := keep[test]; !ok {
			continue
		}
		for lab, price := range byLab {
			if inner, ok := out[lab]; ok {
				inner[test] = price
			}
		}
	}

	rec := make(map[domain.CanonicalTest]int)
	for _, r := range c.Recommendations {
		if _, ok := keep[r.Test]; ok {
			rec[r.Test] = r.Price
		}
	}
	out[domain.RecommendedLab] = rec
	return out
}

// Line renders one recommendation.
func Line(r domain.Recommendation) string {
	return fmt.Sprintf("%s: market range ₹%d–₹%d, AI Recommended: ₹%d (offered by %s)",
		r.Test, r.Price, r.Max, r.Price, r.Lab)
}

// Summary joins the lines of recs in the order given.
func Summary(recs []domain.Recommendation) string {
	lines := make([]string, len(recs))
	for i, r := range recs {
		lines[i] = Line(r)
	}
	return strings.Join(lines, Separator)
}

// FromPrices reconciles an ordered price table and renders its summary,
// restricted to the required tests in taxonomy order.
func FromPrices(t Table, required []domain.CanonicalTest) string {
	return Summary(pricing.Reconcile(required, t.Labs, t.Prices))
}
