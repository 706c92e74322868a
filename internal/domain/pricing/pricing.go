// Package pricing parses scraped price text and reduces per-lab prices to a
// recommendation per canonical test.
package pricing

import (
	"math"
	"strconv"
	"strings"

	"github.com/kailas-cloud/labcompare/internal/domain"
)

// ParsePrice extracts an integer price from free text such as "₹ 1,250.00".
// Only the first number counts, so ranges and struck-through listings
// ("₹700 ₹500") yield their first price. Returns false for empty text, "N/A",
// unparsable text and non-positive values.
func ParsePrice(text string) (int, bool) {
	text = strings.TrimSpace(text)
	if text == "" || strings.EqualFold(text, "N/A") {
		return 0, false
	}

	token := firstNumber(text)
	if token == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(token, ",", ""), 64)
	if err != nil || v < 1 || v > math.MaxInt32 {
		return 0, false
	}
	return int(v), true
}

// firstNumber returns the first run of digits, thousands commas and dots,
// without trailing separators.
func firstNumber(s string) string {
	i := strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' })
	if i < 0 {
		return ""
	}
	end := i
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == ',' || s[end] == '.') {
		end++
	}
	return strings.TrimRight(s[i:end], ",.")
}

// Reconcile builds one Recommendation per test that has at least one price,
// in test order. The cheapest lab is the first lab in labs holding the minimum.
func Reconcile(tests []domain.CanonicalTest, labs []domain.LabID, prices domain.PriceTable) []domain.Recommendation {
	var out []domain.Recommendation
	for _, test := range tests {
		byLab := prices[test]
		if len(byLab) == 0 {
			continue
		}

		rec := domain.Recommendation{Test: test}
		found := false
		for _, lab := range labs {
			p, ok := byLab[lab]
			if !ok {
				continue
			}
			if !found || p < rec.Price {
				rec.Price, rec.Lab = p, lab
			}
			if !found || p > rec.Max {
				rec.Max = p
			}
			found = true
		}
		if found {
			out = append(out, rec)
		}
	}
	return out
}
