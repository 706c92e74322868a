package domain

import "time"

// LabID names a diagnostic lab, e.g. "Lal PathLabs".
type LabID string

// RecommendedLab is the pseudo-lab holding per-test minimum prices in structured output.
const RecommendedLab LabID = "Recommended"

// RawTestEntry is one (name, price) pair captured from a lab for a single run.
type RawTestEntry struct {
	Lab          LabID
	RawName      string
	RawPriceText string
}

// CanonicalTest is one of the fixed test categories reported on.
type CanonicalTest string

// Canonical taxonomy in report order.
const (
	TestCBC      CanonicalTest = "CBC"
	TestGlucose  CanonicalTest = "Glucose"
	TestTSH      CanonicalTest = "TSH"
	TestUricAcid CanonicalTest = "Uric Acid"
	TestSGPT     CanonicalTest = "SGPT"
)

// DefaultCanonicalTests returns the canonical taxonomy in report order.
func DefaultCanonicalTests() []CanonicalTest {
	return []CanonicalTest{TestCBC, TestGlucose, TestTSH, TestUricAcid, TestSGPT}
}

// PriceTable maps a canonical test to per-lab integer prices. Absent keys mean no price.
type PriceTable map[CanonicalTest]map[LabID]int

// Set records a price, allocating the inner map on first use.
func (t PriceTable) Set(test CanonicalTest, lab LabID, price int) {
	inner, ok := t[test]
	if !ok {
		inner = make(map[LabID]int)
		t[test] = inner
	}
	inner[lab] = price
}

// Recommendation is the per-test price summary: cheapest lab, minimum and maximum.
type Recommendation struct {
	Test  CanonicalTest `json:"test"`
	Lab   LabID         `json:"lab"`
	Price int           `json:"price"`
	Max   int           `json:"max"`
}

// Comparison is the output record of one comparison run.
type Comparison struct {
	RunID           string           `json:"run_id"`
	City            string           `json:"city"`
	Labs            []LabID          `json:"labs"`
	Prices          PriceTable       `json:"prices"`
	Recommendations []Recommendation `json:"recommendations"`
	CreatedAt       time.Time        `json:"created_at"`
}
