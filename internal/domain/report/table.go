package report

import (
	"fmt"
	"math"

	"github.com/tidwall/gjson"

	"github.com/kailas-cloud/labcompare/internal/domain"
	"github.com/kailas-cloud/labcompare/internal/domain/pricing"
)

// Table is a lab → test → price table whose lab order is significant:
// it decides the recommended lab on price ties.
type Table struct {
	Labs   []domain.LabID
	Prices domain.PriceTable
}

// DecodeTable parses a JSON object {lab: {test: price|null}} keeping the
// document order of labs. Prices may be numbers or price text; null and
// unparsable text are treated as absent.
func DecodeTable(raw []byte) (Table, error) {
	if !gjson.ValidBytes(raw) {
		return Table{}, fmt.Errorf("%w: malformed JSON", domain.ErrInvalidInput)
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return Table{}, fmt.Errorf("%w: prices must be an object", domain.ErrInvalidInput)
	}

	t := Table{Prices: domain.PriceTable{}}
	var err error
	doc.ForEach(func(labKey, tests gjson.Result) bool {
		lab := domain.LabID(labKey.String())
		if !tests.IsObject() {
			err = fmt.Errorf("%w: prices for %q must be an object", domain.ErrInvalidInput, lab)
			return false
		}
		t.Labs = append(t.Labs, lab)

		tests.ForEach(func(testKey, v gjson.Result) bool {
			test := domain.CanonicalTest(testKey.String())
			switch v.Type {
			case gjson.Null:
			case gjson.Number:
				if p, ok := numericPrice(v.Float()); ok {
					t.Prices.Set(test, lab, p)
				}
			case gjson.String:
				if p, ok := pricing.ParsePrice(v.String()); ok {
					t.Prices.Set(test, lab, p)
				}
			default:
				err = fmt.Errorf("%w: price of %q at %q must be a number", domain.ErrInvalidInput, test, lab)
				return false
			}
			return true
		})
		return err == nil
	})
	if err != nil {
		return Table{}, err
	}
	return t, nil
}

// maxPrice bounds numeric prices to values an int holds exactly on every platform.
const maxPrice = math.MaxInt32

// numericPrice truncates a JSON number to a price. Values below 1 or above
// maxPrice are absent, as ParsePrice treats non-positive text.
func numericPrice(f float64) (int, bool) {
	if f < 1 || f > maxPrice {
		return 0, false
	}
	return int(f), true
}
