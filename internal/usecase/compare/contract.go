package compare

import (
	"context"

	"github.com/kailas-cloud/labcompare/internal/domain"
	"github.com/kailas-cloud/labcompare/internal/domain/match"
	"github.com/kailas-cloud/labcompare/internal/scrape"
)

// Repository stores the latest comparison per city.
type Repository interface {
	Save(ctx context.Context, c *domain.Comparison) error
}

// LabSource binds a lab to its adapter and the record fields holding the
// test name and price.
type LabSource struct {
	ID         domain.LabID
	Adapter    scrape.Adapter
	NameField  string
	PriceField string
}

// Options tune a comparison run.
type Options struct {
	// CrossLabThreshold is the minimum similarity for aligning two lab names.
	CrossLabThreshold float64
	// CanonicalThreshold must be strictly exceeded to resolve a canonical test.
	CanonicalThreshold float64
	Matcher            match.Matcher
	CanonicalTests     []domain.CanonicalTest
	// RequireAllLabs aborts the run when any requested lab returned nothing.
	RequireAllLabs bool
}

// DefaultOptions returns the stock thresholds, greedy matching and the full taxonomy.
func DefaultOptions() Options {
	return Options{
		CrossLabThreshold:  domain.DefaultCrossLabThreshold,
		CanonicalThreshold: domain.DefaultCanonicalThreshold,
		Matcher:            match.Greedy{},
		CanonicalTests:     domain.DefaultCanonicalTests(),
		RequireAllLabs:     true,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.CrossLabThreshold <= 0 {
		o.CrossLabThreshold = d.CrossLabThreshold
	}
	if o.CanonicalThreshold <= 0 {
		o.CanonicalThreshold = d.CanonicalThreshold
	}
	if o.Matcher == nil {
		o.Matcher = d.Matcher
	}
	if len(o.CanonicalTests) == 0 {
		o.CanonicalTests = d.CanonicalTests
	}
	return o
}
