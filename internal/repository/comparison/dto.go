package comparison

import (
	"time"

	"github.com/kailas-cloud/labcompare/internal/domain"
)

// comparisonDTO is the stored JSON shape. Labs stay an ordered list because
// lab order breaks price ties.
type comparisonDTO struct {
	RunID           string                    `json:"run_id"`
	City            string                    `json:"city"`
	Labs            []string                  `json:"labs"`
	Prices          map[string]map[string]int `json:"prices"`
	Recommendations []recommendationDTO       `json:"recommendations"`
	CreatedAt       int64                     `json:"created_at"`
}

type recommendationDTO struct {
	Test  string `json:"test"`
	Lab   string `json:"lab"`
	Price int    `json:"price"`
	Max   int    `json:"max"`
}

func toDTO(c *domain.Comparison) comparisonDTO {
	d := comparisonDTO{
		RunID:     c.RunID,
		City:      c.City,
		Labs:      make([]string, len(c.Labs)),
		Prices:    make(map[string]map[string]int, len(c.Prices)),
		CreatedAt: c.CreatedAt.UnixMilli(),
	}
	for i, l := range c.Labs {
		d.Labs[i] = string(l)
	}
	for test, byLab := range c.Prices {
		inner := make(map[string]int, len(byLab))
		for lab, p := range byLab {
			inner[string(lab)] = p
		}
		d.Prices[string(test)] = inner
	}
	for _, r := range c.Recommendations {
		d.Recommendations = append(d.Recommendations, recommendationDTO{
			Test: string(r.Test), Lab: string(r.Lab), Price: r.Price, Max: r.Max,
		})
	}
	return d
}

func fromDTO(d comparisonDTO) *domain.Comparison {
	c := &domain.Comparison{
		RunID:     d.RunID,
		City:      d.City,
		Labs:      make([]domain.LabID, len(d.Labs)),
		Prices:    domain.PriceTable{},
		CreatedAt: time.UnixMilli(d.CreatedAt).UTC(),
	}
	for i, l := range d.Labs {
		c.Labs[i] = domain.LabID(l)
	}
	for test, byLab := range d.Prices {
		for lab, p := range byLab {
			c.Prices.Set(domain.CanonicalTest(test), domain.LabID(lab), p)
		}
	}
	for _, r := range d.Recommendations {
		c.Recommendations = append(c.Recommendations, domain.Recommendation{
			Test: domain.CanonicalTest(r.Test), Lab: domain.LabID(r.Lab), Price: r.Price, Max: r.Max,
		})
	}
	return c
}
