// Package canonical resolves canonical test labels to the concrete test names
// shared by every lab in a run.
package canonical

import (
	"github.com/kailas-cloud/labcompare/internal/domain"
	"github.com/kailas-cloud/labcompare/internal/domain/match"
)

// Resolution binds a canonical test to the common name that represents it.
type Resolution struct {
	Test       domain.CanonicalTest `json:"test"`
	Name       string               `json:"name"`
	Similarity float64              `json:"similarity"`
}

// Resolve picks, for each label, the most similar common name and accepts it
// only when the similarity is strictly greater than threshold. Results follow
// label order; unresolved labels are omitted. Two labels may resolve to the
// same name.
func Resolve(
	labels []domain.CanonicalTest, labelVecs [][]float32,
	names []string, nameVecs [][]float32,
	threshold float64,
) []Resolution {
	nl := min(len(labels), len(labelVecs))
	nn := min(len(names), len(nameVecs))
	sim := match.SimilarityMatrix(labelVecs[:nl], nameVecs[:nn])
	if sim == nil {
		return nil
	}

	var out []Resolution
	for i := 0; i < nl; i++ {
		best, bestSim := -1, 0.0
		for j := 0; j < nn; j++ {
			if s := sim.At(i, j); best < 0 || s > bestSim {
				best, bestSim = j, s
			}
		}
		if best >= 0 && bestSim > threshold {
			out = append(out, Resolution{Test: labels[i], Name: names[best], Similarity: bestSim})
		}
	}
	return out
}

// Labels converts canonical tests to the strings sent to the embedding provider.
func Labels(tests []domain.CanonicalTest) []string {
	out := make([]string, len(tests))
	for i, t := range tests {
		out[i] = string(t)
	}
	return out
}
