// Package match aligns two labs' test-name vocabularies by embedding similarity.
package match

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Cosine returns the cosine similarity of a and b in [-1, 1].
// Mismatched lengths and zero vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		af, bf := float64(a[i]), float64(b[i])
		dot += af * bf
		na += af * af
		nb += bf * bf
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// SimilarityMatrix returns the len(src)×len(tgt) cosine similarity matrix.
// Rows are L2-normalized so the product is the cosine. Vectors whose length
// differs from src[0], and zero vectors, become zero rows and score 0 everywhere.
// Returns nil when either side is empty.
func SimilarityMatrix(src, tgt [][]float32) *mat.Dense {
	if len(src) == 0 || len(tgt) == 0 {
		return nil
	}
	dim := len(src[0])
	if dim == 0 {
		return mat.NewDense(len(src), len(tgt), nil)
	}

	a := normalizedRows(src, dim)
	b := normalizedRows(tgt, dim)

	var sim mat.Dense
	sim.Mul(a, b.T())
	return &sim
}

func normalizedRows(vecs [][]float32, dim int) *mat.Dense {
	m := mat.NewDense(len(vecs), dim, nil)
	row := make([]float64, dim)
	for i, v := range vecs {
		if len(v) != dim {
			continue
		}
		var sq float64
		for k, x := range v {
			row[k] = float64(x)
			sq += row[k] * row[k]
		}
		if sq == 0 {
			continue
		}
		n := math.Sqrt(sq)
		for k := range row {
			row[k] /= n
		}
		m.SetRow(i, row)
	}
	return m
}
