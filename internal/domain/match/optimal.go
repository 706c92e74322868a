package match

import "math"

// Optimal computes a maximum-total-similarity one-to-one assignment among
// pairs at or above the threshold (Hungarian algorithm). Unlike Greedy its
// result does not depend on source order.
type Optimal struct{}

// Match implements Matcher.
func (Optimal) Match(src []string, srcVecs [][]float32, tgt []string, tgtVecs [][]float32, threshold float64) []Edge {
	src, srcVecs = aligned(src, srcVecs)
	tgt, tgtVecs = aligned(tgt, tgtVecs)
	sim := SimilarityMatrix(srcVecs, tgtVecs)
	if sim == nil {
		return nil
	}

	rows, cols := len(src), len(tgt)
	n := max(rows, cols)

	// Minimize negated weights; pairs below threshold and padding cost 0,
	// the same as leaving a source unmatched.
	cost := make([][]float64, n)
	for i := range cost {
		cost[i] = make([]float64, n)
		if i >= rows {
			continue
		}
		for j := 0; j < cols; j++ {
			if s := sim.At(i, j); s >= threshold && s > 0 {
				cost[i][j] = -s
			}
		}
	}

	assign := hungarian(cost)

	claimed := make(map[string]struct{}, cols)
	var edges []Edge
	for i := 0; i < rows; i++ {
		j := assign[i]
		if j < 0 || j >= cols {
			continue
		}
		s := sim.At(i, j)
		if s < threshold || cost[i][j] == 0 {
			continue
		}
		if _, taken := claimed[tgt[j]]; taken {
			continue
		}
		claimed[tgt[j]] = struct{}{}
		edges = append(edges, Edge{Source: src[i], Target: tgt[j], Similarity: s})
	}
	return edges
}

// hungarian solves the square assignment problem minimizing total cost and
// returns the column assigned to each row.
func hungarian(cost [][]float64) []int {
	n := len(cost)
	u := make([]float64, n+1)
	v := make([]float64, n+1)
	p := make([]int, n+1)
	way := make([]int, n+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		minv := make([]float64, n+1)
		used := make([]bool, n+1)
		for j := range minv {
			minv[j] = math.Inf(1)
		}

		for {
			used[j0] = true
			i0 := p[j0]
			delta := math.Inf(1)
			j1 := 0
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := cost[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}

		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	assign := make([]int, n)
	for i := range assign {
		assign[i] = -1
	}
	for j := 1; j <= n; j++ {
		if p[j] != 0 {
			assign[p[j]-1] = j - 1
		}
	}
	return assign
}
