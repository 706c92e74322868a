package match

import (
	"fmt"
	"sort"
)

// Edge is a provisional equivalence between a source and a target test name.
type Edge struct {
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Similarity float64 `json:"similarity"`
}

// Matcher aligns source names to target names. Implementations must return
// edges in source order, never reuse a target name, and only emit edges with
// Similarity >= threshold. Vectors are positionally aligned with names.
type Matcher interface {
	Match(src []string, srcVecs [][]float32, tgt []string, tgtVecs [][]float32, threshold float64) []Edge
}

// Strategy names accepted by ByName.
const (
	StrategyGreedy  = "greedy"
	StrategyOptimal = "optimal"
)

// ByName returns the matcher for a configured strategy. Empty selects greedy.
func ByName(name string) (Matcher, error) {
	switch name {
	case "", StrategyGreedy:
		return Greedy{}, nil
	case StrategyOptimal, "hungarian":
		return Optimal{}, nil
	default:
		return nil, fmt.Errorf("unknown matching strategy %q", name)
	}
}

// Pairs turns edges into a source → target lookup.
func Pairs(edges []Edge) map[string]string {
	out := make(map[string]string, len(edges))
	for _, e := range edges {
		out[e.Source] = e.Target
	}
	return out
}

// Greedy walks sources in input order and gives each one its most similar
// unclaimed target at or above the threshold. It is order dependent and not
// globally optimal: an early source can take the best target of a later one.
type Greedy struct{}

// Match implements Matcher.
func (Greedy) Match(src []string, srcVecs [][]float32, tgt []string, tgtVecs [][]float32, threshold float64) []Edge {
	src, srcVecs = aligned(src, srcVecs)
	tgt, tgtVecs = aligned(tgt, tgtVecs)
	sim := SimilarityMatrix(srcVecs, tgtVecs)
	if sim == nil {
		return nil
	}

	claimed := make(map[string]struct{}, len(tgt))
	order := make([]int, len(tgt))
	var edges []Edge

	for i := range src {
		for j := range order {
			order[j] = j
		}
		// Stable: equal similarities keep target input order.
		sort.SliceStable(order, func(a, b int) bool {
			return sim.At(i, order[a]) > sim.At(i, order[b])
		})

		for _, j := range order {
			s := sim.At(i, j)
			if s < threshold {
				break
			}
			if _, taken := claimed[tgt[j]]; taken {
				continue
			}
			claimed[tgt[j]] = struct{}{}
			edges = append(edges, Edge{Source: src[i], Target: tgt[j], Similarity: s})
			break
		}
	}
	return edges
}

// aligned truncates names and vectors to their common length.
func aligned(names []string, vecs [][]float32) ([]string, [][]float32) {
	n := min(len(names), len(vecs))
	return names[:n], vecs[:n]
}
