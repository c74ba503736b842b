package engine

import (
	"math"
	"sort"
)

// AdjustBH applies Benjamini-Hochberg false discovery rate correction.
//
// NaN p-values (untestable genes) are excluded from the family: they stay
// NaN in the output and do not count toward m. Adjusted values are monotone
// non-decreasing in p and clipped to 1.
func AdjustBH(pvalues []float64) []float64 {
	adjusted := make([]float64, len(pvalues))

	// Collect indices of testable p-values
	idx := make([]int, 0, len(pvalues))
	for i, p := range pvalues {
		if math.IsNaN(p) {
			adjusted[i] = math.NaN()
			continue
		}
		idx = append(idx, i)
	}

	m := len(idx)
	if m == 0 {
		return adjusted
	}

	sort.Slice(idx, func(a, b int) bool {
		return pvalues[idx[a]] < pvalues[idx[b]]
	})

	// q_i = p_i * (m / rank_i), then enforce monotonicity from the tail
	ranked := make([]float64, m)
	for rank, i := range idx {
		ranked[rank] = pvalues[i] * float64(m) / float64(rank+1)
	}
	for rank := m - 2; rank >= 0; rank-- {
		if ranked[rank] > ranked[rank+1] {
			ranked[rank] = ranked[rank+1]
		}
	}
	for rank, i := range idx {
		adjusted[i] = math.Min(ranked[rank], 1.0)
	}

	return adjusted
}
