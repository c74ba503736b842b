package expr

import (
	"math"
	"sort"

	"degreport/domain/core"
)

// ResultRecord holds the per-gene output of the differential expression
// engine. Statistics a gene could not be tested for are NaN.
type ResultRecord struct {
	Gene           core.GeneID `json:"gene"`
	BaseMean       float64     `json:"base_mean"`
	Log2FoldChange float64     `json:"log2_fold_change"`
	Stat           float64     `json:"stat"`
	PValue         float64     `json:"p_value"`
	AdjPValue      float64     `json:"adj_p_value"`
}

// HasMissing reports whether any statistic of the record is NaN.
// A gene that could not be tested is excluded from the report entirely.
func (r ResultRecord) HasMissing() bool {
	return math.IsNaN(r.BaseMean) ||
		math.IsNaN(r.Log2FoldChange) ||
		math.IsNaN(r.Stat) ||
		math.IsNaN(r.PValue) ||
		math.IsNaN(r.AdjPValue)
}

// RankedTable is the formatted result set: complete records only, sorted
// ascending by adjusted p-value. Both report views read it without mutating.
type RankedTable struct {
	Records []ResultRecord `json:"records"`
}

// Len returns the number of ranked records
func (t *RankedTable) Len() int {
	return len(t.Records)
}

// Rank sorts records ascending by adjusted p-value after dropping records
// with missing statistics. The sort is stable so ties keep engine order.
func Rank(results []ResultRecord) *RankedTable {
	kept := make([]ResultRecord, 0, len(results))
	for _, r := range results {
		if !r.HasMissing() {
			kept = append(kept, r)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].AdjPValue < kept[j].AdjPValue
	})
	return &RankedTable{Records: kept}
}

// Classification labels a gene for the volcano plot
type Classification string

const (
	ClassUp   Classification = "Up"
	ClassDown Classification = "Down"
	ClassNone Classification = "No"
)

// Classify applies the significance/effect thresholds with strict
// inequalities. With lfcThreshold == 0 a significant gene whose fold change
// is exactly 0 falls through both comparisons and stays "No"; callers depend
// on that boundary.
func Classify(r ResultRecord, alpha, lfcThreshold float64) Classification {
	if r.AdjPValue < alpha && r.Log2FoldChange > lfcThreshold {
		return ClassUp
	}
	if r.AdjPValue < alpha && r.Log2FoldChange < lfcThreshold {
		return ClassDown
	}
	return ClassNone
}
