package expr

import (
	"math"
	"testing"

	"degreport/domain/core"

	"github.com/stretchr/testify/assert"
)

func record(gene string, padj float64) ResultRecord {
	return ResultRecord{Gene: core.GeneID("g_" + gene), BaseMean: 10, Log2FoldChange: 1, Stat: 2, PValue: padj / 2, AdjPValue: padj}
}

func TestRank_SortsAscendingByAdjP(t *testing.T) {
	table := Rank([]ResultRecord{
		record("a", 0.9),
		record("b", 0.001),
		record("c", 0.05),
	})

	assert.Equal(t, 3, table.Len())
	assert.Equal(t, "g_b", table.Records[0].Gene.String())
	assert.Equal(t, "g_c", table.Records[1].Gene.String())
	assert.Equal(t, "g_a", table.Records[2].Gene.String())
}

func TestRank_StableOnTies(t *testing.T) {
	table := Rank([]ResultRecord{
		record("first", 0.5),
		record("second", 0.5),
		record("third", 0.5),
	})

	// Ties keep engine order
	assert.Equal(t, "g_first", table.Records[0].Gene.String())
	assert.Equal(t, "g_second", table.Records[1].Gene.String())
	assert.Equal(t, "g_third", table.Records[2].Gene.String())
}

func TestRank_DropsRecordsWithMissingStats(t *testing.T) {
	incomplete := record("x", 0.01)
	incomplete.Stat = math.NaN()

	table := Rank([]ResultRecord{record("ok", 0.2), incomplete})

	assert.Equal(t, 1, table.Len())
	assert.Equal(t, "g_ok", table.Records[0].Gene.String())
}

func TestClassify_ZeroThresholdBoundary(t *testing.T) {
	// A significant gene sitting exactly on lfc_threshold == 0 falls through
	// both strict comparisons and must stay "No".
	r := ResultRecord{AdjPValue: 0.1, Log2FoldChange: 0}
	assert.Equal(t, ClassNone, Classify(r, 0.2, 0))
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name       string
		padj, lfc  float64
		alpha, thr float64
		want       Classification
	}{
		{"significant positive", 0.01, 2.0, 0.05, 1.0, ClassUp},
		{"significant negative", 0.01, -2.0, 0.05, 1.0, ClassDown},
		{"below threshold counts as down", 0.01, 0.5, 0.05, 1.0, ClassDown},
		{"not significant", 0.5, 3.0, 0.05, 1.0, ClassNone},
		{"alpha boundary is strict", 0.05, 3.0, 0.05, 1.0, ClassNone},
		{"sign only when threshold zero", 0.01, -0.2, 0.05, 0, ClassDown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := ResultRecord{AdjPValue: tc.padj, Log2FoldChange: tc.lfc}
			assert.Equal(t, tc.want, Classify(r, tc.alpha, tc.thr))
		})
	}
}

func TestHasMissing(t *testing.T) {
	r := record("x", 0.1)
	assert.False(t, r.HasMissing())

	r.AdjPValue = math.NaN()
	assert.True(t, r.HasMissing())
}
