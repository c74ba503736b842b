package ui

import (
	"strings"
	"testing"

	"degreport/domain/expr"
	"degreport/internal/testkit"

	"github.com/stretchr/testify/assert"
)

func volcanoTable() *expr.RankedTable {
	return &expr.RankedTable{Records: []expr.ResultRecord{
		testkit.Record("gene_up", 100, 3.0, 8.0, 0.0001, 0.001),
		testkit.Record("gene_down", 90, -2.5, -7.0, 0.0002, 0.002),
		testkit.Record("gene_flat", 50, 0.1, 0.3, 0.8, 0.9),
	}}
}

func TestVolcanoSVG_ColorsByClassification(t *testing.T) {
	svg := VolcanoSVG(volcanoTable(), 0.05, 1.0, 0)

	assert.Contains(t, svg, volcanoColors[expr.ClassUp])
	assert.Contains(t, svg, volcanoColors[expr.ClassDown])
	assert.Contains(t, svg, volcanoColors[expr.ClassNone])
	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.True(t, strings.HasSuffix(svg, "</svg>"))
}

func TestVolcanoSVG_LabelsTopNOnly(t *testing.T) {
	svg := VolcanoSVG(volcanoTable(), 0.05, 1.0, 2)

	assert.Contains(t, svg, ">gene_up</text>")
	assert.Contains(t, svg, ">gene_down</text>")
	assert.NotContains(t, svg, ">gene_flat</text>")
}

func TestVolcanoSVG_TopNClampedToTableSize(t *testing.T) {
	svg := VolcanoSVG(volcanoTable(), 0.05, 1.0, 50)
	assert.Contains(t, svg, ">gene_flat</text>")
}

func TestVolcanoSVG_EmptyTable(t *testing.T) {
	assert.Empty(t, VolcanoSVG(&expr.RankedTable{}, 0.05, 0, 20))
}

func TestVolcanoSVG_OverlappingLabelsAreNudged(t *testing.T) {
	// Three genes at nearly the same coordinates would stack without nudging
	table := &expr.RankedTable{Records: []expr.ResultRecord{
		testkit.Record("aaa", 10, 1.0, 5, 0.001, 0.01),
		testkit.Record("bbb", 10, 1.01, 5, 0.001, 0.0101),
		testkit.Record("ccc", 10, 0.99, 5, 0.001, 0.0102),
	}}
	svg := VolcanoSVG(table, 0.05, 0, 3)

	ys := map[string]bool{}
	for _, line := range strings.Split(svg, "\n") {
		if !strings.Contains(line, "</text>") || !strings.Contains(line, "font-size=\"10\" fill=\"#222\"") {
			continue
		}
		// y attribute uniquely identifies the label row
		start := strings.Index(line, `y="`) + 3
		end := strings.Index(line[start:], `"`)
		ys[line[start:start+end]] = true
	}
	assert.Len(t, ys, 3, "every label must land on its own row")
}

func TestVolcanoSVG_EscapesGeneNames(t *testing.T) {
	table := &expr.RankedTable{Records: []expr.ResultRecord{
		testkit.Record("gene<&>", 10, 2, 5, 0.001, 0.01),
	}}
	svg := VolcanoSVG(table, 0.05, 0, 1)
	assert.Contains(t, svg, "gene&lt;&amp;&gt;")
	assert.NotContains(t, svg, ">gene<&></text>")
}
