package ui

import (
	"fmt"
	"html"
	"math"
	"strings"

	"degreport/domain/expr"
)

// Volcano plot geometry
const (
	volcanoWidth   = 760
	volcanoHeight  = 520
	volcanoPadding = 48
	pointRadius    = 3
	labelHeight    = 12 // approximate line height of a 10px label
	labelCharWidth = 6  // approximate advance of a 10px character
	minLogP        = 1e-300
)

// Classification colors: grey/red/blue for No/Up/Down
var volcanoColors = map[expr.Classification]string{
	expr.ClassNone: "#9aa0a6",
	expr.ClassUp:   "#d93025",
	expr.ClassDown: "#1a73e8",
}

type labelBox struct {
	x, y, w float64
}

// VolcanoSVG renders the ranked table as an inline SVG scatter of log2 fold
// change against -log10 adjusted p-value. The first topN records in table
// order get text labels, nudged vertically so they do not overlap.
func VolcanoSVG(table *expr.RankedTable, alpha, lfcThreshold float64, topN int) string {
	if table.Len() == 0 {
		return ""
	}

	// Data ranges, x kept symmetric so the fold-change axis is centered
	maxX, maxY := 1.0, 1.0
	for _, r := range table.Records {
		if v := math.Abs(r.Log2FoldChange); v > maxX {
			maxX = v
		}
		if v := negLog10(r.AdjPValue); v > maxY {
			maxY = v
		}
	}
	maxX *= 1.1
	maxY *= 1.1

	plotW := float64(volcanoWidth - 2*volcanoPadding)
	plotH := float64(volcanoHeight - 2*volcanoPadding)
	toX := func(lfc float64) float64 {
		return volcanoPadding + (lfc+maxX)/(2*maxX)*plotW
	}
	toY := func(y float64) float64 {
		return volcanoPadding + (1-y/maxY)*plotH
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d" role="img">`,
		volcanoWidth, volcanoHeight, volcanoWidth, volcanoHeight)
	b.WriteString("\n")

	drawAxes(&b, maxX, maxY, toX, toY)

	for _, r := range table.Records {
		class := expr.Classify(r, alpha, lfcThreshold)
		fmt.Fprintf(&b, `<circle cx="%.1f" cy="%.1f" r="%d" fill="%s" fill-opacity="0.75"/>`,
			toX(r.Log2FoldChange), toY(negLog10(r.AdjPValue)), pointRadius, volcanoColors[class])
		b.WriteString("\n")
	}

	drawLabels(&b, table, topN, toX, toY)

	b.WriteString("</svg>")
	return b.String()
}

// drawAxes renders the frame, tick marks and axis titles
func drawAxes(b *strings.Builder, maxX, maxY float64, toX, toY func(float64) float64) {
	left, right := float64(volcanoPadding), float64(volcanoWidth-volcanoPadding)
	top, bottom := float64(volcanoPadding), float64(volcanoHeight-volcanoPadding)

	fmt.Fprintf(b, `<rect x="%.0f" y="%.0f" width="%.0f" height="%.0f" fill="none" stroke="#444" stroke-width="1"/>`,
		left, top, right-left, bottom-top)
	b.WriteString("\n")

	for _, frac := range []float64{0, 0.25, 0.5, 0.75, 1} {
		xVal := -maxX + frac*2*maxX
		x := toX(xVal)
		fmt.Fprintf(b, `<line x1="%.1f" y1="%.0f" x2="%.1f" y2="%.0f" stroke="#444"/>`, x, bottom, x, bottom+4)
		fmt.Fprintf(b, `<text x="%.1f" y="%.0f" font-size="10" text-anchor="middle" fill="#444">%.1f</text>`, x, bottom+16, xVal)
		b.WriteString("\n")

		yVal := frac * maxY
		y := toY(yVal)
		fmt.Fprintf(b, `<line x1="%.0f" y1="%.1f" x2="%.0f" y2="%.1f" stroke="#444"/>`, left-4, y, left, y)
		fmt.Fprintf(b, `<text x="%.0f" y="%.1f" font-size="10" text-anchor="end" fill="#444">%.1f</text>`, left-7, y+3, yVal)
		b.WriteString("\n")
	}

	fmt.Fprintf(b, `<text x="%.0f" y="%d" font-size="11" text-anchor="middle" fill="#222">log2 fold change</text>`,
		(left+right)/2, volcanoHeight-8)
	b.WriteString("\n")
	fmt.Fprintf(b, `<text x="14" y="%.0f" font-size="11" text-anchor="middle" fill="#222" transform="rotate(-90 14 %.0f)">-log10 adjusted p-value</text>`,
		(top+bottom)/2, (top+bottom)/2)
	b.WriteString("\n")
}

// drawLabels places gene identifiers next to the first topN points, nudging
// each label downward until it clears every label placed before it
func drawLabels(b *strings.Builder, table *expr.RankedTable, topN int, toX, toY func(float64) float64) {
	if topN > table.Len() {
		topN = table.Len()
	}

	placed := make([]labelBox, 0, topN)
	for _, r := range table.Records[:topN] {
		name := r.Gene.String()
		box := labelBox{
			x: toX(r.Log2FoldChange) + pointRadius + 3,
			y: toY(negLog10(r.AdjPValue)) - 3,
			w: float64(len(name) * labelCharWidth),
		}

		// Greedy vertical nudge; bounded so a dense cluster cannot loop
		for attempt := 0; attempt < 40 && collides(box, placed); attempt++ {
			box.y += labelHeight
		}
		if box.x+box.w > volcanoWidth {
			box.x = toX(r.Log2FoldChange) - pointRadius - 3 - box.w
		}
		placed = append(placed, box)

		fmt.Fprintf(b, `<text x="%.1f" y="%.1f" font-size="10" fill="#222">%s</text>`,
			box.x, box.y, html.EscapeString(name))
		b.WriteString("\n")
	}
}

// collides reports whether box overlaps any already-placed label
func collides(box labelBox, placed []labelBox) bool {
	for _, p := range placed {
		if box.x < p.x+p.w && p.x < box.x+box.w &&
			math.Abs(box.y-p.y) < labelHeight {
			return true
		}
	}
	return false
}

// negLog10 maps an adjusted p-value onto the volcano y axis, clamped so an
// underflowed p-value stays finite
func negLog10(p float64) float64 {
	if p < minLogP {
		p = minLogP
	}
	return -math.Log10(p)
}
