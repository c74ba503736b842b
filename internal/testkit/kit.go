package testkit

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strings"

	"degreport/domain/core"
	"degreport/domain/expr"
	"degreport/ports"
)

// StubEngine is a canned ports.DifferentialEngine for pipeline tests: it
// records what it was asked to fit and returns fixed results.
type StubEngine struct {
	Records    []expr.ResultRecord
	Err        error
	Calls      int
	LastDesign expr.DesignSpec
	LastParams ports.FitParams
}

// Fit implements ports.DifferentialEngine
func (s *StubEngine) Fit(_ context.Context, _ *expr.CountMatrix, design expr.DesignSpec, params ports.FitParams) ([]expr.ResultRecord, error) {
	s.Calls++
	s.LastDesign = design
	s.LastParams = params
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Records, nil
}

// Record builds a ResultRecord fixture
func Record(gene string, baseMean, lfc, stat, pvalue, padj float64) expr.ResultRecord {
	return expr.ResultRecord{
		Gene:           core.GeneID(gene),
		BaseMean:       baseMean,
		Log2FoldChange: lfc,
		Stat:           stat,
		PValue:         pvalue,
		AdjPValue:      padj,
	}
}

// NaN is a shorthand for a missing statistic in fixtures
func NaN() float64 {
	return math.NaN()
}

// SyntheticBundle generates a deterministic count matrix and matching
// metadata. The first quarter of genes carries a real treatment effect so
// engine tests have known positives.
func SyntheticBundle(nGenes, nControl, nTreatment int, seed int64) (*expr.CountMatrix, *expr.SampleMetadata) {
	rng := rand.New(rand.NewSource(seed))
	nSamples := nControl + nTreatment

	matrix := &expr.CountMatrix{
		Genes:   make([]core.GeneID, nGenes),
		Samples: make([]core.SampleID, nSamples),
		Counts:  make([][]float64, nGenes),
	}
	meta := &expr.SampleMetadata{
		Samples: make([]core.SampleID, nSamples),
		Columns: []string{"condition", "batch"},
		Rows:    make([][]string, nSamples),
	}

	for j := 0; j < nSamples; j++ {
		condition := "control"
		if j >= nControl {
			condition = "treated"
		}
		id := core.SampleID(fmt.Sprintf("sample_%02d", j+1))
		matrix.Samples[j] = id
		meta.Samples[j] = id
		meta.Rows[j] = []string{condition, fmt.Sprintf("batch%d", j%2+1)}
	}

	for i := 0; i < nGenes; i++ {
		matrix.Genes[i] = core.GeneID(fmt.Sprintf("gene_%03d", i+1))
		base := 50 + rng.Float64()*500
		effect := 1.0
		if i < nGenes/4 {
			effect = 4.0 // differentially expressed block
		}
		row := make([]float64, nSamples)
		for j := 0; j < nSamples; j++ {
			mean := base
			if j >= nControl {
				mean *= effect
			}
			// Poisson-ish noise around the group mean
			row[j] = math.Max(0, math.Round(mean+rng.NormFloat64()*math.Sqrt(mean)))
		}
		matrix.Counts[i] = row
	}

	return matrix, meta
}

// WriteCountsTSV writes a count matrix in the tab-delimited input format
func WriteCountsTSV(path string, matrix *expr.CountMatrix) error {
	var b strings.Builder
	b.WriteString("gene")
	for _, s := range matrix.Samples {
		b.WriteString("\t")
		b.WriteString(s.String())
	}
	b.WriteString("\n")
	for i, g := range matrix.Genes {
		b.WriteString(g.String())
		for _, c := range matrix.Counts[i] {
			fmt.Fprintf(&b, "\t%g", c)
		}
		b.WriteString("\n")
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// WriteMetadataTSV writes sample metadata in the tab-delimited input format
func WriteMetadataTSV(path string, meta *expr.SampleMetadata) error {
	var b strings.Builder
	b.WriteString("sample")
	for _, col := range meta.Columns {
		b.WriteString("\t")
		b.WriteString(col)
	}
	b.WriteString("\n")
	for i, s := range meta.Samples {
		b.WriteString(s.String())
		for _, v := range meta.Rows[i] {
			b.WriteString("\t")
			b.WriteString(v)
		}
		b.WriteString("\n")
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
