package expr

import (
	"errors"
	"fmt"

	"degreport/domain/core"
)

// Domain errors - centralized error definitions
var (
	ErrSampleMismatch = errors.New("count matrix samples do not align with metadata")
	ErrUnknownColumn  = errors.New("metadata column not found")
	ErrUnknownLevel   = errors.New("condition value matches neither configured level")
	ErrEmptyMatrix    = errors.New("count matrix has no genes or no samples")
)

// CountMatrix holds raw expression counts, genes as rows and samples as columns.
// It is read once from input and never mutated afterwards.
type CountMatrix struct {
	Genes   []core.GeneID   `json:"genes"`
	Samples []core.SampleID `json:"samples"`
	Counts  [][]float64     `json:"counts"` // Counts[geneIdx][sampleIdx]
}

// GeneCount returns the number of genes (rows)
func (m *CountMatrix) GeneCount() int {
	return len(m.Genes)
}

// SampleCount returns the number of samples (columns)
func (m *CountMatrix) SampleCount() int {
	return len(m.Samples)
}

// Row returns the counts for a single gene
func (m *CountMatrix) Row(geneIdx int) []float64 {
	return m.Counts[geneIdx]
}

// Validate checks basic shape invariants of the matrix
func (m *CountMatrix) Validate() error {
	if len(m.Genes) == 0 || len(m.Samples) == 0 {
		return ErrEmptyMatrix
	}
	for i, row := range m.Counts {
		if len(row) != len(m.Samples) {
			return fmt.Errorf("gene %s has %d counts, expected %d", m.Genes[i], len(row), len(m.Samples))
		}
	}
	return nil
}

// SampleMetadata holds one row of annotations per sample.
// Row order matches the count matrix column order (validated at load time).
type SampleMetadata struct {
	Samples []core.SampleID `json:"samples"`
	Columns []string        `json:"columns"`
	Rows    [][]string      `json:"rows"` // Rows[sampleIdx][columnIdx]
}

// SampleCount returns the number of annotated samples
func (m *SampleMetadata) SampleCount() int {
	return len(m.Samples)
}

// Column returns all values of a named metadata column, in sample order
func (m *SampleMetadata) Column(name string) ([]string, error) {
	for j, col := range m.Columns {
		if col == name {
			values := make([]string, len(m.Rows))
			for i, row := range m.Rows {
				values[i] = row[j]
			}
			return values, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
}

// AlignWith verifies that metadata rows line up one-to-one, in order, with
// the count matrix columns. Downstream modeling assumes positional alignment,
// so any divergence is terminal. The check is identifier-by-identifier so the
// error names the first offending pair.
func (m *SampleMetadata) AlignWith(counts *CountMatrix) error {
	if len(m.Samples) != len(counts.Samples) {
		return fmt.Errorf("%w: matrix has %d samples, metadata has %d",
			ErrSampleMismatch, len(counts.Samples), len(m.Samples))
	}
	for i := range m.Samples {
		if m.Samples[i] != counts.Samples[i] {
			return fmt.Errorf("%w: position %d has matrix sample %q but metadata sample %q",
				ErrSampleMismatch, i, counts.Samples[i], m.Samples[i])
		}
	}
	return nil
}
