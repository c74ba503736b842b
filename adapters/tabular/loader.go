package tabular

import (
	"fmt"
	"strconv"

	"degreport/domain/core"
	"degreport/domain/expr"
	"degreport/internal"
	"degreport/internal/errors"
)

// Loader reads the count matrix and sample metadata and validates that the
// two agree on sample identity and order before anything downstream runs.
type Loader struct {
	log *internal.Logger
}

// NewLoader creates a loader
func NewLoader(log *internal.Logger) *Loader {
	if log == nil {
		log = internal.DefaultLogger
	}
	return &Loader{log: log}
}

// Load reads both inputs and checks sample alignment. The alignment check is
// the only validation performed here; anything the engine can reject is left
// to the engine.
func (l *Loader) Load(countPath, metadataPath string) (*expr.CountMatrix, *expr.SampleMetadata, error) {
	counts, err := l.loadCounts(countPath)
	if err != nil {
		return nil, nil, err
	}
	l.log.Info("loaded count matrix: %d genes x %d samples", counts.GeneCount(), counts.SampleCount())

	meta, err := l.loadMetadata(metadataPath)
	if err != nil {
		return nil, nil, err
	}
	l.log.Info("loaded sample metadata: %d samples, columns %v", meta.SampleCount(), meta.Columns)

	if err := meta.AlignWith(counts); err != nil {
		return nil, nil, errors.DataMismatch(err)
	}

	return counts, meta, nil
}

// loadCounts reads the gene x sample count table
func (l *Loader) loadCounts(path string) (*expr.CountMatrix, error) {
	table, err := NewTableReader(path).Read()
	if err != nil {
		return nil, errors.IOError(err)
	}

	matrix := &expr.CountMatrix{
		Genes:   make([]core.GeneID, len(table.RowIDs)),
		Samples: make([]core.SampleID, len(table.Columns)),
		Counts:  make([][]float64, len(table.RowIDs)),
	}
	for j, col := range table.Columns {
		matrix.Samples[j] = core.SampleID(col)
	}

	for i, id := range table.RowIDs {
		matrix.Genes[i] = core.GeneID(id)
		row := make([]float64, len(table.Cells[i]))
		for j, cell := range table.Cells[i] {
			value, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, errors.IOError(fmt.Errorf("count matrix %s: gene %s, sample %s: %w",
					path, id, table.Columns[j], err))
			}
			row[j] = value
		}
		matrix.Counts[i] = row
	}

	if err := matrix.Validate(); err != nil {
		return nil, errors.IOError(err)
	}
	return matrix, nil
}

// loadMetadata reads the per-sample annotation table
func (l *Loader) loadMetadata(path string) (*expr.SampleMetadata, error) {
	table, err := NewTableReader(path).Read()
	if err != nil {
		return nil, errors.IOError(err)
	}

	meta := &expr.SampleMetadata{
		Samples: make([]core.SampleID, len(table.RowIDs)),
		Columns: table.Columns,
		Rows:    table.Cells,
	}
	for i, id := range table.RowIDs {
		meta.Samples[i] = core.SampleID(id)
	}
	return meta, nil
}
