package app

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"degreport/domain/expr"
	"degreport/internal"
	"degreport/internal/errors"
)

// ResultsFileName is the ranked-table artifact written into the output dir
const ResultsFileName = "DEG_results.csv"

// resultsHeader is the canonical column order of the persisted table.
// Keep this as the single source of truth for writers and tests.
var resultsHeader = []string{"gene", "baseMean", "log2FoldChange", "stat", "pvalue", "padj"}

// ResultFormatter ranks engine output and persists it as the CSV artifact
type ResultFormatter struct {
	log *internal.Logger
}

// NewResultFormatter creates a formatter
func NewResultFormatter(log *internal.Logger) *ResultFormatter {
	if log == nil {
		log = internal.DefaultLogger
	}
	return &ResultFormatter{log: log}
}

// FormatAndPersist sorts results ascending by adjusted p-value (stable, so
// ties keep engine order), drops records with missing statistics, and writes
// the ranked table to outputDir/DEG_results.csv at full precision.
func (f *ResultFormatter) FormatAndPersist(results []expr.ResultRecord, outputDir string) (*expr.RankedTable, error) {
	table := expr.Rank(results)
	if dropped := len(results) - table.Len(); dropped > 0 {
		f.log.Warn("dropped %d of %d genes with incomplete statistics", dropped, len(results))
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, errors.IOError(fmt.Errorf("cannot create output directory %s: %w", outputDir, err))
	}

	path := filepath.Join(outputDir, ResultsFileName)
	file, err := os.Create(path)
	if err != nil {
		return nil, errors.IOError(fmt.Errorf("cannot write %s: %w", path, err))
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(resultsHeader); err != nil {
		return nil, errors.IOError(err)
	}
	for _, r := range table.Records {
		row := []string{
			r.Gene.String(),
			formatFull(r.BaseMean),
			formatFull(r.Log2FoldChange),
			formatFull(r.Stat),
			formatFull(r.PValue),
			formatFull(r.AdjPValue),
		}
		if err := w.Write(row); err != nil {
			return nil, errors.IOError(err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errors.IOError(err)
	}

	f.log.Info("wrote %d ranked genes to %s", table.Len(), path)
	return table, nil
}

// formatFull renders a float at full precision; display rounding is the
// renderer's concern, never the artifact's
func formatFull(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
