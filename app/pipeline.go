package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"degreport/adapters/tabular"
	"degreport/domain/core"
	"degreport/domain/expr"
	"degreport/internal"
	"degreport/internal/config"
	apperrors "degreport/internal/errors"
	"degreport/ports"
)

// PipelineService runs the whole report: load, design, fit, format, render.
// Each stage consumes the previous stage's output; any failure aborts the
// run. There is no partial-success mode.
type PipelineService struct {
	loader    *tabular.Loader
	engine    ports.DifferentialEngine
	formatter *ResultFormatter
	renderer  ports.ReportRenderer
	log       *internal.Logger
}

// RunResult summarizes a completed pipeline run
type RunResult struct {
	RunID         core.RunID `json:"run_id"`
	Formula       string     `json:"formula"`
	GenesTested   int        `json:"genes_tested"`
	GenesReported int        `json:"genes_reported"`
	ResultsPath   string     `json:"results_path"`
	ReportPath    string     `json:"report_path"`
	RuntimeMs     int64      `json:"runtime_ms"`
}

// NewPipelineService wires the pipeline stages together
func NewPipelineService(loader *tabular.Loader, engine ports.DifferentialEngine, formatter *ResultFormatter, renderer ports.ReportRenderer, log *internal.Logger) *PipelineService {
	if log == nil {
		log = internal.DefaultLogger
	}
	return &PipelineService{
		loader:    loader,
		engine:    engine,
		formatter: formatter,
		renderer:  renderer,
		log:       log,
	}
}

// Run executes the report pipeline end to end
func (s *PipelineService) Run(ctx context.Context, cfg config.Config) (*RunResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	runID := core.RunID(core.NewID())
	startTime := time.Now()
	s.log.Info("run %s: %s vs %s on column %q", runID, cfg.TreatmentGroup, cfg.ControlGroup, cfg.ConditionColumn)

	counts, meta, err := s.loader.Load(cfg.DataFile, cfg.MetadataFile)
	if err != nil {
		return nil, err
	}

	design, err := expr.BuildDesign(meta, cfg.ConditionColumn, cfg.ControlGroup, cfg.TreatmentGroup, cfg.Covariate)
	if err != nil {
		if errors.Is(err, expr.ErrUnknownColumn) || errors.Is(err, expr.ErrUnknownLevel) {
			return nil, apperrors.DataMismatch(err)
		}
		return nil, err
	}
	s.log.Info("design formula: %s", design.Formula())

	fitStart := time.Now()
	results, err := s.engine.Fit(ctx, counts, design, ports.FitParams{
		Alpha:        cfg.Alpha,
		LFCThreshold: cfg.LFCThreshold,
	})
	if err != nil {
		return nil, apperrors.ModelFit(fmt.Errorf("differential expression fit failed: %w", err))
	}
	s.log.Info("engine fit %d genes in %.2fms", len(results), float64(time.Since(fitStart).Nanoseconds())/1e6)

	table, err := s.formatter.FormatAndPersist(results, cfg.OutputDir)
	if err != nil {
		return nil, err
	}

	notes, err := readNotes(cfg.NotesFile)
	if err != nil {
		return nil, err
	}

	reportPath, err := s.renderer.Render(ports.ReportRequest{
		Table:          table,
		RunID:          runID,
		GeneratedAt:    core.Now(),
		Formula:        design.Formula(),
		CountsPath:     cfg.DataFile,
		MetadataPath:   cfg.MetadataFile,
		ControlLabel:   cfg.ControlGroup,
		TreatmentLabel: cfg.TreatmentGroup,
		Alpha:          cfg.Alpha,
		LFCThreshold:   cfg.LFCThreshold,
		PlotVolcano:    cfg.PlotVolcano,
		TopGenes:       cfg.TopGenes,
		NotesMarkdown:  notes,
	}, cfg.OutputDir)
	if err != nil {
		return nil, err
	}

	result := &RunResult{
		RunID:         runID,
		Formula:       design.Formula(),
		GenesTested:   len(results),
		GenesReported: table.Len(),
		ResultsPath:   filepath.Join(cfg.OutputDir, ResultsFileName),
		ReportPath:    reportPath,
		RuntimeMs:     time.Since(startTime).Milliseconds(),
	}
	s.log.Info("run %s complete: %d/%d genes reported in %dms", runID, result.GenesReported, result.GenesTested, result.RuntimeMs)
	return result, nil
}

// readNotes loads the optional analyst-notes markdown file
func readNotes(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.IOError(fmt.Errorf("cannot read notes file: %w", err))
	}
	return data, nil
}
