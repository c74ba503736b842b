package app

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"degreport/adapters/tabular"
	"degreport/domain/expr"
	"degreport/internal/config"
	"degreport/internal/errors"
	"degreport/internal/testkit"
	"degreport/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRenderer satisfies ports.ReportRenderer without touching html
type fakeRenderer struct {
	lastReq ports.ReportRequest
	calls   int
}

func (f *fakeRenderer) Render(req ports.ReportRequest, outputDir string) (string, error) {
	f.calls++
	f.lastReq = req
	path := filepath.Join(outputDir, "report.html")
	return path, os.WriteFile(path, []byte("<html></html>"), 0o644)
}

func pipelineFixture(t *testing.T, stub *testkit.StubEngine) (*PipelineService, *fakeRenderer, config.Config) {
	t.Helper()
	dir := t.TempDir()

	matrix, meta := testkit.SyntheticBundle(3, 2, 2, 11)
	countPath := filepath.Join(dir, "counts.tsv")
	metaPath := filepath.Join(dir, "samples.tsv")
	require.NoError(t, testkit.WriteCountsTSV(countPath, matrix))
	require.NoError(t, testkit.WriteMetadataTSV(metaPath, meta))

	cfg := config.Config{
		DataFile:        countPath,
		MetadataFile:    metaPath,
		ConditionColumn: "condition",
		ControlGroup:    "control",
		TreatmentGroup:  "treated",
		Alpha:           0.05,
		LFCThreshold:    1,
		OutputDir:       filepath.Join(dir, "out"),
		PlotVolcano:     false,
		TopGenes:        20,
	}

	renderer := &fakeRenderer{}
	pipeline := NewPipelineService(tabular.NewLoader(nil), stub, NewResultFormatter(nil), renderer, nil)
	return pipeline, renderer, cfg
}

func TestPipeline_EndToEndScenario(t *testing.T) {
	stub := &testkit.StubEngine{Records: []expr.ResultRecord{
		testkit.Record("gene_001", 120, 2.1, 6.0, 0.0001, 0.0003),
		testkit.Record("gene_002", 80, -0.4, -1.1, 0.3, 0.45),
		testkit.Record("gene_003", 200, 1.4, 3.2, 0.004, 0.006),
	}}
	pipeline, renderer, cfg := pipelineFixture(t, stub)

	result, err := pipeline.Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, stub.Calls)
	assert.Equal(t, 1, renderer.calls)
	assert.Equal(t, 3, result.GenesTested)
	assert.Equal(t, 3, result.GenesReported)
	assert.Equal(t, "condition", result.Formula)
	assert.Equal(t, ports.FitParams{Alpha: 0.05, LFCThreshold: 1}, stub.LastParams)

	// Persisted table: identifier plus base mean, log2FC, stat, pvalue, padj,
	// ranked ascending by padj
	f, err := os.Open(result.ResultsPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Len(t, rows[0], 6)
	assert.Equal(t, "gene_001", rows[1][0])
	assert.Equal(t, "gene_003", rows[2][0])
	assert.Equal(t, "gene_002", rows[3][0])

	// The renderer got the same ranked table, read-only
	assert.Equal(t, 3, renderer.lastReq.Table.Len())
	assert.True(t, renderer.lastReq.GeneratedAt.Time().Unix() > 0)
}

func TestPipeline_PermutedSamplesNeverReachEngine(t *testing.T) {
	stub := &testkit.StubEngine{}
	pipeline, _, cfg := pipelineFixture(t, stub)

	// Permute the metadata rows on disk
	raw, err := os.ReadFile(cfg.MetadataFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	lines[1], lines[2] = lines[2], lines[1]
	require.NoError(t, os.WriteFile(cfg.MetadataFile, []byte(strings.Join(lines, "\n")+"\n"), 0o644))

	_, err = pipeline.Run(context.Background(), cfg)
	require.Error(t, err)
	assert.Equal(t, errors.CodeDataMismatch, errors.GetCode(err))
	assert.Equal(t, 0, stub.Calls, "the engine must never see misaligned data")
}

func TestPipeline_EngineFailureIsModelFit(t *testing.T) {
	stub := &testkit.StubEngine{Err: fmt.Errorf("dispersion estimation blew up")}
	pipeline, renderer, cfg := pipelineFixture(t, stub)

	_, err := pipeline.Run(context.Background(), cfg)
	require.Error(t, err)
	assert.Equal(t, errors.CodeModelFit, errors.GetCode(err))
	assert.Contains(t, err.Error(), "dispersion estimation blew up")
	assert.Equal(t, 0, renderer.calls, "no partial report on failure")
}

func TestPipeline_CovariateFormulaOrder(t *testing.T) {
	stub := &testkit.StubEngine{Records: []expr.ResultRecord{testkit.Record("g", 1, 1, 1, 0.1, 0.2)}}
	pipeline, _, cfg := pipelineFixture(t, stub)
	cfg.Covariate = "batch"

	result, err := pipeline.Run(context.Background(), cfg)
	require.NoError(t, err)

	// Covariate first, never "condition + batch"
	assert.Equal(t, "batch + condition", result.Formula)
	assert.Equal(t, "batch + condition", stub.LastDesign.Formula())
}

func TestPipeline_UnknownConditionLabel(t *testing.T) {
	stub := &testkit.StubEngine{}
	pipeline, _, cfg := pipelineFixture(t, stub)
	cfg.ControlGroup = "placebo" // nothing in the metadata matches

	_, err := pipeline.Run(context.Background(), cfg)
	require.Error(t, err)
	assert.Equal(t, errors.CodeDataMismatch, errors.GetCode(err))
	assert.Equal(t, 0, stub.Calls)
}

func TestPipeline_InvalidConfig(t *testing.T) {
	stub := &testkit.StubEngine{}
	pipeline, _, cfg := pipelineFixture(t, stub)
	cfg.Alpha = 3

	_, err := pipeline.Run(context.Background(), cfg)
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}
