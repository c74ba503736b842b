package ui

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"degreport/domain/expr"
	"degreport/internal"
	"degreport/internal/errors"
	"degreport/ports"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

//go:embed templates/report.html
var templateFS embed.FS

// ReportFileName is the HTML artifact written into the output dir
const ReportFileName = "report.html"

// rowsPerPage is the client-side pagination default
const rowsPerPage = 100

// Renderer writes the self-contained HTML report: run parameters, the
// interactive results table, and optionally the volcano plot and analyst
// notes. It only reads the ranked table, never mutates it.
type Renderer struct {
	log       *internal.Logger
	templates *template.Template
}

// NewRenderer parses the embedded report template
func NewRenderer(log *internal.Logger) (*Renderer, error) {
	if log == nil {
		log = internal.DefaultLogger
	}
	templates, err := template.ParseFS(templateFS, "templates/report.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse report template: %w", err)
	}
	return &Renderer{log: log, templates: templates}, nil
}

type reportRow struct {
	Gene           string
	BaseMean       string
	Log2FoldChange string
	Stat           string
	PValue         string
	AdjPValue      string
	Class          string
}

type reportData struct {
	RunID            string
	GeneratedAt      string
	Formula          string
	CountsPath       string
	MetadataPath     string
	Contrast         string
	Alpha            string
	LFCThreshold     string
	TotalGenes       int
	SignificantGenes int
	RowsPerPage      int
	Rows             []reportRow
	VolcanoSVG       template.HTML
	NotesHTML        template.HTML
}

// Render implements ports.ReportRenderer
func (r *Renderer) Render(req ports.ReportRequest, outputDir string) (string, error) {
	data := reportData{
		RunID:        req.RunID.String(),
		GeneratedAt:  req.GeneratedAt.Format(),
		Formula:      req.Formula,
		CountsPath:   req.CountsPath,
		MetadataPath: req.MetadataPath,
		Contrast:     fmt.Sprintf("%s vs %s", req.TreatmentLabel, req.ControlLabel),
		Alpha:        strconv.FormatFloat(req.Alpha, 'g', -1, 64),
		LFCThreshold: strconv.FormatFloat(req.LFCThreshold, 'g', -1, 64),
		TotalGenes:   req.Table.Len(),
		RowsPerPage:  rowsPerPage,
		Rows:         make([]reportRow, 0, req.Table.Len()),
	}

	for _, rec := range req.Table.Records {
		class := expr.Classify(rec, req.Alpha, req.LFCThreshold)
		if rec.AdjPValue < req.Alpha {
			data.SignificantGenes++
		}
		// Display rounding only; the CSV artifact keeps full precision
		data.Rows = append(data.Rows, reportRow{
			Gene:           rec.Gene.String(),
			BaseMean:       round3(rec.BaseMean),
			Log2FoldChange: round3(rec.Log2FoldChange),
			Stat:           round3(rec.Stat),
			PValue:         round3(rec.PValue),
			AdjPValue:      round3(rec.AdjPValue),
			Class:          string(class),
		})
	}

	if req.PlotVolcano {
		data.VolcanoSVG = template.HTML(VolcanoSVG(req.Table, req.Alpha, req.LFCThreshold, req.TopGenes))
	}
	if len(req.NotesMarkdown) > 0 {
		data.NotesHTML = renderNotes(req.NotesMarkdown)
	}

	// Render to a buffer first to catch template errors before touching disk
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, "report.html", data); err != nil {
		return "", fmt.Errorf("report template failed: %w", err)
	}
	if !strings.Contains(buf.String(), "</html>") {
		r.log.Warn("rendered report appears truncated (missing </html>)")
	}

	path := filepath.Join(outputDir, ReportFileName)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", errors.IOError(fmt.Errorf("cannot write report: %w", err))
	}

	r.log.Info("wrote report with %d rows to %s", len(data.Rows), path)
	return path, nil
}

// renderNotes converts the analyst-notes markdown block to HTML
func renderNotes(notes []byte) template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	return template.HTML(markdown.Render(p.Parse(notes), renderer))
}

// round3 formats a statistic to 3 decimal places for display
func round3(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
