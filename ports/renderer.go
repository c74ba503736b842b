package ports

import (
	"degreport/domain/core"
	"degreport/domain/expr"
)

// ReportRequest carries everything the renderer needs. The ranked table is
// read-only for the renderer; display rounding never touches it.
type ReportRequest struct {
	Table          *expr.RankedTable
	RunID          core.RunID
	GeneratedAt    core.Timestamp
	Formula        string
	CountsPath     string
	MetadataPath   string
	ControlLabel   string
	TreatmentLabel string
	Alpha          float64
	LFCThreshold   float64
	PlotVolcano    bool
	TopGenes       int
	NotesMarkdown  []byte // optional analyst notes, rendered into the report
}

// ReportRenderer produces the HTML report artifact and returns its path
type ReportRenderer interface {
	Render(req ReportRequest, outputDir string) (string, error)
}
