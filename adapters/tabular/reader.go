package tabular

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table is a raw tabular file: a header row naming columns, and one
// identifier per data row taken from the first column.
type Table struct {
	RowIDs  []string
	Columns []string   // header cells after the identifier column
	Cells   [][]string // Cells[rowIdx][colIdx], identifier excluded
}

// TableReader reads delimited text and Excel files into a Table
type TableReader struct {
	filePath string
	fileType string // "tsv", "csv" or "xlsx"
}

// NewTableReader creates a reader for the given path. Tab-delimited text is
// the default; .csv and .xlsx files are recognized by extension.
func NewTableReader(filePath string) *TableReader {
	fileType := "tsv"
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".csv":
		fileType = "csv"
	case ".xlsx":
		fileType = "xlsx"
	}
	return &TableReader{filePath: filePath, fileType: fileType}
}

// Read loads the file into a Table
func (r *TableReader) Read() (*Table, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("input file not found: %s", r.filePath)
	}

	switch r.fileType {
	case "xlsx":
		return r.readExcel()
	default:
		return r.readDelimited()
	}
}

// readDelimited reads tab- or comma-separated text with a header row
func (r *TableReader) readDelimited() (*Table, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", r.filePath, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	if r.fileType == "tsv" {
		reader.Comma = '\t'
	}
	reader.FieldsPerRecord = -1 // validated against the header below

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", r.filePath, err)
	}
	return buildTable(r.filePath, rows)
}

// readExcel reads the first sheet of an Excel workbook
func (r *TableReader) readExcel() (*Table, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("Excel file %s has no sheets", r.filePath)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return buildTable(r.filePath, rows)
}

// buildTable splits raw rows into header, identifiers and cells
func buildTable(path string, rows [][]string) (*Table, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s must have a header row and at least one data row", path)
	}

	header := rows[0]
	if len(header) < 2 {
		return nil, fmt.Errorf("%s header must have an identifier column and at least one data column", path)
	}

	table := &Table{
		Columns: header[1:],
		RowIDs:  make([]string, 0, len(rows)-1),
		Cells:   make([][]string, 0, len(rows)-1),
	}

	for i, row := range rows[1:] {
		if len(row) == 0 {
			continue // trailing blank line
		}
		if len(row) != len(header) {
			return nil, fmt.Errorf("%s row %d has %d fields, header has %d", path, i+2, len(row), len(header))
		}
		id := strings.TrimSpace(row[0])
		if id == "" {
			return nil, fmt.Errorf("%s row %d has an empty identifier", path, i+2)
		}
		table.RowIDs = append(table.RowIDs, id)
		table.Cells = append(table.Cells, row[1:])
	}

	return table, nil
}
