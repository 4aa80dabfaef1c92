// Package dataset loads tabular training data from CSV and XLSX files.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/verifactura/invoice-extractor/internal/common"
)

// Frame is an in-memory table: lowercase column names plus string cells.
// Typing (numeric parsing, label normalization) is the consumer's job.
type Frame struct {
	Columns []string
	Rows    [][]string
}

// Load reads a dataset file, dispatching on the extension.
func Load(path string) (*Frame, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path)
	case ".xlsx", ".xlsm":
		return LoadXLSX(path)
	default:
		return nil, common.Errorf(common.KindDatasetSchemaInvalid,
			"unsupported dataset format %q, expected .csv or .xlsx", filepath.Ext(path))
	}
}

// LoadCSV reads a comma-separated dataset with a header row.
func LoadCSV(path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, common.NewError(common.KindDatasetSchemaInvalid, "parse csv", err)
	}
	return fromRecords(records)
}

// LoadXLSX reads the first sheet of a spreadsheet, header row included.
func LoadXLSX(path string) (*Frame, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, common.NewError(common.KindDatasetSchemaInvalid, "open spreadsheet", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, common.Errorf(common.KindDatasetSchemaInvalid, "spreadsheet has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, common.NewError(common.KindDatasetSchemaInvalid, "read sheet", err)
	}
	return fromRecords(rows)
}

func fromRecords(records [][]string) (*Frame, error) {
	if len(records) == 0 {
		return nil, common.Errorf(common.KindDatasetSchemaInvalid, "dataset is empty")
	}

	columns := make([]string, len(records[0]))
	for i, c := range records[0] {
		columns[i] = strings.ToLower(strings.TrimSpace(c))
	}

	frame := &Frame{Columns: columns}
	for _, rec := range records[1:] {
		row := make([]string, len(columns))
		for i := range columns {
			if i < len(rec) {
				row[i] = strings.TrimSpace(rec[i])
			}
		}
		// skip fully blank lines
		empty := true
		for _, cell := range row {
			if cell != "" {
				empty = false
				break
			}
		}
		if !empty {
			frame.Rows = append(frame.Rows, row)
		}
	}
	if len(frame.Rows) == 0 {
		return nil, common.Errorf(common.KindDatasetSchemaInvalid, "dataset has no data rows")
	}
	return frame, nil
}

// Column returns the index of a column by its lowercase name.
func (f *Frame) Column(name string) (int, bool) {
	for i, c := range f.Columns {
		if c == name {
			return i, true
		}
	}
	return 0, false
}

// RequireColumns fails with the full list of missing columns, not just the
// first, so a malformed dataset is fixable in one pass.
func (f *Frame) RequireColumns(names ...string) error {
	var missing []string
	for _, n := range names {
		if _, ok := f.Column(n); !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return common.Errorf(common.KindDatasetSchemaInvalid,
			"dataset is missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}
