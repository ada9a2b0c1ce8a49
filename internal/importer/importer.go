// Package importer ingests assessment observations from CSV and XLSX
// files produced by field-assessment teams. Bad rows are reported
// individually and never abort the batch.
package importer

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/meridian-fm/assetcond/internal/model"
	"github.com/meridian-fm/assetcond/internal/store"
)

// Expected column order in assessment files. A header row matching the
// first column name is skipped automatically.
var columns = []string{
	"project_id", "building_id", "system_code", "component_code",
	"condition_label", "age", "assessed_at", "observations", "estimated_repair_cost",
}

const dateLayout = "2006-01-02"

// RowError describes a row that could not be imported.
type RowError struct {
	Row int    `json:"row"`
	Err string `json:"error"`
}

// Result summarizes one import run.
type Result struct {
	Imported  int        `json:"imported"`
	RowErrors []RowError `json:"row_errors,omitempty"`
}

// Importer parses assessment files and writes rows to the store.
type Importer struct {
	store store.Store
}

// New creates an Importer backed by the given store.
func New(st store.Store) *Importer {
	return &Importer{store: st}
}

// ImportCSV reads assessment rows from r and persists them.
func (im *Importer) ImportCSV(ctx context.Context, r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "importer: read csv")
		}
		rows = append(rows, record)
	}

	return im.importRows(ctx, rows)
}

// ImportCSVFile opens path and imports it.
func (im *Importer) ImportCSVFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "importer: open %s", path)
	}
	defer f.Close() //nolint:errcheck
	return im.ImportCSV(ctx, f)
}

// ImportXLSX reads assessment rows from the first sheet of an XLSX
// workbook and persists them.
func (im *Importer) ImportXLSX(ctx context.Context, path string) (*Result, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "importer: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("importer: workbook has no sheets")
	}

	var rows [][]string
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}

	return im.importRows(ctx, rows)
}

func (im *Importer) importRows(ctx context.Context, rows [][]string) (*Result, error) {
	result := &Result{}

	for i, row := range rows {
		if i == 0 && isHeader(row) {
			continue
		}

		a, err := rowToAssessment(row)
		if err != nil {
			result.RowErrors = append(result.RowErrors, RowError{Row: i + 1, Err: err.Error()})
			continue
		}

		if _, err := im.store.SaveAssessment(ctx, *a); err != nil {
			result.RowErrors = append(result.RowErrors, RowError{Row: i + 1, Err: err.Error()})
			continue
		}
		result.Imported++
	}

	zap.L().Info("importer: import complete",
		zap.Int("imported", result.Imported),
		zap.Int("row_errors", len(result.RowErrors)),
	)
	return result, nil
}

// rowToAssessment validates and converts one file row. Negative repair
// costs are clamped to zero at ingestion so weights downstream are
// never negative.
func rowToAssessment(row []string) (*model.Assessment, error) {
	if len(row) < len(columns) {
		return nil, eris.Errorf("expected %d columns, got %d", len(columns), len(row))
	}

	projectID := strings.TrimSpace(row[0])
	componentCode := strings.TrimSpace(row[3])
	if projectID == "" {
		return nil, eris.New("project_id is required")
	}
	if componentCode == "" {
		return nil, eris.New("component_code is required")
	}

	age, err := strconv.ParseFloat(strings.TrimSpace(row[5]), 64)
	if err != nil {
		return nil, eris.Errorf("invalid age %q", row[5])
	}

	assessedAt, err := time.Parse(dateLayout, strings.TrimSpace(row[6]))
	if err != nil {
		return nil, eris.Errorf("invalid assessed_at %q (want YYYY-MM-DD)", row[6])
	}

	cost := 0.0
	if v := strings.TrimSpace(row[8]); v != "" {
		cost, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, eris.Errorf("invalid estimated_repair_cost %q", row[8])
		}
	}
	if cost < 0 {
		cost = 0
	}

	return &model.Assessment{
		ProjectID:           projectID,
		BuildingID:          strings.TrimSpace(row[1]),
		SystemCode:          strings.TrimSpace(row[2]),
		ComponentCode:       componentCode,
		ConditionLabel:      strings.TrimSpace(row[4]),
		Age:                 age,
		AssessedAt:          assessedAt.UTC(),
		Observations:        strings.TrimSpace(row[7]),
		EstimatedRepairCost: cost,
	}, nil
}

func isHeader(row []string) bool {
	return len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), columns[0])
}
