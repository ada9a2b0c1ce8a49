package importer

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/meridian-fm/assetcond/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "import.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

const sampleCSV = `project_id,building_id,system_code,component_code,condition_label,age,assessed_at,observations,estimated_repair_cost
proj-1,bldg-1,D30,D3020-boiler,75-50%,12,2024-03-15,flue corrosion,250000
proj-1,bldg-1,D30,D3040-ahu,Good,6,2024-03-15,,180000
`

func TestImportCSV(t *testing.T) {
	st := newTestStore(t)
	im := New(st)
	ctx := context.Background()

	result, err := im.ImportCSV(ctx, strings.NewReader(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Empty(t, result.RowErrors)

	saved, err := st.ListAssessments(ctx, store.AssessmentFilter{ProjectID: "proj-1"})
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, "75-50%", saved[0].ConditionLabel)
}

func TestImportCSVRowErrorsDoNotAbort(t *testing.T) {
	st := newTestStore(t)
	im := New(st)

	input := strings.Join([]string{
		"project_id,building_id,system_code,component_code,condition_label,age,assessed_at,observations,estimated_repair_cost",
		"proj-1,bldg-1,D30,D3020-boiler,75-50%,twelve,2024-03-15,,250000",   // bad age
		",bldg-1,D30,D3040-ahu,Good,6,2024-03-15,,180000",                   // missing project
		"proj-1,bldg-1,D30,D3050-chiller,Good,6,03/15/2024,,180000",         // bad date
		"proj-1,bldg-1,D30,D3060-cooling-tower,Fair,9,2024-03-15,,140000",   // valid
	}, "\n")

	result, err := im.ImportCSV(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	require.Len(t, result.RowErrors, 3)
	assert.Equal(t, 2, result.RowErrors[0].Row)
	assert.Contains(t, result.RowErrors[0].Err, "invalid age")
	assert.Contains(t, result.RowErrors[1].Err, "project_id is required")
	assert.Contains(t, result.RowErrors[2].Err, "invalid assessed_at")
}

func TestImportClampsNegativeCost(t *testing.T) {
	st := newTestStore(t)
	im := New(st)
	ctx := context.Background()

	input := "proj-1,bldg-1,D30,D3020-boiler,Poor,20,2024-03-15,,-5000\n"
	result, err := im.ImportCSV(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)

	saved, err := st.ListAssessments(ctx, store.AssessmentFilter{ProjectID: "proj-1"})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Zero(t, saved[0].EstimatedRepairCost)
}

func TestImportXLSX(t *testing.T) {
	st := newTestStore(t)
	im := New(st)

	path := filepath.Join(t.TempDir(), "assessments.xlsx")
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Assessments")
	require.NoError(t, err)

	for _, row := range [][]string{
		{"project_id", "building_id", "system_code", "component_code", "condition_label", "age", "assessed_at", "observations", "estimated_repair_cost"},
		{"proj-2", "bldg-4", "B30", "B3010-roof", "50-25%", "18", "2024-06-01", "ponding at drains", "400000"},
	} {
		r := sheet.AddRow()
		for _, v := range row {
			r.AddCell().SetString(v)
		}
	}
	require.NoError(t, f.Save(path))

	result, err := im.ImportXLSX(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Empty(t, result.RowErrors)

	saved, err := st.ListAssessments(context.Background(), store.AssessmentFilter{ProjectID: "proj-2"})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "B3010-roof", saved[0].ComponentCode)
	assert.InDelta(t, 400000, saved[0].EstimatedRepairCost, 0.001)
}

func TestRowToAssessmentShortRow(t *testing.T) {
	a, err := rowToAssessment([]string{"proj-1", "bldg-1"})
	assert.Nil(t, a)
	assert.Error(t, err)
}
