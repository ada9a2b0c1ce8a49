package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-fm/assetcond/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_SaveAssessment(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO assessments`).
		WithArgs(pgxmock.AnyArg(), "p1", "bldg-1", "D30", "D3050.01", "75-50%",
			float64(8), pgxmock.AnyArg(), "", float64(125000)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	saved, err := s.SaveAssessment(context.Background(), model.Assessment{
		ProjectID:           "p1",
		BuildingID:          "bldg-1",
		SystemCode:          "D30",
		ComponentCode:       "D3050.01",
		ConditionLabel:      "75-50%",
		Age:                 8,
		EstimatedRepairCost: 125000,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.False(t, saved.AssessedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ComponentHistory(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	at := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{
		"id", "project_id", "building_id", "system_code", "component_code",
		"condition_label", "age", "assessed_at", "observations", "estimated_repair_cost",
	}).
		AddRow("a1", "p1", "b1", "D30", "D3050.01", "100-75%", float64(0), at, "", float64(0)).
		AddRow("a2", "p1", "b1", "D30", "D3050.01", "75-50%", float64(5), at.AddDate(5, 0, 0), "worn", float64(90000))

	mock.ExpectQuery(`WHERE project_id = \$1 AND component_code = \$2\s+ORDER BY assessed_at ASC, id ASC`).
		WithArgs("p1", "D3050.01").
		WillReturnRows(rows)

	got, err := s.ComponentHistory(context.Background(), "p1", "D3050.01")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "100-75%", got[0].ConditionLabel)
	assert.Equal(t, "worn", got[1].Observations)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListAssessmentsBuildsFilters(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{
		"id", "project_id", "building_id", "system_code", "component_code",
		"condition_label", "age", "assessed_at", "observations", "estimated_repair_cost",
	})

	mock.ExpectQuery(`FROM assessments WHERE 1=1 AND project_id = \$1 AND building_id = \$2 ORDER BY assessed_at DESC, id DESC LIMIT \$3`).
		WithArgs("p1", "b1", 10).
		WillReturnRows(rows)

	got, err := s.ListAssessments(context.Background(), AssessmentFilter{
		ProjectID:  "p1",
		BuildingID: "b1",
		Limit:      10,
	})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertCriterion(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`ON CONFLICT \(id\) DO UPDATE`).
		WithArgs("safety", "Safety", float64(30), true).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.UpsertCriterion(context.Background(), model.Criterion{
		ID: "safety", Name: "Safety", Weight: 30, IsActive: true,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeactivateCriterion_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE criteria SET is_active = false WHERE id = \$1`).
		WithArgs("ghost").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.DeactivateCriterion(context.Background(), "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListScores_NoRows(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM criteria_scores WHERE project_id = \$1`).
		WithArgs("p1").
		WillReturnError(pgx.ErrNoRows)

	got, err := s.ListScores(context.Background(), "p1")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertScore(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`ON CONFLICT \(project_id, criteria_id\) DO UPDATE`).
		WithArgs("p1", "safety", float64(8), "jordan", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.UpsertScore(context.Background(), model.CriteriaScore{
		ProjectID: "p1", CriteriaID: "safety", Score: 8, ScoredBy: "jordan",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS assessments`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
