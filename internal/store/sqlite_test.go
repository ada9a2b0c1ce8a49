package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-fm/assetcond/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testAssessment(project, component string, assessedAt time.Time) model.Assessment {
	return model.Assessment{
		ProjectID:           project,
		BuildingID:          "bldg-1",
		SystemCode:          "D30",
		ComponentCode:       component,
		ConditionLabel:      "75-50%",
		Age:                 8,
		AssessedAt:          assessedAt,
		Observations:        "minor corrosion on casing",
		EstimatedRepairCost: 125_000,
	}
}

func TestSQLiteAssessmentRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	at := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	saved, err := s.SaveAssessment(ctx, testAssessment("p1", "D3050.01", at))
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)

	got, err := s.ListAssessments(ctx, AssessmentFilter{ProjectID: "p1"})
	require.NoError(t, err)
	require.Len(t, got, 1)

	a := got[0]
	assert.Equal(t, saved.ID, a.ID)
	assert.Equal(t, "D3050.01", a.ComponentCode)
	assert.Equal(t, "75-50%", a.ConditionLabel)
	assert.Equal(t, "minor corrosion on casing", a.Observations)
	assert.InDelta(t, 125_000, a.EstimatedRepairCost, 0.001)
	assert.True(t, a.AssessedAt.Equal(at))
}

func TestSQLiteAssessmentFilters(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a1 := testAssessment("p1", "D3050.01", base)
	a2 := testAssessment("p1", "C1010.02", base.AddDate(0, 1, 0))
	a2.BuildingID = "bldg-2"
	a2.SystemCode = "C10"
	a3 := testAssessment("p2", "D3050.01", base)

	for _, a := range []model.Assessment{a1, a2, a3} {
		_, err := s.SaveAssessment(ctx, a)
		require.NoError(t, err)
	}

	byProject, err := s.ListAssessments(ctx, AssessmentFilter{ProjectID: "p1"})
	require.NoError(t, err)
	assert.Len(t, byProject, 2)
	// Newest first.
	assert.Equal(t, "C1010.02", byProject[0].ComponentCode)

	byBuilding, err := s.ListAssessments(ctx, AssessmentFilter{ProjectID: "p1", BuildingID: "bldg-2"})
	require.NoError(t, err)
	assert.Len(t, byBuilding, 1)

	bySystem, err := s.ListAssessments(ctx, AssessmentFilter{SystemCode: "D30"})
	require.NoError(t, err)
	assert.Len(t, bySystem, 2)

	limited, err := s.ListAssessments(ctx, AssessmentFilter{ProjectID: "p1", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteComponentHistoryOrder(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	base := time.Date(2018, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, label := range []string{"100-75%", "75-50%", "50-25%"} {
		a := testAssessment("p1", "D3050.01", base.AddDate(i*3, 0, 0))
		a.ConditionLabel = label
		a.Age = float64(i * 3)
		_, err := s.SaveAssessment(ctx, a)
		require.NoError(t, err)
	}

	got, err := s.ComponentHistory(ctx, "p1", "D3050.01")
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Oldest first.
	assert.Equal(t, "100-75%", got[0].ConditionLabel)
	assert.Equal(t, "50-25%", got[2].ConditionLabel)
}

func TestSQLiteCriteriaLifecycle(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertCriterion(ctx, model.Criterion{ID: "safety", Name: "Safety", Weight: 30, IsActive: true}))
	require.NoError(t, s.UpsertCriterion(ctx, model.Criterion{ID: "urgency", Name: "Urgency", Weight: 70, IsActive: true}))

	// Update in place.
	require.NoError(t, s.UpsertCriterion(ctx, model.Criterion{ID: "safety", Name: "Safety", Weight: 40, IsActive: true}))

	active, err := s.ListCriteria(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.InDelta(t, 40, active[0].Weight, 0.001) // sorted by name: Safety first

	// Deactivation, not deletion.
	require.NoError(t, s.DeactivateCriterion(ctx, "urgency"))
	active, err = s.ListCriteria(ctx, true)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := s.ListCriteria(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	assert.Error(t, s.DeactivateCriterion(ctx, "nope"))
}

func TestSQLiteScoresLastWriteWins(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertCriterion(ctx, model.Criterion{ID: "safety", Name: "Safety", Weight: 100, IsActive: true}))

	require.NoError(t, s.UpsertScore(ctx, model.CriteriaScore{ProjectID: "p1", CriteriaID: "safety", Score: 5, ScoredBy: "alex"}))
	require.NoError(t, s.UpsertScore(ctx, model.CriteriaScore{ProjectID: "p1", CriteriaID: "safety", Score: 8, ScoredBy: "jordan"}))
	require.NoError(t, s.UpsertScore(ctx, model.CriteriaScore{ProjectID: "p2", CriteriaID: "safety", Score: 3}))

	scores, err := s.ListScores(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.InDelta(t, 8, scores[0].Score, 0.001)
	assert.Equal(t, "jordan", scores[0].ScoredBy)

	all, err := s.ListAllScores(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
