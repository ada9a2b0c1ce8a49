package priority

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-fm/assetcond/internal/model"
)

func criterion(id string, weight float64) model.Criterion {
	return model.Criterion{ID: id, Name: id, Weight: weight, IsActive: true}
}

func score(criteriaID string, s float64) model.CriteriaScore {
	return model.CriteriaScore{ProjectID: "p1", CriteriaID: criteriaID, Score: s}
}

func TestComposite(t *testing.T) {
	criteria := []model.Criterion{
		criterion("safety", 20),
		criterion("compliance", 30),
		criterion("financial", 25),
		criterion("urgency", 25),
	}
	scores := []model.CriteriaScore{
		score("safety", 10),
		score("compliance", 8),
		score("financial", 6),
		score("urgency", 4),
	}

	got := Composite("p1", criteria, scores)

	// (20*10 + 30*8 + 25*6 + 25*4) / 100 = 6.9
	assert.InDelta(t, 6.9, got.CompositeScore, 0.01)
	assert.Equal(t, 4, got.ScoredCriteria)
	assert.Equal(t, 4, got.ActiveCriteria)
	require.Len(t, got.CriteriaScores, 4)
	assert.InDelta(t, 200, got.CriteriaScores[0].WeightedScore, 0.001)
}

func TestCompositeEdgeCases(t *testing.T) {
	criteria := []model.Criterion{criterion("safety", 50), criterion("urgency", 50)}

	t.Run("empty scores", func(t *testing.T) {
		got := Composite("p1", criteria, nil)
		assert.Zero(t, got.CompositeScore)
		assert.Zero(t, got.ScoredCriteria)
		assert.Equal(t, 2, got.ActiveCriteria)
	})

	t.Run("all zero scores", func(t *testing.T) {
		got := Composite("p1", criteria, []model.CriteriaScore{score("safety", 0), score("urgency", 0)})
		assert.Zero(t, got.CompositeScore)
		assert.Equal(t, 2, got.ScoredCriteria)
	})

	t.Run("unscored criterion omitted not zeroed", func(t *testing.T) {
		got := Composite("p1", criteria, []model.CriteriaScore{score("safety", 8)})
		// 50*8/100 = 4.0; urgency contributes nothing.
		assert.InDelta(t, 4.0, got.CompositeScore, 0.001)
		assert.Equal(t, 1, got.ScoredCriteria)
	})

	t.Run("inactive criteria excluded", func(t *testing.T) {
		inactive := model.Criterion{ID: "retired", Weight: 100, IsActive: false}
		got := Composite("p1", append(criteria, inactive), []model.CriteriaScore{score("retired", 10)})
		assert.Zero(t, got.CompositeScore)
		assert.Equal(t, 2, got.ActiveCriteria)
	})

	t.Run("out of range score clamped", func(t *testing.T) {
		got := Composite("p1", criteria, []model.CriteriaScore{score("safety", 15)})
		// Clamped to 10: 50*10/100 = 5.
		assert.InDelta(t, 5.0, got.CompositeScore, 0.001)
	})
}

func TestCompositeIdempotent(t *testing.T) {
	criteria := []model.Criterion{criterion("safety", 40), criterion("urgency", 60)}
	scores := []model.CriteriaScore{score("safety", 7), score("urgency", 3)}

	a := Composite("p1", criteria, scores)
	b := Composite("p1", criteria, scores)
	assert.Equal(t, a, b)
}

func TestRankDeterministicOrder(t *testing.T) {
	criteria := []model.Criterion{criterion("safety", 100)}
	byProject := map[string][]model.CriteriaScore{
		"charlie": {score("safety", 5)},
		"alpha":   {score("safety", 9)},
		"bravo":   {score("safety", 5)},
	}

	got := Rank(criteria, byProject)
	require.Len(t, got, 3)
	assert.Equal(t, "alpha", got[0].ProjectID)
	// Tie on 5.0 breaks on project id.
	assert.Equal(t, "bravo", got[1].ProjectID)
	assert.Equal(t, "charlie", got[2].ProjectID)
}

func TestValidateCriteria(t *testing.T) {
	assert.InDelta(t, 100, ValidateCriteria([]model.Criterion{
		criterion("a", 60), criterion("b", 40),
	}), 0.001)

	// Inactive weights are excluded from the sum.
	got := ValidateCriteria([]model.Criterion{
		criterion("a", 60),
		{ID: "b", Weight: 40, IsActive: false},
	})
	assert.InDelta(t, 60, got, 0.001)
}
