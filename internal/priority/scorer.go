// Package priority blends weighted criteria scores into a single 0-10
// composite used for cross-project capital ranking.
package priority

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/meridian-fm/assetcond/internal/model"
)

// weightDenominator normalizes the weighted sum back to the 0-10
// scale. The formula assumes active weights sum to 100; see
// ValidateCriteria, which warns when they do not. Downstream reports
// depend on this exact formula, so it is not weight-sum-invariant.
const weightDenominator = 100.0

// Composite computes the composite priority score for one project from
// the active criteria and that project's recorded scores. Criteria
// without a recorded score are omitted, not defaulted: the composite
// covers whatever subset of active criteria happens to be scored.
func Composite(projectID string, criteria []model.Criterion, scores []model.CriteriaScore) model.CompositeResult {
	byCriteria := make(map[string]model.CriteriaScore, len(scores))
	for _, s := range scores {
		byCriteria[s.CriteriaID] = s
	}

	result := model.CompositeResult{ProjectID: projectID}

	var total float64
	for _, c := range criteria {
		if !c.IsActive {
			continue
		}
		result.ActiveCriteria++

		s, ok := byCriteria[c.ID]
		if !ok {
			continue
		}
		score := clampScore(s.Score)
		weighted := c.Weight * score
		total += weighted

		result.CriteriaScores = append(result.CriteriaScores, model.WeightedScore{
			CriteriaID:    c.ID,
			Name:          c.Name,
			Weight:        c.Weight,
			Score:         score,
			WeightedScore: weighted,
		})
		result.ScoredCriteria++
	}

	result.CompositeScore = math.Round(total/weightDenominator*100) / 100
	return result
}

// Rank scores every project and orders the result by composite score
// descending, project id ascending on ties.
func Rank(criteria []model.Criterion, scoresByProject map[string][]model.CriteriaScore) []model.CompositeResult {
	results := make([]model.CompositeResult, 0, len(scoresByProject))
	for projectID, scores := range scoresByProject {
		results = append(results, Composite(projectID, criteria, scores))
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].CompositeScore != results[j].CompositeScore {
			return results[i].CompositeScore > results[j].CompositeScore
		}
		return results[i].ProjectID < results[j].ProjectID
	})
	return results
}

// ValidateCriteria checks the active criteria set and warns when the
// weight sum drifts from 100, since the composite formula silently
// leaves the 0-10 range otherwise. Returns the active weight sum.
func ValidateCriteria(criteria []model.Criterion) float64 {
	var sum float64
	for _, c := range criteria {
		if c.IsActive {
			sum += c.Weight
		}
	}
	if math.Abs(sum-100) > 1 {
		zap.L().Warn("priority: active criteria weights do not sum to 100",
			zap.Float64("weight_sum", sum),
		)
	}
	return sum
}

// clampScore bounds an assessment score to the 0-10 scale. Upstream
// validates input; this keeps a bad row from poisoning the composite.
func clampScore(s float64) float64 {
	return math.Max(0, math.Min(10, s))
}
