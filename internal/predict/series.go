package predict

import (
	"github.com/meridian-fm/assetcond/internal/condition"
	"github.com/meridian-fm/assetcond/internal/model"
)

// SeriesFromAssessments converts stored assessment records into the
// observation series the predictor consumes, normalizing condition
// labels to the 0-100 index.
func SeriesFromAssessments(assessments []model.Assessment) []model.Observation {
	series := make([]model.Observation, 0, len(assessments))
	for _, a := range assessments {
		series = append(series, model.Observation{
			Age:          a.Age,
			Condition:    condition.ToCI(a.ConditionLabel),
			Observations: a.Observations,
		})
	}
	return series
}
