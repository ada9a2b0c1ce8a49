package predict

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/meridian-fm/assetcond/internal/model"
)

func TestSeriesFromAssessments(t *testing.T) {
	t.Parallel()

	when := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	series := SeriesFromAssessments([]model.Assessment{
		{ComponentCode: "D3020", ConditionLabel: "75-50%", Age: 8, AssessedAt: when, Observations: "casing rust"},
		{ComponentCode: "D3020", ConditionLabel: "unrated", Age: 12, AssessedAt: when},
	})

	assert.Len(t, series, 2)
	assert.Equal(t, model.Observation{Age: 8, Condition: 75, Observations: "casing rust"}, series[0])
	assert.Equal(t, 50.0, series[1].Condition)
	assert.Empty(t, SeriesFromAssessments(nil))
}
