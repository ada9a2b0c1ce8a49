package predict

import (
	"context"
	"fmt"

	"github.com/meridian-fm/assetcond/internal/model"
)

// InsightGenerator produces human-readable narrative insights for a
// prediction. Implementations may call remote services; the numeric
// prediction never depends on them.
type InsightGenerator interface {
	Generate(ctx context.Context, pred model.Prediction, series []model.Observation) ([]string, error)
}

// StaticInsights is the default generator: deterministic sentences
// derived from the prediction itself. It never fails.
type StaticInsights struct{}

// Generate returns fixed-template insight sentences.
func (StaticInsights) Generate(_ context.Context, pred model.Prediction, series []model.Observation) ([]string, error) {
	insights := []string{
		fmt.Sprintf("Component is deteriorating at approximately %.1f%% per year.", pred.DeteriorationRate),
		fmt.Sprintf("Estimated current condition is %.0f%%, with predicted failure around %d.", pred.CurrentCondition, pred.PredictedFailureYear),
	}

	switch pred.RiskLevel {
	case model.RiskCritical:
		insights = append(insights, "Immediate intervention is recommended; the component is at or near failure.")
	case model.RiskHigh:
		insights = append(insights, "Plan replacement or major repair within the next budget cycle.")
	case model.RiskMedium:
		insights = append(insights, "Schedule detailed inspection and include in mid-term capital planning.")
	default:
		insights = append(insights, "Continue routine maintenance; no near-term action required.")
	}

	if len(series) < 3 {
		insights = append(insights, "Prediction confidence is limited by sparse assessment history; additional assessments would improve accuracy.")
	}

	return insights, nil
}
