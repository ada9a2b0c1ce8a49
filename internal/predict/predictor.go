// Package predict fits a deterioration trend to a component's
// assessment history and extrapolates failure timing, confidence, and
// risk. Every branch has a numeric default; sparse or missing history
// is a data-quality condition, not an error.
package predict

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/meridian-fm/assetcond/internal/model"
)

const (
	// failureThreshold is the condition percentage below which a
	// component is considered failed.
	failureThreshold = 20.0

	// defaultRate applies when fewer than two usable points exist.
	defaultRate = 2.0

	minRate = 0.5
	maxRate = 10.0

	// defaultCondition applies when there is no history at all.
	defaultCondition = 70.0

	// recentWindowYears: an observation this close to now is trusted
	// directly instead of extrapolated.
	recentWindowYears = 2.0
)

// Predictor computes deterioration predictions, optionally enriched
// with narrative insights from an injected generator.
type Predictor struct {
	insights InsightGenerator
}

// New returns a Predictor. A nil generator falls back to the static
// deterministic one.
func New(gen InsightGenerator) *Predictor {
	if gen == nil {
		gen = StaticInsights{}
	}
	return &Predictor{insights: gen}
}

// Predict computes the numeric prediction for one component from its
// historical series. Pure and deterministic: same inputs, same output.
func (p *Predictor) Predict(componentCode string, installYear int, series []model.Observation, currentYear int) model.Prediction {
	sorted := make([]model.Observation, len(series))
	copy(sorted, series)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Age < sorted[j].Age })

	currentAge := float64(currentYear - installYear)
	rate := deteriorationRate(sorted)
	estimate := currentConditionEstimate(sorted, currentAge, rate)

	yearsToFailure := math.Max(0, (estimate-failureThreshold)/rate)
	failureYear := currentYear + int(math.Round(yearsToFailure))
	remainingLife := failureYear - currentYear
	if remainingLife < 0 {
		remainingLife = 0
	}

	pred := model.Prediction{
		ComponentCode:          componentCode,
		PredictedFailureYear:   failureYear,
		PredictedRemainingLife: remainingLife,
		CurrentCondition:       estimate,
		ConfidenceScore:        confidenceScore(sorted),
		DeteriorationRate:      rate,
		RiskLevel:              classifyRisk(remainingLife, estimate),
		DataPoints:             len(sorted),
	}

	zap.L().Debug("predict: prediction computed",
		zap.String("component_code", componentCode),
		zap.Float64("rate", pred.DeteriorationRate),
		zap.Float64("current_condition", pred.CurrentCondition),
		zap.Int("failure_year", pred.PredictedFailureYear),
		zap.Int("confidence", pred.ConfidenceScore),
		zap.String("risk", string(pred.RiskLevel)),
	)

	return pred
}

// PredictWithInsights runs Predict and attaches narrative insights.
// Generator failure never invalidates the numeric result: it degrades
// to the static fallback sentences.
func (p *Predictor) PredictWithInsights(ctx context.Context, componentCode string, installYear int, series []model.Observation, currentYear int) model.Prediction {
	pred := p.Predict(componentCode, installYear, series, currentYear)

	insights, err := p.insights.Generate(ctx, pred, series)
	if err != nil {
		zap.L().Warn("predict: insight generation failed, using fallback",
			zap.String("component_code", componentCode),
			zap.Error(err),
		)
		insights, _ = StaticInsights{}.Generate(ctx, pred, series)
	}
	pred.Insights = insights
	return pred
}

// deteriorationRate averages the pairwise condition loss per year over
// consecutive observations, clamped to [minRate, maxRate]. Pairs with
// a non-positive age delta are skipped. series must be age-sorted.
func deteriorationRate(sorted []model.Observation) float64 {
	var sum float64
	var n int
	for i := 0; i+1 < len(sorted); i++ {
		dt := sorted[i+1].Age - sorted[i].Age
		if dt <= 0 {
			continue
		}
		sum += (sorted[i].Condition - sorted[i+1].Condition) / dt
		n++
	}

	rate := defaultRate
	if n > 0 {
		rate = sum / float64(n)
	}
	return clamp(rate, minRate, maxRate)
}

// currentConditionEstimate trusts the most recent observation when it
// is within the recent window, otherwise extrapolates along the fitted
// rate. No history at all yields the default condition.
func currentConditionEstimate(sorted []model.Observation, currentAge, rate float64) float64 {
	if len(sorted) == 0 {
		return defaultCondition
	}
	recent := sorted[len(sorted)-1]

	gap := currentAge - recent.Age
	if gap <= recentWindowYears {
		return clamp(recent.Condition, 0, 100)
	}
	return math.Round(clamp(recent.Condition-rate*gap, 0, 100))
}

// confidenceScore sums three independently-capped sub-scores: data
// volume (40 pts, reference 5 points), data span (30 pts, reference 10
// years), and recency (30 pts, decaying 2 per year of age).
func confidenceScore(sorted []model.Observation) int {
	if len(sorted) == 0 {
		return 0
	}

	volume := math.Min(40, float64(len(sorted))/5.0*40)

	span := sorted[len(sorted)-1].Age - sorted[0].Age
	spanScore := math.Min(30, span/10.0*30)

	recency := math.Max(0, 30-sorted[len(sorted)-1].Age*2)

	total := clamp(volume+spanScore+recency, 0, 100)
	return int(math.Round(total))
}

// classifyRisk applies the ordered rules; the first match wins.
func classifyRisk(remainingLife int, condition float64) model.RiskLevel {
	switch {
	case remainingLife <= 1 || condition <= 20:
		return model.RiskCritical
	case remainingLife <= 3 || condition <= 40:
		return model.RiskHigh
	case remainingLife <= 5 || condition <= 60:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
