// Package aggregate rolls component Condition Index values up the
// facility hierarchy (system, building, portfolio) as cost-weighted
// averages.
package aggregate

import (
	"math"

	"go.uber.org/zap"

	"github.com/meridian-fm/assetcond/internal/condition"
	"github.com/meridian-fm/assetcond/internal/model"
)

// fallbackWeight keeps unpriced components in the average instead of
// letting a zero cost erase them.
const fallbackWeight = 1.0

// effectiveWeight returns the component's cost weight, or the fallback
// when the cost is absent or non-positive.
func effectiveWeight(w float64) float64 {
	if w <= 0 {
		return fallbackWeight
	}
	return w
}

// weightedAverage computes Σ(ci·w)/Σ(w) over the pairs, rounded to two
// decimals. A zero total weight yields the default CI, never NaN.
func weightedAverage(cis, weights []float64) (ci, totalWeight float64) {
	var sum, wsum float64
	for i := range cis {
		sum += cis[i] * weights[i]
		wsum += weights[i]
	}
	if wsum <= 0 {
		return condition.DefaultCI, 0
	}
	return math.Round(sum/wsum*100) / 100, wsum
}

// SystemCI aggregates the components of one system.
func SystemCI(systemCode string, components []model.ComponentCI) model.SystemResult {
	if len(components) == 0 {
		return model.SystemResult{
			SystemCode: systemCode,
			CI:         condition.DefaultCI,
		}
	}

	cis := make([]float64, len(components))
	weights := make([]float64, len(components))
	for i, c := range components {
		cis[i] = c.CI
		weights[i] = effectiveWeight(c.Weight)
	}
	ci, total := weightedAverage(cis, weights)

	return model.SystemResult{
		SystemCode:     systemCode,
		CI:             ci,
		ComponentCount: len(components),
		TotalWeight:    total,
	}
}

// BuildingCI aggregates every component in a building, returning the
// per-component breakdown (with resolved weights) alongside the CI.
func BuildingCI(buildingID string, components []model.ComponentCI) model.BuildingResult {
	if len(components) == 0 {
		return model.BuildingResult{
			BuildingID:        buildingID,
			CI:                condition.DefaultCI,
			CalculationMethod: model.MethodDefault,
		}
	}

	breakdown := make([]model.ComponentCI, len(components))
	cis := make([]float64, len(components))
	weights := make([]float64, len(components))
	for i, c := range components {
		w := effectiveWeight(c.Weight)
		cis[i] = c.CI
		weights[i] = w
		breakdown[i] = model.ComponentCI{
			ComponentCode:  c.ComponentCode,
			CI:             c.CI,
			Weight:         w,
			AssessmentDate: c.AssessmentDate,
		}
	}
	ci, total := weightedAverage(cis, weights)

	zap.L().Debug("aggregate: building CI computed",
		zap.String("building_id", buildingID),
		zap.Float64("ci", ci),
		zap.Int("components", len(components)),
		zap.Float64("total_weight", total),
	)

	return model.BuildingResult{
		BuildingID:        buildingID,
		CI:                ci,
		ComponentCount:    len(components),
		TotalWeight:       total,
		CalculationMethod: model.MethodWeightedByCost,
		Breakdown:         breakdown,
	}
}

// PortfolioCI averages building-level CIs weighted by each building's
// total component weight. Equivalent to flattening all components
// across buildings and re-averaging.
func PortfolioCI(buildings []model.BuildingResult) float64 {
	if len(buildings) == 0 {
		return condition.DefaultCI
	}

	cis := make([]float64, len(buildings))
	weights := make([]float64, len(buildings))
	for i, b := range buildings {
		cis[i] = b.CI
		weights[i] = b.TotalWeight
	}
	ci, _ := weightedAverage(cis, weights)
	return ci
}
