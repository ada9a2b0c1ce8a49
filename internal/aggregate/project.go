package aggregate

import (
	"sort"

	"github.com/meridian-fm/assetcond/internal/condition"
	"github.com/meridian-fm/assetcond/internal/model"
)

// LatestComponentCIs projects assessments to one ComponentCI per
// component, keeping the most recent assessment. Ordering is explicit:
// later AssessedAt wins, ties break on higher ID, so the projection is
// deterministic regardless of input order.
func LatestComponentCIs(assessments []model.Assessment) []model.ComponentCI {
	latest := make(map[string]model.Assessment, len(assessments))
	for _, a := range assessments {
		prev, ok := latest[a.ComponentCode]
		if !ok || newerAssessment(a, prev) {
			latest[a.ComponentCode] = a
		}
	}

	out := make([]model.ComponentCI, 0, len(latest))
	for _, a := range latest {
		out = append(out, model.ComponentCI{
			ComponentCode:  a.ComponentCode,
			CI:             condition.ToCI(a.ConditionLabel),
			Weight:         a.EstimatedRepairCost,
			AssessmentDate: a.AssessedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ComponentCode < out[j].ComponentCode
	})
	return out
}

// GroupBySystem splits assessments by their system code, preserving
// nothing about input order (callers aggregate each group).
func GroupBySystem(assessments []model.Assessment) map[string][]model.Assessment {
	groups := make(map[string][]model.Assessment)
	for _, a := range assessments {
		groups[a.SystemCode] = append(groups[a.SystemCode], a)
	}
	return groups
}

func newerAssessment(a, b model.Assessment) bool {
	if !a.AssessedAt.Equal(b.AssessedAt) {
		return a.AssessedAt.After(b.AssessedAt)
	}
	return a.ID > b.ID
}
