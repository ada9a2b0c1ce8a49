package model

import "time"

// Criterion is an administrator-defined, weighted evaluation axis
// (e.g. Safety, Compliance). Criteria are deactivated rather than
// deleted so historical composite scores stay reproducible.
type Criterion struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Weight   float64 `json:"weight"` // 0-100 administrative scale
	IsActive bool    `json:"is_active"`
}

// CriteriaScore is the live 0-10 assessment of one project against one
// criterion. Last write wins.
type CriteriaScore struct {
	ProjectID  string    `json:"project_id"`
	CriteriaID string    `json:"criteria_id"`
	Score      float64   `json:"score"` // 0-10
	ScoredBy   string    `json:"scored_by,omitempty"`
	ScoredAt   time.Time `json:"scored_at"`
}

// WeightedScore is one criterion's contribution to a composite score.
type WeightedScore struct {
	CriteriaID    string  `json:"criteria_id"`
	Name          string  `json:"name,omitempty"`
	Weight        float64 `json:"weight"`
	Score         float64 `json:"score"`
	WeightedScore float64 `json:"weighted_score"`
}

// CompositeResult is the 0-10 composite priority score for a project,
// a pure function of the active criteria and their recorded scores.
type CompositeResult struct {
	ProjectID      string          `json:"project_id,omitempty"`
	CompositeScore float64         `json:"composite_score"`
	CriteriaScores []WeightedScore `json:"criteria_scores,omitempty"`
	ScoredCriteria int             `json:"scored_criteria"`
	ActiveCriteria int             `json:"active_criteria"`
}
