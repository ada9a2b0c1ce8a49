package model

import "time"

// Assessment is a single recorded condition observation for one component.
// Immutable once recorded; identified by (ProjectID, ComponentCode, AssessedAt).
type Assessment struct {
	ID                  string    `json:"id"`
	ProjectID           string    `json:"project_id"`
	BuildingID          string    `json:"building_id"`
	SystemCode          string    `json:"system_code"` // Uniformat group, e.g. "D30"
	ComponentCode       string    `json:"component_code"`
	ConditionLabel      string    `json:"condition_label"` // range label, e.g. "75-50%"
	Age                 float64   `json:"age"`             // years since install at assessment time
	AssessedAt          time.Time `json:"assessed_at"`
	Observations        string    `json:"observations,omitempty"`
	EstimatedRepairCost float64   `json:"estimated_repair_cost"` // 0 when unpriced
}

// ComponentCI is the normalized condition of a single component,
// projected on demand from its latest assessment.
type ComponentCI struct {
	ComponentCode  string    `json:"component_code"`
	CI             float64   `json:"ci"`     // 0-100
	Weight         float64   `json:"weight"` // replacement/repair cost, fallback 1
	AssessmentDate time.Time `json:"assessment_date"`
}

// SystemResult aggregates component CIs for one building system.
type SystemResult struct {
	SystemCode     string  `json:"system_code,omitempty"`
	CI             float64 `json:"ci"`
	ComponentCount int     `json:"component_count"`
	TotalWeight    float64 `json:"total_weight"`
}

// BuildingResult aggregates every component in a building and keeps
// the per-component breakdown for audit display.
type BuildingResult struct {
	BuildingID        string        `json:"building_id,omitempty"`
	CI                float64       `json:"ci"`
	ComponentCount    int           `json:"component_count"`
	TotalWeight       float64       `json:"total_weight"`
	CalculationMethod string        `json:"calculation_method"`
	Breakdown         []ComponentCI `json:"breakdown,omitempty"`
}

// Calculation method tags on BuildingResult.
const (
	MethodWeightedByCost = "weighted_avg_by_replacement_cost"
	MethodDefault        = "default"
)
