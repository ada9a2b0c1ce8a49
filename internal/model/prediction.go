package model

// RiskLevel classifies how urgently a component needs intervention.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Observation is one historical (age, condition) point for a component.
type Observation struct {
	Age          float64 `json:"age"`       // years since install
	Condition    float64 `json:"condition"` // 0-100
	Observations string  `json:"observations,omitempty"`
}

// Prediction is the forward-looking deterioration estimate for one
// component. Recomputed per request, never persisted as authoritative.
type Prediction struct {
	ComponentCode          string    `json:"component_code"`
	PredictedFailureYear   int       `json:"predicted_failure_year"`
	PredictedRemainingLife int       `json:"predicted_remaining_life"`
	CurrentCondition       float64   `json:"current_condition_estimate"` // 0-100
	ConfidenceScore        int       `json:"confidence_score"`           // 0-100
	DeteriorationRate      float64   `json:"deterioration_rate"`         // %/year, clamped 0.5-10
	RiskLevel              RiskLevel `json:"risk_level"`
	Insights               []string  `json:"insights,omitempty"`
	DataPoints             int       `json:"data_points"`
}
