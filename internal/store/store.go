// Package store persists the three durable entities of the platform:
// assessment observations, criteria, and criteria scores. Everything
// else the engine produces is a projection and is never stored as
// authoritative.
package store

import (
	"context"

	"github.com/meridian-fm/assetcond/internal/model"
)

// AssessmentFilter narrows assessment listings.
type AssessmentFilter struct {
	ProjectID     string `json:"project_id,omitempty"`
	BuildingID    string `json:"building_id,omitempty"`
	SystemCode    string `json:"system_code,omitempty"`
	ComponentCode string `json:"component_code,omitempty"`
	Limit         int    `json:"limit,omitempty"`
}

// Store defines the persistence interface for the assessment platform.
type Store interface {
	// Assessments
	SaveAssessment(ctx context.Context, a model.Assessment) (*model.Assessment, error)
	ListAssessments(ctx context.Context, filter AssessmentFilter) ([]model.Assessment, error)
	// ComponentHistory returns every assessment for one component,
	// oldest first (assessed_at ascending, id ascending on ties).
	ComponentHistory(ctx context.Context, projectID, componentCode string) ([]model.Assessment, error)

	// Criteria
	UpsertCriterion(ctx context.Context, c model.Criterion) error
	DeactivateCriterion(ctx context.Context, id string) error
	ListCriteria(ctx context.Context, activeOnly bool) ([]model.Criterion, error)

	// Criteria scores (last write wins per project+criterion)
	UpsertScore(ctx context.Context, s model.CriteriaScore) error
	ListScores(ctx context.Context, projectID string) ([]model.CriteriaScore, error)
	ListAllScores(ctx context.Context) ([]model.CriteriaScore, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
