package webapi

import (
	"github.com/voicelearn/vleval/internal/comparison"
	"github.com/voicelearn/vleval/internal/models"
	"github.com/voicelearn/vleval/internal/regression"
)

// HealthResponse is the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is returned for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// GradeMatrixEntry is one row of the grade matrix: a model's latest rating.
type GradeMatrixEntry struct {
	Model          models.ModelSpec        `json:"model"`
	RunID          string                  `json:"run_id"`
	TierScores     map[models.Tier]float64 `json:"tier_scores"`
	MaxPassingTier *models.Tier            `json:"max_passing_tier"`
	OverallScore   *float64                `json:"overall_score"`
}

// CompareResponse is the model comparison with its radar chart data.
type CompareResponse struct {
	Comparison comparison.Comparison    `json:"comparison"`
	Dimensions []string                 `json:"dimensions"`
	Radar      []comparison.RadarSeries `json:"radar"`
}

// RegressionCheckRequest selects the two result sets to compare.
type RegressionCheckRequest struct {
	ModelID string `json:"model_id"`
	// BaselineName selects a named baseline; BaselineRunID selects an
	// explicit run. Exactly one must be set.
	BaselineName  string  `json:"baseline_name,omitempty"`
	BaselineRunID string  `json:"baseline_run_id,omitempty"`
	Threshold     float64 `json:"threshold,omitempty"`
}

// RegressionCheckResponse wraps the report with the CI exit-code contract.
type RegressionCheckResponse struct {
	Report     regression.Report `json:"report"`
	CIExitCode int               `json:"ci_exit_code"`
}

// CreateRunRequest queues a run over the API.
type CreateRunRequest struct {
	ModelID string         `json:"model_id"`
	SuiteID string         `json:"suite_id"`
	Config  map[string]any `json:"config,omitempty"`
}
