package models

// Baseline is a named snapshot of a completed run, used as the comparison
// anchor for regression checks.
type Baseline struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ModelID     string `json:"model_id"`
	RunID       string `json:"run_id"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}
