package models

// BenchmarkSuite is an ordered collection of benchmark tasks for one model type.
type BenchmarkSuite struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	ModelType   ModelCategory   `json:"model_type"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	Tasks       []BenchmarkTask `json:"tasks,omitempty"`
	IsBuiltin   bool            `json:"is_builtin"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   string          `json:"created_at,omitempty"`
	UpdatedAt   string          `json:"updated_at,omitempty"`
}

// BenchmarkTask is a single evaluation task within a suite.
type BenchmarkTask struct {
	ID            string         `json:"id"`
	SuiteID       string         `json:"suite_id"`
	Name          string         `json:"name"`
	TaskType      string         `json:"task_type"`
	BenchmarkID   string         `json:"benchmark_id"`
	Description   string         `json:"description,omitempty"`
	Weight        float64        `json:"weight"`
	EducationTier Tier           `json:"education_tier,omitempty"`
	Subject       string         `json:"subject,omitempty"`
	OrderIndex    int            `json:"order_index"`
	Config        map[string]any `json:"config,omitempty"`
	CreatedAt     string         `json:"created_at,omitempty"`
}

// EffectiveWeight returns the task weight, defaulting to 1.0 when unset.
func (t BenchmarkTask) EffectiveWeight() float64 {
	if t.Weight <= 0 {
		return 1.0
	}
	return t.Weight
}
