package models

// RunStatus tracks the lifecycle of an evaluation run.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunQueued    RunStatus = "queued"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// EvalRun is one evaluation of a model against a suite.
type EvalRun struct {
	ID              string         `json:"id"`
	ModelID         string         `json:"model_id"`
	SuiteID         string         `json:"suite_id"`
	Status          RunStatus      `json:"status"`
	ProgressPercent float64        `json:"progress_percent"`
	CurrentTask     string         `json:"current_task,omitempty"`
	TasksCompleted  int            `json:"tasks_completed"`
	TasksTotal      int            `json:"tasks_total"`
	OverallScore    *float64       `json:"overall_score,omitempty"`
	RunConfig       map[string]any `json:"run_config,omitempty"`
	ErrorMessage    string         `json:"error_message,omitempty"`
	TriggeredBy     string         `json:"triggered_by,omitempty"`
	QueuedAt        string         `json:"queued_at,omitempty"`
	StartedAt       string         `json:"started_at,omitempty"`
	CompletedAt     string         `json:"completed_at,omitempty"`
	CreatedAt       string         `json:"created_at,omitempty"`
	Results         []TaskResult   `json:"results,omitempty"`
}

// TaskResult is the normalized outcome of a single benchmark task execution.
// Score is on a 0-100 scale; nil means the score could not be computed.
type TaskResult struct {
	ID            string   `json:"id,omitempty"`
	RunID         string   `json:"run_id,omitempty"`
	TaskName      string   `json:"task_name"`
	BenchmarkID   string   `json:"benchmark_id,omitempty"`
	Score         *float64 `json:"score"`
	RawScore      float64  `json:"raw_score"`
	RawMetricName string   `json:"raw_metric_name"`
	EducationTier Tier     `json:"education_tier,omitempty"`
	Weight        float64  `json:"weight"`
	LatencyMs     *float64 `json:"latency_ms,omitempty"`
	Status        string   `json:"status,omitempty"`
	ErrorMessage  string   `json:"error_message,omitempty"`
	CompletedAt   string   `json:"completed_at,omitempty"`
}

// EffectiveWeight returns the result weight, defaulting to 1.0 when unset.
func (r TaskResult) EffectiveWeight() float64 {
	if r.Weight <= 0 {
		return 1.0
	}
	return r.Weight
}

// MatchKey returns the key used to pair results across runs: the task name,
// falling back to the benchmark ID when the name is absent.
func (r TaskResult) MatchKey() string {
	if r.TaskName != "" {
		return r.TaskName
	}
	return r.BenchmarkID
}

// Scored reports whether the result carries a computed score.
func (r TaskResult) Scored() bool {
	return r.Score != nil
}

// Float64Ptr returns a pointer to v. Helper for building results and fixtures.
func Float64Ptr(v float64) *float64 {
	return &v
}
