// Package plugins defines the evaluation-backend abstraction: each plugin
// wraps an external harness and produces normalized task results.
package plugins

import (
	"context"
	"fmt"

	"github.com/voicelearn/vleval/internal/models"
)

// Metadata describes an evaluation plugin.
type Metadata struct {
	Name            string               `json:"name"`
	PluginID        string               `json:"plugin_id"`
	Version         string               `json:"version"`
	Description     string               `json:"description"`
	PluginType      models.ModelCategory `json:"plugin_type"`
	UpstreamProject string               `json:"upstream_project,omitempty"`
	UpstreamURL     string               `json:"upstream_url,omitempty"`
	RequiresGPU     bool                 `json:"requires_gpu"`
}

// Benchmark is one benchmark an evaluator can run.
type Benchmark struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Tier    models.Tier `json:"education_tier,omitempty"`
	Subject string      `json:"subject,omitempty"`
	Metric  string      `json:"metric"`
}

// Evaluator is the capability contract every evaluation backend implements.
// Run executes the given benchmarks against the model and returns one
// normalized TaskResult per benchmark task.
type Evaluator interface {
	Info() Metadata
	SupportedBenchmarks() []Benchmark
	Validate(model models.ModelSpec) error
	Run(ctx context.Context, model models.ModelSpec, benchmarkIDs []string, config map[string]any, progress ProgressFunc) ([]models.TaskResult, error)
}

// ProgressFunc receives per-task progress updates during a run. Callers may
// pass nil when they do not care about progress.
type ProgressFunc func(update ProgressUpdate)

// ProgressUpdate is emitted as an evaluator works through its benchmarks.
// TaskIndex counts finished benchmarks, so the first update carries 0.
type ProgressUpdate struct {
	TaskName        string  `json:"task_name"`
	TaskIndex       int     `json:"task_index"`
	TotalTasks      int     `json:"total_tasks"`
	PercentComplete float64 `json:"percent_complete"`
	Message         string  `json:"message,omitempty"`
}

// emitProgress reports the benchmark about to run. progress may be nil.
func emitProgress(progress ProgressFunc, benchmarkID string, index, total int) {
	if progress == nil {
		return
	}
	progress(ProgressUpdate{
		TaskName:        benchmarkID,
		TaskIndex:       index,
		TotalTasks:      total,
		PercentComplete: 100 * float64(index) / float64(total),
	})
}

// Registry holds the evaluators available to a process. It is constructed
// explicitly at startup and passed to whoever needs it; there is no package
// global.
type Registry struct {
	plugins map[string]Evaluator
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]Evaluator)}
}

// Register adds an evaluator. Registering the same plugin ID twice is an
// error.
func (r *Registry) Register(e Evaluator) error {
	id := e.Info().PluginID
	if id == "" {
		return fmt.Errorf("plugin has empty ID")
	}
	if _, exists := r.plugins[id]; exists {
		return fmt.Errorf("plugin %q already registered", id)
	}
	r.plugins[id] = e
	r.order = append(r.order, id)
	return nil
}

// Get returns the evaluator with the given plugin ID, or nil.
func (r *Registry) Get(pluginID string) Evaluator {
	return r.plugins[pluginID]
}

// All returns every registered evaluator in registration order.
func (r *Registry) All() []Evaluator {
	out := make([]Evaluator, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.plugins[id])
	}
	return out
}

// ForModelType returns the evaluators handling the given model type, in
// registration order.
func (r *Registry) ForModelType(t models.ModelCategory) []Evaluator {
	var out []Evaluator
	for _, id := range r.order {
		if r.plugins[id].Info().PluginType == t {
			out = append(out, r.plugins[id])
		}
	}
	return out
}

// FirstForModelType returns the first evaluator for a model type, or nil.
func (r *Registry) FirstForModelType(t models.ModelCategory) Evaluator {
	matches := r.ForModelType(t)
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

// FindForBenchmark returns the first evaluator supporting the benchmark ID,
// or nil.
func (r *Registry) FindForBenchmark(benchmarkID string) Evaluator {
	for _, id := range r.order {
		for _, b := range r.plugins[id].SupportedBenchmarks() {
			if b.ID == benchmarkID {
				return r.plugins[id]
			}
		}
	}
	return nil
}

// Benchmarks returns every benchmark from every registered evaluator.
func (r *Registry) Benchmarks() []Benchmark {
	var out []Benchmark
	for _, id := range r.order {
		out = append(out, r.plugins[id].SupportedBenchmarks()...)
	}
	return out
}
