// Package orchestration drives evaluation runs: it validates a model against
// its plugin, executes the suite, persists results, and derives the
// grade-level rating.
package orchestration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/voicelearn/vleval/internal/gradelevel"
	"github.com/voicelearn/vleval/internal/models"
	"github.com/voicelearn/vleval/internal/plugins"
	"github.com/voicelearn/vleval/internal/statistics"
)

// RunStore is the persistence surface the runner needs.
type RunStore interface {
	Create(ctx context.Context, run *models.EvalRun) error
	Update(ctx context.Context, run *models.EvalRun) error
	AddResults(ctx context.Context, runID string, results []models.TaskResult) error
	SaveRating(ctx context.Context, rating *models.GradeLevelRating) error
}

// Event describes a run state change, consumed by the CLI progress display
// and the websocket hub.
type Event struct {
	RunID           string  `json:"run_id"`
	ModelID         string  `json:"model_id"`
	Status          string  `json:"status"`
	PercentComplete float64 `json:"percent_complete"`
	CurrentTask     string  `json:"current_task,omitempty"`
	Message         string  `json:"message,omitempty"`
}

// Notifier receives run events. Implementations must not block.
type Notifier func(Event)

// Runner executes benchmark suites against models.
type Runner struct {
	runs      RunStore
	registry  *plugins.Registry
	logger    *slog.Logger
	threshold float64
	notify    Notifier
}

// Option configures a Runner.
type Option func(*Runner)

// WithThreshold overrides the grade-level passing threshold.
func WithThreshold(threshold float64) Option {
	return func(r *Runner) { r.threshold = threshold }
}

// WithNotifier registers a run event listener.
func WithNotifier(n Notifier) Option {
	return func(r *Runner) { r.notify = n }
}

// NewRunner creates a Runner. logger may be nil.
func NewRunner(runs RunStore, registry *plugins.Registry, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		runs:      runs,
		registry:  registry,
		logger:    logger,
		threshold: gradelevel.DefaultThreshold,
		notify:    func(Event) {},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Execute runs the suite against the model and returns the completed run
// with its results attached. The run row is persisted through every state
// transition, so a failure still leaves a failed run behind.
func (r *Runner) Execute(ctx context.Context, model models.ModelSpec, suite models.BenchmarkSuite, config map[string]any) (*models.EvalRun, error) {
	evaluator := r.registry.FirstForModelType(model.ModelType)
	if evaluator == nil {
		return nil, fmt.Errorf("no evaluator registered for model type %s", model.ModelType)
	}
	if err := evaluator.Validate(model); err != nil {
		return nil, fmt.Errorf("model %s failed validation: %w", model.Slug, err)
	}

	now := time.Now().UTC()
	run := &models.EvalRun{
		ModelID:    model.ID,
		SuiteID:    suite.ID,
		Status:     models.RunRunning,
		TasksTotal: len(suite.Tasks),
		RunConfig:  config,
		StartedAt:  now.Format(time.RFC3339),
	}
	if err := r.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("creating run: %w", err)
	}

	runsStarted.WithLabelValues(string(model.ModelType)).Inc()
	r.logger.Info("run started",
		"run_id", run.ID, "model", model.Slug, "suite", suite.Slug, "tasks", len(suite.Tasks))
	r.notify(Event{RunID: run.ID, ModelID: model.ID, Status: string(models.RunRunning)})

	progress := func(u plugins.ProgressUpdate) {
		run.CurrentTask = u.TaskName
		run.ProgressPercent = u.PercentComplete
		run.TasksCompleted = u.TaskIndex
		if err := r.runs.Update(ctx, run); err != nil {
			r.logger.Warn("recording run progress", "run_id", run.ID, "error", err)
		}
		r.notify(Event{
			RunID:           run.ID,
			ModelID:         model.ID,
			Status:          string(models.RunRunning),
			PercentComplete: u.PercentComplete,
			CurrentTask:     u.TaskName,
		})
	}

	results, err := evaluator.Run(ctx, model, benchmarkIDs(suite), config, progress)
	if err != nil {
		r.fail(ctx, run, model, err)
		return nil, fmt.Errorf("running suite %s: %w", suite.Slug, err)
	}
	applySuiteWeights(results, suite)

	if err := r.runs.AddResults(ctx, run.ID, results); err != nil {
		r.fail(ctx, run, model, err)
		return nil, fmt.Errorf("persisting results: %w", err)
	}

	rating := gradelevel.ComputeRating(model.ID, run.ID, results, r.threshold)
	if err := r.runs.SaveRating(ctx, &rating); err != nil {
		r.fail(ctx, run, model, err)
		return nil, fmt.Errorf("persisting rating: %w", err)
	}

	run.Status = models.RunCompleted
	run.TasksCompleted = len(results)
	run.ProgressPercent = 100
	run.CurrentTask = ""
	run.OverallScore = overallScore(results)
	run.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	run.Results = results
	if err := r.runs.Update(ctx, run); err != nil {
		return nil, fmt.Errorf("completing run: %w", err)
	}

	elapsed := time.Since(now)
	runsCompleted.WithLabelValues(string(model.ModelType)).Inc()
	runDuration.WithLabelValues(string(model.ModelType)).Observe(elapsed.Seconds())
	r.logger.Info("run completed",
		"run_id", run.ID, "model", model.Slug, "elapsed", elapsed, "overall_score", run.OverallScore)
	r.notify(Event{RunID: run.ID, ModelID: model.ID, Status: string(models.RunCompleted), PercentComplete: 100})

	return run, nil
}

// Job pairs a model with the suite to run against it.
type Job struct {
	Model  models.ModelSpec
	Suite  models.BenchmarkSuite
	Config map[string]any
}

// ExecuteAll runs jobs with bounded parallelism and returns the completed
// runs in job order. The first error cancels outstanding jobs.
func (r *Runner) ExecuteAll(ctx context.Context, jobs []Job, concurrency int) ([]*models.EvalRun, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	runs := make([]*models.EvalRun, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			run, err := r.Execute(gctx, job.Model, job.Suite, job.Config)
			if err != nil {
				return err
			}
			runs[i] = run
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *Runner) fail(ctx context.Context, run *models.EvalRun, model models.ModelSpec, cause error) {
	run.Status = models.RunFailed
	run.ErrorMessage = cause.Error()
	run.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	if err := r.runs.Update(ctx, run); err != nil {
		r.logger.Error("recording run failure", "run_id", run.ID, "error", err)
	}

	runsFailed.WithLabelValues(string(model.ModelType)).Inc()
	r.logger.Error("run failed", "run_id", run.ID, "model", model.Slug, "error", cause)
	r.notify(Event{RunID: run.ID, ModelID: model.ID, Status: string(models.RunFailed), Message: cause.Error()})
}

func benchmarkIDs(suite models.BenchmarkSuite) []string {
	ids := make([]string, 0, len(suite.Tasks))
	for _, task := range suite.Tasks {
		id := task.BenchmarkID
		if id == "" {
			id = task.Name
		}
		ids = append(ids, id)
	}
	return ids
}

// applySuiteWeights copies task weights from the suite definition onto the
// matching results, so weighted tier scores honor the suite's weighting.
func applySuiteWeights(results []models.TaskResult, suite models.BenchmarkSuite) {
	weights := make(map[string]float64, len(suite.Tasks))
	for _, task := range suite.Tasks {
		id := task.BenchmarkID
		if id == "" {
			id = task.Name
		}
		weights[id] = task.EffectiveWeight()
	}
	for i := range results {
		if w, ok := weights[results[i].BenchmarkID]; ok {
			results[i].Weight = w
		}
	}
}

// overallScore is the weighted mean of all scored results, nil when nothing
// scored.
func overallScore(results []models.TaskResult) *float64 {
	var sum, weight float64
	for _, res := range results {
		if !res.Scored() {
			continue
		}
		w := res.EffectiveWeight()
		sum += *res.Score * w
		weight += w
	}
	if weight == 0 {
		return nil
	}
	return models.Float64Ptr(statistics.Round2(sum / weight))
}
