package orchestration

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicelearn/vleval/internal/models"
	"github.com/voicelearn/vleval/internal/plugins"
)

type fakeRunStore struct {
	mu      sync.Mutex
	runs    map[string]*models.EvalRun
	updates []models.EvalRun
	results map[string][]models.TaskResult
	ratings map[string]*models.GradeLevelRating
	nextID  int

	failAddResults bool
}

func newFakeRunStore() *fakeRunStore {
	return &fakeRunStore{
		runs:    make(map[string]*models.EvalRun),
		results: make(map[string][]models.TaskResult),
		ratings: make(map[string]*models.GradeLevelRating),
	}
}

func (s *fakeRunStore) Create(_ context.Context, run *models.EvalRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	run.ID = string(rune('a' + s.nextID - 1))
	copied := *run
	s.runs[run.ID] = &copied
	return nil
}

func (s *fakeRunStore) Update(_ context.Context, run *models.EvalRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[run.ID]; !ok {
		return errors.New("run not found")
	}
	copied := *run
	s.runs[run.ID] = &copied
	s.updates = append(s.updates, copied)
	return nil
}

func (s *fakeRunStore) AddResults(_ context.Context, runID string, results []models.TaskResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAddResults {
		return errors.New("disk full")
	}
	s.results[runID] = results
	return nil
}

func (s *fakeRunStore) SaveRating(_ context.Context, rating *models.GradeLevelRating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratings[rating.RunID] = rating
	return nil
}

type stubEvaluator struct {
	results []models.TaskResult
	runErr  error
	valErr  error
}

func (s *stubEvaluator) Info() plugins.Metadata {
	return plugins.Metadata{PluginID: "stub", PluginType: models.CategoryLLM}
}
func (s *stubEvaluator) SupportedBenchmarks() []plugins.Benchmark { return nil }
func (s *stubEvaluator) Validate(models.ModelSpec) error          { return s.valErr }
func (s *stubEvaluator) Run(_ context.Context, _ models.ModelSpec, benchmarkIDs []string, _ map[string]any, progress plugins.ProgressFunc) ([]models.TaskResult, error) {
	if progress != nil {
		for i, id := range benchmarkIDs {
			progress(plugins.ProgressUpdate{
				TaskName:        id,
				TaskIndex:       i,
				TotalTasks:      len(benchmarkIDs),
				PercentComplete: 100 * float64(i) / float64(len(benchmarkIDs)),
			})
		}
	}
	return s.results, s.runErr
}

func testRegistry(t *testing.T, e plugins.Evaluator) *plugins.Registry {
	t.Helper()
	r := plugins.NewRegistry()
	require.NoError(t, r.Register(e))
	return r
}

func testSuite() models.BenchmarkSuite {
	return models.BenchmarkSuite{
		ID:   "suite-1",
		Slug: "s",
		Tasks: []models.BenchmarkTask{
			{Name: "GSM8K", BenchmarkID: "gsm8k", Weight: 2.0, EducationTier: models.TierElementary},
			{Name: "ARC Easy", BenchmarkID: "arc_easy", EducationTier: models.TierElementary},
		},
	}
}

func testModel() models.ModelSpec {
	return models.ModelSpec{ID: "model-1", Slug: "m", ModelType: models.CategoryLLM}
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestExecuteCompletesRun(t *testing.T) {
	store := newFakeRunStore()
	eval := &stubEvaluator{results: []models.TaskResult{
		{TaskName: "GSM8K", BenchmarkID: "gsm8k", Score: models.Float64Ptr(80), EducationTier: models.TierElementary, Weight: 1.0},
		{TaskName: "ARC Easy", BenchmarkID: "arc_easy", Score: models.Float64Ptr(90), EducationTier: models.TierElementary, Weight: 1.0},
	}}

	var events []Event
	runner := NewRunner(store, testRegistry(t, eval), discard(),
		WithNotifier(func(e Event) { events = append(events, e) }))

	run, err := runner.Execute(context.Background(), testModel(), testSuite(), nil)
	require.NoError(t, err)

	assert.Equal(t, models.RunCompleted, run.Status)
	assert.Equal(t, 2, run.TasksCompleted)
	require.NotNil(t, run.OverallScore)
	// gsm8k carries the suite weight 2.0: (80*2 + 90*1) / 3.
	assert.InDelta(t, 83.33, *run.OverallScore, 0.001)

	stored := store.runs[run.ID]
	require.NotNil(t, stored)
	assert.Equal(t, models.RunCompleted, stored.Status)
	assert.NotEmpty(t, stored.CompletedAt)

	rating := store.ratings[run.ID]
	require.NotNil(t, rating)
	require.NotNil(t, rating.MaxPassingTier)
	assert.Equal(t, models.TierElementary, *rating.MaxPassingTier)

	require.Len(t, events, 4, "start, one per task, completion")
	assert.Equal(t, string(models.RunRunning), events[0].Status)
	assert.Equal(t, string(models.RunCompleted), events[len(events)-1].Status)
}

func TestExecuteStreamsTaskProgress(t *testing.T) {
	store := newFakeRunStore()
	eval := &stubEvaluator{results: []models.TaskResult{
		{TaskName: "GSM8K", BenchmarkID: "gsm8k", Score: models.Float64Ptr(80), EducationTier: models.TierElementary, Weight: 1.0},
		{TaskName: "ARC Easy", BenchmarkID: "arc_easy", Score: models.Float64Ptr(90), EducationTier: models.TierElementary, Weight: 1.0},
	}}

	var events []Event
	runner := NewRunner(store, testRegistry(t, eval), discard(),
		WithNotifier(func(e Event) { events = append(events, e) }))

	run, err := runner.Execute(context.Background(), testModel(), testSuite(), nil)
	require.NoError(t, err)

	// Mid-run events carry the task being evaluated and its position.
	var taskEvents []Event
	for _, e := range events {
		if e.CurrentTask != "" {
			taskEvents = append(taskEvents, e)
		}
	}
	require.Len(t, taskEvents, 2)
	assert.Equal(t, "gsm8k", taskEvents[0].CurrentTask)
	assert.InDelta(t, 0.0, taskEvents[0].PercentComplete, 1e-9)
	assert.Equal(t, "arc_easy", taskEvents[1].CurrentTask)
	assert.InDelta(t, 50.0, taskEvents[1].PercentComplete, 1e-9)

	// Progress is persisted on the run row as tasks advance.
	var sawGSM bool
	for _, u := range store.updates {
		if u.CurrentTask == "gsm8k" {
			sawGSM = true
		}
	}
	assert.True(t, sawGSM, "run row records the in-flight task")

	// The completed row leaves no task in flight.
	final := store.runs[run.ID]
	require.NotNil(t, final)
	assert.Empty(t, final.CurrentTask)
	assert.InDelta(t, 100.0, final.ProgressPercent, 1e-9)
}

func TestExecuteAppliesSuiteWeights(t *testing.T) {
	store := newFakeRunStore()
	eval := &stubEvaluator{results: []models.TaskResult{
		{TaskName: "GSM8K", BenchmarkID: "gsm8k", Score: models.Float64Ptr(50), Weight: 1.0},
	}}
	runner := NewRunner(store, testRegistry(t, eval), discard())

	run, err := runner.Execute(context.Background(), testModel(), testSuite(), nil)
	require.NoError(t, err)

	results := store.results[run.ID]
	require.Len(t, results, 1)
	assert.Equal(t, 2.0, results[0].Weight)
}

func TestExecuteValidationFailure(t *testing.T) {
	store := newFakeRunStore()
	eval := &stubEvaluator{valErr: errors.New("no source uri")}
	runner := NewRunner(store, testRegistry(t, eval), discard())

	_, err := runner.Execute(context.Background(), testModel(), testSuite(), nil)
	require.Error(t, err)
	assert.Empty(t, store.runs, "no run row is created for a model that fails validation")
}

func TestExecuteEvaluatorFailureMarksRunFailed(t *testing.T) {
	store := newFakeRunStore()
	eval := &stubEvaluator{runErr: errors.New("harness crashed")}

	var events []Event
	runner := NewRunner(store, testRegistry(t, eval), discard(),
		WithNotifier(func(e Event) { events = append(events, e) }))

	_, err := runner.Execute(context.Background(), testModel(), testSuite(), nil)
	require.Error(t, err)

	require.Len(t, store.runs, 1)
	for _, run := range store.runs {
		assert.Equal(t, models.RunFailed, run.Status)
		assert.Contains(t, run.ErrorMessage, "harness crashed")
	}
	require.NotEmpty(t, events)
	assert.Equal(t, string(models.RunFailed), events[len(events)-1].Status)
}

func TestExecutePersistFailure(t *testing.T) {
	store := newFakeRunStore()
	store.failAddResults = true
	eval := &stubEvaluator{results: []models.TaskResult{
		{TaskName: "GSM8K", BenchmarkID: "gsm8k", Score: models.Float64Ptr(80)},
	}}
	runner := NewRunner(store, testRegistry(t, eval), discard())

	_, err := runner.Execute(context.Background(), testModel(), testSuite(), nil)
	require.Error(t, err)
	for _, run := range store.runs {
		assert.Equal(t, models.RunFailed, run.Status)
	}
}

func TestExecuteNoEvaluator(t *testing.T) {
	runner := NewRunner(newFakeRunStore(), plugins.NewRegistry(), discard())
	_, err := runner.Execute(context.Background(), testModel(), testSuite(), nil)
	assert.Error(t, err)
}

func TestExecuteAll(t *testing.T) {
	store := newFakeRunStore()
	eval := &stubEvaluator{results: []models.TaskResult{
		{TaskName: "GSM8K", BenchmarkID: "gsm8k", Score: models.Float64Ptr(75)},
	}}
	runner := NewRunner(store, testRegistry(t, eval), discard())

	jobs := []Job{
		{Model: testModel(), Suite: testSuite()},
		{Model: models.ModelSpec{ID: "model-2", Slug: "m2", ModelType: models.CategoryLLM}, Suite: testSuite()},
	}
	runs, err := runner.ExecuteAll(context.Background(), jobs, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "model-1", runs[0].ModelID)
	assert.Equal(t, "model-2", runs[1].ModelID)
}
