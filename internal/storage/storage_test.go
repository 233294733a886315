package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicelearn/vleval/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "vleval_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenRunsMigrations(t *testing.T) {
	db := testDB(t)

	version, err := db.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	require.NoError(t, db.Health(context.Background()))
}

func TestModelStoreCRUD(t *testing.T) {
	ctx := context.Background()
	store := NewModelStore(testDB(t))

	m := &models.ModelSpec{
		Name:            "Llama 3.2 3B",
		Slug:            "llama-3.2-3b",
		ModelType:       models.CategoryLLM,
		SourceType:      "huggingface",
		SourceURI:       "meta-llama/Llama-3.2-3B",
		ParameterCountB: models.Float64Ptr(3.2),
		Tags:            []string{"small", "instruct"},
		IsActive:        true,
	}
	require.NoError(t, store.Create(ctx, m))
	assert.NotEmpty(t, m.ID)
	assert.NotEmpty(t, m.CreatedAt)

	got, err := store.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "llama-3.2-3b", got.Slug)
	assert.Equal(t, models.CategoryLLM, got.ModelType)
	require.NotNil(t, got.ParameterCountB)
	assert.Equal(t, 3.2, *got.ParameterCountB)
	assert.Equal(t, []string{"small", "instruct"}, got.Tags)

	bySlug, err := store.GetBySlug(ctx, "llama-3.2-3b")
	require.NoError(t, err)
	assert.Equal(t, m.ID, bySlug.ID)

	got.Notes = "updated"
	got.IsReference = true
	require.NoError(t, store.Update(ctx, got))

	again, err := store.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "updated", again.Notes)
	assert.True(t, again.IsReference)

	require.NoError(t, store.Delete(ctx, m.ID))
	_, err = store.Get(ctx, m.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestModelStoreListFilters(t *testing.T) {
	ctx := context.Background()
	store := NewModelStore(testDB(t))

	require.NoError(t, store.Create(ctx, &models.ModelSpec{
		Name: "A", Slug: "a", ModelType: models.CategoryLLM, IsActive: true,
	}))
	require.NoError(t, store.Create(ctx, &models.ModelSpec{
		Name: "B", Slug: "b", ModelType: models.CategorySTT, IsActive: true,
	}))
	require.NoError(t, store.Create(ctx, &models.ModelSpec{
		Name: "C", Slug: "c", ModelType: models.CategoryLLM, IsActive: false,
	}))

	all, err := store.List(ctx, ModelFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	llms, err := store.List(ctx, ModelFilter{ModelType: models.CategoryLLM})
	require.NoError(t, err)
	assert.Len(t, llms, 2)

	active, err := store.List(ctx, ModelFilter{ModelType: models.CategoryLLM, OnlyActive: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "a", active[0].Slug)
}

func TestModelStoreDuplicateSlug(t *testing.T) {
	ctx := context.Background()
	store := NewModelStore(testDB(t))

	require.NoError(t, store.Create(ctx, &models.ModelSpec{Name: "A", Slug: "dup", ModelType: models.CategoryLLM}))
	err := store.Create(ctx, &models.ModelSpec{Name: "B", Slug: "dup", ModelType: models.CategoryLLM})
	assert.Error(t, err)
}

func TestSuiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewSuiteStore(testDB(t))

	suite := &models.BenchmarkSuite{
		Name:      "Grade Level LLM",
		Slug:      "grade-level-llm",
		ModelType: models.CategoryLLM,
		IsBuiltin: true,
		IsActive:  true,
		Tasks: []models.BenchmarkTask{
			{Name: "GSM8K", BenchmarkID: "gsm8k", EducationTier: models.TierElementary, OrderIndex: 1},
			{Name: "ARC Easy", BenchmarkID: "arc_easy", EducationTier: models.TierElementary, Weight: 2.0, OrderIndex: 0},
		},
	}
	require.NoError(t, store.Create(ctx, suite))

	got, err := store.GetBySlug(ctx, "grade-level-llm")
	require.NoError(t, err)
	require.Len(t, got.Tasks, 2)
	// Tasks come back ordered by order_index.
	assert.Equal(t, "ARC Easy", got.Tasks[0].Name)
	assert.Equal(t, 2.0, got.Tasks[0].Weight)
	assert.Equal(t, "GSM8K", got.Tasks[1].Name)
	assert.Equal(t, 1.0, got.Tasks[1].Weight, "unset weight persisted as the 1.0 default")
	assert.Equal(t, got.ID, got.Tasks[0].SuiteID)

	suites, err := store.List(ctx, models.CategoryLLM)
	require.NoError(t, err)
	assert.Len(t, suites, 1)
	assert.Empty(t, suites[0].Tasks, "List does not load tasks")

	require.NoError(t, store.Delete(ctx, got.ID))
	_, err = store.Get(ctx, got.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func seedRunFixtures(t *testing.T, db *DB) (modelID, suiteID string) {
	t.Helper()
	ctx := context.Background()

	m := &models.ModelSpec{Name: "M", Slug: "m", ModelType: models.CategoryLLM, IsActive: true}
	require.NoError(t, NewModelStore(db).Create(ctx, m))

	s := &models.BenchmarkSuite{Name: "S", Slug: "s", ModelType: models.CategoryLLM, IsActive: true}
	require.NoError(t, NewSuiteStore(db).Create(ctx, s))

	return m.ID, s.ID
}

func TestRunStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	modelID, suiteID := seedRunFixtures(t, db)
	store := NewRunStore(db)

	run := &models.EvalRun{
		ModelID:    modelID,
		SuiteID:    suiteID,
		TasksTotal: 2,
		RunConfig:  map[string]any{"device": "cpu"},
	}
	require.NoError(t, store.Create(ctx, run))
	assert.Equal(t, models.RunPending, run.Status)

	run.Status = models.RunCompleted
	run.TasksCompleted = 2
	run.OverallScore = models.Float64Ptr(81.5)
	run.CompletedAt = "2026-08-01T10:00:00Z"
	require.NoError(t, store.Update(ctx, run))

	require.NoError(t, store.AddResults(ctx, run.ID, []models.TaskResult{
		{TaskName: "GSM8K", BenchmarkID: "gsm8k", Score: models.Float64Ptr(78.0), EducationTier: models.TierElementary},
		{TaskName: "ARC Easy", BenchmarkID: "arc_easy", Score: models.Float64Ptr(85.0), EducationTier: models.TierElementary},
	}))

	got, err := store.GetWithResults(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunCompleted, got.Status)
	require.NotNil(t, got.OverallScore)
	assert.Equal(t, 81.5, *got.OverallScore)
	assert.Equal(t, "cpu", got.RunConfig["device"])
	require.Len(t, got.Results, 2)
	assert.Equal(t, "GSM8K", got.Results[0].TaskName)
	assert.Equal(t, models.TierElementary, got.Results[0].EducationTier)
}

func TestRunStoreLatestCompletedAndHistory(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	modelID, suiteID := seedRunFixtures(t, db)
	store := NewRunStore(db)

	mkRun := func(completedAt string, score float64, status models.RunStatus) *models.EvalRun {
		run := &models.EvalRun{ModelID: modelID, SuiteID: suiteID}
		require.NoError(t, store.Create(ctx, run))
		run.Status = status
		run.OverallScore = models.Float64Ptr(score)
		run.CompletedAt = completedAt
		require.NoError(t, store.Update(ctx, run))
		return run
	}

	mkRun("2026-08-01T00:00:00Z", 70, models.RunCompleted)
	latest := mkRun("2026-08-03T00:00:00Z", 74, models.RunCompleted)
	mkRun("2026-08-02T00:00:00Z", 72, models.RunCompleted)
	mkRun("2026-08-04T00:00:00Z", 99, models.RunFailed)

	got, err := store.LatestCompleted(ctx, modelID)
	require.NoError(t, err)
	assert.Equal(t, latest.ID, got.ID, "failed runs are ignored")

	history, err := store.History(ctx, modelID, 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "2026-08-01T00:00:00Z", history[0].CompletedAt, "history is chronological")
	assert.Equal(t, "2026-08-03T00:00:00Z", history[2].CompletedAt)

	_, err = store.LatestCompleted(ctx, "no-such-model")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRunStoreRating(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	modelID, suiteID := seedRunFixtures(t, db)
	store := NewRunStore(db)

	run := &models.EvalRun{ModelID: modelID, SuiteID: suiteID}
	require.NoError(t, store.Create(ctx, run))

	hs := models.TierHighSchool
	rating := &models.GradeLevelRating{
		ModelID:        modelID,
		RunID:          run.ID,
		TierScores:     map[models.Tier]float64{models.TierElementary: 90, models.TierHighSchool: 75},
		MaxPassingTier: &hs,
		Threshold:      70,
	}
	require.NoError(t, store.SaveRating(ctx, rating))

	got, err := store.Rating(ctx, run.ID)
	require.NoError(t, err)
	require.NotNil(t, got.MaxPassingTier)
	assert.Equal(t, models.TierHighSchool, *got.MaxPassingTier)
	assert.Equal(t, 90.0, got.TierScores[models.TierElementary])

	// Saving again replaces the stored rating.
	rating.Threshold = 75
	require.NoError(t, store.SaveRating(ctx, rating))
	got, err = store.Rating(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 75.0, got.Threshold)

	_, err = store.Rating(ctx, "no-such-run")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBaselineStore(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	modelID, suiteID := seedRunFixtures(t, db)

	runStore := NewRunStore(db)
	run := &models.EvalRun{ModelID: modelID, SuiteID: suiteID}
	require.NoError(t, runStore.Create(ctx, run))

	store := NewBaselineStore(db)
	b := &models.Baseline{Name: "v1.0-release", ModelID: modelID, RunID: run.ID}
	require.NoError(t, store.Create(ctx, b))

	got, err := store.GetByName(ctx, "v1.0-release")
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	err = store.Create(ctx, &models.Baseline{Name: "v1.0-release", ModelID: modelID, RunID: run.ID})
	assert.Error(t, err, "baseline names are unique")

	list, err := store.List(ctx, modelID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, store.Delete(ctx, b.ID))
	_, err = store.Get(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteModelCascades(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	modelID, suiteID := seedRunFixtures(t, db)

	runStore := NewRunStore(db)
	run := &models.EvalRun{ModelID: modelID, SuiteID: suiteID}
	require.NoError(t, runStore.Create(ctx, run))
	require.NoError(t, runStore.AddResults(ctx, run.ID, []models.TaskResult{
		{TaskName: "GSM8K", Score: models.Float64Ptr(80)},
	}))

	require.NoError(t, NewModelStore(db).Delete(ctx, modelID))

	_, err := runStore.Get(ctx, run.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	results, err := runStore.Results(ctx, run.ID)
	require.NoError(t, err)
	assert.Empty(t, results)
}
