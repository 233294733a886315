package main

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicelearn/vleval/internal/models"
	"github.com/voicelearn/vleval/internal/storage"
)

// runCLI executes the root command against the given database.
func runCLI(t *testing.T, dbPath string, args ...string) error {
	t.Helper()
	cmd := newRootCommand()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(args, "--db", dbPath))
	return cmd.Execute()
}

func tempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "vleval.db")
}

// seedEvaluated inserts a model with a baseline run and a regressed current
// run, plus a named baseline pointing at the older run.
func seedEvaluated(t *testing.T, dbPath string, currentScore float64) {
	t.Helper()
	db, err := storage.Open(dbPath)
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	ctx := context.Background()
	model := &models.ModelSpec{
		ID: "m1", Name: "Phi-4 Mini", Slug: "phi-4-mini",
		ModelType: models.CategoryLLM, SourceURI: "microsoft/phi-4-mini", IsActive: true,
	}
	require.NoError(t, storage.NewModelStore(db).Create(ctx, model))

	runs := storage.NewRunStore(db)
	baselineRun := &models.EvalRun{
		ID: "r0", ModelID: "m1", SuiteID: "s1", Status: models.RunCompleted,
		OverallScore: models.Float64Ptr(80), CompletedAt: "2026-08-01T01:00:00Z",
	}
	require.NoError(t, runs.Create(ctx, baselineRun))
	require.NoError(t, runs.AddResults(ctx, "r0", []models.TaskResult{
		{TaskName: "gsm8k", BenchmarkID: "gsm8k", Score: models.Float64Ptr(80),
			EducationTier: models.TierElementary, Weight: 1},
	}))

	currentRun := &models.EvalRun{
		ID: "r1", ModelID: "m1", SuiteID: "s1", Status: models.RunCompleted,
		OverallScore: models.Float64Ptr(currentScore), CompletedAt: "2026-08-15T01:00:00Z",
	}
	require.NoError(t, runs.Create(ctx, currentRun))
	require.NoError(t, runs.AddResults(ctx, "r1", []models.TaskResult{
		{TaskName: "gsm8k", BenchmarkID: "gsm8k", Score: models.Float64Ptr(currentScore),
			EducationTier: models.TierElementary, Weight: 1},
	}))

	require.NoError(t, storage.NewBaselineStore(db).Create(ctx, &models.Baseline{
		Name: "release-1.0", ModelID: "m1", RunID: "r0",
	}))
}

func TestModelAddListRemove(t *testing.T) {
	dbPath := tempDBPath(t)

	err := runCLI(t, dbPath, "model", "add",
		"--name", "Phi-4 Mini", "--type", "llm", "--uri", "microsoft/phi-4-mini")
	require.NoError(t, err)

	db, err := storage.Open(dbPath)
	require.NoError(t, err)
	m, err := storage.NewModelStore(db).GetBySlug(context.Background(), "phi-4-mini")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryLLM, m.ModelType)
	require.NoError(t, db.Close())

	require.NoError(t, runCLI(t, dbPath, "model", "list"))
	require.NoError(t, runCLI(t, dbPath, "model", "remove", "phi-4-mini"))

	err = runCLI(t, dbPath, "model", "remove", "phi-4-mini")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSuiteValidate(t *testing.T) {
	dir := t.TempDir()
	valid := filepath.Join(dir, "suite.yaml")
	require.NoError(t, os.WriteFile(valid, []byte(`
name: Math Focus
slug: math-focus
model_type: llm
tasks:
  - name: GSM8K
    benchmark_id: gsm8k
    education_tier: elementary
`), 0o644))

	require.NoError(t, runCLI(t, tempDBPath(t), "suite", "validate", valid))

	invalid := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("name: X\nslug: x\nmodel_type: vision\ntasks: [{name: a}]"), 0o644))
	require.Error(t, runCLI(t, tempDBPath(t), "suite", "validate", invalid))
}

func TestSuiteAddAndList(t *testing.T) {
	dbPath := tempDBPath(t)
	suiteFile := filepath.Join(t.TempDir(), "suite.yaml")
	require.NoError(t, os.WriteFile(suiteFile, []byte(`
name: Math Focus
slug: math-focus
model_type: llm
tasks:
  - name: GSM8K
    benchmark_id: gsm8k
    education_tier: elementary
`), 0o644))

	require.NoError(t, runCLI(t, dbPath, "suite", "add", suiteFile))

	db, err := storage.Open(dbPath)
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck
	suite, err := storage.NewSuiteStore(db).GetBySlug(context.Background(), "math-focus")
	require.NoError(t, err)
	assert.Len(t, suite.Tasks, 1)
}

func TestGradeCommand(t *testing.T) {
	dbPath := tempDBPath(t)
	seedEvaluated(t, dbPath, 85)

	require.NoError(t, runCLI(t, dbPath, "grade", "phi-4-mini"))
	require.NoError(t, runCLI(t, dbPath, "grade", "phi-4-mini", "--format", "json"))

	err := runCLI(t, dbPath, "grade", "phi-4-mini", "--format", "csv")
	require.Error(t, err)

	err = runCLI(t, dbPath, "grade", "ghost")
	require.Error(t, err)
}

func TestCompareCommandRequiresTwoModels(t *testing.T) {
	err := runCLI(t, tempDBPath(t), "compare", "only-one")
	require.Error(t, err)
}

func TestRegressionCommand(t *testing.T) {
	t.Run("critical regression exits 2", func(t *testing.T) {
		dbPath := tempDBPath(t)
		seedEvaluated(t, dbPath, 60)

		err := runCLI(t, dbPath, "regression", "--model", "phi-4-mini", "--baseline", "release-1.0")
		require.Error(t, err)

		var gateErr *RegressionGateError
		require.ErrorAs(t, err, &gateErr)
		assert.Equal(t, ExitError, gateErr.Code)
	})

	t.Run("no regression succeeds", func(t *testing.T) {
		dbPath := tempDBPath(t)
		seedEvaluated(t, dbPath, 85)

		err := runCLI(t, dbPath, "regression", "--model", "phi-4-mini", "--baseline", "release-1.0")
		require.NoError(t, err)
	})

	t.Run("junit output", func(t *testing.T) {
		dbPath := tempDBPath(t)
		seedEvaluated(t, dbPath, 60)
		junitPath := filepath.Join(t.TempDir(), "report.xml")

		err := runCLI(t, dbPath, "regression",
			"--model", "phi-4-mini", "--baseline", "release-1.0", "--junit", junitPath)
		require.Error(t, err)

		data, readErr := os.ReadFile(junitPath)
		require.NoError(t, readErr)
		assert.Contains(t, string(data), "ScoreRegression")
	})

	t.Run("requires a baseline selector", func(t *testing.T) {
		dbPath := tempDBPath(t)
		seedEvaluated(t, dbPath, 85)

		err := runCLI(t, dbPath, "regression", "--model", "phi-4-mini")
		require.Error(t, err)
		var gateErr *RegressionGateError
		assert.False(t, errors.As(err, &gateErr), "usage errors are not gate failures")
	})
}

func TestBaselineSetAndList(t *testing.T) {
	dbPath := tempDBPath(t)
	seedEvaluated(t, dbPath, 85)

	require.NoError(t, runCLI(t, dbPath, "baseline", "set", "release-2.0", "phi-4-mini"))

	db, err := storage.Open(dbPath)
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck
	b, err := storage.NewBaselineStore(db).GetByName(context.Background(), "release-2.0")
	require.NoError(t, err)
	assert.Equal(t, "r1", b.RunID, "latest completed run is pinned")
}

func TestTrendsCommand(t *testing.T) {
	dbPath := tempDBPath(t)
	seedEvaluated(t, dbPath, 85)

	require.NoError(t, runCLI(t, dbPath, "trends", "phi-4-mini"))
	require.NoError(t, runCLI(t, dbPath, "trends", "phi-4-mini", "--format", "json"))
	require.Error(t, runCLI(t, dbPath, "trends", "ghost"))
}

func TestExportImportCommands(t *testing.T) {
	srcPath := tempDBPath(t)
	seedEvaluated(t, srcPath, 85)
	vlefPath := filepath.Join(t.TempDir(), "export.vlef.gz")

	require.NoError(t, runCLI(t, srcPath, "export", vlefPath))

	destPath := tempDBPath(t)
	require.NoError(t, runCLI(t, destPath, "import", vlefPath))

	db, err := storage.Open(destPath)
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	ctx := context.Background()
	m, err := storage.NewModelStore(db).GetBySlug(ctx, "phi-4-mini")
	require.NoError(t, err)
	run, err := storage.NewRunStore(db).LatestCompleted(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "r1", run.ID)
	assert.Len(t, run.Results, 1)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Phi-4 Mini Instruct", "phi-4-mini-instruct"},
		{"Llama 3.1 8B", "llama-3.1-8b"},
		{"  Whisper  Large  ", "whisper-large"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, slugify(tt.in), tt.in)
	}
}
