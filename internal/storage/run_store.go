package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/voicelearn/vleval/internal/models"
)

// RunStore provides database access for evaluation runs, their task results,
// and the grade-level rating derived from a run.
type RunStore struct {
	db *DB
}

// NewRunStore creates a RunStore backed by db.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db}
}

// Create inserts a run. Results carried on the run are not persisted here;
// use AddResults once the run produces them.
func (s *RunStore) Create(ctx context.Context, run *models.EvalRun) error {
	if run.ModelID == "" || run.SuiteID == "" {
		return fmt.Errorf("run needs a model ID and a suite ID")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Status == "" {
		run.Status = models.RunPending
	}
	if run.CreatedAt == "" {
		run.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	configJSON, err := json.Marshal(run.RunConfig)
	if err != nil {
		return fmt.Errorf("marshaling run config: %w", err)
	}

	_, err = s.db.conn.ExecContext(ctx, `
		INSERT INTO eval_runs (
			id, model_id, suite_id, status, progress_percent, current_task,
			tasks_completed, tasks_total, overall_score, run_config, error_message,
			triggered_by, queued_at, started_at, completed_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.ModelID, run.SuiteID, string(run.Status), run.ProgressPercent, run.CurrentTask,
		run.TasksCompleted, run.TasksTotal, run.OverallScore, string(configJSON), run.ErrorMessage,
		run.TriggeredBy, run.QueuedAt, run.StartedAt, run.CompletedAt, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// Get returns a run without its results.
func (s *RunStore) Get(ctx context.Context, id string) (*models.EvalRun, error) {
	row := s.db.conn.QueryRowContext(ctx, selectRun+" WHERE id = ?", id)
	return scanRun(row)
}

// GetWithResults returns a run with its task results loaded.
func (s *RunStore) GetWithResults(ctx context.Context, id string) (*models.EvalRun, error) {
	run, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Results, err = s.Results(ctx, id)
	return run, err
}

// RunFilter narrows List results. Zero fields match everything.
type RunFilter struct {
	ModelID string
	SuiteID string
	Status  models.RunStatus
	Limit   int
}

// List returns runs matching the filter, newest first.
func (s *RunStore) List(ctx context.Context, filter RunFilter) ([]*models.EvalRun, error) {
	query := selectRun + " WHERE 1=1"
	var args []any
	if filter.ModelID != "" {
		query += " AND model_id = ?"
		args = append(args, filter.ModelID)
	}
	if filter.SuiteID != "" {
		query += " AND suite_id = ?"
		args = append(args, filter.SuiteID)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	query += " ORDER BY created_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []*models.EvalRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// LatestCompleted returns the most recently completed run for a model, with
// results loaded. Returns ErrNotFound when the model has no completed run.
func (s *RunStore) LatestCompleted(ctx context.Context, modelID string) (*models.EvalRun, error) {
	row := s.db.conn.QueryRowContext(ctx,
		selectRun+` WHERE model_id = ? AND status = 'completed'
		ORDER BY completed_at DESC, created_at DESC LIMIT 1`, modelID)
	run, err := scanRun(row)
	if err != nil {
		return nil, err
	}
	run.Results, err = s.Results(ctx, run.ID)
	return run, err
}

// History returns a model's completed runs with results, oldest first, the
// shape trend analysis consumes.
func (s *RunStore) History(ctx context.Context, modelID string, limit int) ([]*models.EvalRun, error) {
	runs, err := s.List(ctx, RunFilter{ModelID: modelID, Status: models.RunCompleted, Limit: limit})
	if err != nil {
		return nil, err
	}
	// List is newest-first; reverse into chronological order.
	for i, j := 0, len(runs)-1; i < j; i, j = i+1, j-1 {
		runs[i], runs[j] = runs[j], runs[i]
	}
	for _, run := range runs {
		run.Results, err = s.Results(ctx, run.ID)
		if err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// Update rewrites a run's mutable state (status, progress, scores, timestamps).
func (s *RunStore) Update(ctx context.Context, run *models.EvalRun) error {
	configJSON, err := json.Marshal(run.RunConfig)
	if err != nil {
		return fmt.Errorf("marshaling run config: %w", err)
	}

	res, err := s.db.conn.ExecContext(ctx, `
		UPDATE eval_runs SET
			status = ?, progress_percent = ?, current_task = ?,
			tasks_completed = ?, tasks_total = ?, overall_score = ?,
			run_config = ?, error_message = ?,
			queued_at = ?, started_at = ?, completed_at = ?
		WHERE id = ?`,
		string(run.Status), run.ProgressPercent, run.CurrentTask,
		run.TasksCompleted, run.TasksTotal, run.OverallScore,
		string(configJSON), run.ErrorMessage,
		run.QueuedAt, run.StartedAt, run.CompletedAt,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("updating run: %w", err)
	}
	return requireRow(res)
}

// Delete removes a run and, via foreign keys, its results and rating.
func (s *RunStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.conn.ExecContext(ctx, "DELETE FROM eval_runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	return requireRow(res)
}

// AddResults persists task results for a run in one transaction.
func (s *RunStore) AddResults(ctx context.Context, runID string, results []models.TaskResult) error {
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		for i := range results {
			r := &results[i]
			r.RunID = runID
			if r.ID == "" {
				r.ID = uuid.NewString()
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO task_results (
					id, run_id, task_name, benchmark_id, score, raw_score,
					raw_metric_name, education_tier, weight, latency_ms,
					status, error_message, completed_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				r.ID, r.RunID, r.TaskName, r.BenchmarkID, r.Score, r.RawScore,
				r.RawMetricName, string(r.EducationTier), r.EffectiveWeight(), r.LatencyMs,
				r.Status, r.ErrorMessage, r.CompletedAt,
			)
			if err != nil {
				return fmt.Errorf("inserting result %q: %w", r.TaskName, err)
			}
		}
		return nil
	})
}

// Results returns the task results for a run in insertion order.
func (s *RunStore) Results(ctx context.Context, runID string) ([]models.TaskResult, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT
			id, run_id, task_name, benchmark_id, score, raw_score,
			raw_metric_name, education_tier, weight, latency_ms,
			status, error_message, completed_at
		FROM task_results
		WHERE run_id = ?
		ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("listing results: %w", err)
	}
	defer rows.Close()

	var out []models.TaskResult
	for rows.Next() {
		var r models.TaskResult
		var tier string
		err := rows.Scan(
			&r.ID, &r.RunID, &r.TaskName, &r.BenchmarkID, &r.Score, &r.RawScore,
			&r.RawMetricName, &tier, &r.Weight, &r.LatencyMs,
			&r.Status, &r.ErrorMessage, &r.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		r.EducationTier = models.Tier(tier)
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveRating stores (or replaces) the grade-level rating for a run.
func (s *RunStore) SaveRating(ctx context.Context, rating *models.GradeLevelRating) error {
	if rating.RunID == "" {
		return fmt.Errorf("rating needs a run ID")
	}
	ratingJSON, err := json.Marshal(rating)
	if err != nil {
		return fmt.Errorf("marshaling rating: %w", err)
	}
	_, err = s.db.conn.ExecContext(ctx, `
		INSERT INTO grade_ratings (run_id, model_id, rating, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET model_id = excluded.model_id, rating = excluded.rating`,
		rating.RunID, rating.ModelID, string(ratingJSON), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving rating: %w", err)
	}
	return nil
}

// Rating returns the stored grade-level rating for a run.
func (s *RunStore) Rating(ctx context.Context, runID string) (*models.GradeLevelRating, error) {
	var ratingJSON string
	err := s.db.conn.QueryRowContext(ctx,
		"SELECT rating FROM grade_ratings WHERE run_id = ?", runID).Scan(&ratingJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading rating: %w", err)
	}
	var rating models.GradeLevelRating
	if err := json.Unmarshal([]byte(ratingJSON), &rating); err != nil {
		return nil, fmt.Errorf("unmarshaling rating: %w", err)
	}
	return &rating, nil
}

const selectRun = `
	SELECT
		id, model_id, suite_id, status, progress_percent, current_task,
		tasks_completed, tasks_total, overall_score, run_config, error_message,
		triggered_by, queued_at, started_at, completed_at, created_at
	FROM eval_runs`

func scanRun(row rowScanner) (*models.EvalRun, error) {
	var run models.EvalRun
	var status, configJSON string
	err := row.Scan(
		&run.ID, &run.ModelID, &run.SuiteID, &status, &run.ProgressPercent, &run.CurrentTask,
		&run.TasksCompleted, &run.TasksTotal, &run.OverallScore, &configJSON, &run.ErrorMessage,
		&run.TriggeredBy, &run.QueuedAt, &run.StartedAt, &run.CompletedAt, &run.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning run: %w", err)
	}
	run.Status = models.RunStatus(status)
	if configJSON != "" && configJSON != "{}" {
		if err := json.Unmarshal([]byte(configJSON), &run.RunConfig); err != nil {
			return nil, fmt.Errorf("unmarshaling run config: %w", err)
		}
	}
	return &run, nil
}
