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

// SuiteStore provides database access for benchmark suites and their tasks.
type SuiteStore struct {
	db *DB
}

// NewSuiteStore creates a SuiteStore backed by db.
func NewSuiteStore(db *DB) *SuiteStore {
	return &SuiteStore{db: db}
}

// Create inserts a suite and its tasks in one transaction.
func (s *SuiteStore) Create(ctx context.Context, suite *models.BenchmarkSuite) error {
	if suite.Name == "" {
		return fmt.Errorf("suite name is required")
	}
	if suite.Slug == "" {
		return fmt.Errorf("suite slug is required")
	}
	if suite.ID == "" {
		suite.ID = uuid.NewString()
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if suite.CreatedAt == "" {
		suite.CreatedAt = now
	}
	if suite.UpdatedAt == "" {
		suite.UpdatedAt = now
	}

	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO suites (
				id, name, slug, model_type, description, category,
				is_builtin, is_active, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			suite.ID, suite.Name, suite.Slug, string(suite.ModelType),
			suite.Description, suite.Category,
			suite.IsBuiltin, suite.IsActive, suite.CreatedAt, suite.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting suite: %w", err)
		}

		for i := range suite.Tasks {
			task := &suite.Tasks[i]
			task.SuiteID = suite.ID
			if task.ID == "" {
				task.ID = uuid.NewString()
			}
			if task.CreatedAt == "" {
				task.CreatedAt = now
			}
			if err := insertTask(ctx, tx, task); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertTask(ctx context.Context, tx *sql.Tx, task *models.BenchmarkTask) error {
	configJSON, err := json.Marshal(task.Config)
	if err != nil {
		return fmt.Errorf("marshaling task config: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO suite_tasks (
			id, suite_id, name, task_type, benchmark_id, description,
			weight, education_tier, subject, order_index, config, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.SuiteID, task.Name, task.TaskType, task.BenchmarkID, task.Description,
		task.EffectiveWeight(), string(task.EducationTier), task.Subject,
		task.OrderIndex, string(configJSON), task.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting task %q: %w", task.Name, err)
	}
	return nil
}

// Get returns a suite with its tasks in order_index order.
func (s *SuiteStore) Get(ctx context.Context, id string) (*models.BenchmarkSuite, error) {
	row := s.db.conn.QueryRowContext(ctx, selectSuite+" WHERE id = ?", id)
	suite, err := scanSuite(row)
	if err != nil {
		return nil, err
	}
	suite.Tasks, err = s.tasksFor(ctx, suite.ID)
	return suite, err
}

// GetBySlug returns a suite by slug, with its tasks.
func (s *SuiteStore) GetBySlug(ctx context.Context, slug string) (*models.BenchmarkSuite, error) {
	row := s.db.conn.QueryRowContext(ctx, selectSuite+" WHERE slug = ?", slug)
	suite, err := scanSuite(row)
	if err != nil {
		return nil, err
	}
	suite.Tasks, err = s.tasksFor(ctx, suite.ID)
	return suite, err
}

// List returns suites without their tasks, optionally filtered by model type.
func (s *SuiteStore) List(ctx context.Context, modelType models.ModelCategory) ([]*models.BenchmarkSuite, error) {
	query := selectSuite + " WHERE 1=1"
	var args []any
	if modelType != "" {
		query += " AND model_type = ?"
		args = append(args, string(modelType))
	}
	query += " ORDER BY name, id"

	rows, err := s.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing suites: %w", err)
	}
	defer rows.Close()

	var out []*models.BenchmarkSuite
	for rows.Next() {
		suite, err := scanSuite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, suite)
	}
	return out, rows.Err()
}

// Delete removes a suite and its tasks.
func (s *SuiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.conn.ExecContext(ctx, "DELETE FROM suites WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting suite: %w", err)
	}
	return requireRow(res)
}

func (s *SuiteStore) tasksFor(ctx context.Context, suiteID string) ([]models.BenchmarkTask, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT
			id, suite_id, name, task_type, benchmark_id, description,
			weight, education_tier, subject, order_index, config, created_at
		FROM suite_tasks
		WHERE suite_id = ?
		ORDER BY order_index, name`, suiteID)
	if err != nil {
		return nil, fmt.Errorf("listing suite tasks: %w", err)
	}
	defer rows.Close()

	var out []models.BenchmarkTask
	for rows.Next() {
		var t models.BenchmarkTask
		var tier, configJSON string
		err := rows.Scan(
			&t.ID, &t.SuiteID, &t.Name, &t.TaskType, &t.BenchmarkID, &t.Description,
			&t.Weight, &tier, &t.Subject, &t.OrderIndex, &configJSON, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		t.EducationTier = models.Tier(tier)
		if configJSON != "" && configJSON != "{}" {
			if err := json.Unmarshal([]byte(configJSON), &t.Config); err != nil {
				return nil, fmt.Errorf("unmarshaling task config: %w", err)
			}
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

const selectSuite = `
	SELECT
		id, name, slug, model_type, description, category,
		is_builtin, is_active, created_at, updated_at
	FROM suites`

func scanSuite(row rowScanner) (*models.BenchmarkSuite, error) {
	var suite models.BenchmarkSuite
	var modelType string
	err := row.Scan(
		&suite.ID, &suite.Name, &suite.Slug, &modelType, &suite.Description, &suite.Category,
		&suite.IsBuiltin, &suite.IsActive, &suite.CreatedAt, &suite.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning suite: %w", err)
	}
	suite.ModelType = models.ModelCategory(modelType)
	return &suite, nil
}
