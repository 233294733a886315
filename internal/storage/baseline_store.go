package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/voicelearn/vleval/internal/models"
)

// BaselineStore provides database access for named baseline snapshots.
type BaselineStore struct {
	db *DB
}

// NewBaselineStore creates a BaselineStore backed by db.
func NewBaselineStore(db *DB) *BaselineStore {
	return &BaselineStore{db: db}
}

// Create inserts a baseline. Names are unique.
func (s *BaselineStore) Create(ctx context.Context, b *models.Baseline) error {
	if b.Name == "" {
		return fmt.Errorf("baseline name is required")
	}
	if b.ModelID == "" || b.RunID == "" {
		return fmt.Errorf("baseline needs a model ID and a run ID")
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt == "" {
		b.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO baselines (id, name, model_id, run_id, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.ModelID, b.RunID, b.Description, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting baseline: %w", err)
	}
	return nil
}

// Get returns a baseline by ID.
func (s *BaselineStore) Get(ctx context.Context, id string) (*models.Baseline, error) {
	row := s.db.conn.QueryRowContext(ctx, selectBaseline+" WHERE id = ?", id)
	return scanBaseline(row)
}

// GetByName returns a baseline by its unique name.
func (s *BaselineStore) GetByName(ctx context.Context, name string) (*models.Baseline, error) {
	row := s.db.conn.QueryRowContext(ctx, selectBaseline+" WHERE name = ?", name)
	return scanBaseline(row)
}

// List returns baselines, optionally filtered by model, newest first.
func (s *BaselineStore) List(ctx context.Context, modelID string) ([]*models.Baseline, error) {
	query := selectBaseline + " WHERE 1=1"
	var args []any
	if modelID != "" {
		query += " AND model_id = ?"
		args = append(args, modelID)
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing baselines: %w", err)
	}
	defer rows.Close()

	var out []*models.Baseline
	for rows.Next() {
		b, err := scanBaseline(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Delete removes a baseline.
func (s *BaselineStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.conn.ExecContext(ctx, "DELETE FROM baselines WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting baseline: %w", err)
	}
	return requireRow(res)
}

const selectBaseline = `
	SELECT id, name, model_id, run_id, description, created_at
	FROM baselines`

func scanBaseline(row rowScanner) (*models.Baseline, error) {
	var b models.Baseline
	err := row.Scan(&b.ID, &b.Name, &b.ModelID, &b.RunID, &b.Description, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning baseline: %w", err)
	}
	return &b, nil
}
