package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voicelearn/vleval/internal/models"
)

// ModelStore provides database access for registered models.
type ModelStore struct {
	db *DB
}

// NewModelStore creates a ModelStore backed by db.
func NewModelStore(db *DB) *ModelStore {
	return &ModelStore{db: db}
}

// Create inserts a model. A missing ID is generated; timestamps are set if
// empty.
func (s *ModelStore) Create(ctx context.Context, m *models.ModelSpec) error {
	if m.Name == "" {
		return fmt.Errorf("model name is required")
	}
	if m.Slug == "" {
		return fmt.Errorf("model slug is required")
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if m.CreatedAt == "" {
		m.CreatedAt = now
	}
	if m.UpdatedAt == "" {
		m.UpdatedAt = now
	}

	tagsJSON, err := json.Marshal(m.Tags)
	if err != nil {
		return fmt.Errorf("marshaling tags: %w", err)
	}

	_, err = s.db.conn.ExecContext(ctx, `
		INSERT INTO models (
			id, name, slug, model_type, source_type, deployment_target,
			model_family, model_version, source_uri, api_base_url, api_key_env,
			parameter_count_b, model_size_gb, quantization, context_window,
			tags, notes, is_reference, is_active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Slug, string(m.ModelType), m.SourceType, string(m.DeploymentTarget),
		m.ModelFamily, m.ModelVersion, m.SourceURI, m.APIBaseURL, m.APIKeyEnv,
		m.ParameterCountB, m.ModelSizeGB, m.Quantization, m.ContextWindow,
		string(tagsJSON), m.Notes, m.IsReference, m.IsActive, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting model: %w", err)
	}
	return nil
}

// Get returns a model by ID.
func (s *ModelStore) Get(ctx context.Context, id string) (*models.ModelSpec, error) {
	row := s.db.conn.QueryRowContext(ctx, selectModel+" WHERE id = ?", id)
	return scanModel(row)
}

// GetBySlug returns a model by its slug.
func (s *ModelStore) GetBySlug(ctx context.Context, slug string) (*models.ModelSpec, error) {
	row := s.db.conn.QueryRowContext(ctx, selectModel+" WHERE slug = ?", slug)
	return scanModel(row)
}

// ModelFilter narrows List results. Zero fields match everything.
type ModelFilter struct {
	ModelType  models.ModelCategory
	OnlyActive bool
}

// List returns models matching the filter, newest first.
func (s *ModelStore) List(ctx context.Context, filter ModelFilter) ([]*models.ModelSpec, error) {
	query := selectModel + " WHERE 1=1"
	var args []any
	if filter.ModelType != "" {
		query += " AND model_type = ?"
		args = append(args, string(filter.ModelType))
	}
	if filter.OnlyActive {
		query += " AND is_active = 1"
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing models: %w", err)
	}
	defer rows.Close()

	var out []*models.ModelSpec
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Update rewrites the mutable fields of a model.
func (s *ModelStore) Update(ctx context.Context, m *models.ModelSpec) error {
	m.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	tagsJSON, err := json.Marshal(m.Tags)
	if err != nil {
		return fmt.Errorf("marshaling tags: %w", err)
	}

	res, err := s.db.conn.ExecContext(ctx, `
		UPDATE models SET
			name = ?, slug = ?, model_type = ?, source_type = ?, deployment_target = ?,
			model_family = ?, model_version = ?, source_uri = ?, api_base_url = ?, api_key_env = ?,
			parameter_count_b = ?, model_size_gb = ?, quantization = ?, context_window = ?,
			tags = ?, notes = ?, is_reference = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		m.Name, m.Slug, string(m.ModelType), m.SourceType, string(m.DeploymentTarget),
		m.ModelFamily, m.ModelVersion, m.SourceURI, m.APIBaseURL, m.APIKeyEnv,
		m.ParameterCountB, m.ModelSizeGB, m.Quantization, m.ContextWindow,
		string(tagsJSON), m.Notes, m.IsReference, m.IsActive, m.UpdatedAt,
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("updating model: %w", err)
	}
	return requireRow(res)
}

// Delete removes a model and, via foreign keys, its runs and baselines.
func (s *ModelStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.conn.ExecContext(ctx, "DELETE FROM models WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting model: %w", err)
	}
	return requireRow(res)
}

const selectModel = `
	SELECT
		id, name, slug, model_type, source_type, deployment_target,
		model_family, model_version, source_uri, api_base_url, api_key_env,
		parameter_count_b, model_size_gb, quantization, context_window,
		tags, notes, is_reference, is_active, created_at, updated_at
	FROM models`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanModel(row rowScanner) (*models.ModelSpec, error) {
	var m models.ModelSpec
	var modelType, target, tagsJSON string

	err := row.Scan(
		&m.ID, &m.Name, &m.Slug, &modelType, &m.SourceType, &target,
		&m.ModelFamily, &m.ModelVersion, &m.SourceURI, &m.APIBaseURL, &m.APIKeyEnv,
		&m.ParameterCountB, &m.ModelSizeGB, &m.Quantization, &m.ContextWindow,
		&tagsJSON, &m.Notes, &m.IsReference, &m.IsActive, &m.CreatedAt, &m.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning model: %w", err)
	}

	m.ModelType = models.ModelCategory(modelType)
	m.DeploymentTarget = models.DeploymentTarget(target)
	if strings.TrimSpace(tagsJSON) != "" {
		if err := json.Unmarshal([]byte(tagsJSON), &m.Tags); err != nil {
			return nil, fmt.Errorf("unmarshaling tags: %w", err)
		}
	}
	return &m, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
