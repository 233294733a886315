package webapi

import (
	"context"

	"github.com/voicelearn/vleval/internal/models"
	"github.com/voicelearn/vleval/internal/storage"
)

// Store is the persistence surface the web API reads and writes. Lookups
// that match nothing return storage.ErrNotFound.
type Store interface {
	ListModels(ctx context.Context, modelType models.ModelCategory) ([]*models.ModelSpec, error)
	GetModel(ctx context.Context, id string) (*models.ModelSpec, error)
	CreateModel(ctx context.Context, m *models.ModelSpec) error
	UpdateModel(ctx context.Context, m *models.ModelSpec) error
	DeleteModel(ctx context.Context, id string) error

	ListSuites(ctx context.Context, modelType models.ModelCategory) ([]*models.BenchmarkSuite, error)
	GetSuite(ctx context.Context, id string) (*models.BenchmarkSuite, error)
	CreateSuite(ctx context.Context, suite *models.BenchmarkSuite) error

	ListRuns(ctx context.Context, filter storage.RunFilter) ([]*models.EvalRun, error)
	GetRun(ctx context.Context, id string) (*models.EvalRun, error)
	CreateRun(ctx context.Context, run *models.EvalRun) error
	AddResults(ctx context.Context, runID string, results []models.TaskResult) error
	LatestCompleted(ctx context.Context, modelID string) (*models.EvalRun, error)
	History(ctx context.Context, modelID string, limit int) ([]*models.EvalRun, error)
	Rating(ctx context.Context, runID string) (*models.GradeLevelRating, error)
	SaveRating(ctx context.Context, rating *models.GradeLevelRating) error

	GetBaselineByName(ctx context.Context, name string) (*models.Baseline, error)
}

// DBStore adapts the storage layer to the Store interface.
type DBStore struct {
	models    *storage.ModelStore
	suites    *storage.SuiteStore
	runs      *storage.RunStore
	baselines *storage.BaselineStore
}

// NewDBStore creates a DBStore over db.
func NewDBStore(db *storage.DB) *DBStore {
	return &DBStore{
		models:    storage.NewModelStore(db),
		suites:    storage.NewSuiteStore(db),
		runs:      storage.NewRunStore(db),
		baselines: storage.NewBaselineStore(db),
	}
}

func (s *DBStore) ListModels(ctx context.Context, modelType models.ModelCategory) ([]*models.ModelSpec, error) {
	return s.models.List(ctx, storage.ModelFilter{ModelType: modelType})
}

func (s *DBStore) GetModel(ctx context.Context, id string) (*models.ModelSpec, error) {
	return s.models.Get(ctx, id)
}

func (s *DBStore) CreateModel(ctx context.Context, m *models.ModelSpec) error {
	return s.models.Create(ctx, m)
}

func (s *DBStore) UpdateModel(ctx context.Context, m *models.ModelSpec) error {
	return s.models.Update(ctx, m)
}

func (s *DBStore) DeleteModel(ctx context.Context, id string) error {
	return s.models.Delete(ctx, id)
}

func (s *DBStore) ListSuites(ctx context.Context, modelType models.ModelCategory) ([]*models.BenchmarkSuite, error) {
	return s.suites.List(ctx, modelType)
}

func (s *DBStore) GetSuite(ctx context.Context, id string) (*models.BenchmarkSuite, error) {
	return s.suites.Get(ctx, id)
}

func (s *DBStore) CreateSuite(ctx context.Context, suite *models.BenchmarkSuite) error {
	return s.suites.Create(ctx, suite)
}

func (s *DBStore) ListRuns(ctx context.Context, filter storage.RunFilter) ([]*models.EvalRun, error) {
	return s.runs.List(ctx, filter)
}

func (s *DBStore) GetRun(ctx context.Context, id string) (*models.EvalRun, error) {
	return s.runs.GetWithResults(ctx, id)
}

func (s *DBStore) CreateRun(ctx context.Context, run *models.EvalRun) error {
	return s.runs.Create(ctx, run)
}

func (s *DBStore) AddResults(ctx context.Context, runID string, results []models.TaskResult) error {
	return s.runs.AddResults(ctx, runID, results)
}

func (s *DBStore) LatestCompleted(ctx context.Context, modelID string) (*models.EvalRun, error) {
	return s.runs.LatestCompleted(ctx, modelID)
}

func (s *DBStore) History(ctx context.Context, modelID string, limit int) ([]*models.EvalRun, error) {
	return s.runs.History(ctx, modelID, limit)
}

func (s *DBStore) Rating(ctx context.Context, runID string) (*models.GradeLevelRating, error) {
	return s.runs.Rating(ctx, runID)
}

func (s *DBStore) SaveRating(ctx context.Context, rating *models.GradeLevelRating) error {
	return s.runs.SaveRating(ctx, rating)
}

func (s *DBStore) GetBaselineByName(ctx context.Context, name string) (*models.Baseline, error) {
	return s.baselines.GetByName(ctx, name)
}

// Ensure DBStore satisfies Store.
var _ Store = (*DBStore)(nil)
