// Package webapi implements the REST API over the evaluation store.
package webapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/voicelearn/vleval/internal/comparison"
	"github.com/voicelearn/vleval/internal/gradelevel"
	"github.com/voicelearn/vleval/internal/models"
	"github.com/voicelearn/vleval/internal/recommend"
	"github.com/voicelearn/vleval/internal/regression"
	"github.com/voicelearn/vleval/internal/reporting"
	"github.com/voicelearn/vleval/internal/storage"
	"github.com/voicelearn/vleval/internal/trends"
	"github.com/voicelearn/vleval/internal/vlef"
)

// Version is set at build time or defaults to dev.
var Version = "dev"

// Handlers holds the HTTP handler methods for the web API.
type Handlers struct {
	store  Store
	logger *slog.Logger
}

// NewHandlers creates a Handlers over the given store. logger may be nil.
func NewHandlers(store Store, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{store: store, logger: logger}
}

// RegisterRoutes registers all web API routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, store Store, logger *slog.Logger) {
	h := NewHandlers(store, logger)
	mux.HandleFunc("GET /api/health", h.HandleHealth)

	mux.HandleFunc("GET /api/models", h.HandleListModels)
	mux.HandleFunc("POST /api/models", h.HandleCreateModel)
	mux.HandleFunc("GET /api/models/{id}", h.HandleGetModel)
	mux.HandleFunc("PUT /api/models/{id}", h.HandleUpdateModel)
	mux.HandleFunc("DELETE /api/models/{id}", h.HandleDeleteModel)
	mux.HandleFunc("GET /api/models/{id}/trends", h.HandleTrends)
	mux.HandleFunc("GET /api/models/{id}/recommendation", h.HandleRecommendation)

	mux.HandleFunc("GET /api/suites", h.HandleListSuites)
	mux.HandleFunc("GET /api/suites/{id}", h.HandleGetSuite)

	mux.HandleFunc("GET /api/runs", h.HandleListRuns)
	mux.HandleFunc("POST /api/runs", h.HandleCreateRun)
	mux.HandleFunc("GET /api/runs/{id}", h.HandleRunDetail)
	mux.HandleFunc("GET /api/runs/{id}/rating", h.HandleRunRating)
	mux.HandleFunc("GET /api/runs/{id}/report", h.HandleRunReport)

	mux.HandleFunc("GET /api/grades", h.HandleGradeMatrix)
	mux.HandleFunc("GET /api/compare", h.HandleCompare)
	mux.HandleFunc("POST /api/regression/check", h.HandleRegressionCheck)

	mux.HandleFunc("GET /api/export", h.HandleExport)
	mux.HandleFunc("POST /api/import", h.HandleImport)
}

// HandleHealth returns a simple health check response.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: Version})
}

// HandleListModels returns registered models, optionally filtered by type.
func (h *Handlers) HandleListModels(w http.ResponseWriter, r *http.Request) {
	modelType := models.ModelCategory(r.URL.Query().Get("type"))
	list, err := h.store.ListModels(r.Context(), modelType)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []*models.ModelSpec{}
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleCreateModel registers a new model.
func (h *Handlers) HandleCreateModel(w http.ResponseWriter, r *http.Request) {
	var m models.ModelSpec
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeError(w, http.StatusBadRequest, "invalid model payload: "+err.Error())
		return
	}
	if err := h.store.CreateModel(r.Context(), &m); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.logger.Info("model registered", "model_id", m.ID, "slug", m.Slug)
	writeJSON(w, http.StatusCreated, m)
}

// HandleGetModel returns a single model.
func (h *Handlers) HandleGetModel(w http.ResponseWriter, r *http.Request) {
	m, err := h.store.GetModel(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err, "model not found")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// HandleUpdateModel rewrites a model's fields.
func (h *Handlers) HandleUpdateModel(w http.ResponseWriter, r *http.Request) {
	var m models.ModelSpec
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeError(w, http.StatusBadRequest, "invalid model payload: "+err.Error())
		return
	}
	m.ID = r.PathValue("id")
	if err := h.store.UpdateModel(r.Context(), &m); err != nil {
		writeStoreError(w, err, "model not found")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// HandleDeleteModel removes a model and its runs.
func (h *Handlers) HandleDeleteModel(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteModel(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, err, "model not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListSuites returns benchmark suites, optionally filtered by type.
func (h *Handlers) HandleListSuites(w http.ResponseWriter, r *http.Request) {
	modelType := models.ModelCategory(r.URL.Query().Get("type"))
	list, err := h.store.ListSuites(r.Context(), modelType)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []*models.BenchmarkSuite{}
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleGetSuite returns a suite with its tasks.
func (h *Handlers) HandleGetSuite(w http.ResponseWriter, r *http.Request) {
	suite, err := h.store.GetSuite(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err, "suite not found")
		return
	}
	writeJSON(w, http.StatusOK, suite)
}

// HandleListRuns returns runs, filterable by model_id, status, and limit.
func (h *Handlers) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.RunFilter{
		ModelID: q.Get("model_id"),
		Status:  models.RunStatus(q.Get("status")),
	}
	if limitStr := q.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}

	runs, err := h.store.ListRuns(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []*models.EvalRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// HandleCreateRun records a pending run for a model and suite. Execution
// happens through the CLI runner, which picks the pending row up by ID.
func (h *Handlers) HandleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid run payload: "+err.Error())
		return
	}
	if req.ModelID == "" || req.SuiteID == "" {
		writeError(w, http.StatusBadRequest, "model_id and suite_id are required")
		return
	}

	if _, err := h.store.GetModel(r.Context(), req.ModelID); err != nil {
		writeStoreError(w, err, "model not found")
		return
	}
	suite, err := h.store.GetSuite(r.Context(), req.SuiteID)
	if err != nil {
		writeStoreError(w, err, "suite not found")
		return
	}

	run := &models.EvalRun{
		ModelID:    req.ModelID,
		SuiteID:    req.SuiteID,
		Status:     models.RunPending,
		TasksTotal: len(suite.Tasks),
		RunConfig:  req.Config,
	}
	if err := h.store.CreateRun(r.Context(), run); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, run)
}

// HandleRunDetail returns a run with its task results.
func (h *Handlers) HandleRunDetail(w http.ResponseWriter, r *http.Request) {
	run, err := h.store.GetRun(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// HandleRunRating returns the grade-level rating for a run, computing it
// from stored results when no rating was persisted.
func (h *Handlers) HandleRunRating(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rating, err := h.store.Rating(r.Context(), id)
	if err == nil {
		writeJSON(w, http.StatusOK, rating)
		return
	}
	if !errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	run, err := h.store.GetRun(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "run not found")
		return
	}
	computed := gradelevel.ComputeRating(run.ModelID, run.ID, run.Results, gradelevel.DefaultThreshold)
	writeJSON(w, http.StatusOK, computed)
}

// HandleRunReport serves the shared HTML report for a run.
func (h *Handlers) HandleRunReport(w http.ResponseWriter, r *http.Request) {
	run, err := h.store.GetRun(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err, "run not found")
		return
	}
	model, err := h.store.GetModel(r.Context(), run.ModelID)
	if err != nil {
		writeStoreError(w, err, "model not found")
		return
	}
	rating, err := h.store.Rating(r.Context(), run.ID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	html, err := reporting.RenderHTML(reporting.RunReport{Model: *model, Run: *run, Rating: rating})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, html)
}

// HandleGradeMatrix returns the latest grade-level rating per model.
func (h *Handlers) HandleGradeMatrix(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListModels(r.Context(), "")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	matrix := []GradeMatrixEntry{}
	for _, m := range list {
		run, err := h.store.LatestCompleted(r.Context(), m.ID)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		rating, err := h.store.Rating(r.Context(), run.ID)
		if errors.Is(err, storage.ErrNotFound) {
			computed := gradelevel.ComputeRating(m.ID, run.ID, run.Results, gradelevel.DefaultThreshold)
			rating = &computed
		} else if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		matrix = append(matrix, GradeMatrixEntry{
			Model:          *m,
			RunID:          run.ID,
			TierScores:     rating.TierScores,
			MaxPassingTier: rating.MaxPassingTier,
			OverallScore:   run.OverallScore,
		})
	}
	writeJSON(w, http.StatusOK, matrix)
}

// HandleCompare compares the latest completed runs of the requested models.
// Models are selected with ?models=id1,id2,...
func (h *Handlers) HandleCompare(w http.ResponseWriter, r *http.Request) {
	idsParam := r.URL.Query().Get("models")
	if idsParam == "" {
		writeError(w, http.StatusBadRequest, "models query parameter is required")
		return
	}

	var modelResults []comparison.ModelResult
	for _, id := range strings.Split(idsParam, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		m, err := h.store.GetModel(r.Context(), id)
		if err != nil {
			writeStoreError(w, err, "model "+id+" not found")
			return
		}
		run, err := h.store.LatestCompleted(r.Context(), m.ID)
		if err != nil {
			writeStoreError(w, err, "model "+id+" has no completed runs")
			return
		}
		modelResults = append(modelResults, comparison.ModelResult{
			Model:   *m,
			Run:     run,
			Results: run.Results,
		})
	}

	dims := comparison.RadarDimensions(modelResults)
	writeJSON(w, http.StatusOK, CompareResponse{
		Comparison: comparison.Compare(modelResults),
		Dimensions: dims,
		Radar:      comparison.BuildRadar(modelResults, dims),
	})
}

// HandleRecommendation returns the deployment recommendation for a model.
func (h *Handlers) HandleRecommendation(w http.ResponseWriter, r *http.Request) {
	m, err := h.store.GetModel(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err, "model not found")
		return
	}

	in := recommend.Input{Model: *m}
	if run, err := h.store.LatestCompleted(r.Context(), m.ID); err == nil {
		in.Run = run
		if rating, err := h.store.Rating(r.Context(), run.ID); err == nil {
			in.Rating = rating
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, recommend.Recommend(in))
}

// HandleRegressionCheck compares a model's latest run against a baseline.
func (h *Handlers) HandleRegressionCheck(w http.ResponseWriter, r *http.Request) {
	var req RegressionCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload: "+err.Error())
		return
	}
	if req.ModelID == "" {
		writeError(w, http.StatusBadRequest, "model_id is required")
		return
	}
	if (req.BaselineName == "") == (req.BaselineRunID == "") {
		writeError(w, http.StatusBadRequest, "exactly one of baseline_name or baseline_run_id is required")
		return
	}

	baselineRunID := req.BaselineRunID
	if req.BaselineName != "" {
		baseline, err := h.store.GetBaselineByName(r.Context(), req.BaselineName)
		if err != nil {
			writeStoreError(w, err, "baseline not found")
			return
		}
		baselineRunID = baseline.RunID
	}

	baselineRun, err := h.store.GetRun(r.Context(), baselineRunID)
	if err != nil {
		writeStoreError(w, err, "baseline run not found")
		return
	}
	current, err := h.store.LatestCompleted(r.Context(), req.ModelID)
	if err != nil {
		writeStoreError(w, err, "model has no completed runs")
		return
	}

	threshold := req.Threshold
	if threshold <= 0 {
		threshold = gradelevel.DefaultThreshold
	}

	report := regression.Detect(current.Results, baselineRun.Results, threshold)
	writeJSON(w, http.StatusOK, RegressionCheckResponse{
		Report:     report,
		CIExitCode: regression.CIExitCode(report),
	})
}

// HandleTrends returns score trends for a model's run history.
func (h *Handlers) HandleTrends(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.store.GetModel(r.Context(), id); err != nil {
		writeStoreError(w, err, "model not found")
		return
	}

	window := 0
	if windowStr := r.URL.Query().Get("window"); windowStr != "" {
		w2, err := strconv.Atoi(windowStr)
		if err != nil || w2 < 1 {
			writeError(w, http.StatusBadRequest, "window must be a positive integer")
			return
		}
		window = w2
	}

	history, err := h.store.History(r.Context(), id, 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	runs := make([]models.EvalRun, 0, len(history))
	for _, run := range history {
		runs = append(runs, *run)
	}
	writeJSON(w, http.StatusOK, trends.Analyze(runs, window))
}

// HandleExport streams the full database as a VLEF document, optionally
// restricted to one model with ?model_id=.
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	modelID := r.URL.Query().Get("model_id")

	doc := vlef.New()
	list, err := h.store.ListModels(r.Context(), "")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	for _, m := range list {
		if modelID != "" && m.ID != modelID {
			continue
		}
		doc.Models = append(doc.Models, *m)

		history, err := h.store.History(r.Context(), m.ID, 0)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		for _, run := range history {
			doc.Runs = append(doc.Runs, *run)
			if rating, err := h.store.Rating(r.Context(), run.ID); err == nil {
				doc.Ratings = append(doc.Ratings, *rating)
			}
		}
	}

	suitesList, err := h.store.ListSuites(r.Context(), "")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	for _, suite := range suitesList {
		doc.Suites = append(doc.Suites, *suite)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="export.vlef"`)
	if err := vlef.Encode(w, doc, false); err != nil {
		h.logger.Error("export encoding failed", "error", err)
	}
}

// HandleImport ingests a VLEF document, creating any models, suites, runs,
// and ratings it carries. Entities whose IDs already exist are skipped.
func (h *Handlers) HandleImport(w http.ResponseWriter, r *http.Request) {
	doc, err := vlef.Decode(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	imported := map[string]int{"models": 0, "suites": 0, "runs": 0, "ratings": 0}
	ctx := r.Context()

	for i := range doc.Models {
		m := doc.Models[i]
		if _, err := h.store.GetModel(ctx, m.ID); err == nil {
			continue
		}
		if err := h.store.CreateModel(ctx, &m); err != nil {
			writeError(w, http.StatusBadRequest, "importing model "+m.Slug+": "+err.Error())
			return
		}
		imported["models"]++
	}

	for i := range doc.Suites {
		suite := doc.Suites[i]
		if _, err := h.store.GetSuite(ctx, suite.ID); err == nil {
			continue
		}
		if err := h.store.CreateSuite(ctx, &suite); err != nil {
			writeError(w, http.StatusBadRequest, "importing suite "+suite.Slug+": "+err.Error())
			return
		}
		imported["suites"]++
	}

	for i := range doc.Runs {
		run := doc.Runs[i]
		if _, err := h.store.GetRun(ctx, run.ID); err == nil {
			continue
		}
		results := run.Results
		run.Results = nil
		if err := h.store.CreateRun(ctx, &run); err != nil {
			writeError(w, http.StatusBadRequest, "importing run "+run.ID+": "+err.Error())
			return
		}
		if len(results) > 0 {
			if err := h.store.AddResults(ctx, run.ID, results); err != nil {
				writeError(w, http.StatusBadRequest, "importing results for run "+run.ID+": "+err.Error())
				return
			}
		}
		imported["runs"]++
	}

	for i := range doc.Ratings {
		rating := doc.Ratings[i]
		if err := h.store.SaveRating(ctx, &rating); err != nil {
			writeError(w, http.StatusBadRequest, "importing rating for run "+rating.RunID+": "+err.Error())
			return
		}
		imported["ratings"]++
	}

	h.logger.Info("import finished",
		"models", imported["models"], "suites", imported["suites"], "runs", imported["runs"])
	writeJSON(w, http.StatusOK, imported)
}

// CORSMiddleware wraps a handler with CORS headers. If allowedOrigins is
// empty, no CORS header is set (same-origin only).
func CORSMiddleware(next http.Handler, allowedOrigins ...string) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if len(allowedOrigins) > 0 && origin != "" && allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg, Code: code})
}

func writeStoreError(w http.ResponseWriter, err error, notFoundMsg string) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, notFoundMsg)
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
