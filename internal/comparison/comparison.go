// Package comparison aggregates statistics across models and computes deltas
// against a designated reference model.
package comparison

import (
	"math"
	"sort"

	"github.com/voicelearn/vleval/internal/gradelevel"
	"github.com/voicelearn/vleval/internal/models"
	"github.com/voicelearn/vleval/internal/statistics"
)

// ModelResult pairs a model with the task results (and optionally the run)
// being compared.
type ModelResult struct {
	Model   models.ModelSpec
	Results []models.TaskResult
	Run     *models.EvalRun
}

// Entry is the per-model slice of a comparison.
type Entry struct {
	ModelID            string                        `json:"model_id"`
	ModelName          string                        `json:"model_name"`
	ModelType          models.ModelCategory          `json:"model_type"`
	Overall            statistics.Summary            `json:"overall"`
	ByTier             map[string]statistics.Summary `json:"by_tier"`
	ParameterCountB    *float64                      `json:"parameter_count_b,omitempty"`
	RunID              string                        `json:"run_id,omitempty"`
	OverallScore       *float64                      `json:"overall_score"`
	DeltaFromReference *float64                      `json:"delta_from_reference,omitempty"`
}

// Summary captures the headline of a comparison.
type Summary struct {
	BestModel  string   `json:"best_model"`
	BestScore  *float64 `json:"best_score"`
	ModelCount int      `json:"model_count"`
}

// Comparison is the full multi-model comparison result.
type Comparison struct {
	Models           []Entry  `json:"models"`
	RadarDimensions  []string `json:"radar_dimensions"`
	ReferenceModelID string   `json:"reference_model_id,omitempty"`
	Summary          Summary  `json:"summary"`
}

// RadarSeries is one model's value vector across the radar dimensions.
type RadarSeries struct {
	ModelName string    `json:"model_name"`
	ModelID   string    `json:"model_id"`
	Values    []float64 `json:"values"`
}

// Compare builds a comparison across the given model results. The first model
// flagged as reference anchors delta computation. Models are sorted by overall
// score descending (falling back to the computed mean); the sort is stable, so
// equal scores keep their input order.
func Compare(modelResults []ModelResult) Comparison {
	comparison := Comparison{
		RadarDimensions: RadarDimensions(modelResults),
	}

	for _, mr := range modelResults {
		if mr.Model.IsReference {
			comparison.ReferenceModelID = mr.Model.ID
			break
		}
	}

	var refMean *float64
	if comparison.ReferenceModelID != "" {
		for _, mr := range modelResults {
			if mr.Model.ID == comparison.ReferenceModelID {
				refMean = statistics.Aggregate(mr.Results).Mean
				break
			}
		}
	}

	for _, mr := range modelResults {
		stats := statistics.Aggregate(mr.Results)

		entry := Entry{
			ModelID:         mr.Model.ID,
			ModelName:       mr.Model.Name,
			ModelType:       mr.Model.ModelType,
			Overall:         stats,
			ByTier:          statistics.ByTier(mr.Results),
			ParameterCountB: mr.Model.ParameterCountB,
			OverallScore:    stats.Mean,
		}
		if mr.Run != nil {
			entry.RunID = mr.Run.ID
			if mr.Run.OverallScore != nil {
				entry.OverallScore = mr.Run.OverallScore
			}
		}

		if refMean != nil && stats.Mean != nil && mr.Model.ID != comparison.ReferenceModelID {
			delta := statistics.Round2(*stats.Mean - *refMean)
			entry.DeltaFromReference = &delta
		}

		comparison.Models = append(comparison.Models, entry)
	}

	sort.SliceStable(comparison.Models, func(a, b int) bool {
		return sortScore(comparison.Models[a]) > sortScore(comparison.Models[b])
	})

	if len(comparison.Models) > 0 {
		best := comparison.Models[0]
		comparison.Summary = Summary{
			BestModel:  best.ModelName,
			BestScore:  best.OverallScore,
			ModelCount: len(comparison.Models),
		}
	}

	return comparison
}

func sortScore(e Entry) float64 {
	if e.OverallScore != nil {
		return *e.OverallScore
	}
	if e.Overall.Mean != nil {
		return *e.Overall.Mean
	}
	return 0
}

// RadarDimensions extracts the comparison dimensions: education tiers in the
// fixed tier order (unknown tiers after, alphabetically) when any result is
// tiered, otherwise the distinct task names sorted alphabetically.
func RadarDimensions(modelResults []ModelResult) []string {
	tiers := make(map[string]bool)
	for _, mr := range modelResults {
		for _, r := range mr.Results {
			if r.EducationTier != "" {
				tiers[string(r.EducationTier)] = true
			}
		}
	}

	if len(tiers) > 0 {
		dims := make([]string, 0, len(tiers))
		for t := range tiers {
			dims = append(dims, t)
		}
		sort.Slice(dims, func(a, b int) bool {
			ra := gradelevel.TierRank(models.Tier(dims[a]))
			rb := gradelevel.TierRank(models.Tier(dims[b]))
			if ra == -1 && rb == -1 {
				return dims[a] < dims[b]
			}
			if ra == -1 {
				return false
			}
			if rb == -1 {
				return true
			}
			return ra < rb
		})
		return dims
	}

	names := make(map[string]bool)
	for _, mr := range modelResults {
		for _, r := range mr.Results {
			if r.TaskName != "" {
				names[r.TaskName] = true
			}
		}
	}
	dims := make([]string, 0, len(names))
	for n := range names {
		dims = append(dims, n)
	}
	sort.Strings(dims)
	return dims
}

// BuildRadar computes each model's mean score per dimension. A dimension with
// no matching scores gets 0. A result matches on its tier when tiered,
// otherwise on its task name.
func BuildRadar(modelResults []ModelResult, dimensions []string) []RadarSeries {
	series := make([]RadarSeries, 0, len(modelResults))
	for _, mr := range modelResults {
		dimScores := make(map[string][]float64, len(dimensions))
		for _, d := range dimensions {
			dimScores[d] = nil
		}
		for _, r := range mr.Results {
			dim := string(r.EducationTier)
			if dim == "" {
				dim = r.TaskName
			}
			if _, ok := dimScores[dim]; ok && r.Score != nil {
				dimScores[dim] = append(dimScores[dim], *r.Score)
			}
		}

		values := make([]float64, 0, len(dimensions))
		for _, d := range dimensions {
			scores := dimScores[d]
			if len(scores) == 0 {
				values = append(values, 0)
				continue
			}
			values = append(values, round1(statistics.Mean(scores)))
		}

		series = append(series, RadarSeries{
			ModelName: mr.Model.Name,
			ModelID:   mr.Model.ID,
			Values:    values,
		})
	}
	return series
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
