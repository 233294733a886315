// Package recommend maps model characteristics to deployment-target
// suitability scores.
package recommend

import (
	"fmt"
	"math"
	"sort"

	"github.com/voicelearn/vleval/internal/gradelevel"
	"github.com/voicelearn/vleval/internal/models"
)

// TargetConstraints bound what a deployment target can host. Nil limits mean
// unconstrained.
type TargetConstraints struct {
	Target      models.DeploymentTarget
	MaxParamsB  *float64
	MaxSizeGB   *float64
	MinScore    float64
	Description string
}

// Suitability penalties. Every target starts at 100 and loses a fixed amount
// per violated constraint, clamped at 0.
const (
	penaltyParams = 40.0
	penaltySize   = 30.0
	penaltyScore  = 30.0
)

// Catalogue is the fixed, ordered deployment-target catalogue. Order doubles
// as the tie-break: when two targets end up equally suitable, the earlier one
// wins.
var Catalogue = []TargetConstraints{
	{
		Target:      models.TargetOnDevice,
		MaxParamsB:  limit(3.0),
		MaxSizeGB:   limit(4.0),
		MinScore:    60.0,
		Description: "Mobile/edge device deployment",
	},
	{
		Target:      models.TargetServer,
		MaxParamsB:  limit(70.0),
		MaxSizeGB:   limit(150.0),
		MinScore:    70.0,
		Description: "Server-side deployment",
	},
	{
		Target:      models.TargetCloudAPI,
		MinScore:    75.0,
		Description: "Cloud API deployment",
	},
}

// TargetAssessment is the suitability verdict for one deployment target.
type TargetAssessment struct {
	Target      models.DeploymentTarget `json:"target"`
	Suitability float64                 `json:"suitability"`
	Description string                  `json:"description"`
	Warnings    []string                `json:"warnings,omitempty"`
}

// Recommendation is the deployment recommendation for one model.
type Recommendation struct {
	ModelID           string                  `json:"model_id"`
	ModelName         string                  `json:"model_name"`
	RecommendedTarget models.DeploymentTarget `json:"recommended_target"`
	Targets           []TargetAssessment      `json:"targets"`
	Score             float64                 `json:"score"`
	MaxEducationTier  *models.Tier            `json:"max_education_tier"`
	Warnings          []string                `json:"warnings,omitempty"`
	Rationale         []string                `json:"rationale,omitempty"`
}

// Input bundles everything the engine considers for one model.
type Input struct {
	Model  models.ModelSpec
	Run    *models.EvalRun
	Rating *models.GradeLevelRating
}

// Recommend evaluates the model against every target in the catalogue and
// picks the most suitable one. Ties resolve to catalogue order (the
// assessment sort is descending but stable).
func Recommend(in Input) Recommendation {
	score := 0.0
	if in.Run != nil && in.Run.OverallScore != nil {
		score = *in.Run.OverallScore
	}

	var maxTier *models.Tier
	if in.Rating != nil {
		maxTier = in.Rating.MaxPassingTier
	}

	targets := make([]TargetAssessment, 0, len(Catalogue))
	for _, c := range Catalogue {
		targets = append(targets, assess(in.Model, score, c))
	}
	sortTargets(targets)

	rec := Recommendation{
		ModelID:           in.Model.ID,
		ModelName:         in.Model.Name,
		RecommendedTarget: targets[0].Target,
		Targets:           targets,
		Score:             score,
		MaxEducationTier:  maxTier,
	}

	if maxTier != nil {
		label := gradelevel.TierLabels[*maxTier]
		if label == "" {
			label = string(*maxTier)
		}
		rec.Rationale = append(rec.Rationale, fmt.Sprintf("Certified up to %s level", label))
	} else {
		rec.Warnings = append(rec.Warnings, "Model has not passed any education tier threshold")
	}

	// Model-type heuristics.
	if in.Model.ModelType == models.CategorySTT &&
		in.Model.ParameterCountB != nil && *in.Model.ParameterCountB > 1.5 {
		rec.Warnings = append(rec.Warnings,
			"Large STT models may have high latency for real-time on-device use")
	}
	if in.Model.ModelType == models.CategoryTTS && in.Model.Quantization == "" {
		rec.Rationale = append(rec.Rationale, "Consider quantization for faster TTS inference")
	}

	return rec
}

func assess(model models.ModelSpec, score float64, c TargetConstraints) TargetAssessment {
	suitability := 100.0
	var warnings []string

	if model.ParameterCountB != nil && c.MaxParamsB != nil && *model.ParameterCountB > *c.MaxParamsB {
		suitability -= penaltyParams
		warnings = append(warnings, fmt.Sprintf(
			"Model has %gB params, target max is %gB", *model.ParameterCountB, *c.MaxParamsB))
	}

	if model.ModelSizeGB != nil && c.MaxSizeGB != nil && *model.ModelSizeGB > *c.MaxSizeGB {
		suitability -= penaltySize
		warnings = append(warnings, fmt.Sprintf(
			"Model is %gGB, target max is %gGB", *model.ModelSizeGB, *c.MaxSizeGB))
	}

	if score < c.MinScore {
		suitability -= penaltyScore
		warnings = append(warnings, fmt.Sprintf(
			"Score %.1f below target minimum %.1f", score, c.MinScore))
	}

	return TargetAssessment{
		Target:      c.Target,
		Suitability: math.Max(0, math.Round(suitability*10)/10),
		Description: c.Description,
		Warnings:    warnings,
	}
}

// sortTargets orders assessments by suitability descending. Stable, so
// catalogue order breaks ties.
func sortTargets(targets []TargetAssessment) {
	sort.SliceStable(targets, func(a, b int) bool {
		return targets[a].Suitability > targets[b].Suitability
	})
}

// BestPerTarget summarizes which model fits each deployment target best
// across a set of recommendations. Strictly-greater comparison keeps the
// first model on ties.
type BestPerTarget struct {
	TargetAssessment
	ModelName string  `json:"model_name"`
	Score     float64 `json:"score"`
}

// CompareRecommendations aggregates per-model recommendations into a best
// model per deployment target.
func CompareRecommendations(recs []Recommendation) (map[models.DeploymentTarget]BestPerTarget, int) {
	best := make(map[models.DeploymentTarget]BestPerTarget)
	for _, rec := range recs {
		for _, ta := range rec.Targets {
			current, ok := best[ta.Target]
			if !ok || ta.Suitability > current.Suitability {
				best[ta.Target] = BestPerTarget{
					TargetAssessment: ta,
					ModelName:        rec.ModelName,
					Score:            rec.Score,
				}
			}
		}
	}
	return best, len(recs)
}

func limit(v float64) *float64 {
	return &v
}
