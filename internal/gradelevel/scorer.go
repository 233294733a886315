package gradelevel

import "github.com/voicelearn/vleval/internal/models"

// TierScore computes the weighted mean score for tasks in the given tier,
// along with the contributing task breakdown. Results without a score are
// excluded; a tier with no scored tasks yields (0, nil). Weights default
// to 1.0 when unset.
func TierScore(results []models.TaskResult, tier models.Tier) (float64, []models.TaskBreakdown) {
	var tierTasks []models.TaskResult
	for _, r := range results {
		if r.EducationTier == tier && r.Score != nil {
			tierTasks = append(tierTasks, r)
		}
	}
	if len(tierTasks) == 0 {
		return 0.0, nil
	}

	totalWeight := 0.0
	weightedSum := 0.0
	for _, t := range tierTasks {
		w := t.EffectiveWeight()
		totalWeight += w
		weightedSum += *t.Score * w
	}
	if totalWeight == 0 {
		return 0.0, nil
	}

	breakdown := make([]models.TaskBreakdown, 0, len(tierTasks))
	for _, t := range tierTasks {
		breakdown = append(breakdown, models.TaskBreakdown{
			TaskName: t.TaskName,
			Score:    *t.Score,
			Weight:   t.EffectiveWeight(),
		})
	}

	return weightedSum / totalWeight, breakdown
}

// Passes reports whether a tier score meets the threshold. The boundary is
// inclusive: a score exactly at the threshold passes.
func Passes(score, threshold float64) bool {
	return score >= threshold
}

// MaxPassingTier walks TierOrder and returns the highest tier such that every
// tier up to and including it passes the threshold. The walk stops at the
// first tier that is absent from tierScores or fails: tiers beyond a gap are
// never considered, even if they individually pass. Returns nil when the
// first tier already fails or is absent.
func MaxPassingTier(tierScores map[models.Tier]float64, threshold float64) *models.Tier {
	var max *models.Tier
	for _, tier := range TierOrder {
		score, ok := tierScores[tier]
		if !ok || !Passes(score, threshold) {
			break
		}
		t := tier
		max = &t
	}
	return max
}

// OverallEducationScore computes the weighted mean across the tiers present
// in tierScores, using TierWeights. Returns 0 when no tiers are present.
func OverallEducationScore(tierScores map[models.Tier]float64) float64 {
	totalWeight := 0.0
	weightedSum := 0.0
	for _, tier := range TierOrder {
		score, ok := tierScores[tier]
		if !ok {
			continue
		}
		w := TierWeights[tier]
		weightedSum += score * w
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0.0
	}
	return weightedSum / totalWeight
}

// ComputeRating assembles the full grade-level rating for one run. Tiers with
// no scored tasks are omitted from the rating entirely, which makes them act
// as gaps for MaxPassingTier.
func ComputeRating(modelID, runID string, results []models.TaskResult, threshold float64) models.GradeLevelRating {
	tierScores := make(map[models.Tier]float64)
	tierDetails := make(map[models.Tier][]models.TaskBreakdown)

	for _, tier := range TierOrder {
		score, breakdown := TierScore(results, tier)
		if len(breakdown) > 0 {
			tierScores[tier] = score
			tierDetails[tier] = breakdown
		}
	}

	return models.GradeLevelRating{
		ModelID:               modelID,
		RunID:                 runID,
		TierScores:            tierScores,
		MaxPassingTier:        MaxPassingTier(tierScores, threshold),
		TierDetails:           tierDetails,
		Threshold:             threshold,
		OverallEducationScore: OverallEducationScore(tierScores),
	}
}
