// Package gradelevel turns per-task benchmark scores into tiered
// educational-suitability ratings.
package gradelevel

import "github.com/voicelearn/vleval/internal/models"

// DefaultThreshold is the pass/fail score boundary for a tier.
const DefaultThreshold = 70.0

// TierOrder is the fixed progression of education tiers, easiest first.
// Certification is sequential: a model must pass every tier up to and
// including a level to earn it.
var TierOrder = []models.Tier{
	models.TierElementary,
	models.TierHighSchool,
	models.TierUndergrad,
	models.TierGrad,
}

// TierLabels are the human-readable names used in reports.
var TierLabels = map[models.Tier]string{
	models.TierElementary: "Elementary (Gr 5-8)",
	models.TierHighSchool: "High School (Gr 9-12)",
	models.TierUndergrad:  "Undergraduate",
	models.TierGrad:       "Graduate",
}

// TierWeights weight each tier's contribution to the overall education score.
// Lower tiers weigh more because foundational capability matters most in
// educational deployments.
var TierWeights = map[models.Tier]float64{
	models.TierElementary: 1.0,
	models.TierHighSchool: 1.0,
	models.TierUndergrad:  0.8,
	models.TierGrad:       0.6,
}

// TierRank returns the position of a tier in TierOrder, or -1 for an
// unrecognized tier.
func TierRank(tier models.Tier) int {
	for i, t := range TierOrder {
		if t == tier {
			return i
		}
	}
	return -1
}
