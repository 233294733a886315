package models

// TaskBreakdown is one contributing task within a tier score.
type TaskBreakdown struct {
	TaskName string  `json:"task_name"`
	Score    float64 `json:"score"`
	Weight   float64 `json:"weight"`
}

// GradeLevelRating is the grade-level capability assessment for one run.
// MaxPassingTier is nil when no tier passed; TierScores holds only tiers
// that had at least one scored task.
type GradeLevelRating struct {
	ModelID               string                   `json:"model_id"`
	RunID                 string                   `json:"run_id"`
	TierScores            map[Tier]float64         `json:"tier_scores"`
	MaxPassingTier        *Tier                    `json:"max_passing_tier"`
	TierDetails           map[Tier][]TaskBreakdown `json:"tier_details"`
	Threshold             float64                  `json:"threshold"`
	OverallEducationScore float64                  `json:"overall_education_score"`
}
