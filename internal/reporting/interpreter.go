// Package reporting turns analysis results into plain-language text,
// markdown reports, and CI artifacts.
package reporting

import (
	"fmt"
	"strings"

	"github.com/voicelearn/vleval/internal/gradelevel"
	"github.com/voicelearn/vleval/internal/models"
	"github.com/voicelearn/vleval/internal/regression"
)

// InterpretScore returns a plain-language label for a 0-100 score.
func InterpretScore(score float64) string {
	switch {
	case score > 90:
		return "Excellent (>90)"
	case score >= 70:
		return "Good (70-90)"
	case score >= 50:
		return "Needs Work (50-70)"
	default:
		return "Poor (<50)"
	}
}

// InterpretRating explains what a grade-level rating means for learners.
func InterpretRating(rating *models.GradeLevelRating) string {
	if rating.MaxPassingTier == nil {
		return fmt.Sprintf(
			"This model did not reach the %s level (threshold %.0f). It is not yet suitable for tutoring at any certified grade level.",
			gradelevel.TierLabels[models.TierElementary], rating.Threshold)
	}
	tier := *rating.MaxPassingTier
	score := rating.TierScores[tier]
	return fmt.Sprintf(
		"This model is certified up to the %s level, scoring %.1f against a threshold of %.0f. Content aimed at higher levels should be reviewed by a human before use.",
		gradelevel.TierLabels[tier], score, rating.Threshold)
}

// FormatRatingReport produces the full plain-language rating summary printed
// by the grade command.
func FormatRatingReport(rating *models.GradeLevelRating) string {
	var b strings.Builder

	b.WriteString("=== Grade-Level Rating ===\n\n")

	if rating.MaxPassingTier != nil {
		b.WriteString(fmt.Sprintf("Certified level: %s\n", gradelevel.TierLabels[*rating.MaxPassingTier]))
	} else {
		b.WriteString("Certified level: none\n")
	}
	b.WriteString(fmt.Sprintf("Overall education score: %.2f — %s\n\n",
		rating.OverallEducationScore, InterpretScore(rating.OverallEducationScore)))

	for _, tier := range gradelevel.TierOrder {
		score, ok := rating.TierScores[tier]
		if !ok {
			continue
		}
		verdict := "FAIL"
		if gradelevel.Passes(score, rating.Threshold) {
			verdict = "PASS"
		}
		b.WriteString(fmt.Sprintf("  %-22s %6.2f  %s\n", gradelevel.TierLabels[tier], score, verdict))
	}

	b.WriteString("\n")
	b.WriteString(InterpretRating(rating))
	b.WriteString("\n")
	return b.String()
}

// InterpretRegression summarizes a regression report in one sentence.
func InterpretRegression(report regression.Report) string {
	if !report.HasRegression {
		return fmt.Sprintf("No regressions across %d compared tasks.", report.TotalTasksCompared)
	}
	switch report.OverallSeverity {
	case regression.SeverityCritical:
		return fmt.Sprintf(
			"CRITICAL: %d of %d tasks regressed, including at least one task that dropped below the passing threshold. Do not ship this build.",
			report.RegressionCount, report.TotalTasksCompared)
	case regression.SeveritySevere:
		return fmt.Sprintf(
			"Severe regression: %d of %d tasks regressed, with at least one score dropping more than 15%%.",
			report.RegressionCount, report.TotalTasksCompared)
	case regression.SeverityModerate:
		return fmt.Sprintf(
			"Moderate regression: %d of %d tasks regressed. Review before shipping.",
			report.RegressionCount, report.TotalTasksCompared)
	default:
		return fmt.Sprintf(
			"Minor regression: %d of %d tasks slipped slightly. Likely noise, worth a second run.",
			report.RegressionCount, report.TotalTasksCompared)
	}
}

// FormatRegressionReport produces the full plain-language regression summary
// printed by the regression command.
func FormatRegressionReport(report regression.Report) string {
	var b strings.Builder

	b.WriteString("=== Regression Check ===\n\n")
	b.WriteString(InterpretRegression(report))
	b.WriteString("\n")

	if report.TotalTasksCompared > 0 {
		b.WriteString(fmt.Sprintf("\nAverage delta: %+.2f\n", report.AverageDelta))
	}

	regressed := 0
	for _, task := range report.Tasks {
		if task.Severity == regression.SeverityNone {
			continue
		}
		if regressed == 0 {
			b.WriteString("\nRegressed tasks (worst first):\n")
		}
		regressed++
		b.WriteString(fmt.Sprintf("  [%s] %s: %.2f -> %.2f (%+.1f%%)\n",
			strings.ToUpper(string(task.Severity)), task.TaskName,
			task.BaselineScore, task.CurrentScore, task.DeltaPercent))
	}
	return b.String()
}
