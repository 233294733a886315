package reporting

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicelearn/vleval/internal/models"
	"github.com/voicelearn/vleval/internal/regression"
)

func TestInterpretScore(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		want  string
	}{
		{"excellent", 95, "Excellent (>90)"},
		{"boundary_90_is_good", 90, "Good (70-90)"},
		{"good", 75, "Good (70-90)"},
		{"needs_work", 55, "Needs Work (50-70)"},
		{"poor", 30, "Poor (<50)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InterpretScore(tt.score))
		})
	}
}

func passingRating() *models.GradeLevelRating {
	hs := models.TierHighSchool
	return &models.GradeLevelRating{
		ModelID: "m1",
		RunID:   "r1",
		TierScores: map[models.Tier]float64{
			models.TierElementary: 91.0,
			models.TierHighSchool: 76.5,
			models.TierUndergrad:  58.0,
		},
		MaxPassingTier:        &hs,
		Threshold:             70.0,
		OverallEducationScore: 76.42,
	}
}

func TestInterpretRating(t *testing.T) {
	msg := InterpretRating(passingRating())
	assert.Contains(t, msg, "High School")
	assert.Contains(t, msg, "76.5")

	none := &models.GradeLevelRating{Threshold: 70.0}
	msg = InterpretRating(none)
	assert.Contains(t, msg, "did not reach")
	assert.Contains(t, msg, "Elementary")
}

func TestFormatRatingReport(t *testing.T) {
	out := FormatRatingReport(passingRating())

	assert.Contains(t, out, "Certified level: High School")
	assert.Contains(t, out, "PASS")
	assert.Contains(t, out, "FAIL")
	// Tiers appear easiest-first.
	assert.Less(t, strings.Index(out, "Elementary"), strings.Index(out, "Undergraduate"))
}

func regressedReport() regression.Report {
	return regression.Report{
		HasRegression:      true,
		OverallSeverity:    regression.SeverityCritical,
		RegressionCount:    1,
		TotalTasksCompared: 3,
		AverageDelta:       -3.33,
		Tasks: []regression.TaskRegression{
			{TaskName: "GSM8K", CurrentScore: 65, BaselineScore: 75, Delta: -10, DeltaPercent: -13.3, Severity: regression.SeverityCritical},
			{TaskName: "ARC Easy", CurrentScore: 80, BaselineScore: 80, Severity: regression.SeverityNone},
		},
	}
}

func TestInterpretRegression(t *testing.T) {
	assert.Contains(t, InterpretRegression(regressedReport()), "CRITICAL")

	clean := regression.Report{TotalTasksCompared: 5}
	assert.Contains(t, InterpretRegression(clean), "No regressions")
}

func TestFormatRegressionReport(t *testing.T) {
	out := FormatRegressionReport(regressedReport())

	assert.Contains(t, out, "[CRITICAL] GSM8K: 75.00 -> 65.00 (-13.3%)")
	assert.NotContains(t, out, "ARC Easy", "unregressed tasks are not listed")
	assert.Contains(t, out, "Average delta: -3.33")
}

func TestConvertToJUnit(t *testing.T) {
	suites := ConvertToJUnit("m1 vs v1.0", regressedReport())

	assert.Equal(t, 3, suites.Tests)
	assert.Equal(t, 1, suites.Failures)
	require.Len(t, suites.TestSuites, 1)

	suite := suites.TestSuites[0]
	require.Len(t, suite.TestCases, 2)
	require.NotNil(t, suite.TestCases[0].Failure)
	assert.Equal(t, "ScoreRegression", suite.TestCases[0].Failure.Type)
	assert.Nil(t, suite.TestCases[1].Failure)
}
