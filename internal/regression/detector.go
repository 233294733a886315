// Package regression compares a current result set against a baseline and
// classifies score declines. Its exit-code mapping is the contract CI
// pipelines branch on and must stay bit-exact.
package regression

import (
	"math"
	"sort"

	"github.com/voicelearn/vleval/internal/models"
	"github.com/voicelearn/vleval/internal/statistics"
)

// Severity classifies how bad a score decline is.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityMinor    Severity = "minor"    // < 5% decline
	SeverityModerate Severity = "moderate" // 5-15% decline
	SeveritySevere   Severity = "severe"   // > 15% decline
	SeverityCritical Severity = "critical" // dropped below the passing threshold
)

// severityRank orders severities worst-first for sorting and comparison.
var severityRank = map[Severity]int{
	SeverityCritical: 0,
	SeveritySevere:   1,
	SeverityModerate: 2,
	SeverityMinor:    3,
	SeverityNone:     4,
}

// TaskRegression is the per-task comparison between current and baseline.
type TaskRegression struct {
	TaskName      string      `json:"task_name"`
	CurrentScore  float64     `json:"current_score"`
	BaselineScore float64     `json:"baseline_score"`
	Delta         float64     `json:"delta"`
	DeltaPercent  float64     `json:"delta_percent"`
	Severity      Severity    `json:"severity"`
	EducationTier models.Tier `json:"education_tier,omitempty"`
}

// Report is the full regression analysis. It is computed on demand and never
// persisted as its own entity.
type Report struct {
	HasRegression      bool             `json:"has_regression"`
	OverallSeverity    Severity         `json:"overall_severity"`
	RegressionCount    int              `json:"regression_count"`
	TotalTasksCompared int              `json:"total_tasks_compared"`
	AverageDelta       float64          `json:"average_delta"`
	Tasks              []TaskRegression `json:"tasks"`
}

// Detect compares current results against baseline results matched by task
// name (falling back to benchmark ID). Tasks present in only one set, or
// lacking a score on either side, are excluded from the comparison entirely.
func Detect(current, baseline []models.TaskResult, threshold float64) Report {
	baselineByTask := make(map[string]models.TaskResult, len(baseline))
	for _, r := range baseline {
		if key := r.MatchKey(); key != "" {
			baselineByTask[key] = r
		}
	}

	var tasks []TaskRegression
	totalDelta := 0.0
	regressionCount := 0

	for _, result := range current {
		key := result.MatchKey()
		if result.Score == nil || key == "" {
			continue
		}
		base, ok := baselineByTask[key]
		if !ok || base.Score == nil {
			continue
		}

		currentScore := *result.Score
		baselineScore := *base.Score
		delta := currentScore - baselineScore
		totalDelta += delta

		severity := classifySeverity(currentScore, baselineScore, threshold)
		if severity != SeverityNone {
			regressionCount++
		}

		deltaPercent := 0.0
		if baselineScore != 0 {
			deltaPercent = round1(delta / baselineScore * 100)
		}

		tasks = append(tasks, TaskRegression{
			TaskName:      key,
			CurrentScore:  statistics.Round2(currentScore),
			BaselineScore: statistics.Round2(baselineScore),
			Delta:         statistics.Round2(delta),
			DeltaPercent:  deltaPercent,
			Severity:      severity,
			EducationTier: result.EducationTier,
		})
	}

	// Worst first. Stable so equal severities keep input order.
	sort.SliceStable(tasks, func(a, b int) bool {
		return severityRank[tasks[a].Severity] < severityRank[tasks[b].Severity]
	})

	matched := len(tasks)
	avgDelta := 0.0
	if matched > 0 {
		avgDelta = statistics.Round2(totalDelta / float64(matched))
	}

	return Report{
		HasRegression:      regressionCount > 0,
		OverallSeverity:    overallSeverity(tasks, regressionCount, matched),
		RegressionCount:    regressionCount,
		TotalTasksCompared: matched,
		AverageDelta:       avgDelta,
		Tasks:              tasks,
	}
}

// classifySeverity classifies a single task's decline. Precedence matters:
// an improvement or tie is never a regression, and crossing the pass/fail
// threshold is critical regardless of percentage magnitude.
func classifySeverity(current, baseline, threshold float64) Severity {
	if current >= baseline {
		return SeverityNone
	}

	if baseline >= threshold && current < threshold {
		return SeverityCritical
	}

	declinePct := 0.0
	if baseline != 0 {
		declinePct = (baseline - current) / baseline * 100
	}

	switch {
	case declinePct > 15:
		return SeveritySevere
	case declinePct > 5:
		return SeverityModerate
	case declinePct > 0:
		return SeverityMinor
	}
	return SeverityNone
}

// overallSeverity derives the report severity: any critical or severe task
// dominates; otherwise moderate when more than half of the matched tasks
// regressed, minor when any regressed at all.
func overallSeverity(tasks []TaskRegression, regressionCount, matched int) Severity {
	for _, t := range tasks {
		if t.Severity == SeverityCritical {
			return SeverityCritical
		}
	}
	for _, t := range tasks {
		if t.Severity == SeveritySevere {
			return SeveritySevere
		}
	}
	switch {
	case float64(regressionCount) > float64(matched)*0.5:
		return SeverityModerate
	case regressionCount > 0:
		return SeverityMinor
	}
	return SeverityNone
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
