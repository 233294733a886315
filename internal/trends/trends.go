// Package trends analyzes time-ordered score series per model: moving
// averages, direction classification, and statistical anomaly detection.
package trends

import (
	"math"
	"sort"

	"github.com/voicelearn/vleval/internal/models"
	"github.com/voicelearn/vleval/internal/statistics"
)

// Direction classifies how a model's scores are moving over time.
type Direction string

const (
	DirectionImproving        Direction = "improving"
	DirectionDeclining        Direction = "declining"
	DirectionStable           Direction = "stable"
	DirectionInsufficientData Direction = "insufficient_data"
)

// DefaultWindowSize is the moving-average window.
const DefaultWindowSize = 5

// DefaultAnomalyThreshold is the z-score above which a point is anomalous.
const DefaultAnomalyThreshold = 2.0

// Trend is the analysis for one model's run history.
type Trend struct {
	Direction     Direction `json:"direction"`
	DataPoints    int       `json:"data_points"`
	Scores        []float64 `json:"scores"`
	Dates         []string  `json:"dates"`
	MovingAverage []float64 `json:"moving_average"`
	Change        *float64  `json:"change"`
	ChangePercent *float64  `json:"change_percent"`
	LatestScore   *float64  `json:"latest_score,omitempty"`
	FirstScore    *float64  `json:"first_score,omitempty"`
}

// Anomaly flags a score that deviates significantly from the series mean.
type Anomaly struct {
	Index        int     `json:"index"`
	Score        float64 `json:"score"`
	Expected     float64 `json:"expected"`
	DeviationStd float64 `json:"deviation_std"`
	Direction    string  `json:"direction"` // above or below
}

// Analyze groups completed runs by model and computes per-model trends.
// Runs are ordered by completion timestamp compared lexically (ISO-8601;
// a missing timestamp sorts first). Fewer than 2 scored runs yields
// insufficient_data.
func Analyze(runs []models.EvalRun, windowSize int) map[string]Trend {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}

	byModel := make(map[string][]models.EvalRun)
	for _, run := range runs {
		mid := run.ModelID
		if mid == "" {
			mid = "unknown"
		}
		byModel[mid] = append(byModel[mid], run)
	}

	out := make(map[string]Trend, len(byModel))
	for modelID, modelRuns := range byModel {
		sort.SliceStable(modelRuns, func(a, b int) bool {
			return modelRuns[a].CompletedAt < modelRuns[b].CompletedAt
		})

		var scores []float64
		var dates []string
		for _, r := range modelRuns {
			if r.OverallScore == nil {
				continue
			}
			scores = append(scores, *r.OverallScore)
			dates = append(dates, r.CompletedAt)
		}

		if len(scores) < 2 {
			out[modelID] = Trend{
				Direction:     DirectionInsufficientData,
				DataPoints:    len(scores),
				Scores:        scores,
				Dates:         dates,
				MovingAverage: scores,
			}
			continue
		}

		change := statistics.Round2(scores[len(scores)-1] - scores[0])
		changePct := 0.0
		if scores[0] != 0 {
			changePct = math.Round(change/scores[0]*1000) / 10
		}

		out[modelID] = Trend{
			Direction:     classify(scores),
			DataPoints:    len(scores),
			Scores:        scores,
			Dates:         dates,
			MovingAverage: MovingAverage(scores, windowSize),
			Change:        &change,
			ChangePercent: &changePct,
			LatestScore:   &scores[len(scores)-1],
			FirstScore:    &scores[0],
		}
	}
	return out
}

// classify compares the mean of the last up-to-3 points against the first
// up-to-3. The windows may overlap when fewer than 6 points exist.
func classify(scores []float64) Direction {
	n := len(scores)
	w := 3
	if n < w {
		w = n
	}
	recent := statistics.Mean(scores[n-w:])
	earlier := statistics.Mean(scores[:w])

	switch {
	case recent > earlier+2:
		return DirectionImproving
	case recent < earlier-2:
		return DirectionDeclining
	}
	return DirectionStable
}

// MovingAverage computes a simple trailing moving average. Indices before the
// window fills average over all points so far. Values are rounded to 2
// decimals.
func MovingAverage(values []float64, window int) []float64 {
	result := make([]float64, 0, len(values))
	for i := range values {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		result = append(result, statistics.Round2(statistics.Mean(values[start:i+1])))
	}
	return result
}

// DetectAnomalies flags points whose absolute z-score (sample standard
// deviation) exceeds the threshold. Requires at least 4 points; a zero
// standard deviation yields no anomalies.
func DetectAnomalies(scores []float64, stdThreshold float64) []Anomaly {
	if len(scores) < 4 {
		return nil
	}
	if stdThreshold <= 0 {
		stdThreshold = DefaultAnomalyThreshold
	}

	mean := statistics.Mean(scores)
	sd := statistics.SampleStdDev(scores)
	if sd == 0 {
		return nil
	}

	var anomalies []Anomaly
	for i, score := range scores {
		deviation := math.Abs(score-mean) / sd
		if deviation <= stdThreshold {
			continue
		}
		direction := "above"
		if score < mean {
			direction = "below"
		}
		anomalies = append(anomalies, Anomaly{
			Index:        i,
			Score:        score,
			Expected:     statistics.Round2(mean),
			DeviationStd: statistics.Round2(deviation),
			Direction:    direction,
		})
	}
	return anomalies
}
