// Package statistics provides pure aggregation functions over task result
// scores. Null scores are treated as absent data and excluded everywhere.
package statistics

import (
	"math"
	"sort"

	"github.com/voicelearn/vleval/internal/models"
)

// Summary holds aggregate statistics for a set of scores. Pointer fields are
// nil when no scored results exist (Count == 0).
type Summary struct {
	Mean   *float64    `json:"mean"`
	Median *float64    `json:"median"`
	StdDev *float64    `json:"std_dev"`
	Min    *float64    `json:"min"`
	Max    *float64    `json:"max"`
	Count  int         `json:"count"`
	CI95   *[2]float64 `json:"confidence_interval_95"`
}

// Aggregate computes summary statistics over the scored results. Results with
// a nil score do not contribute. StdDev uses sample variance (n-1, clamped to
// at least 1 so a single sample yields 0). The 95% confidence interval uses
// the z=1.96 normal approximation.
func Aggregate(results []models.TaskResult) Summary {
	scores := ScoredValues(results)
	if len(scores) == 0 {
		return Summary{Count: 0}
	}

	n := len(scores)
	mean := Mean(scores)

	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)

	var median float64
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	} else {
		median = sorted[n/2]
	}

	sd := SampleStdDev(scores)

	var margin float64
	if n > 1 {
		margin = 1.96 * sd / math.Sqrt(float64(n))
	}
	ci := [2]float64{Round2(mean - margin), Round2(mean + margin)}

	return Summary{
		Mean:   ptr(Round2(mean)),
		Median: ptr(Round2(median)),
		StdDev: ptr(Round2(sd)),
		Min:    ptr(Round2(sorted[0])),
		Max:    ptr(Round2(sorted[n-1])),
		Count:  n,
		CI95:   &ci,
	}
}

// GroupBy groups results by the given key function and aggregates each group.
// An empty key falls into the "unknown" group.
func GroupBy(results []models.TaskResult, key func(models.TaskResult) string) map[string]Summary {
	groups := make(map[string][]models.TaskResult)
	for _, r := range results {
		k := key(r)
		if k == "" {
			k = "unknown"
		}
		groups[k] = append(groups[k], r)
	}

	out := make(map[string]Summary, len(groups))
	for k, items := range groups {
		out[k] = Aggregate(items)
	}
	return out
}

// ByTier groups results by education tier; untiered results land in "unknown".
func ByTier(results []models.TaskResult) map[string]Summary {
	return GroupBy(results, func(r models.TaskResult) string {
		return string(r.EducationTier)
	})
}

// Percentile computes the p-th percentile (0-100) using linear interpolation
// between order statistics. Empty input returns 0.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	k := (p / 100) * float64(len(sorted)-1)
	f := math.Floor(k)
	c := math.Ceil(k)
	if f == c {
		return sorted[int(k)]
	}
	return sorted[int(f)]*(c-k) + sorted[int(c)]*(k-f)
}

// ScoredValues extracts the non-nil scores from results, preserving order.
func ScoredValues(results []models.TaskResult) []float64 {
	var scores []float64
	for _, r := range results {
		if r.Score != nil {
			scores = append(scores, *r.Score)
		}
	}
	return scores
}

// Mean computes the arithmetic mean. Returns 0 for empty input.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// SampleStdDev computes the sample standard deviation (Bessel's correction),
// with the divisor clamped to at least 1 so a single sample yields 0.
func SampleStdDev(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	m := Mean(values)
	sumSq := 0.0
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	div := n - 1
	if div < 1 {
		div = 1
	}
	return math.Sqrt(sumSq / float64(div))
}

// Round2 rounds to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func ptr(v float64) *float64 {
	return &v
}
