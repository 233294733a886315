package statistics

import (
	"math"
	"math/rand"
	"sort"
)

// ConfidenceInterval is a percentile bootstrap interval around the mean of a
// set of run-level scores.
type ConfidenceInterval struct {
	Lower           float64 `json:"lower"`
	Upper           float64 `json:"upper"`
	Mean            float64 `json:"mean"`
	ConfidenceLevel float64 `json:"confidence_level"`
	NumBootstraps   int     `json:"num_bootstraps"`
}

// DefaultBootstrapIterations is the number of bootstrap resamples.
const DefaultBootstrapIterations = 10000

// DefaultConfidenceLevel is the confidence level used by run reports.
const DefaultConfidenceLevel = 0.95

// BootstrapCI computes a percentile bootstrap confidence interval over the
// given scores. confidenceLevel is a fraction, e.g. 0.95. With fewer than 2
// data points the interval collapses to the mean and NumBootstraps is 0.
func BootstrapCI(scores []float64, confidenceLevel float64) ConfidenceInterval {
	return BootstrapCIWithSeed(scores, confidenceLevel, -1)
}

// BootstrapCIWithSeed is BootstrapCI with a fixed seed for reproducibility.
// A negative seed uses a non-deterministic source.
func BootstrapCIWithSeed(scores []float64, confidenceLevel float64, seed int64) ConfidenceInterval {
	ci := ConfidenceInterval{
		Mean:            Mean(scores),
		ConfidenceLevel: confidenceLevel,
	}
	ci.Lower, ci.Upper = ci.Mean, ci.Mean
	if len(scores) < 2 {
		return ci
	}

	if seed < 0 {
		seed = rand.Int63()
	}
	means := resampleMeans(rand.New(rand.NewSource(seed)), scores, DefaultBootstrapIterations)
	sort.Float64s(means)

	alpha := 1.0 - confidenceLevel
	ci.Lower = percentileOf(means, alpha/2.0)
	ci.Upper = percentileOf(means, 1.0-alpha/2.0)
	ci.NumBootstraps = len(means)
	return ci
}

// resampleMeans draws iters resamples with replacement from scores and
// returns the mean of each resample.
func resampleMeans(rng *rand.Rand, scores []float64, iters int) []float64 {
	means := make([]float64, iters)
	sample := make([]float64, len(scores))
	for i := range means {
		for j := range sample {
			sample[j] = scores[rng.Intn(len(scores))]
		}
		means[i] = Mean(sample)
	}
	return means
}

// percentileOf indexes sorted values at fraction p, clamped to the last
// element.
func percentileOf(sorted []float64, p float64) float64 {
	idx := int(math.Floor(p * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
