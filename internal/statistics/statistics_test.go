package statistics

import (
	"math"
	"testing"

	"github.com/voicelearn/vleval/internal/models"
)

const epsilon = 1e-9

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func scored(score float64) models.TaskResult {
	return models.TaskResult{Score: models.Float64Ptr(score)}
}

func unscored() models.TaskResult {
	return models.TaskResult{}
}

func TestAggregateEmpty(t *testing.T) {
	tests := []struct {
		name  string
		input []models.TaskResult
	}{
		{"nil", nil},
		{"all_unscored", []models.TaskResult{unscored(), unscored()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.input)
			if got.Count != 0 {
				t.Errorf("Count = %d, want 0", got.Count)
			}
			if got.Mean != nil || got.Median != nil || got.StdDev != nil ||
				got.Min != nil || got.Max != nil || got.CI95 != nil {
				t.Errorf("expected all nil fields, got %+v", got)
			}
		})
	}
}

func TestAggregateIgnoresNullScores(t *testing.T) {
	input := []models.TaskResult{scored(80), unscored(), scored(90), unscored()}
	got := Aggregate(input)

	if got.Count != 2 {
		t.Fatalf("Count = %d, want 2", got.Count)
	}
	if !approxEqual(*got.Mean, 85) {
		t.Errorf("Mean = %f, want 85", *got.Mean)
	}
	if !approxEqual(*got.Median, 85) {
		t.Errorf("Median = %f, want 85", *got.Median)
	}
	if !approxEqual(*got.Min, 80) || !approxEqual(*got.Max, 90) {
		t.Errorf("Min/Max = %f/%f, want 80/90", *got.Min, *got.Max)
	}
}

func TestAggregateSingleSample(t *testing.T) {
	got := Aggregate([]models.TaskResult{scored(75)})

	if !approxEqual(*got.StdDev, 0) {
		t.Errorf("StdDev = %f, want 0 for single sample", *got.StdDev)
	}
	if got.CI95 == nil || !approxEqual(got.CI95[0], 75) || !approxEqual(got.CI95[1], 75) {
		t.Errorf("CI95 = %v, want [75, 75]", got.CI95)
	}
}

func TestAggregateSampleStdDev(t *testing.T) {
	// 2, 4, 4, 4, 5, 5, 7, 9: sample variance 32/7, stddev ~2.14
	results := []models.TaskResult{
		scored(2), scored(4), scored(4), scored(4),
		scored(5), scored(5), scored(7), scored(9),
	}
	got := Aggregate(results)
	want := math.Sqrt(32.0 / 7.0)
	if math.Abs(*got.StdDev-Round2(want)) > epsilon {
		t.Errorf("StdDev = %f, want %f", *got.StdDev, Round2(want))
	}
}

func TestAggregateMedianEvenOdd(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   float64
	}{
		{"odd", []float64{10, 30, 20}, 20},
		{"even", []float64{10, 20, 30, 40}, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var results []models.TaskResult
			for _, s := range tt.scores {
				results = append(results, scored(s))
			}
			got := Aggregate(results)
			if !approxEqual(*got.Median, tt.want) {
				t.Errorf("Median = %f, want %f", *got.Median, tt.want)
			}
		})
	}
}

func TestGroupByUnknownDefault(t *testing.T) {
	results := []models.TaskResult{
		{Score: models.Float64Ptr(80), EducationTier: models.TierElementary},
		{Score: models.Float64Ptr(60)},
	}
	got := ByTier(results)

	if len(got) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(got))
	}
	if _, ok := got["elementary"]; !ok {
		t.Error("missing elementary group")
	}
	unknown, ok := got["unknown"]
	if !ok {
		t.Fatal("missing unknown group")
	}
	if unknown.Count != 1 || !approxEqual(*unknown.Mean, 60) {
		t.Errorf("unknown group = %+v, want count 1 mean 60", unknown)
	}
}

func TestPercentile(t *testing.T) {
	xs := []float64{15, 20, 35, 40, 50}
	tests := []struct {
		name string
		p    float64
		want float64
	}{
		{"p0_is_min", 0, 15},
		{"p100_is_max", 100, 50},
		{"p50_is_median", 50, 35},
		{"p25_interpolates", 25, 20},
		{"p40_interpolates", 40, 29},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(xs, tt.p)
			if !approxEqual(got, tt.want) {
				t.Errorf("Percentile(%v, %v) = %f, want %f", xs, tt.p, got, tt.want)
			}
		})
	}
}

func TestPercentileEmpty(t *testing.T) {
	for _, p := range []float64{0, 50, 100} {
		if got := Percentile(nil, p); got != 0.0 {
			t.Errorf("Percentile(nil, %v) = %f, want 0", p, got)
		}
	}
}

func TestPercentileDoesNotMutateInput(t *testing.T) {
	xs := []float64{3, 1, 2}
	Percentile(xs, 50)
	if xs[0] != 3 || xs[1] != 1 || xs[2] != 2 {
		t.Errorf("input mutated: %v", xs)
	}
}

func TestSampleStdDev(t *testing.T) {
	tests := []struct {
		name   string
		input  []float64
		expect float64
	}{
		{"empty", nil, 0},
		{"single", []float64{5.0}, 0},
		{"uniform", []float64{3, 3, 3}, 0},
		{"pair", []float64{1, 3}, math.Sqrt(2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SampleStdDev(tt.input)
			if !approxEqual(got, tt.expect) {
				t.Errorf("SampleStdDev(%v) = %f, want %f", tt.input, got, tt.expect)
			}
		})
	}
}
