package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicelearn/vleval/internal/models"
)

func smallModel() models.ModelSpec {
	return models.ModelSpec{
		ID:              "m1",
		Name:            "tiny-llm",
		ModelType:       models.CategoryLLM,
		ParameterCountB: models.Float64Ptr(1.0),
		ModelSizeGB:     models.Float64Ptr(2.0),
	}
}

func runWithScore(score float64) *models.EvalRun {
	return &models.EvalRun{ID: "run-1", OverallScore: models.Float64Ptr(score)}
}

func TestRecommendSmallHighScoringModel(t *testing.T) {
	rec := Recommend(Input{Model: smallModel(), Run: runWithScore(85)})

	// Fits every constraint everywhere: all targets at 100, catalogue
	// order breaks the tie toward on-device.
	assert.Equal(t, models.TargetOnDevice, rec.RecommendedTarget)
	for _, ta := range rec.Targets {
		assert.Equal(t, 100.0, ta.Suitability, "target %s", ta.Target)
	}
}

func TestRecommendLargeModelPenalties(t *testing.T) {
	model := smallModel()
	model.ParameterCountB = models.Float64Ptr(40.0)
	model.ModelSizeGB = models.Float64Ptr(80.0)

	rec := Recommend(Input{Model: model, Run: runWithScore(80)})

	var onDevice *TargetAssessment
	for i := range rec.Targets {
		if rec.Targets[i].Target == models.TargetOnDevice {
			onDevice = &rec.Targets[i]
		}
	}
	require.NotNil(t, onDevice)

	// 100 - 40 (params) - 30 (size) = 30
	assert.Equal(t, 30.0, onDevice.Suitability)
	assert.Len(t, onDevice.Warnings, 2)
	assert.NotEqual(t, models.TargetOnDevice, rec.RecommendedTarget)
}

func TestRecommendSuitabilityFloorZero(t *testing.T) {
	model := smallModel()
	model.ParameterCountB = models.Float64Ptr(100.0)
	model.ModelSizeGB = models.Float64Ptr(500.0)

	rec := Recommend(Input{Model: model}) // no run: score 0

	for _, ta := range rec.Targets {
		assert.GreaterOrEqual(t, ta.Suitability, 0.0)
		if ta.Target == models.TargetOnDevice {
			// 100 - 40 - 30 - 30 = 0
			assert.Equal(t, 0.0, ta.Suitability)
		}
	}
}

func TestRecommendLowScorePenalty(t *testing.T) {
	rec := Recommend(Input{Model: smallModel(), Run: runWithScore(65)})

	// 65 passes on-device's 60 minimum but misses server (70) and
	// cloud-api (75).
	assert.Equal(t, models.TargetOnDevice, rec.RecommendedTarget)
	for _, ta := range rec.Targets {
		switch ta.Target {
		case models.TargetOnDevice:
			assert.Equal(t, 100.0, ta.Suitability)
		default:
			assert.Equal(t, 70.0, ta.Suitability)
		}
	}
}

func TestRecommendTierRationale(t *testing.T) {
	tier := models.TierHighSchool
	rating := &models.GradeLevelRating{MaxPassingTier: &tier}

	rec := Recommend(Input{Model: smallModel(), Run: runWithScore(85), Rating: rating})

	require.NotNil(t, rec.MaxEducationTier)
	assert.Equal(t, models.TierHighSchool, *rec.MaxEducationTier)
	assert.Contains(t, rec.Rationale, "Certified up to High School (Gr 9-12) level")
}

func TestRecommendNoTierWarning(t *testing.T) {
	rec := Recommend(Input{Model: smallModel(), Run: runWithScore(85)})

	assert.Contains(t, rec.Warnings, "Model has not passed any education tier threshold")
}

func TestRecommendSTTLatencyWarning(t *testing.T) {
	model := smallModel()
	model.ModelType = models.CategorySTT
	model.ParameterCountB = models.Float64Ptr(2.0)

	rec := Recommend(Input{Model: model, Run: runWithScore(85)})

	assert.Contains(t, rec.Warnings,
		"Large STT models may have high latency for real-time on-device use")
}

func TestRecommendTTSQuantizationHint(t *testing.T) {
	model := smallModel()
	model.ModelType = models.CategoryTTS
	model.Quantization = ""

	rec := Recommend(Input{Model: model, Run: runWithScore(85)})

	assert.Contains(t, rec.Rationale, "Consider quantization for faster TTS inference")

	model.Quantization = "q4_k_m"
	rec = Recommend(Input{Model: model, Run: runWithScore(85)})
	assert.NotContains(t, rec.Rationale, "Consider quantization for faster TTS inference")
}

func TestCompareRecommendationsBestPerTarget(t *testing.T) {
	recA := Recommend(Input{Model: smallModel(), Run: runWithScore(85)})
	recA.ModelName = "model-a"

	big := smallModel()
	big.ID = "m2"
	big.Name = "model-b"
	big.ParameterCountB = models.Float64Ptr(40.0)
	recB := Recommend(Input{Model: big, Run: runWithScore(90)})

	best, total := CompareRecommendations([]Recommendation{recA, recB})

	assert.Equal(t, 2, total)
	assert.Equal(t, "model-a", best[models.TargetOnDevice].ModelName)
	// model-a wins cloud-api on the strictly-greater tie rule too (both 100).
	assert.Equal(t, "model-a", best[models.TargetCloudAPI].ModelName)
}
