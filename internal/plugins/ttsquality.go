package plugins

import (
	"context"
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/voicelearn/vleval/internal/models"
)

// ttsQualityPlugin wraps a MOS-predictor harness for text-to-speech models.
type ttsQualityPlugin struct {
	cfg harnessConfig
}

// NewTTSQuality creates the TTS evaluator.
func NewTTSQuality(params map[string]any) (Evaluator, error) {
	var cfg harnessConfig
	if err := mapstructure.Decode(params, &cfg); err != nil {
		return nil, fmt.Errorf("tts-quality config: %w", err)
	}
	if cfg.Command == "" {
		cfg.Command = "tts_quality_eval"
	}
	return &ttsQualityPlugin{cfg: cfg}, nil
}

func (p *ttsQualityPlugin) Info() Metadata {
	return Metadata{
		Name:            "tts-quality",
		PluginID:        "tts-quality",
		Version:         "1.0.0",
		Description:     "Synthetic speech quality via UTMOS/WVMOS predictors",
		PluginType:      models.CategoryTTS,
		RequiresGPU:     false,
	}
}

func (p *ttsQualityPlugin) SupportedBenchmarks() []Benchmark {
	return TTSBenchmarks
}

func (p *ttsQualityPlugin) Validate(model models.ModelSpec) error {
	if model.ModelType != models.CategoryTTS {
		return fmt.Errorf("tts-quality evaluates tts models, got %s", model.ModelType)
	}
	if model.SourceURI == "" {
		return fmt.Errorf("model %s has no source URI", model.Slug)
	}
	return nil
}

func (p *ttsQualityPlugin) Run(ctx context.Context, model models.ModelSpec, benchmarkIDs []string, config map[string]any, progress ProgressFunc) ([]models.TaskResult, error) {
	if len(benchmarkIDs) == 0 {
		return nil, fmt.Errorf("no benchmarks requested")
	}

	results := make([]models.TaskResult, 0, len(benchmarkIDs))
	for i, id := range benchmarkIDs {
		emitProgress(progress, id, i, len(benchmarkIDs))

		args := []string{
			"--model", model.SourceURI,
			"--metrics", id,
			"--json",
		}
		args = append(args, p.cfg.ExtraArgs...)

		data, err := runHarness(ctx, p.cfg.Command, args, p.cfg.timeout())
		if err != nil {
			return nil, err
		}
		batch, err := resultsFromHarness(data, []string{id}, TTSBenchmarks)
		if err != nil {
			return nil, err
		}
		results = append(results, batch...)
	}
	return results, nil
}
