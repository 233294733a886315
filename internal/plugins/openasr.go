package plugins

import (
	"context"
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/voicelearn/vleval/internal/models"
)

// openASRPlugin wraps an Open ASR style benchmark runner for speech-to-text
// models. Scores come back as word error rates and are inverted onto the
// 0-100 scale.
type openASRPlugin struct {
	cfg harnessConfig
}

// NewOpenASR creates the STT evaluator.
func NewOpenASR(params map[string]any) (Evaluator, error) {
	var cfg harnessConfig
	if err := mapstructure.Decode(params, &cfg); err != nil {
		return nil, fmt.Errorf("open-asr config: %w", err)
	}
	if cfg.Command == "" {
		cfg.Command = "open_asr_eval"
	}
	return &openASRPlugin{cfg: cfg}, nil
}

func (p *openASRPlugin) Info() Metadata {
	return Metadata{
		Name:            "open-asr-leaderboard",
		PluginID:        "open-asr",
		Version:         "1.0.0",
		Description:     "Speech recognition benchmarks via the Open ASR evaluation suite",
		PluginType:      models.CategorySTT,
		UpstreamProject: "open_asr_leaderboard",
		UpstreamURL:     "https://github.com/huggingface/open_asr_leaderboard",
		RequiresGPU:     true,
	}
}

func (p *openASRPlugin) SupportedBenchmarks() []Benchmark {
	return STTBenchmarks
}

func (p *openASRPlugin) Validate(model models.ModelSpec) error {
	if model.ModelType != models.CategorySTT {
		return fmt.Errorf("open-asr evaluates stt models, got %s", model.ModelType)
	}
	if model.SourceURI == "" {
		return fmt.Errorf("model %s has no source URI", model.Slug)
	}
	return nil
}

func (p *openASRPlugin) Run(ctx context.Context, model models.ModelSpec, benchmarkIDs []string, config map[string]any, progress ProgressFunc) ([]models.TaskResult, error) {
	if len(benchmarkIDs) == 0 {
		return nil, fmt.Errorf("no benchmarks requested")
	}

	results := make([]models.TaskResult, 0, len(benchmarkIDs))
	for i, id := range benchmarkIDs {
		emitProgress(progress, id, i, len(benchmarkIDs))

		args := []string{
			"--model", model.SourceURI,
			"--datasets", id,
			"--json",
		}
		if p.cfg.Device != "" {
			args = append(args, "--device", p.cfg.Device)
		}
		args = append(args, p.cfg.ExtraArgs...)

		data, err := runHarness(ctx, p.cfg.Command, args, p.cfg.timeout())
		if err != nil {
			return nil, err
		}
		batch, err := resultsFromHarness(data, []string{id}, STTBenchmarks)
		if err != nil {
			return nil, err
		}
		results = append(results, batch...)
	}
	return results, nil
}
