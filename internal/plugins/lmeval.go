package plugins

import (
	"context"
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/voicelearn/vleval/internal/models"
)

// lmEvalPlugin wraps the lm-evaluation-harness CLI for text-model
// benchmarks.
type lmEvalPlugin struct {
	cfg harnessConfig
}

// NewLMEval creates the LLM evaluator. Params are decoded from the plugin
// section of the run config.
func NewLMEval(params map[string]any) (Evaluator, error) {
	var cfg harnessConfig
	if err := mapstructure.Decode(params, &cfg); err != nil {
		return nil, fmt.Errorf("lm-eval config: %w", err)
	}
	if cfg.Command == "" {
		cfg.Command = "lm_eval"
	}
	return &lmEvalPlugin{cfg: cfg}, nil
}

func (p *lmEvalPlugin) Info() Metadata {
	return Metadata{
		Name:            "lm-eval-harness",
		PluginID:        "lm-eval",
		Version:         "1.0.0",
		Description:     "Text benchmarks via EleutherAI lm-evaluation-harness",
		PluginType:      models.CategoryLLM,
		UpstreamProject: "lm-evaluation-harness",
		UpstreamURL:     "https://github.com/EleutherAI/lm-evaluation-harness",
		RequiresGPU:     true,
	}
}

func (p *lmEvalPlugin) SupportedBenchmarks() []Benchmark {
	return LLMBenchmarks
}

func (p *lmEvalPlugin) Validate(model models.ModelSpec) error {
	if model.ModelType != models.CategoryLLM {
		return fmt.Errorf("lm-eval evaluates llm models, got %s", model.ModelType)
	}
	if model.SourceURI == "" && model.APIBaseURL == "" {
		return fmt.Errorf("model %s has neither a source URI nor an API base URL", model.Slug)
	}
	return nil
}

func (p *lmEvalPlugin) Run(ctx context.Context, model models.ModelSpec, benchmarkIDs []string, config map[string]any, progress ProgressFunc) ([]models.TaskResult, error) {
	if len(benchmarkIDs) == 0 {
		return nil, fmt.Errorf("no benchmarks requested")
	}

	// One harness invocation per benchmark, so progress moves between tasks.
	results := make([]models.TaskResult, 0, len(benchmarkIDs))
	for i, id := range benchmarkIDs {
		emitProgress(progress, id, i, len(benchmarkIDs))

		args := []string{
			"--model", "hf",
			"--model_args", "pretrained=" + model.SourceURI,
			"--tasks", id,
			"--output_path", "-",
		}
		if p.cfg.Device != "" {
			args = append(args, "--device", p.cfg.Device)
		}
		args = append(args, p.cfg.ExtraArgs...)

		data, err := runHarness(ctx, p.cfg.Command, args, p.cfg.timeout())
		if err != nil {
			return nil, err
		}
		batch, err := resultsFromHarness(data, []string{id}, LLMBenchmarks)
		if err != nil {
			return nil, err
		}
		results = append(results, batch...)
	}
	return results, nil
}

// resultsFromHarness converts a harness output document into normalized
// TaskResults for the requested benchmarks. A requested benchmark missing
// from the output yields an unscored result rather than an error.
func resultsFromHarness(data []byte, requested []string, catalogue []Benchmark) ([]models.TaskResult, error) {
	out, err := parseHarnessOutput(data)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]Benchmark, len(catalogue))
	for _, b := range catalogue {
		byID[b.ID] = b
	}

	now := time.Now().UTC().Format(time.RFC3339)
	results := make([]models.TaskResult, 0, len(requested))
	for _, id := range requested {
		bench := byID[id]
		name := bench.Name
		if name == "" {
			name = id
		}

		result := models.TaskResult{
			TaskName:      name,
			BenchmarkID:   id,
			EducationTier: bench.Tier,
			Weight:        1.0,
			CompletedAt:   now,
		}

		metrics, ok := out.Results[id]
		if !ok {
			result.Status = "failed"
			result.ErrorMessage = "benchmark missing from harness output"
			results = append(results, result)
			continue
		}

		metricName, raw, found := pickMetric(metrics, bench.Metric)
		if !found {
			result.Status = "failed"
			result.ErrorMessage = "no recognized metric in harness output"
			results = append(results, result)
			continue
		}

		result.RawScore = raw
		result.RawMetricName = metricName
		result.Score = models.Float64Ptr(NormalizeScore(raw, metricName))
		result.Status = "completed"
		results = append(results, result)
	}
	return results, nil
}
