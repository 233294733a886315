package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/voicelearn/vleval/internal/gradelevel"
	"github.com/voicelearn/vleval/internal/orchestration"
	"github.com/voicelearn/vleval/internal/plugins"
	"github.com/voicelearn/vleval/internal/reporting"
	"github.com/voicelearn/vleval/internal/storage"
)

func newRunCommand() *cobra.Command {
	var (
		modelSlug  string
		suiteSlug  string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate a model against a benchmark suite",
		Long: `Evaluate a model against a benchmark suite.

The evaluator plugin for the model's type shells out to the matching
external harness (lm-evaluation-harness, the Open ASR toolkit, or the TTS
quality toolkit), normalizes the raw metrics to a 0-100 scale, stores the
results, and prints the grade-level rating.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, cfg, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			ctx := cmd.Context()
			model, err := storage.NewModelStore(db).GetBySlug(ctx, modelSlug)
			if err != nil {
				return fmt.Errorf("model %q: %w", modelSlug, err)
			}
			suite, err := resolveSuite(ctx, db, suiteSlug)
			if err != nil {
				return err
			}

			runConfig, err := loadRunConfig(configPath)
			if err != nil {
				return err
			}

			registry, err := plugins.DefaultRegistry(pluginConfig(runConfig))
			if err != nil {
				return err
			}

			threshold := gradelevel.DefaultThreshold
			if cfg.Runner.Threshold != nil {
				threshold = *cfg.Runner.Threshold
			}
			runner := orchestration.NewRunner(storage.NewRunStore(db), registry, nil,
				orchestration.WithThreshold(threshold),
				orchestration.WithNotifier(func(ev orchestration.Event) {
					if ev.CurrentTask != "" {
						fmt.Printf("  [%3.0f%%] %s\n", ev.PercentComplete, ev.CurrentTask)
					}
				}),
			)

			fmt.Printf("Evaluating %s against %s (%d tasks)\n", model.Name, suite.Name, len(suite.Tasks))
			run, err := runner.Execute(ctx, *model, *suite, runConfig)
			if err != nil {
				return err
			}

			rating := gradelevel.ComputeRating(model.ID, run.ID, run.Results, threshold)
			fmt.Println()
			fmt.Print(reporting.FormatRatingReport(&rating))
			fmt.Printf("\nRun %s stored.\n", run.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&modelSlug, "model", "m", "", "Model slug (required)")
	cmd.Flags().StringVarP(&suiteSlug, "suite", "s", "", "Suite slug (required)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Run config YAML (plugin settings, device, timeouts)")
	cmd.MarkFlagRequired("model") //nolint:errcheck
	cmd.MarkFlagRequired("suite") //nolint:errcheck

	return cmd
}

// loadRunConfig reads the optional run config YAML into a generic map.
func loadRunConfig(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run config: %w", err)
	}
	var config map[string]any
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing run config: %w", err)
	}
	return config, nil
}

// pluginConfig extracts the per-plugin sections from a run config.
func pluginConfig(runConfig map[string]any) map[string]map[string]any {
	raw, ok := runConfig["plugins"].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]map[string]any, len(raw))
	for id, section := range raw {
		if m, ok := section.(map[string]any); ok {
			out[id] = m
		}
	}
	return out
}
