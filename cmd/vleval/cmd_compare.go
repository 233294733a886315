package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/voicelearn/vleval/internal/comparison"
	"github.com/voicelearn/vleval/internal/storage"
)

func newCompareCommand() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "compare <model-slug> <model-slug> [model-slug ...]",
		Short: "Compare models using their latest completed runs",
		Long: `Compare results from two or more models side by side.

Each model's latest completed run provides its scores. Models are ranked by
overall score, per-tier means are shown across the education tiers, and a
model registered with --reference anchors the deltas.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputFormat != "table" && outputFormat != "json" {
				return fmt.Errorf("unsupported format %q: must be table or json", outputFormat)
			}

			db, _, _, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			ctx := cmd.Context()
			modelStore := storage.NewModelStore(db)
			runStore := storage.NewRunStore(db)

			var modelResults []comparison.ModelResult
			for _, slug := range args {
				m, err := modelStore.GetBySlug(ctx, slug)
				if err != nil {
					return fmt.Errorf("model %q: %w", slug, err)
				}
				run, err := runStore.LatestCompleted(ctx, m.ID)
				if err != nil {
					return fmt.Errorf("model %q has no completed runs", slug)
				}
				modelResults = append(modelResults, comparison.ModelResult{
					Model:   *m,
					Results: run.Results,
					Run:     run,
				})
			}

			result := comparison.Compare(modelResults)
			if outputFormat == "json" {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			printComparisonTable(result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "table", "Output format: table or json")
	return cmd
}

func printComparisonTable(result comparison.Comparison) {
	fmt.Println(strings.Repeat("=", 70))
	fmt.Println(" MODEL COMPARISON")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Println()

	nameWidth := len("Model")
	for _, entry := range result.Models {
		if len(entry.ModelName) > nameWidth {
			nameWidth = len(entry.ModelName)
		}
	}

	fmt.Printf("  %s  %-8s", padRight("Model", nameWidth), "Overall")
	for _, dim := range result.RadarDimensions {
		fmt.Printf("  %-12s", dim)
	}
	if result.ReferenceModelID != "" {
		fmt.Printf("  %s", "Delta")
	}
	fmt.Println()

	for _, entry := range result.Models {
		overall := "-"
		if entry.OverallScore != nil {
			overall = fmt.Sprintf("%.2f", *entry.OverallScore)
		}
		fmt.Printf("  %s  %-8s", padRight(entry.ModelName, nameWidth), overall)
		for _, dim := range result.RadarDimensions {
			cell := "-"
			if s, ok := entry.ByTier[dim]; ok && s.Mean != nil {
				cell = fmt.Sprintf("%.1f", *s.Mean)
			}
			fmt.Printf("  %-12s", cell)
		}
		if entry.DeltaFromReference != nil {
			fmt.Printf("  %+.2f", *entry.DeltaFromReference)
		}
		fmt.Println()
	}

	fmt.Println()
	if result.Summary.BestModel != "" && result.Summary.BestScore != nil {
		fmt.Printf("Best: %s (%.2f) of %d models\n",
			result.Summary.BestModel, *result.Summary.BestScore, result.Summary.ModelCount)
	}
}
