package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voicelearn/vleval/internal/models"
	"github.com/voicelearn/vleval/internal/storage"
	"github.com/voicelearn/vleval/internal/trends"
)

func newTrendsCommand() *cobra.Command {
	var (
		window       int
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "trends <model-slug>",
		Short: "Show a model's score trend across its run history",
		Args:  cobra.ExactArgs(1),
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
			model, err := storage.NewModelStore(db).GetBySlug(ctx, args[0])
			if err != nil {
				return fmt.Errorf("model %q: %w", args[0], err)
			}

			history, err := storage.NewRunStore(db).History(ctx, model.ID, 0)
			if err != nil {
				return err
			}
			runs := make([]models.EvalRun, 0, len(history))
			for _, run := range history {
				runs = append(runs, *run)
			}

			analysis := trends.Analyze(runs, window)
			if outputFormat == "json" {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(analysis)
			}

			trend, ok := analysis[model.ID]
			if !ok || trend.DataPoints == 0 {
				fmt.Printf("%s has no scored runs yet.\n", model.Name)
				return nil
			}
			printTrend(model.Name, trend)
			return nil
		},
	}

	cmd.Flags().IntVarP(&window, "window", "w", 0, "Moving average window (default 5)")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "table", "Output format: table or json")
	return cmd
}

func printTrend(name string, trend trends.Trend) {
	fmt.Printf("%s: %s over %d runs\n", name, trend.Direction, trend.DataPoints)
	if trend.Change != nil && trend.ChangePercent != nil {
		fmt.Printf("Change: %+.2f (%+.1f%%)\n", *trend.Change, *trend.ChangePercent)
	}
	fmt.Println()

	fmt.Printf("%-22s  %-8s  %s\n", "Completed", "Score", "Moving avg")
	for i, score := range trend.Scores {
		date := "-"
		if i < len(trend.Dates) && trend.Dates[i] != "" {
			date = trend.Dates[i]
		}
		avg := "-"
		if i < len(trend.MovingAverage) {
			avg = fmt.Sprintf("%.2f", trend.MovingAverage[i])
		}
		fmt.Printf("%-22s  %-8.2f  %s\n", date, score, avg)
	}

	anomalies := trends.DetectAnomalies(trend.Scores, trends.DefaultAnomalyThreshold)
	for _, a := range anomalies {
		fmt.Printf("\nAnomaly at run %d: score %.2f, expected %.2f (%.1f std %s)\n",
			a.Index+1, a.Score, a.Expected, a.DeviationStd, a.Direction)
	}
}
