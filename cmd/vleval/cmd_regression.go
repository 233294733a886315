package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voicelearn/vleval/internal/gradelevel"
	"github.com/voicelearn/vleval/internal/models"
	"github.com/voicelearn/vleval/internal/regression"
	"github.com/voicelearn/vleval/internal/reporting"
	"github.com/voicelearn/vleval/internal/storage"
)

func newRegressionCommand() *cobra.Command {
	var (
		modelSlug     string
		baselineName  string
		baselineRunID string
		threshold     float64
		junitPath     string
		outputFormat  string
	)

	cmd := &cobra.Command{
		Use:   "regression",
		Short: "Check a model's latest run against a baseline",
		Long: `Check a model's latest completed run against a baseline run.

Exit codes follow the CI contract:
  0  no regression
  1  minor or moderate regressions
  2  severe or critical regressions

Use --junit to also write the comparison as a JUnit XML report for CI
systems that ingest test results.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (baselineName == "") == (baselineRunID == "") {
				return fmt.Errorf("exactly one of --baseline or --baseline-run is required")
			}
			if outputFormat != "table" && outputFormat != "json" {
				return fmt.Errorf("unsupported format %q: must be table or json", outputFormat)
			}

			db, _, _, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			ctx := cmd.Context()
			model, err := storage.NewModelStore(db).GetBySlug(ctx, modelSlug)
			if err != nil {
				return fmt.Errorf("model %q: %w", modelSlug, err)
			}

			runStore := storage.NewRunStore(db)
			current, err := runStore.LatestCompleted(ctx, model.ID)
			if err != nil {
				return fmt.Errorf("model %q has no completed runs", modelSlug)
			}

			if baselineName != "" {
				baseline, err := storage.NewBaselineStore(db).GetByName(ctx, baselineName)
				if err != nil {
					return fmt.Errorf("baseline %q: %w", baselineName, err)
				}
				baselineRunID = baseline.RunID
			}
			baselineRun, err := runStore.GetWithResults(ctx, baselineRunID)
			if err != nil {
				return fmt.Errorf("baseline run %q: %w", baselineRunID, err)
			}

			report := regression.Detect(current.Results, baselineRun.Results, threshold)

			if junitPath != "" {
				if err := writeJUnitReport(junitPath, model, report); err != nil {
					return err
				}
			}

			if outputFormat == "json" {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				fmt.Print(reporting.FormatRegressionReport(report))
				fmt.Println()
				fmt.Println(reporting.InterpretRegression(report))
			}

			if code := regression.CIExitCode(report); code != regression.ExitOK {
				return &RegressionGateError{
					Message: fmt.Sprintf("regression check failed: %s severity across %d tasks",
						report.OverallSeverity, report.RegressionCount),
					Code: code,
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&modelSlug, "model", "m", "", "Model slug (required)")
	cmd.Flags().StringVarP(&baselineName, "baseline", "b", "", "Named baseline to compare against")
	cmd.Flags().StringVar(&baselineRunID, "baseline-run", "", "Baseline run ID to compare against")
	cmd.Flags().Float64Var(&threshold, "threshold", gradelevel.DefaultThreshold, "Passing score threshold")
	cmd.Flags().StringVar(&junitPath, "junit", "", "Write a JUnit XML report to this path")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "table", "Output format: table or json")
	cmd.MarkFlagRequired("model") //nolint:errcheck

	return cmd
}

func writeJUnitReport(path string, model *models.ModelSpec, report regression.Report) error {
	if err := reporting.WriteJUnitXML("regression: "+model.Slug, report, path); err != nil {
		return fmt.Errorf("writing junit report: %w", err)
	}
	return nil
}

func newBaselineCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Manage regression baselines",
	}
	cmd.AddCommand(newBaselineSetCommand())
	cmd.AddCommand(newBaselineListCommand())
	return cmd
}

func newBaselineSetCommand() *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "set <name> <model-slug>",
		Short: "Save a model's run as a named baseline",
		Long: `Save a model's run as a named baseline for regression checks.

Without --run, the model's latest completed run is used.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, _, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			ctx := cmd.Context()
			model, err := storage.NewModelStore(db).GetBySlug(ctx, args[1])
			if err != nil {
				return fmt.Errorf("model %q: %w", args[1], err)
			}

			if runID == "" {
				run, err := storage.NewRunStore(db).LatestCompleted(ctx, model.ID)
				if err != nil {
					return fmt.Errorf("model %q has no completed runs", args[1])
				}
				runID = run.ID
			}

			baseline := &models.Baseline{
				Name:    args[0],
				ModelID: model.ID,
				RunID:   runID,
			}
			if err := storage.NewBaselineStore(db).Create(ctx, baseline); err != nil {
				return fmt.Errorf("saving baseline: %w", err)
			}
			fmt.Printf("Baseline %s -> run %s\n", baseline.Name, baseline.RunID)
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Pin a specific run ID instead of the latest")
	return cmd
}

func newBaselineListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved baselines",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, _, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			list, err := storage.NewBaselineStore(db).List(cmd.Context(), "")
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Println("No baselines saved.")
				return nil
			}
			fmt.Printf("%-20s  %-36s  %s\n", "Name", "Run", "Created")
			for _, b := range list {
				fmt.Printf("%-20s  %-36s  %s\n", b.Name, b.RunID, b.CreatedAt)
			}
			return nil
		},
	}
}
