package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voicelearn/vleval/internal/gradelevel"
	"github.com/voicelearn/vleval/internal/reporting"
	"github.com/voicelearn/vleval/internal/storage"
)

func newGradeCommand() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "grade <model-slug>",
		Short: "Show a model's grade-level rating from its latest run",
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

			runs := storage.NewRunStore(db)
			run, err := runs.LatestCompleted(ctx, model.ID)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return fmt.Errorf("model %s has no completed runs; run: vleval run -m %s -s <suite>", model.Slug, model.Slug)
				}
				return err
			}

			rating, err := runs.Rating(ctx, run.ID)
			if errors.Is(err, storage.ErrNotFound) {
				computed := gradelevel.ComputeRating(model.ID, run.ID, run.Results, gradelevel.DefaultThreshold)
				rating = &computed
			} else if err != nil {
				return err
			}

			if outputFormat == "json" {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(rating)
			}

			fmt.Printf("%s  (run %s)\n\n", model.Name, run.ID)
			fmt.Print(reporting.FormatRatingReport(rating))
			fmt.Println()
			fmt.Println(reporting.InterpretRating(rating))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "table", "Output format: table or json")
	return cmd
}