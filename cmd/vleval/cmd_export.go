package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voicelearn/vleval/internal/storage"
	"github.com/voicelearn/vleval/internal/vlef"
)

func newExportCommand() *cobra.Command {
	var modelSlug string

	cmd := &cobra.Command{
		Use:   "export <file.vlef[.gz]>",
		Short: "Export models, suites, runs, and ratings to a VLEF file",
		Long: `Export the evaluation database to a VLEF document.

A .gz extension gzip-compresses the output. Use --model to restrict the
export to a single model and its runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, _, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			ctx := cmd.Context()
			modelStore := storage.NewModelStore(db)
			runStore := storage.NewRunStore(db)

			var onlyModelID string
			if modelSlug != "" {
				m, err := modelStore.GetBySlug(ctx, modelSlug)
				if err != nil {
					return fmt.Errorf("model %q: %w", modelSlug, err)
				}
				onlyModelID = m.ID
			}

			doc := vlef.New()
			list, err := modelStore.List(ctx, storage.ModelFilter{})
			if err != nil {
				return err
			}
			for _, m := range list {
				if onlyModelID != "" && m.ID != onlyModelID {
					continue
				}
				doc.Models = append(doc.Models, *m)

				history, err := runStore.History(ctx, m.ID, 0)
				if err != nil {
					return err
				}
				for _, run := range history {
					doc.Runs = append(doc.Runs, *run)
					rating, err := runStore.Rating(ctx, run.ID)
					if err == nil {
						doc.Ratings = append(doc.Ratings, *rating)
					} else if !errors.Is(err, storage.ErrNotFound) {
						return err
					}
				}
			}

			suitesList, err := storage.NewSuiteStore(db).List(ctx, "")
			if err != nil {
				return err
			}
			for _, suite := range suitesList {
				doc.Suites = append(doc.Suites, *suite)
			}

			if err := vlef.WriteFile(args[0], doc); err != nil {
				return err
			}
			fmt.Printf("Exported %d models, %d runs to %s\n", len(doc.Models), len(doc.Runs), args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&modelSlug, "model", "m", "", "Export only this model and its runs")
	return cmd
}

func newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.vlef[.gz]>",
		Short: "Import a VLEF file into the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := vlef.ReadFile(args[0])
			if err != nil {
				return err
			}

			db, _, _, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			ctx := cmd.Context()
			modelStore := storage.NewModelStore(db)
			suiteStore := storage.NewSuiteStore(db)
			runStore := storage.NewRunStore(db)

			var importedModels, importedRuns int
			for i := range doc.Models {
				m := doc.Models[i]
				if _, err := modelStore.Get(ctx, m.ID); err == nil {
					continue
				}
				if err := modelStore.Create(ctx, &m); err != nil {
					return fmt.Errorf("importing model %s: %w", m.Slug, err)
				}
				importedModels++
			}
			for i := range doc.Suites {
				suite := doc.Suites[i]
				if _, err := suiteStore.Get(ctx, suite.ID); err == nil {
					continue
				}
				if err := suiteStore.Create(ctx, &suite); err != nil {
					return fmt.Errorf("importing suite %s: %w", suite.Slug, err)
				}
			}
			for i := range doc.Runs {
				run := doc.Runs[i]
				if _, err := runStore.Get(ctx, run.ID); err == nil {
					continue
				}
				results := run.Results
				run.Results = nil
				if err := runStore.Create(ctx, &run); err != nil {
					return fmt.Errorf("importing run %s: %w", run.ID, err)
				}
				if len(results) > 0 {
					if err := runStore.AddResults(ctx, run.ID, results); err != nil {
						return fmt.Errorf("importing results for run %s: %w", run.ID, err)
					}
				}
				importedRuns++
			}
			for i := range doc.Ratings {
				rating := doc.Ratings[i]
				if err := runStore.SaveRating(ctx, &rating); err != nil {
					return fmt.Errorf("importing rating for run %s: %w", rating.RunID, err)
				}
			}

			fmt.Printf("Imported %d models, %d runs from %s\n", importedModels, importedRuns, args[0])
			return nil
		},
	}
}
