package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voicelearn/vleval/internal/models"
	"github.com/voicelearn/vleval/internal/storage"
	"github.com/voicelearn/vleval/internal/suites"
)

func newSuiteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suite",
		Short: "Manage benchmark suites",
	}
	cmd.AddCommand(newSuiteListCommand())
	cmd.AddCommand(newSuiteValidateCommand())
	cmd.AddCommand(newSuiteAddCommand())
	return cmd
}

func newSuiteListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List built-in and custom benchmark suites",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, _, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			stored, err := storage.NewSuiteStore(db).List(cmd.Context(), "")
			if err != nil {
				return err
			}

			fmt.Printf("%-24s  %-6s  %-8s  %s\n", "Slug", "Type", "Origin", "Name")
			for _, s := range suites.Builtin() {
				fmt.Printf("%-24s  %-6s  %-8s  %s\n", s.Slug, s.ModelType, "builtin", s.Name)
			}
			for _, s := range stored {
				if s.IsBuiltin {
					continue
				}
				fmt.Printf("%-24s  %-6s  %-8s  %s\n", s.Slug, s.ModelType, "custom", s.Name)
			}
			return nil
		},
	}
}

func newSuiteValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <suite.yaml>",
		Short: "Validate a suite definition file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			suite, err := suites.LoadFile(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s is valid: %d tasks, model type %s\n", args[0], len(suite.Tasks), suite.ModelType)
			return nil
		},
	}
}

func newSuiteAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <suite.yaml>",
		Short: "Validate and store a custom suite definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			suite, err := suites.LoadFile(args[0])
			if err != nil {
				return err
			}

			db, _, _, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			if err := storage.NewSuiteStore(db).Create(cmd.Context(), suite); err != nil {
				return fmt.Errorf("storing suite: %w", err)
			}
			fmt.Printf("Added suite %s (%s)\n", suite.Name, suite.ID)
			return nil
		},
	}
}

// resolveSuite finds a suite by slug, checking stored suites first and
// falling back to the built-in catalogue.
func resolveSuite(ctx context.Context, db *storage.DB, slug string) (*models.BenchmarkSuite, error) {
	suite, err := storage.NewSuiteStore(db).GetBySlug(ctx, slug)
	if err == nil {
		return suite, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	for _, builtin := range suites.Builtin() {
		if builtin.Slug == slug {
			return builtin, nil
		}
	}
	fmt.Fprintf(os.Stderr, "Unknown suite %q. Available suites:\n", slug)
	for _, builtin := range suites.Builtin() {
		fmt.Fprintf(os.Stderr, "  %s\n", builtin.Slug)
	}
	return nil, fmt.Errorf("suite %q not found", slug)
}
