package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/voicelearn/vleval/internal/config"
	"github.com/voicelearn/vleval/internal/storage"
	"github.com/voicelearn/vleval/internal/webapi"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vleval",
		Short: "vleval - grade-level evaluation for voice-learning AI models",
		Long: `vleval evaluates LLM, STT, and TTS models against educational benchmark
suites and rates each model by the highest education tier it passes,
from elementary through graduate level.

It tracks score history, detects regressions against saved baselines,
compares models side by side, and recommends deployment targets.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentFlags().String("db", "", "Path to the SQLite database (overrides config)")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	cmd.AddCommand(newModelCommand())
	cmd.AddCommand(newSuiteCommand())
	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newGradeCommand())
	cmd.AddCommand(newCompareCommand())
	cmd.AddCommand(newRegressionCommand())
	cmd.AddCommand(newBaselineCommand())
	cmd.AddCommand(newTrendsCommand())
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newExportCommand())
	cmd.AddCommand(newImportCommand())
	cmd.AddCommand(newDownloadCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}

// loadConfig loads vleval.yaml from the working directory upward and applies
// the logging level it selects.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return nil, err
	}
	if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
		cfg.Database.Path = dbPath
	}
	applyLogging(cfg)
	return cfg, nil
}

func applyLogging(cfg *config.Config) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Logging.JSON != nil && *cfg.Logging.JSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// openStore opens the configured database and wraps it in a webapi store.
// The caller owns the returned DB and must Close it.
func openStore(cmd *cobra.Command) (*storage.DB, *webapi.DBStore, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	db, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, nil, err
	}
	return db, webapi.NewDBStore(db), cfg, nil
}
