// Package config provides the Config struct and loader for vleval.yaml
// configuration files, with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default values for configuration. These are the single source of truth;
// New() references them and no other code should duplicate them.
const (
	DefaultDatabasePath = "vleval.db"

	DefaultServerPort = 8321

	DefaultWorkers    = 2
	DefaultThreshold  = 70.0
	DefaultModelsDir  = "models/"
	DefaultLogLevel   = "info"
	DefaultHarnessDir = "harness-results/"
)

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path,omitempty"`
}

// ServerConfig holds web server settings.
type ServerConfig struct {
	Port           int      `yaml:"port,omitempty"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// RunnerConfig holds evaluation execution settings.
type RunnerConfig struct {
	Workers    int      `yaml:"workers,omitempty"`
	Threshold  *float64 `yaml:"threshold,omitempty"`
	HarnessDir string   `yaml:"harness_dir,omitempty"`
}

// DownloadsConfig holds model download settings.
type DownloadsConfig struct {
	Dir string `yaml:"dir,omitempty"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // debug, info, warn, error
	JSON  *bool  `yaml:"json,omitempty"`
}

// Config is the top-level configuration loaded from vleval.yaml.
type Config struct {
	Database  DatabaseConfig  `yaml:"database,omitempty"`
	Server    ServerConfig    `yaml:"server,omitempty"`
	Runner    RunnerConfig    `yaml:"runner,omitempty"`
	Downloads DownloadsConfig `yaml:"downloads,omitempty"`
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
}

// New returns a Config with all hard-coded defaults populated.
func New() *Config {
	threshold := DefaultThreshold
	return &Config{
		Database: DatabaseConfig{Path: DefaultDatabasePath},
		Server:   ServerConfig{Port: DefaultServerPort},
		Runner: RunnerConfig{
			Workers:    DefaultWorkers,
			Threshold:  &threshold,
			HarnessDir: DefaultHarnessDir,
		},
		Downloads: DownloadsConfig{Dir: DefaultModelsDir},
		Logging:   LoggingConfig{Level: DefaultLogLevel, JSON: boolPtr(false)},
	}
}

// Load finds vleval.yaml by walking up from startDir (max 10 levels),
// unmarshals it, fills in missing fields with defaults, and applies
// VLEVAL_* environment overrides on top. If no config file is found it
// returns defaults with a nil error. Real I/O errors are returned.
func Load(startDir string) (*Config, error) {
	cfg := New()

	data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("loading vleval.yaml: %w", err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing vleval.yaml: %w", err)
	}

	mergeConfig(cfg, &fileCfg)
	applyEnv(cfg)
	return cfg, nil
}

// findConfigFile walks up from dir looking for vleval.yaml (max 10 levels).
// Returns os.ErrNotExist if no config file is found.
func findConfigFile(dir string) ([]byte, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, "vleval.yaml")
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *Config) {
	if src.Database.Path != "" {
		dst.Database.Path = src.Database.Path
	}

	if src.Server.Port != 0 {
		dst.Server.Port = src.Server.Port
	}
	if len(src.Server.AllowedOrigins) > 0 {
		dst.Server.AllowedOrigins = src.Server.AllowedOrigins
	}

	if src.Runner.Workers != 0 {
		dst.Runner.Workers = src.Runner.Workers
	}
	if src.Runner.Threshold != nil {
		dst.Runner.Threshold = src.Runner.Threshold
	}
	if src.Runner.HarnessDir != "" {
		dst.Runner.HarnessDir = src.Runner.HarnessDir
	}

	if src.Downloads.Dir != "" {
		dst.Downloads.Dir = src.Downloads.Dir
	}

	if src.Logging.Level != "" {
		dst.Logging.Level = src.Logging.Level
	}
	if src.Logging.JSON != nil {
		dst.Logging.JSON = src.Logging.JSON
	}
}

// applyEnv overrides config values from VLEVAL_* environment variables.
// Malformed numeric values are ignored.
func applyEnv(cfg *Config) {
	if v := os.Getenv("VLEVAL_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("VLEVAL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("VLEVAL_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.Server.AllowedOrigins = origins
	}
	if v := os.Getenv("VLEVAL_WORKERS"); v != "" {
		if workers, err := strconv.Atoi(v); err == nil && workers > 0 {
			cfg.Runner.Workers = workers
		}
	}
	if v := os.Getenv("VLEVAL_THRESHOLD"); v != "" {
		if threshold, err := strconv.ParseFloat(v, 64); err == nil && threshold > 0 {
			cfg.Runner.Threshold = &threshold
		}
	}
	if v := os.Getenv("VLEVAL_MODELS_DIR"); v != "" {
		cfg.Downloads.Dir = v
	}
	if v := os.Getenv("VLEVAL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func boolPtr(b bool) *bool {
	return &b
}
