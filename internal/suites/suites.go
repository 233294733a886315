// Package suites builds the built-in benchmark suites and loads user suite
// files from YAML.
package suites

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/voicelearn/vleval/internal/models"
	"github.com/voicelearn/vleval/internal/plugins"
)

// suiteFile is the YAML shape of a user-defined suite.
type suiteFile struct {
	Name        string     `yaml:"name"`
	Slug        string     `yaml:"slug"`
	ModelType   string     `yaml:"model_type"`
	Description string     `yaml:"description"`
	Category    string     `yaml:"category"`
	Tasks       []taskFile `yaml:"tasks"`
}

type taskFile struct {
	Name          string         `yaml:"name"`
	TaskType      string         `yaml:"task_type"`
	BenchmarkID   string         `yaml:"benchmark_id"`
	Description   string         `yaml:"description"`
	Weight        float64        `yaml:"weight"`
	EducationTier string         `yaml:"education_tier"`
	Subject       string         `yaml:"subject"`
	Config        map[string]any `yaml:"config"`
}

// LoadFile reads, schema-validates, and parses a suite YAML file.
func LoadFile(path string) (*models.BenchmarkSuite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading suite file: %w", err)
	}
	return Parse(data)
}

// Parse schema-validates and decodes suite YAML bytes.
func Parse(data []byte) (*models.BenchmarkSuite, error) {
	if errs := ValidateBytes(data); len(errs) > 0 {
		return nil, fmt.Errorf("invalid suite file: %s", errs[0])
	}

	var sf suiteFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parsing suite file: %w", err)
	}

	suite := &models.BenchmarkSuite{
		Name:        sf.Name,
		Slug:        sf.Slug,
		ModelType:   models.ModelCategory(sf.ModelType),
		Description: sf.Description,
		Category:    sf.Category,
		IsActive:    true,
	}
	for i, t := range sf.Tasks {
		weight := t.Weight
		if weight <= 0 {
			weight = 1.0
		}
		suite.Tasks = append(suite.Tasks, models.BenchmarkTask{
			Name:          t.Name,
			TaskType:      t.TaskType,
			BenchmarkID:   t.BenchmarkID,
			Description:   t.Description,
			Weight:        weight,
			EducationTier: models.Tier(t.EducationTier),
			Subject:       t.Subject,
			OrderIndex:    i,
			Config:        t.Config,
		})
	}
	return suite, nil
}

// Builtin returns the built-in suites, one per supported model type. The
// LLM suite carries the tiered benchmark catalogue that grade-level scoring
// runs on.
func Builtin() []*models.BenchmarkSuite {
	return []*models.BenchmarkSuite{
		fromCatalogue("Grade-Level Text Benchmarks", "grade-level-llm", models.CategoryLLM,
			"Tiered MMLU, ARC, GSM8K, MATH, and GPQA benchmarks for grade-level capability rating.",
			plugins.LLMBenchmarks),
		fromCatalogue("Speech Recognition Core", "stt-core", models.CategorySTT,
			"Word-error-rate benchmarks over LibriSpeech, Common Voice, and AMI.",
			plugins.STTBenchmarks),
		fromCatalogue("Speech Synthesis Quality", "tts-core", models.CategoryTTS,
			"Predicted-MOS and intelligibility benchmarks for synthesized speech.",
			plugins.TTSBenchmarks),
	}
}

func fromCatalogue(name, slug string, modelType models.ModelCategory, description string, benchmarks []plugins.Benchmark) *models.BenchmarkSuite {
	suite := &models.BenchmarkSuite{
		Name:        name,
		Slug:        slug,
		ModelType:   modelType,
		Description: description,
		Category:    "builtin",
		IsBuiltin:   true,
		IsActive:    true,
	}
	for i, b := range benchmarks {
		suite.Tasks = append(suite.Tasks, models.BenchmarkTask{
			Name:          b.Name,
			TaskType:      "benchmark",
			BenchmarkID:   b.ID,
			Weight:        1.0,
			EducationTier: b.Tier,
			Subject:       b.Subject,
			OrderIndex:    i,
		})
	}
	return suite
}
