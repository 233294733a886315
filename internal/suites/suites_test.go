package suites

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicelearn/vleval/internal/models"
)

const validSuiteYAML = `
name: Math Focus
slug: math-focus
model_type: llm
description: Math-heavy subset.
tasks:
  - name: GSM8K
    benchmark_id: gsm8k
    education_tier: elementary
    subject: math
  - name: MATH
    benchmark_id: math
    weight: 2.0
    education_tier: undergrad
    subject: math
`

func TestParseValidSuite(t *testing.T) {
	suite, err := Parse([]byte(validSuiteYAML))
	require.NoError(t, err)

	assert.Equal(t, "math-focus", suite.Slug)
	assert.Equal(t, models.CategoryLLM, suite.ModelType)
	assert.False(t, suite.IsBuiltin)
	require.Len(t, suite.Tasks, 2)

	assert.Equal(t, 1.0, suite.Tasks[0].Weight, "missing weight defaults to 1.0")
	assert.Equal(t, 0, suite.Tasks[0].OrderIndex)
	assert.Equal(t, models.TierElementary, suite.Tasks[0].EducationTier)
	assert.Equal(t, 2.0, suite.Tasks[1].Weight)
	assert.Equal(t, 1, suite.Tasks[1].OrderIndex)
}

func TestValidateBytes(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
	}{
		{"valid", validSuiteYAML, false},
		{"missing_name", "slug: x\nmodel_type: llm\ntasks: [{name: a}]", true},
		{"bad_model_type", "name: X\nslug: x\nmodel_type: vision\ntasks: [{name: a}]", true},
		{"bad_tier", "name: X\nslug: x\nmodel_type: llm\ntasks: [{name: a, education_tier: phd}]", true},
		{"empty_tasks", "name: X\nslug: x\nmodel_type: llm\ntasks: []", true},
		{"zero_weight", "name: X\nslug: x\nmodel_type: llm\ntasks: [{name: a, weight: 0}]", true},
		{"uppercase_slug", "name: X\nslug: Bad-Slug\nmodel_type: llm\ntasks: [{name: a}]", true},
		{"not_yaml", ":\n  - {", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateBytes([]byte(tt.yaml))
			if tt.wantErr {
				assert.NotEmpty(t, errs)
			} else {
				assert.Empty(t, errs)
			}
		})
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	_, err := Parse([]byte("name: X\nslug: x\nmodel_type: llm\ntasks: []"))
	assert.Error(t, err)
}

func TestBuiltinSuites(t *testing.T) {
	builtin := Builtin()
	require.Len(t, builtin, 3)

	byType := map[models.ModelCategory]*models.BenchmarkSuite{}
	for _, s := range builtin {
		assert.True(t, s.IsBuiltin)
		assert.NotEmpty(t, s.Tasks)
		byType[s.ModelType] = s
	}

	llm := byType[models.CategoryLLM]
	require.NotNil(t, llm)
	assert.Equal(t, "grade-level-llm", llm.Slug)

	tiered := 0
	for i, task := range llm.Tasks {
		assert.Equal(t, i, task.OrderIndex)
		assert.Equal(t, 1.0, task.Weight)
		if task.EducationTier != "" {
			tiered++
		}
	}
	assert.Greater(t, tiered, 0, "the LLM suite carries tiered tasks")

	stt := byType[models.CategorySTT]
	require.NotNil(t, stt)
	for _, task := range stt.Tasks {
		assert.Empty(t, task.EducationTier, "speech benchmarks are not tiered")
	}
}
