package plugins

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// defaultHarnessTimeout bounds one external harness invocation.
const defaultHarnessTimeout = 2 * time.Hour

// harnessConfig is the shared configuration for plugins that shell out to an
// external evaluation harness.
type harnessConfig struct {
	// Command overrides the harness executable (mainly for tests).
	Command string `mapstructure:"command"`
	// ExtraArgs are appended verbatim to the harness invocation.
	ExtraArgs []string `mapstructure:"extra_args"`
	// TimeoutSec bounds the harness run; 0 uses the default.
	TimeoutSec int `mapstructure:"timeout_sec"`
	// Device selects the inference device (cpu, cuda, mps).
	Device string `mapstructure:"device"`
}

func (c harnessConfig) timeout() time.Duration {
	if c.TimeoutSec > 0 {
		return time.Duration(c.TimeoutSec) * time.Second
	}
	return defaultHarnessTimeout
}

// runHarness executes the external harness and returns its stdout. stderr is
// folded into the error on failure.
func runHarness(ctx context.Context, command string, args []string, timeout time.Duration) ([]byte, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, command, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("harness %s failed: %w: %s", command, err, msg)
		}
		return nil, fmt.Errorf("harness %s failed: %w", command, err)
	}

	return stdout.Bytes(), nil
}

// harnessOutput is the result document emitted by the wrapped harnesses:
// a map of task name to metric name/value pairs.
type harnessOutput struct {
	Results map[string]map[string]float64 `json:"results"`
}

func parseHarnessOutput(data []byte) (harnessOutput, error) {
	var out harnessOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("parsing harness output: %w", err)
	}
	if out.Results == nil {
		return out, fmt.Errorf("harness output has no results section")
	}
	return out, nil
}

// pickMetric selects the preferred metric for a task from the harness
// output. The preferred name is tried first, then a fixed fallback order.
func pickMetric(metrics map[string]float64, preferred string) (string, float64, bool) {
	if v, ok := metrics[preferred]; ok {
		return preferred, v, true
	}
	for _, name := range []string{"acc_norm", "acc", "exact_match", "accuracy", "f1", "wer", "cer", "per", "mos", "mos_utmos", "mos_wvmos"} {
		if v, ok := metrics[name]; ok {
			return name, v, true
		}
	}
	return "", 0, false
}
