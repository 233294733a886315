package plugins

import "fmt"

// DefaultRegistry builds a registry with every built-in evaluator, each
// configured from its section of the plugin config (keyed by plugin ID).
func DefaultRegistry(config map[string]map[string]any) (*Registry, error) {
	registry := NewRegistry()

	constructors := []struct {
		id  string
		new func(map[string]any) (Evaluator, error)
	}{
		{"lm-eval", NewLMEval},
		{"open-asr", NewOpenASR},
		{"tts-quality", NewTTSQuality},
	}

	for _, c := range constructors {
		e, err := c.new(config[c.id])
		if err != nil {
			return nil, fmt.Errorf("building plugin %s: %w", c.id, err)
		}
		if err := registry.Register(e); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
