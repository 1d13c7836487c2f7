package cli

import (
	"os"

	"gopkg.in/yaml.v3"
)

// runConfig is the optional YAML configuration accepted via -c/--config,
// letting a caller narrow the scenario set or adjust logging without
// editing command-line flags.
type runConfig struct {
	Scenarios []int                    `yaml:"scenarios"`
	LogLevel  string                   `yaml:"log_level"`
	Overrides map[int]scenarioOverride `yaml:"overrides"`
}

func loadRunConfig(path string) (*runConfig, error) {
	if path == "" {
		return &runConfig{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg runConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func intSetFromSlice(values []int) map[int]bool {
	set := make(map[int]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
