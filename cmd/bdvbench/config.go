package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ScenarioConfig is the YAML-configurable knob set for the named
// scenarios. Any field left zero in a loaded file falls back to
// DefaultScenarioConfig's value for it.
type ScenarioConfig struct {
	Scales            []float64 `yaml:"scales"`
	TargetRenderNanos int64     `yaml:"target_render_nanos"`
	LoaderDelayMillis int64     `yaml:"loader_delay_millis"`
	CanvasWidth       int       `yaml:"canvas_width"`
	CanvasHeight      int       `yaml:"canvas_height"`
	BlockDims         [3]int    `yaml:"block_dims"`
	GridDims          [3]int    `yaml:"grid_dims"`
	NumFetchers       int       `yaml:"num_fetchers"`
	LRUCapacity       int       `yaml:"lru_capacity"`
	Iterations        int       `yaml:"iterations"`
}

// DefaultScenarioConfig returns the parameters used by each named
// scenario when no YAML file overrides them.
func DefaultScenarioConfig() ScenarioConfig {
	return ScenarioConfig{
		Scales:            []float64{1.0, 0.5, 0.25},
		TargetRenderNanos: int64(10_000_000),
		LoaderDelayMillis: 20,
		CanvasWidth:       64,
		CanvasHeight:      64,
		BlockDims:         [3]int{16, 16, 16},
		GridDims:          [3]int{4, 4, 2},
		NumFetchers:       4,
		LRUCapacity:       256,
		Iterations:        3,
	}
}

// LoadScenarioConfig reads and parses a YAML scenario file, overlaying it
// onto DefaultScenarioConfig.
func LoadScenarioConfig(path string) (ScenarioConfig, error) {
	cfg := DefaultScenarioConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading scenario config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing scenario config %q: %w", path, err)
	}
	return cfg, nil
}
