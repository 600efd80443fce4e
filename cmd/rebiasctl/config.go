package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// RunConfig drives one local ensemble run. The params map is handed to the
// restraint builder untouched; everything else configures the synthetic
// replicas.
type RunConfig struct {
	RunID              string
	Name               string
	Sites              []int
	Replicas           int
	Steps              int
	DT                 float64
	EvaluationsPerStep int
	StartDist          float64
	TargetDist         float64
	Params             map[string]any
}

func loadRunConfig(path string) (RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunConfig{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return RunConfig{}, err
	}

	cfg := RunConfig{
		Name:       "ensemble-restraint",
		Replicas:   1,
		Steps:      15,
		DT:         1.0,
		StartDist:  1.0,
		TargetDist: 2.5,
	}
	if v, ok := asString(raw["run_id"]); ok {
		cfg.RunID = v
	}
	if v, ok := asString(raw["name"]); ok {
		cfg.Name = v
	}
	if v, ok := asIntSlice(raw["sites"]); ok {
		cfg.Sites = v
	}
	if v, ok := asInt(raw["replicas"]); ok {
		cfg.Replicas = v
	}
	if v, ok := asInt(raw["steps"]); ok {
		cfg.Steps = v
	}
	if v, ok := asFloat64(raw["dt"]); ok {
		cfg.DT = v
	}
	if v, ok := asInt(raw["evaluations_per_step"]); ok {
		cfg.EvaluationsPerStep = v
	}
	if v, ok := asFloat64(raw["start_dist"]); ok {
		cfg.StartDist = v
	}
	if v, ok := asFloat64(raw["target_dist"]); ok {
		cfg.TargetDist = v
	}
	if v, ok := raw["params"].(map[string]any); ok {
		cfg.Params = v
	}

	if len(cfg.Sites) != 2 {
		return RunConfig{}, fmt.Errorf("config %s: sites must name a pair of site indices", path)
	}
	if cfg.Params == nil {
		return RunConfig{}, fmt.Errorf("config %s: missing params mapping", path)
	}
	return cfg, nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}

func asIntSlice(v any) ([]int, bool) {
	list, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]int, len(list))
	for i, item := range list {
		n, ok := asInt(item)
		if !ok {
			return nil, false
		}
		out[i] = n
	}
	return out, true
}
