package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadRunConfig(t *testing.T) {
	path := writeConfig(t, `{
		"run_id": "demo",
		"name": "pair-1",
		"sites": [387, 1892],
		"replicas": 4,
		"steps": 50,
		"dt": 0.5,
		"start_dist": 1.5,
		"target_dist": 3.0,
		"params": {
			"nbins": 10,
			"binwidth": 0.5,
			"min_dist": 2.0,
			"max_dist": 4.0,
			"experimental": [0,0,0,0,0,0,0,0,0,0],
			"nsamples": 5,
			"sample_period": 1.0,
			"nwindows": 3,
			"k": 100.0,
			"sigma": 0.2
		}
	}`)

	cfg, err := loadRunConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RunID != "demo" || cfg.Name != "pair-1" {
		t.Fatalf("unexpected identity %+v", cfg)
	}
	if cfg.Sites[0] != 387 || cfg.Sites[1] != 1892 {
		t.Fatalf("unexpected sites %v", cfg.Sites)
	}
	if cfg.Replicas != 4 || cfg.Steps != 50 || cfg.DT != 0.5 {
		t.Fatalf("unexpected run shape %+v", cfg)
	}
	if _, ok := cfg.Params["sigma"]; !ok {
		t.Fatal("params mapping not preserved")
	}
}

func TestLoadRunConfigDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"sites": [0, 1],
		"params": {"nbins": 4}
	}`)
	cfg, err := loadRunConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Replicas != 1 || cfg.Steps != 15 || cfg.DT != 1.0 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadRunConfigRejectsBadSites(t *testing.T) {
	path := writeConfig(t, `{"sites": [1], "params": {}}`)
	if _, err := loadRunConfig(path); err == nil {
		t.Fatal("expected error for non-pair sites")
	}
}

func TestLoadRunConfigRequiresParams(t *testing.T) {
	path := writeConfig(t, `{"sites": [0, 1]}`)
	if _, err := loadRunConfig(path); err == nil {
		t.Fatal("expected error for missing params")
	}
}
