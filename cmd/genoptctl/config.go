package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"genopt/pkg/genopt"
)

// loadRunRequestFromConfig reads a run config file and applies its keys to
// base. Files ending in .toml are decoded as TOML, everything else as JSON.
// Keys use snake_case in both.
func loadRunRequestFromConfig(path string, base genopt.RunRequest) (genopt.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return genopt.RunRequest{}, err
	}
	var raw map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return genopt.RunRequest{}, err
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return genopt.RunRequest{}, err
		}
	}

	req := base
	if v, ok := asString(raw["run_id"]); ok {
		req.RunID = v
	}
	if v, ok := asString(raw["problem"]); ok {
		req.Problem = v
	}
	if v, ok := asString(raw["expression"]); ok {
		req.Expression = v
	}
	if err := intField(raw, "chromosome_length", &req.ChromosomeLength); err != nil {
		return genopt.RunRequest{}, err
	}
	if err := intField(raw, "population_size", &req.PopulationSize); err != nil {
		return genopt.RunRequest{}, err
	}
	if v, ok := asFloat64(raw["mutation_rate"]); ok {
		req.MutationRate = v
	}
	if err := intField(raw, "max_generations", &req.MaxGenerations); err != nil {
		return genopt.RunRequest{}, err
	}
	if v, ok := asString(raw["crossover"]); ok {
		req.Crossover = v
	}
	if v, ok := asString(raw["two_point_mode"]); ok {
		req.TwoPointMode = v
	}
	if err := intField(raw, "gene_domain", &req.GeneDomain); err != nil {
		return genopt.RunRequest{}, err
	}
	if v, present := raw["seed"]; present {
		seed, ok := asInt64(v)
		if !ok {
			return genopt.RunRequest{}, fmt.Errorf("seed must be an integer, got %v", v)
		}
		req.Seed = seed
	}
	if v, ok := asBool(raw["seed_dataset"]); ok {
		req.SeedDataset = v
	}
	if v, ok := asString(raw["seed_file"]); ok {
		req.SeedFile = v
		req.SeedFileHeader = true
	}
	if v, ok := asBool(raw["seed_file_header"]); ok {
		req.SeedFileHeader = v
	}

	if output, ok := raw["output"].(map[string]any); ok {
		if v, ok := asBool(output["chart"]); ok {
			req.Chart = v
		}
		if v, ok := asBool(output["workbook"]); ok {
			req.Workbook = v
		}
		if v, ok := asBool(output["metrics"]); ok {
			req.Metrics = v
		}
	}

	return req, nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// asInt accepts whole numbers only. JSON numbers arrive as float64, so a
// fractional value such as 2.7 is reported as not an int.
func asInt(v any) (int, bool) {
	n, ok := asInt64(v)
	if !ok || int64(int(n)) != n {
		return 0, false
	}
	return int(n), true
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		if x != math.Trunc(x) || x < math.MinInt64 || x >= math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	default:
		return 0, false
	}
}

// intField sets dst when key is present and errors when its value is not a
// whole number.
func intField(raw map[string]any, key string, dst *int) error {
	v, present := raw[key]
	if !present {
		return nil
	}
	n, ok := asInt(v)
	if !ok {
		return fmt.Errorf("%s must be an integer, got %v", key, v)
	}
	*dst = n
	return nil
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}

func overrideFromFlags(req *genopt.RunRequest, set map[string]bool, flagValue map[string]any) error {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "run-id":
			req.RunID = v.(string)
		case "problem":
			req.Problem = v.(string)
		case "expr":
			req.Expression = v.(string)
		case "length":
			req.ChromosomeLength = v.(int)
		case "pop":
			req.PopulationSize = v.(int)
		case "mutation-rate":
			req.MutationRate = v.(float64)
		case "gens":
			req.MaxGenerations = v.(int)
		case "crossover":
			req.Crossover = v.(string)
		case "two-point-mode":
			req.TwoPointMode = v.(string)
		case "domain":
			req.GeneDomain = v.(int)
		case "seed":
			req.Seed = v.(int64)
		case "seed-dataset":
			req.SeedDataset = v.(bool)
		case "seed-file":
			req.SeedFile = v.(string)
		case "seed-file-header":
			req.SeedFileHeader = v.(bool)
		case "chart":
			req.Chart = v.(bool)
		case "workbook":
			req.Workbook = v.(bool)
		case "metrics":
			req.Metrics = v.(bool)
		default:
			return fmt.Errorf("unsupported override flag: %s", name)
		}
	}
	return nil
}

func loadOrDefaultRunRequest(configPath string, base genopt.RunRequest) (genopt.RunRequest, error) {
	if configPath == "" {
		return base, nil
	}
	req, err := loadRunRequestFromConfig(configPath, base)
	if err != nil {
		return genopt.RunRequest{}, fmt.Errorf("load config: %w", err)
	}
	return req, nil
}
