package main

import (
	"encoding/json"
	"os"

	"dsmga2/pkg/dsmga2"
)

// loadRunRequestFromConfig decodes a JSON config file into a RunRequest via
// a raw map, applying the same per-field coercion as the CLI's flag
// defaults so either source can populate any field.
func loadRunRequestFromConfig(path string) (dsmga2.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return dsmga2.RunRequest{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return dsmga2.RunRequest{}, err
	}

	var req dsmga2.RunRequest
	if v, ok := asInt(raw["problem_size"]); ok {
		req.ProblemSize = v
	}
	if v, ok := asInt(raw["population_size"]); ok {
		req.PopulationSize = v
	}
	if v, ok := asInt(raw["max_generations"]); ok {
		req.MaxGenerations = v
	}
	if v, ok := asInt(raw["max_evaluations"]); ok {
		req.MaxEvaluations = v
	}
	if v, ok := asInt64(raw["seed"]); ok {
		req.Seed = v
		req.SeedSet = true
	}
	if v, ok := asInt(raw["stagnation_bound"]); ok {
		req.StagnationBound = v
	}
	if v, ok := asInt(raw["history_window"]); ok {
		req.HistoryWindow = v
	}
	if v, ok := asString(raw["donor_selection"]); ok {
		req.DonorSelection = v
	}
	if v, ok := asInt(raw["tournament_size"]); ok {
		req.TournamentSize = v
	}
	if v, ok := asString(raw["fitness_type"]); ok {
		req.FitnessKind = v
	}
	if v, ok := asInt(raw["trap_k"]); ok {
		req.TrapK = v
	}
	if v, ok := asString(raw["nk_file"]); ok {
		req.NKProblemPath = v
	}
	if v, ok := asString(raw["sat_file"]); ok {
		req.SATProblemPath = v
	}
	if v, ok := asString(raw["spin_file"]); ok {
		req.SpinProblemPath = v
	}
	if v, ok := asBool(raw["verbose"]); ok {
		req.Verbose = v
	}
	return req, nil
}

func loadSweepRequestFromConfig(path string) (dsmga2.SweepRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return dsmga2.SweepRequest{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return dsmga2.SweepRequest{}, err
	}

	var req dsmga2.SweepRequest
	if v, ok := asInt(raw["problem_size"]); ok {
		req.ProblemSize = v
	}
	if v, ok := asString(raw["fitness_type"]); ok {
		req.FitnessKind = v
	}
	if v, ok := asInt(raw["trap_k"]); ok {
		req.TrapK = v
	}
	if v, ok := asString(raw["nk_file"]); ok {
		req.NKProblemPath = v
	}
	if v, ok := asString(raw["sat_file"]); ok {
		req.SATProblemPath = v
	}
	if v, ok := asString(raw["spin_file"]); ok {
		req.SpinProblemPath = v
	}
	if v, ok := asInt(raw["min_population"]); ok {
		req.MinPopulation = v
	}
	if v, ok := asInt(raw["max_population"]); ok {
		req.MaxPopulation = v
	}
	if v, ok := asInt(raw["step"]); ok {
		req.Step = v
	}
	if v, ok := asInt(raw["n_conv"]); ok {
		req.NConv = v
	}
	if v, ok := asInt(raw["max_generations"]); ok {
		req.MaxGenerations = v
	}
	if v, ok := asInt(raw["max_evaluations"]); ok {
		req.MaxEvaluations = v
	}
	return req, nil
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

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}
