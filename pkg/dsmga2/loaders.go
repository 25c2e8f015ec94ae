package dsmga2

import (
	"fmt"
	"os"

	"dsmga2/internal/fitness"
)

func loadNKFile(path string) (*fitness.NKProblem, error) {
	if path == "" {
		return nil, fmt.Errorf("dsmga2: nk-landscape file path is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return fitness.LoadNKProblem(f)
}

func loadSATFile(path string) (*fitness.SATProblem, error) {
	if path == "" {
		return nil, fmt.Errorf("dsmga2: sat file path is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return fitness.LoadSATProblem(f)
}

func loadSpinFile(path string) (*fitness.SpinProblem, error) {
	if path == "" {
		return nil, fmt.Errorf("dsmga2: spin file path is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return fitness.LoadSpinProblem(f)
}
