package engine

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"

	"dsmga2/internal/fitness"
)

func newOneMaxDispatcher(t *testing.T, ell int) *fitness.Dispatcher {
	t.Helper()
	d, err := fitness.NewDispatcher(fitness.OneMax, ell)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	return d
}

func TestOptimizeReachesOneMaxOptimum(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ProblemSize = 20
	cfg.PopulationSize = 30
	cfg.Seed = 42
	cfg.SeedSet = true
	cfg.MaxGenerations = 500

	d := newOneMaxDispatcher(t, cfg.ProblemSize)
	e, err := New(cfg, d, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := e.Optimize(context.Background())
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if !result.ReachedOptimum {
		t.Fatalf("expected OneMax optimum, got status %v fitness %v", result.Status, result.BestFitness)
	}
	if result.BestFitness != float64(cfg.ProblemSize) {
		t.Fatalf("BestFitness: got %v, want %v", result.BestFitness, cfg.ProblemSize)
	}
}

func TestOptimizeIsDeterministicGivenSeed(t *testing.T) {
	run := func() Result {
		cfg := DefaultConfig()
		cfg.ProblemSize = 16
		cfg.PopulationSize = 20
		cfg.Seed = 7
		cfg.SeedSet = true
		cfg.MaxGenerations = 200

		d := newOneMaxDispatcher(t, cfg.ProblemSize)
		e, err := New(cfg, d, nil)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		result, err := e.Optimize(context.Background())
		if err != nil {
			t.Fatalf("Optimize: %v", err)
		}
		return result
	}

	a, b := run(), run()
	if a.BestFitness != b.BestFitness || a.Generations != b.Generations || a.NFE != b.NFE {
		t.Fatalf("same seed produced different results: %+v vs %+v", a, b)
	}
}

func TestOptimizeRespectsEvaluationBudget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ProblemSize = 50
	cfg.PopulationSize = 10
	cfg.Seed = 1
	cfg.SeedSet = true
	cfg.MaxGenerations = -1
	cfg.MaxEvaluations = 15 // only 5 more than the 10 evaluations of the initial population

	d := newOneMaxDispatcher(t, cfg.ProblemSize)
	e, err := New(cfg, d, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := e.Optimize(context.Background())
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if result.Status != StatusBudgetExhausted {
		t.Fatalf("Status: got %v, want StatusBudgetExhausted", result.Status)
	}
}

func TestOptimizeCancellation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ProblemSize = 30
	cfg.PopulationSize = 20
	cfg.Seed = 3
	cfg.SeedSet = true
	cfg.MaxGenerations = -1
	cfg.MaxEvaluations = -1

	d := newOneMaxDispatcher(t, cfg.ProblemSize)
	e, err := New(cfg, d, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e.Cancel()

	result, err := e.Optimize(context.Background())
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if result.Status != StatusCancelled {
		t.Fatalf("Status: got %v, want StatusCancelled", result.Status)
	}
}

func TestOptimizeVerboseLogsGenerationProgress(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ProblemSize = 50
	cfg.PopulationSize = 10
	cfg.Seed = 3
	cfg.SeedSet = true
	cfg.MaxEvaluations = 15
	cfg.Verbose = true

	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	d := newOneMaxDispatcher(t, cfg.ProblemSize)
	e, err := New(cfg, d, logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := e.Optimize(context.Background()); err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if !strings.Contains(buf.String(), "generation=") {
		t.Fatalf("expected generation progress lines in log output, got: %s", buf.String())
	}
}

func TestOptimizeQuietProducesNoLogOutput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ProblemSize = 50
	cfg.PopulationSize = 10
	cfg.Seed = 3
	cfg.SeedSet = true
	cfg.MaxEvaluations = 15
	cfg.Verbose = false

	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	d := newOneMaxDispatcher(t, cfg.ProblemSize)
	e, err := New(cfg, d, logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := e.Optimize(context.Background()); err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no log output when Verbose is false, got: %s", buf.String())
	}
}

func TestNewRejectsZeroEvaluationBudget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ProblemSize = 10
	cfg.MaxEvaluations = 0 // normalize() treats exactly-0 as an error, not "unset"
	cfg.PopulationSize = 10

	// PopulationSize set explicitly and MaxGenerations left at default -1;
	// MaxEvaluations is the field under test and must be forced back to 0
	// after DefaultConfig() would otherwise set it.
	d := newOneMaxDispatcher(t, cfg.ProblemSize)
	if _, err := New(cfg, d, nil); err == nil {
		t.Fatal("expected configuration error for MaxEvaluations=0")
	}
}

func TestNewRejectsTooSmallPopulation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ProblemSize = 10
	cfg.PopulationSize = 4

	d := newOneMaxDispatcher(t, cfg.ProblemSize)
	if _, err := New(cfg, d, nil); err == nil {
		t.Fatal("expected configuration error for population size < 10")
	}
}

func TestNewRaisesOddPopulationToEven(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ProblemSize = 10
	cfg.PopulationSize = 11

	d := newOneMaxDispatcher(t, cfg.ProblemSize)
	e, err := New(cfg, d, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(e.population) != 12 {
		t.Fatalf("population size: got %d, want 12", len(e.population))
	}
}

func TestNewRejectsCustomDispatcherWithoutCallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ProblemSize = 10

	d, err := fitness.NewDispatcher(fitness.Custom, cfg.ProblemSize)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	if _, err := New(cfg, d, nil); err == nil {
		t.Fatal("expected mode error for unset custom callback")
	}
}
