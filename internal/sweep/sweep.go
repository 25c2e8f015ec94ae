// Package sweep implements the bisection controller over population size
// (C7): it searches for the smallest population size in [pmin,pmax] for
// which the engine reaches the fitness function's known optimum in every
// one of N_conv independent trials.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log"

	"dsmga2/internal/engine"
	"dsmga2/internal/fitness"
)

// DispatcherFactory builds a fresh, independent fitness dispatcher for one
// trial. It is called once per trial so each trial gets its own
// zeroed evaluation counter; problem instance data (NK/SAT/spin tables)
// loaded once by the caller may be shared and wrapped per call.
type DispatcherFactory func() (*fitness.Dispatcher, error)

// Config configures a bisection sweep. Base is the engine configuration
// applied to every trial except PopulationSize, which the bisection
// controls.
type Config struct {
	Base DispatcherBaseConfig
	Min  int
	Max  int
	Step int
	// NConv is the number of independent trials that must all succeed for a
	// candidate population size to be accepted. Defaults to 10 if <= 0.
	NConv int
}

// DispatcherBaseConfig is the subset of engine.Config a sweep holds fixed
// across every trial.
type DispatcherBaseConfig = engine.Config

// ErrSweepFailed is returned when even the largest population size in the
// configured range fails to converge in N_conv consecutive trials.
var ErrSweepFailed = errors.New("sweep: no population size in range converged")

// Result reports the outcome of a successful sweep.
type Result struct {
	PopulationSize  int
	MeanGenerations float64
	MeanNFE         float64
}

// Run performs the bisection search described in the package doc, using
// logger (if non-nil) to report each candidate population size tried,
// mirroring the original implementation's optional progress printing.
func Run(ctx context.Context, cfg Config, newDispatcher DispatcherFactory, logger *log.Logger) (Result, error) {
	if cfg.Min <= 0 || cfg.Max < cfg.Min {
		return Result{}, fmt.Errorf("sweep: invalid range [%d,%d]", cfg.Min, cfg.Max)
	}
	if cfg.Step <= 0 {
		cfg.Step = 2
	}
	nConv := cfg.NConv
	if nConv <= 0 {
		nConv = 10
	}

	lo, hi := roundToEven(cfg.Min), roundToEven(cfg.Max)

	hiTrial, err := runTrials(ctx, cfg.Base, newDispatcher, hi, nConv, logger)
	if err != nil {
		return Result{}, err
	}
	if !hiTrial.allSucceeded {
		return Result{}, fmt.Errorf("%w: population %d failed %d/%d trials", ErrSweepFailed, hi, nConv-hiTrial.successes, nConv)
	}
	best := hiTrial

	for hi-lo > cfg.Step {
		mid := roundToEven((lo + hi) / 2)
		if mid == hi || mid == lo {
			break
		}
		midTrial, err := runTrials(ctx, cfg.Base, newDispatcher, mid, nConv, logger)
		if err != nil {
			return Result{}, err
		}
		if midTrial.allSucceeded {
			hi = mid
			best = midTrial
		} else {
			lo = mid
		}
	}

	return Result{
		PopulationSize:  hi,
		MeanGenerations: best.meanGenerations(),
		MeanNFE:         best.meanNFE(),
	}, nil
}

type trialBatch struct {
	allSucceeded bool
	successes    int
	generations  []int
	nfe          []int64
}

func (b trialBatch) meanGenerations() float64 {
	return meanInt(b.generations)
}

func (b trialBatch) meanNFE() float64 {
	return meanInt64(b.nfe)
}

func meanInt(xs []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	total := 0
	for _, x := range xs {
		total += x
	}
	return float64(total) / float64(len(xs))
}

func meanInt64(xs []int64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var total int64
	for _, x := range xs {
		total += x
	}
	return float64(total) / float64(len(xs))
}

func runTrials(ctx context.Context, base engine.Config, newDispatcher DispatcherFactory, populationSize, nConv int, logger *log.Logger) (trialBatch, error) {
	if logger != nil {
		logger.Printf("sweep: trying population size %d (%d trials)", populationSize, nConv)
	}
	batch := trialBatch{allSucceeded: true}
	for i := 0; i < nConv; i++ {
		if ctx.Err() != nil {
			return trialBatch{}, ctx.Err()
		}
		trialCfg := base
		trialCfg.PopulationSize = populationSize

		d, err := newDispatcher()
		if err != nil {
			return trialBatch{}, fmt.Errorf("sweep: building dispatcher for trial %d at population %d: %w", i, populationSize, err)
		}
		e, err := engine.New(trialCfg, d, nil)
		if err != nil {
			return trialBatch{}, fmt.Errorf("sweep: constructing engine for trial %d at population %d: %w", i, populationSize, err)
		}
		result, err := e.Optimize(ctx)
		if err != nil {
			return trialBatch{}, fmt.Errorf("sweep: trial %d at population %d: %w", i, populationSize, err)
		}
		if result.ReachedOptimum {
			batch.successes++
			batch.generations = append(batch.generations, result.Generations)
			batch.nfe = append(batch.nfe, result.NFE)
		} else {
			batch.allSucceeded = false
		}
	}
	return batch, nil
}

// roundToEven rounds x to the nearest even integer, matching the
// bisection's midpoint rule.
func roundToEven(x int) int {
	if x%2 != 0 {
		return x + 1
	}
	return x
}

// Sweep is a thin alias over Run with identical bisection semantics,
// retained for callers (the CLI, the public API) that prefer a named type
// to construct rather than a bare function call.
type Sweep struct {
	Config Config
}

// Run executes the sweep described by s.Config.
func (s Sweep) Run(ctx context.Context, newDispatcher DispatcherFactory, logger *log.Logger) (Result, error) {
	return Run(ctx, s.Config, newDispatcher, logger)
}
