// Package engine implements the steady-state generational loop (C6):
// per generation it rebuilds the linkage model, runs one Restricted Mixing
// pass followed by Back Mixing over the patterns it discovered, then checks
// the termination conditions.
package engine

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"sync/atomic"

	"dsmga2/internal/chromosome"
	"dsmga2/internal/fastcounting"
	"dsmga2/internal/fitness"
	"dsmga2/internal/linkage"
	"dsmga2/internal/mixing"
)

// Status classifies why Optimize stopped.
type Status int

const (
	StatusOptimumReached Status = iota
	StatusConverged
	StatusStagnated
	StatusBudgetExhausted
	StatusCancelled
	StatusFatalError
)

func (s Status) String() string {
	switch s {
	case StatusOptimumReached:
		return "optimum_reached"
	case StatusConverged:
		return "converged"
	case StatusStagnated:
		return "stagnated"
	case StatusBudgetExhausted:
		return "budget_exhausted"
	case StatusCancelled:
		return "cancelled"
	case StatusFatalError:
		return "fatal_error"
	default:
		return fmt.Sprintf("engine.Status(%d)", int(s))
	}
}

// Result is the outcome of a run: the best chromosome ever observed and the
// bookkeeping a caller needs to decide what happened.
type Result struct {
	Best           []int
	BestFitness    float64
	Generations    int
	NFE            int64
	Status         Status
	ReachedOptimum bool
}

// Engine owns one independent run's population, fastcounting mirror,
// linkage model, and PRNG. It is not safe for concurrent use by multiple
// goroutines other than a single call to Cancel.
type Engine struct {
	cfg        Config
	rng        *rand.Rand
	dispatcher *fitness.Dispatcher

	population []*chromosome.Chromosome
	fc         *fastcounting.FastCounting
	model      *linkage.Model
	mixer      *mixing.Engine

	best        *chromosome.Chromosome
	bestFitness float64

	generation          int
	stagnantGenerations int

	cancelled atomic.Bool

	logger *log.Logger
}

// New validates cfg, seeds a fresh random population, and performs the
// initial linkage-model build. Configuration and mode errors surface here,
// before any search begins.
func New(cfg Config, dispatcher *fitness.Dispatcher, logger *log.Logger) (*Engine, error) {
	normalized, warning, err := cfg.normalize()
	if err != nil {
		return nil, err
	}
	if warning != "" {
		if logger != nil {
			logger.Print("engine: " + warning)
		}
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("%w: fitness dispatcher is required", ErrInvalidConfig)
	}
	if err := dispatcher.ValidateReady(); err != nil {
		return nil, err
	}

	donorSelector, err := normalized.donorSelector()
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(normalized.Seed))

	population := make([]*chromosome.Chromosome, normalized.PopulationSize)
	for i := range population {
		population[i] = chromosome.NewRandom(normalized.ProblemSize, rng)
	}

	fc := fastcounting.New(normalized.ProblemSize, normalized.PopulationSize)
	fc.Sync(population)

	model := linkage.New(normalized.ProblemSize)
	model.BuildGraph(fc)

	mixer := mixing.New(normalized.ProblemSize, normalized.PopulationSize, donorSelector, normalized.HistoryWindow)

	e := &Engine{
		cfg:        normalized,
		rng:        rng,
		dispatcher: dispatcher,
		population: population,
		fc:         fc,
		model:      model,
		mixer:      mixer,
		logger:     logger,
	}

	for _, c := range population {
		if _, err := c.GetFitness(dispatcher); err != nil {
			return nil, fmt.Errorf("engine: evaluating initial population: %w", err)
		}
	}
	e.recordBest()

	return e, nil
}

// Cancel requests that Optimize stop at the top of its next generation and
// return the best-ever result with StatusCancelled. Safe to call from
// another goroutine.
func (e *Engine) Cancel() {
	e.cancelled.Store(true)
}

func (e *Engine) recordBest() {
	for _, c := range e.population {
		if e.best == nil || c.Fitness() > e.bestFitness {
			e.best = c.Clone()
			e.bestFitness = c.Fitness()
		}
	}
}

func (e *Engine) result(status Status) Result {
	optimum, hasOptimum := e.dispatcher.KnownOptimum()
	return Result{
		Best:           e.best.Bits(),
		BestFitness:    e.bestFitness,
		Generations:    e.generation,
		NFE:            e.dispatcher.NFE(),
		Status:         status,
		ReachedOptimum: hasOptimum && e.bestFitness >= optimum,
	}
}

// Optimize runs generations until a termination condition is met or ctx is
// cancelled, and returns the best-ever chromosome and fitness.
func (e *Engine) Optimize(ctx context.Context) (Result, error) {
	for {
		if ctx.Err() != nil {
			return e.result(StatusCancelled), nil
		}
		if e.cancelled.Load() {
			return e.result(StatusCancelled), nil
		}

		if e.generation > 0 {
			e.model.BuildGraph(e.fc)
		}

		e.mixer.ResetOrphans()
		successes, accepted, err := e.mixer.RestrictedMixingPass(e.rng, e.population, e.fc, e.model, e.dispatcher)
		if err != nil {
			return e.result(StatusFatalError), fmt.Errorf("engine: restricted mixing: %w", err)
		}
		if err := e.mixer.BackMixingPass(e.generation, successes, e.population, e.fc, e.dispatcher); err != nil {
			return e.result(StatusFatalError), fmt.Errorf("engine: back mixing: %w", err)
		}

		e.recordBest()

		if accepted > 0 {
			e.stagnantGenerations = 0
		} else {
			e.stagnantGenerations++
		}

		if e.cfg.Verbose && e.logger != nil {
			e.logger.Printf("engine: generation=%d best_fitness=%.6f successes=%d accepted=%d nfe=%d",
				e.generation, e.bestFitness, len(successes), accepted, e.dispatcher.NFE())
		}

		e.generation++

		if optimum, ok := e.dispatcher.KnownOptimum(); ok && e.bestFitness >= optimum {
			return e.result(StatusOptimumReached), nil
		}
		if e.populationConverged() {
			return e.result(StatusConverged), nil
		}
		if e.stagnantGenerations >= e.cfg.StagnationBound {
			return e.result(StatusStagnated), nil
		}
		if e.cfg.MaxGenerations >= 0 && e.generation >= e.cfg.MaxGenerations {
			return e.result(StatusBudgetExhausted), nil
		}
		if e.cfg.MaxEvaluations >= 0 && e.dispatcher.NFE() >= int64(e.cfg.MaxEvaluations) {
			return e.result(StatusBudgetExhausted), nil
		}
	}
}

// populationConverged reports whether every chromosome shares identical
// bits, or the fitness variance across the population is negligible
// relative to the magnitude of the best fitness seen.
func (e *Engine) populationConverged() bool {
	first := e.population[0]
	identical := true
	for _, c := range e.population[1:] {
		if !c.Equal(first) {
			identical = false
			break
		}
	}
	if identical {
		return true
	}

	mean := 0.0
	for _, c := range e.population {
		mean += c.Fitness()
	}
	mean /= float64(len(e.population))

	variance := 0.0
	for _, c := range e.population {
		d := c.Fitness() - mean
		variance += d * d
	}
	variance /= float64(len(e.population))

	scale := math.Abs(e.bestFitness)
	if scale < 1 {
		scale = 1
	}
	return variance <= 1e-6*scale
}
