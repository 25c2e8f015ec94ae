// Package dsmga2 is the public entry point for running the dependency
// structure matrix genetic algorithm engine and population-size sweeps,
// with results optionally persisted to a run store.
package dsmga2

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"dsmga2/internal/engine"
	"dsmga2/internal/fitness"
	"dsmga2/internal/report"
	"dsmga2/internal/runstore"
	"dsmga2/internal/sweep"
)

const defaultDBPath = "dsmga2.db"

// Options configures a Client's persistence backend.
type Options struct {
	StoreKind string // "", "memory", or "sqlite"
	DBPath    string
	Logger    *log.Logger
}

// Client ties an engine/sweep runner to a run store.
type Client struct {
	store  runstore.Store
	logger *log.Logger
}

// RunRequest configures a single optimize() call.
type RunRequest struct {
	ProblemSize     int
	PopulationSize  int
	MaxGenerations  int
	MaxEvaluations  int
	Seed            int64
	SeedSet         bool
	StagnationBound int
	HistoryWindow   int
	DonorSelection  string
	TournamentSize  int

	FitnessKind string // onemax|mktrap|ftrap|cyctrap|nk|sat|spin|custom
	TrapK       int

	NKProblemPath   string
	SATProblemPath  string
	SpinProblemPath string
	Objective       fitness.ObjectiveFunc // required when FitnessKind == "custom"

	// Verbose enables generation-by-generation progress lines on the
	// client's logger.
	Verbose bool

	Persist bool
}

// RunSummary is the result of a single optimize() call, with the best
// solution rendered as a most-significant-locus-first bit string.
type RunSummary struct {
	RunID          string
	BestBits       string
	BestFitness    float64
	Generations    int
	NFE            int64
	Status         string
	ReachedOptimum bool
}

// SweepRequest configures a bisection search over population size.
type SweepRequest struct {
	ProblemSize    int
	FitnessKind    string
	TrapK          int
	NKProblemPath  string
	SATProblemPath string
	SpinProblemPath string

	MinPopulation int
	MaxPopulation int
	Step          int
	NConv         int

	MaxGenerations  int
	MaxEvaluations  int
	StagnationBound int
	HistoryWindow   int
	DonorSelection  string
	TournamentSize  int

	Persist bool
}

// SweepSummary is the result of a population-size sweep.
type SweepSummary struct {
	ID              string
	PopulationSize  int
	MeanGenerations float64
	MeanNFE         float64
}

// New builds a Client against the requested store backend.
func New(opts Options) (*Client, error) {
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	store, err := runstore.NewStore(opts.StoreKind, dbPath)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Client{store: store, logger: logger}, nil
}

// Close releases the underlying store.
func (c *Client) Close() error {
	return runstore.CloseIfSupported(c.store)
}

// Init prepares the store for use; callers may skip it, since Runs, GetRun,
// and any Run/Sweep with Persist set initialize the store themselves.
func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

func (c *Client) dispatcherFor(kind, nkPath, satPath, spinPath string, ell, trapK int, objective fitness.ObjectiveFunc) (*fitness.Dispatcher, error) {
	parsedKind, err := fitness.ParseKind(kind)
	if err != nil {
		return nil, err
	}

	var opts []fitness.Option
	if trapK > 0 {
		opts = append(opts, fitness.WithTrapK(trapK))
	}

	switch parsedKind {
	case fitness.NKLandscape:
		problem, err := loadNKFile(nkPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, fitness.WithNKProblem(problem))
	case fitness.MAXSAT:
		problem, err := loadSATFile(satPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, fitness.WithSATProblem(problem))
	case fitness.IsingSpin:
		problem, err := loadSpinFile(spinPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, fitness.WithSpinProblem(problem))
	}

	dispatcher, err := fitness.NewDispatcher(parsedKind, ell, opts...)
	if err != nil {
		return nil, err
	}
	if parsedKind == fitness.Custom {
		if objective == nil {
			return nil, fmt.Errorf("dsmga2: %w", fitness.ErrCustomFunctionUnset)
		}
		if err := dispatcher.SetObjectiveFunction(objective); err != nil {
			return nil, err
		}
	}
	return dispatcher, nil
}

// runOnce builds the dispatcher and engine for req and runs a single
// optimize() call, returning the engine's own result shape. Run and
// Benchmark both build on this.
func (c *Client) runOnce(ctx context.Context, req RunRequest) (engine.Result, engine.Config, error) {
	dispatcher, err := c.dispatcherFor(req.FitnessKind, req.NKProblemPath, req.SATProblemPath, req.SpinProblemPath, req.ProblemSize, req.TrapK, req.Objective)
	if err != nil {
		return engine.Result{}, engine.Config{}, err
	}

	cfg := engine.DefaultConfig()
	cfg.ProblemSize = req.ProblemSize
	if req.PopulationSize > 0 {
		cfg.PopulationSize = req.PopulationSize
	}
	if req.MaxGenerations != 0 {
		cfg.MaxGenerations = req.MaxGenerations
	}
	if req.MaxEvaluations != 0 {
		cfg.MaxEvaluations = req.MaxEvaluations
	}
	if req.SeedSet {
		cfg.Seed = req.Seed
		cfg.SeedSet = true
	}
	if req.StagnationBound > 0 {
		cfg.StagnationBound = req.StagnationBound
	}
	if req.HistoryWindow > 0 {
		cfg.HistoryWindow = req.HistoryWindow
	}
	if req.DonorSelection != "" {
		cfg.DonorSelection = req.DonorSelection
	}
	if req.TournamentSize > 0 {
		cfg.TournamentSize = req.TournamentSize
	}
	cfg.Verbose = req.Verbose

	eng, err := engine.New(cfg, dispatcher, c.logger)
	if err != nil {
		return engine.Result{}, engine.Config{}, err
	}

	result, err := eng.Optimize(ctx)
	if err != nil {
		return engine.Result{}, engine.Config{}, err
	}
	return result, cfg, nil
}

// Run executes a single engine optimization and optionally persists it.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	result, cfg, err := c.runOnce(ctx, req)
	if err != nil {
		return RunSummary{}, err
	}

	runID := uuid.NewString()
	summary := RunSummary{
		RunID:          runID,
		BestBits:       bitsToString(result.Best),
		BestFitness:    result.BestFitness,
		Generations:    result.Generations,
		NFE:            result.NFE,
		Status:         result.Status.String(),
		ReachedOptimum: result.ReachedOptimum,
	}
	if c.logger != nil {
		c.logger.Print(report.FormatRun(result))
	}

	if req.Persist {
		if err := c.store.Init(ctx); err != nil {
			return RunSummary{}, err
		}
		record := runstore.RunRecord{
			ID:             runID,
			ProblemSize:    req.ProblemSize,
			PopulationSize: cfg.PopulationSize,
			FitnessKind:    req.FitnessKind,
			Seed:           cfg.Seed,
			BestBits:       summary.BestBits,
			BestFitness:    summary.BestFitness,
			Generations:    summary.Generations,
			NFE:            summary.NFE,
			Status:         summary.Status,
			ReachedOptimum: summary.ReachedOptimum,
		}
		if err := c.store.SaveRun(ctx, record); err != nil {
			return RunSummary{}, err
		}
	}
	return summary, nil
}

// Benchmark runs trials independent optimize() calls over req and returns
// the success-rate/generation/evaluation moments across the batch, the
// same aggregate shape a benchmarker computes over a set of trials. Each
// trial gets its own derived seed (req.Seed+i when req.SeedSet, otherwise
// a time-derived base), and trial runs are never individually persisted.
func (c *Client) Benchmark(ctx context.Context, req RunRequest, trials int) (report.RunStats, error) {
	if trials <= 0 {
		return report.RunStats{}, fmt.Errorf("dsmga2: benchmark trials must be >= 1, got %d", trials)
	}
	baseSeed := req.Seed
	if !req.SeedSet {
		baseSeed = time.Now().UnixNano()
	}

	results := make([]engine.Result, 0, trials)
	for i := 0; i < trials; i++ {
		trialReq := req
		trialReq.Seed = baseSeed + int64(i)
		trialReq.SeedSet = true
		trialReq.Persist = false

		result, _, err := c.runOnce(ctx, trialReq)
		if err != nil {
			return report.RunStats{}, err
		}
		results = append(results, result)
	}
	return report.Summarize(results), nil
}

// Sweep runs a bisection search for the smallest converging population
// size and optionally persists the result.
func (c *Client) Sweep(ctx context.Context, req SweepRequest) (SweepSummary, error) {
	base := engine.DefaultConfig()
	base.ProblemSize = req.ProblemSize
	if req.MaxGenerations != 0 {
		base.MaxGenerations = req.MaxGenerations
	}
	if req.MaxEvaluations != 0 {
		base.MaxEvaluations = req.MaxEvaluations
	}
	if req.StagnationBound > 0 {
		base.StagnationBound = req.StagnationBound
	}
	if req.HistoryWindow > 0 {
		base.HistoryWindow = req.HistoryWindow
	}
	if req.DonorSelection != "" {
		base.DonorSelection = req.DonorSelection
	}
	if req.TournamentSize > 0 {
		base.TournamentSize = req.TournamentSize
	}

	cfg := sweep.Config{
		Base:  base,
		Min:   req.MinPopulation,
		Max:   req.MaxPopulation,
		Step:  req.Step,
		NConv: req.NConv,
	}

	newDispatcher := func() (*fitness.Dispatcher, error) {
		return c.dispatcherFor(req.FitnessKind, req.NKProblemPath, req.SATProblemPath, req.SpinProblemPath, req.ProblemSize, req.TrapK, nil)
	}

	result, err := sweep.Run(ctx, cfg, newDispatcher, c.logger)
	if err != nil {
		return SweepSummary{}, err
	}

	id := uuid.NewString()
	summary := SweepSummary{
		ID:              id,
		PopulationSize:  result.PopulationSize,
		MeanGenerations: result.MeanGenerations,
		MeanNFE:         result.MeanNFE,
	}
	if c.logger != nil {
		c.logger.Print(report.FormatSweep(result))
	}

	if req.Persist {
		if err := c.store.Init(ctx); err != nil {
			return SweepSummary{}, err
		}
		record := runstore.SweepRecord{
			ID:              id,
			ProblemSize:     req.ProblemSize,
			FitnessKind:     req.FitnessKind,
			MinPopulation:   req.MinPopulation,
			MaxPopulation:   req.MaxPopulation,
			PopulationSize:  result.PopulationSize,
			MeanGenerations: result.MeanGenerations,
			MeanNFE:         result.MeanNFE,
		}
		if err := c.store.SaveSweep(ctx, record); err != nil {
			return SweepSummary{}, err
		}
	}
	return summary, nil
}

// Runs lists persisted run records in lexical ID order (IDs are random
// UUIDs, so this is not creation order), keeping the first limit when
// limit > 0.
func (c *Client) Runs(ctx context.Context, limit int) ([]runstore.RunRecord, error) {
	if err := c.store.Init(ctx); err != nil {
		return nil, err
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// GetRun loads a single persisted run record by id.
func (c *Client) GetRun(ctx context.Context, id string) (runstore.RunRecord, error) {
	if id == "" {
		return runstore.RunRecord{}, errors.New("dsmga2: run id is required")
	}
	if err := c.store.Init(ctx); err != nil {
		return runstore.RunRecord{}, err
	}
	record, ok, err := c.store.GetRun(ctx, id)
	if err != nil {
		return runstore.RunRecord{}, err
	}
	if !ok {
		return runstore.RunRecord{}, fmt.Errorf("dsmga2: run not found: %s", id)
	}
	return record, nil
}

func bitsToString(bits []int) string {
	buf := make([]byte, len(bits))
	for i, b := range bits {
		if b != 0 {
			buf[i] = '1'
		} else {
			buf[i] = '0'
		}
	}
	return string(buf)
}
