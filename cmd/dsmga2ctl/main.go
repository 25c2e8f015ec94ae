package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mattn/go-isatty"

	"dsmga2/internal/engine"
	"dsmga2/internal/fitness"
	"dsmga2/internal/report"
	"dsmga2/pkg/dsmga2"
)

const (
	exitOptimumReached   = 0
	exitBudgetExhausted  = 1
	exitUsageOrConfig    = 2
	exitEvaluatorFailure = 3
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:]))
}

func run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "missing command: run|sweep|benchmark|runs|get")
		return exitUsageOrConfig
	}

	var err error
	code := exitOptimumReached
	switch args[0] {
	case "run":
		code, err = runRun(ctx, args[1:])
	case "sweep":
		err = runSweep(ctx, args[1:])
	case "benchmark":
		err = runBenchmark(ctx, args[1:])
	case "runs":
		err = runRuns(ctx, args[1:])
	case "get":
		err = runGet(ctx, args[1:])
	default:
		err = fmt.Errorf("unknown command: %s", args[0])
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		if code == exitOptimumReached {
			code = exitUsageOrConfig
		}
	}
	return code
}

func runRun(ctx context.Context, args []string) (int, error) {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional run config JSON path")
	problemSize := fs.Int("ell", 0, "problem size (number of loci)")
	populationSize := fs.Int("pop", 50, "population size")
	maxGenerations := fs.Int("max-generations", -1, "generation budget (-1 unbounded)")
	maxEvaluations := fs.Int("max-evaluations", -1, "evaluation budget (-1 unbounded)")
	seed := fs.Int64("seed", 0, "rng seed (0 derives from time unless --config sets one)")
	fitnessKind := fs.String("fitness", "onemax", "fitness_type: onemax|mktrap|ftrap|cyctrap|nk|sat|spin|custom")
	trapK := fs.Int("trap-k", 0, "block size k for mktrap/cyctrap")
	nkFile := fs.String("nk-file", "", "nk-landscape problem file")
	satFile := fs.String("sat-file", "", "DIMACS CNF problem file")
	spinFile := fs.String("spin-file", "", "Ising-spin coupling file")
	donorSelection := fs.String("donor-selection", "", "donor selection: uniform|tournament")
	tournamentSize := fs.Int("tournament-size", 0, "donor tournament size")
	storeKind := fs.String("store", "memory", "run store backend: memory|sqlite")
	dbPath := fs.String("db-path", "", "sqlite database path")
	persist := fs.Bool("persist", false, "persist the run to the store")
	defaultVerbose := isatty.IsTerminal(os.Stderr.Fd())
	verbose := fs.Bool("verbose", defaultVerbose, "log generation-by-generation progress (defaults on when stderr is a terminal)")
	quiet := fs.Bool("quiet", false, "suppress generation-by-generation progress even on a terminal")
	if err := fs.Parse(args); err != nil {
		return exitUsageOrConfig, err
	}

	req := dsmga2.RunRequest{
		ProblemSize:     *problemSize,
		PopulationSize:  *populationSize,
		MaxGenerations:  *maxGenerations,
		MaxEvaluations:  *maxEvaluations,
		FitnessKind:     *fitnessKind,
		TrapK:           *trapK,
		NKProblemPath:   *nkFile,
		SATProblemPath:  *satFile,
		SpinProblemPath: *spinFile,
		DonorSelection:  *donorSelection,
		TournamentSize:  *tournamentSize,
		Verbose:         *verbose && !*quiet,
		Persist:         *persist,
	}
	if *configPath != "" {
		fileReq, err := loadRunRequestFromConfig(*configPath)
		if err != nil {
			return exitUsageOrConfig, fmt.Errorf("load config: %w", err)
		}
		req = mergeRunRequest(fileReq, req, fs)
	}
	if *seed != 0 {
		req.Seed = *seed
		req.SeedSet = true
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)

	client, err := dsmga2.New(dsmga2.Options{StoreKind: *storeKind, DBPath: *dbPath, Logger: logger})
	if err != nil {
		return exitUsageOrConfig, err
	}
	defer func() { _ = client.Close() }()

	summary, err := client.Run(ctx, req)
	if err != nil {
		return exitCodeForRunError(err), err
	}

	fmt.Printf("run_id=%s status=%s optimum_reached=%t best_fitness=%.6f generations=%d evaluations=%d\n",
		summary.RunID, summary.Status, summary.ReachedOptimum, summary.BestFitness, summary.Generations, summary.NFE)
	fmt.Println(summary.BestBits)

	if summary.ReachedOptimum {
		return exitOptimumReached, nil
	}
	return exitBudgetExhausted, nil
}

func exitCodeForRunError(err error) int {
	switch {
	case errors.Is(err, engine.ErrInvalidConfig),
		errors.Is(err, fitness.ErrModeNotCustom),
		errors.Is(err, fitness.ErrCustomFunctionUnset):
		return exitUsageOrConfig
	case errors.Is(err, fitness.ErrInvalidFitnessValue):
		return exitEvaluatorFailure
	default:
		return exitUsageOrConfig
	}
}

// mergeRunRequest lets values explicitly set on the command line override
// the config file, field by field, following the flag package's own
// Visit-based "was it set" convention.
func mergeRunRequest(fileReq, flagReq dsmga2.RunRequest, fs *flag.FlagSet) dsmga2.RunRequest {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	out := fileReq
	if set["ell"] {
		out.ProblemSize = flagReq.ProblemSize
	}
	if set["pop"] {
		out.PopulationSize = flagReq.PopulationSize
	}
	if set["max-generations"] {
		out.MaxGenerations = flagReq.MaxGenerations
	}
	if set["max-evaluations"] {
		out.MaxEvaluations = flagReq.MaxEvaluations
	}
	if set["fitness"] {
		out.FitnessKind = flagReq.FitnessKind
	}
	if set["trap-k"] {
		out.TrapK = flagReq.TrapK
	}
	if set["nk-file"] {
		out.NKProblemPath = flagReq.NKProblemPath
	}
	if set["sat-file"] {
		out.SATProblemPath = flagReq.SATProblemPath
	}
	if set["spin-file"] {
		out.SpinProblemPath = flagReq.SpinProblemPath
	}
	if set["donor-selection"] {
		out.DonorSelection = flagReq.DonorSelection
	}
	if set["tournament-size"] {
		out.TournamentSize = flagReq.TournamentSize
	}
	if set["persist"] {
		out.Persist = flagReq.Persist
	}
	if set["verbose"] || set["quiet"] {
		out.Verbose = flagReq.Verbose
	}
	if out.ProblemSize == 0 {
		out.ProblemSize = flagReq.ProblemSize
	}
	if out.FitnessKind == "" {
		out.FitnessKind = flagReq.FitnessKind
	}
	return out
}

func runSweep(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional sweep config JSON path")
	problemSize := fs.Int("ell", 0, "problem size (number of loci)")
	fitnessKind := fs.String("fitness", "onemax", "fitness_type: onemax|mktrap|ftrap|cyctrap|nk|sat|spin")
	trapK := fs.Int("trap-k", 0, "block size k for mktrap/cyctrap")
	nkFile := fs.String("nk-file", "", "nk-landscape problem file")
	satFile := fs.String("sat-file", "", "DIMACS CNF problem file")
	spinFile := fs.String("spin-file", "", "Ising-spin coupling file")
	minPop := fs.Int("min-pop", 10, "minimum population size")
	maxPop := fs.Int("max-pop", 1000, "maximum population size")
	step := fs.Int("step", 2, "bisection resolution")
	nConv := fs.Int("n-conv", 5, "successful trials required for convergence at a population size")
	maxGenerations := fs.Int("max-generations", -1, "per-trial generation budget")
	maxEvaluations := fs.Int("max-evaluations", -1, "per-trial evaluation budget")
	storeKind := fs.String("store", "memory", "run store backend: memory|sqlite")
	dbPath := fs.String("db-path", "", "sqlite database path")
	persist := fs.Bool("persist", false, "persist the sweep result to the store")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := dsmga2.SweepRequest{
		ProblemSize:     *problemSize,
		FitnessKind:     *fitnessKind,
		TrapK:           *trapK,
		NKProblemPath:   *nkFile,
		SATProblemPath:  *satFile,
		SpinProblemPath: *spinFile,
		MinPopulation:   *minPop,
		MaxPopulation:   *maxPop,
		Step:            *step,
		NConv:           *nConv,
		MaxGenerations:  *maxGenerations,
		MaxEvaluations:  *maxEvaluations,
		Persist:         *persist,
	}
	if *configPath != "" {
		fileReq, err := loadSweepRequestFromConfig(*configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		fileReq.Persist = req.Persist
		req = fileReq
	}

	client, err := dsmga2.New(dsmga2.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	summary, err := client.Sweep(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("sweep_id=%s population_size=%d mean_generations=%.2f mean_evaluations=%.2f\n",
		summary.ID, summary.PopulationSize, summary.MeanGenerations, summary.MeanNFE)
	return nil
}

// runBenchmark repeats a run configuration over a batch of independently
// seeded trials and prints the success-rate/generation/evaluation moments
// across the batch, the CLI-facing finishing touch over a single run.
func runBenchmark(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("benchmark", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional run config JSON path")
	problemSize := fs.Int("ell", 0, "problem size (number of loci)")
	populationSize := fs.Int("pop", 50, "population size")
	maxGenerations := fs.Int("max-generations", -1, "per-trial generation budget (-1 unbounded)")
	maxEvaluations := fs.Int("max-evaluations", -1, "per-trial evaluation budget (-1 unbounded)")
	seed := fs.Int64("seed", 0, "base rng seed; trial i uses seed+i")
	fitnessKind := fs.String("fitness", "onemax", "fitness_type: onemax|mktrap|ftrap|cyctrap|nk|sat|spin")
	trapK := fs.Int("trap-k", 0, "block size k for mktrap/cyctrap")
	nkFile := fs.String("nk-file", "", "nk-landscape problem file")
	satFile := fs.String("sat-file", "", "DIMACS CNF problem file")
	spinFile := fs.String("spin-file", "", "Ising-spin coupling file")
	donorSelection := fs.String("donor-selection", "", "donor selection: uniform|tournament")
	tournamentSize := fs.Int("tournament-size", 0, "donor tournament size")
	trials := fs.Int("trials", 30, "number of independently seeded trials")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := dsmga2.RunRequest{
		ProblemSize:     *problemSize,
		PopulationSize:  *populationSize,
		MaxGenerations:  *maxGenerations,
		MaxEvaluations:  *maxEvaluations,
		FitnessKind:     *fitnessKind,
		TrapK:           *trapK,
		NKProblemPath:   *nkFile,
		SATProblemPath:  *satFile,
		SpinProblemPath: *spinFile,
		DonorSelection:  *donorSelection,
		TournamentSize:  *tournamentSize,
	}
	if *configPath != "" {
		fileReq, err := loadRunRequestFromConfig(*configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		req = mergeRunRequest(fileReq, req, fs)
	}
	if *seed != 0 {
		req.Seed = *seed
		req.SeedSet = true
	}

	client, err := dsmga2.New(dsmga2.Options{})
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	stats, err := client.Benchmark(ctx, req, *trials)
	if err != nil {
		return err
	}
	fmt.Print(report.FormatRunStats(stats))
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	storeKind := fs.String("store", "memory", "run store backend: memory|sqlite")
	dbPath := fs.String("db-path", "", "sqlite database path")
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := dsmga2.New(dsmga2.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	runs, err := client.Runs(ctx, *limit)
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}
	for _, r := range runs {
		fmt.Printf("run_id=%s fitness=%s seed=%d pop=%d best=%.6f generations=%d evaluations=%d status=%s optimum_reached=%t\n",
			r.ID, r.FitnessKind, r.Seed, r.PopulationSize, r.BestFitness, r.Generations, r.NFE, r.Status, r.ReachedOptimum)
	}
	return nil
}

func runGet(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	storeKind := fs.String("store", "memory", "run store backend: memory|sqlite")
	dbPath := fs.String("db-path", "", "sqlite database path")
	runID := fs.String("run-id", "", "run id")
	jsonOut := fs.Bool("json", false, "emit run as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("get requires --run-id")
	}

	client, err := dsmga2.New(dsmga2.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	record, err := client.GetRun(ctx, *runID)
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(record)
	}
	fmt.Printf("run_id=%s fitness=%s seed=%d pop=%d best=%.6f generations=%d evaluations=%d status=%s optimum_reached=%t\n",
		record.ID, record.FitnessKind, record.Seed, record.PopulationSize, record.BestFitness, record.Generations, record.NFE, record.Status, record.ReachedOptimum)
	fmt.Println(record.BestBits)
	return nil
}
