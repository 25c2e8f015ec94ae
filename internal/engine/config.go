package engine

import (
	"errors"
	"fmt"
	"time"

	"dsmga2/internal/mixing"
)

// Config configures a generational-loop Engine. Zero values for most fields
// mean "use the default"; ProblemSize has no default and must be supplied.
type Config struct {
	// ProblemSize is the chromosome length ell. Required, >= 1.
	ProblemSize int

	// PopulationSize is P. Defaults to 50 if zero. Must end up even and
	// >= 10; an odd value is raised to the next even integer.
	PopulationSize int

	// MaxGenerations caps the number of generations. -1 (the zero value's
	// effective default) means unbounded.
	MaxGenerations int
	// MaxEvaluations caps the number of fitness evaluations. -1 means
	// unbounded. 0 is a configuration error (an engine that can never
	// evaluate anything is not a usable configuration).
	MaxEvaluations int

	// Seed is the PRNG seed. When SeedSet is false, a seed is derived from
	// the current time, matching the spec's "default derived from time"
	// while still letting a caller pin Seed=0 explicitly for reproducible
	// runs.
	Seed    int64
	SeedSet bool

	// StagnationBound is the number of consecutive generations without an
	// accepted Restricted Mixing step before the engine gives up. Defaults
	// to 10.
	StagnationBound int
	// HistoryWindow bounds how many generations a Back-Mixing pattern is
	// remembered before it may be re-imposed. Defaults to 5.
	HistoryWindow int

	// DonorSelection selects how Restricted Mixing picks a donor:
	// "uniform" (default) or "tournament".
	DonorSelection string
	// TournamentSize is used when DonorSelection is "tournament". Defaults
	// to 2.
	TournamentSize int

	// Verbose enables a generation-by-generation progress line on the
	// configured logger. Off by default, matching SHOW_BISECTION-style
	// conditional printing.
	Verbose bool
}

// DefaultConfig returns a Config with every optional field defaulted, ready
// to have ProblemSize set by the caller.
func DefaultConfig() Config {
	return Config{
		PopulationSize:  50,
		MaxGenerations:  -1,
		MaxEvaluations:  -1,
		StagnationBound: 10,
		HistoryWindow:   5,
		DonorSelection:  "uniform",
		TournamentSize:  2,
	}
}

// ErrInvalidConfig is wrapped by every configuration validation failure.
var ErrInvalidConfig = errors.New("engine: invalid configuration")

// normalize validates cfg, applies defaults, and returns the effective
// configuration together with any warning it produced (e.g. an odd
// population size being raised to the next even value). A non-nil error is
// always a configuration error (surfaced before any search begins, per
// the error-handling design).
func (cfg Config) normalize() (Config, string, error) {
	out := cfg
	if out.ProblemSize <= 0 {
		return Config{}, "", fmt.Errorf("%w: problem size must be >= 1, got %d", ErrInvalidConfig, out.ProblemSize)
	}
	if out.PopulationSize == 0 {
		out.PopulationSize = 50
	}
	var warning string
	if out.PopulationSize%2 != 0 {
		warning = fmt.Sprintf("population size %d is odd, raising to %d", out.PopulationSize, out.PopulationSize+1)
		out.PopulationSize++
	}
	if out.PopulationSize < 10 {
		return Config{}, "", fmt.Errorf("%w: population size must be >= 10, got %d", ErrInvalidConfig, out.PopulationSize)
	}
	if out.MaxGenerations == 0 {
		out.MaxGenerations = -1
	}
	if out.MaxEvaluations == 0 {
		return Config{}, "", fmt.Errorf("%w: max evaluations must not be 0 (use -1 for unbounded)", ErrInvalidConfig)
	}
	if out.StagnationBound <= 0 {
		out.StagnationBound = 10
	}
	if out.HistoryWindow <= 0 {
		out.HistoryWindow = 5
	}
	if out.DonorSelection == "" {
		out.DonorSelection = "uniform"
	}
	if out.TournamentSize <= 0 {
		out.TournamentSize = 2
	}
	if !out.SeedSet {
		out.Seed = time.Now().UnixNano()
	}
	return out, warning, nil
}

func (cfg Config) donorSelector() (mixing.DonorSelector, error) {
	switch cfg.DonorSelection {
	case "uniform":
		return mixing.UniformDonorSelector{}, nil
	case "tournament":
		return mixing.TournamentDonorSelector{Size: cfg.TournamentSize}, nil
	default:
		return nil, fmt.Errorf("%w: unknown donor selection %q", ErrInvalidConfig, cfg.DonorSelection)
	}
}
