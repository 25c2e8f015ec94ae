// Package runstore persists the outcome of engine and sweep runs, for a CLI
// or long-lived service collaborator that wants a history of results
// without keeping every run's population in memory. It intentionally does
// not persist a resumable snapshot of engine state: run history, not
// checkpoint/resume.
package runstore

import "context"

// RunRecord is a completed engine.Optimize outcome, in a form storable
// independently of the engine that produced it.
type RunRecord struct {
	VersionedRecord

	ID             string  `json:"id"`
	ProblemSize    int     `json:"problem_size"`
	PopulationSize int     `json:"population_size"`
	FitnessKind    string  `json:"fitness_kind"`
	Seed           int64   `json:"seed"`
	BestBits       string  `json:"best_bits"`
	BestFitness    float64 `json:"best_fitness"`
	Generations    int     `json:"generations"`
	NFE            int64   `json:"nfe"`
	Status         string  `json:"status"`
	ReachedOptimum bool    `json:"reached_optimum"`
}

// SweepRecord is a completed sweep.Run outcome.
type SweepRecord struct {
	VersionedRecord

	ID              string  `json:"id"`
	ProblemSize     int     `json:"problem_size"`
	FitnessKind     string  `json:"fitness_kind"`
	MinPopulation   int     `json:"min_population"`
	MaxPopulation   int     `json:"max_population"`
	PopulationSize  int     `json:"population_size"`
	MeanGenerations float64 `json:"mean_generations"`
	MeanNFE         float64 `json:"mean_nfe"`
}

// VersionedRecord tags every persisted record with the schema/codec
// versions it was written under, so a reader can detect a stale format
// before trusting the payload.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Store defines transaction-like persistence for engine and sweep run
// history.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run RunRecord) error
	GetRun(ctx context.Context, id string) (RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]RunRecord, error)
	SaveSweep(ctx context.Context, sweep SweepRecord) error
	GetSweep(ctx context.Context, id string) (SweepRecord, bool, error)
	Close() error
}
