// Package report builds aggregate statistics and human-readable summaries
// over engine runs and sweep results, for CLI output and log lines.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"dsmga2/internal/engine"
	"dsmga2/internal/sweep"
)

// RunStats aggregates generation and evaluation counts over a batch of
// engine runs, mirroring the success/avg/std/min/max shape a benchmarker
// would compute over a set of trials.
type RunStats struct {
	TotalRuns    int
	SuccessRuns  int
	SuccessRate  float64

	AvgGenerations float64
	StdGenerations float64
	MinGenerations float64
	MaxGenerations float64

	AvgNFE float64
	StdNFE float64
	MinNFE float64
	MaxNFE float64
}

// Summarize computes RunStats over results, treating a run as a success
// when it reached the known optimum.
func Summarize(results []engine.Result) RunStats {
	stats := RunStats{TotalRuns: len(results)}
	if len(results) == 0 {
		return stats
	}

	var generations, nfe []float64
	for _, r := range results {
		if r.ReachedOptimum {
			stats.SuccessRuns++
			generations = append(generations, float64(r.Generations))
			nfe = append(nfe, float64(r.NFE))
		}
	}
	stats.SuccessRate = float64(stats.SuccessRuns) / float64(stats.TotalRuns)

	if len(generations) > 0 {
		stats.AvgGenerations, stats.StdGenerations = avgStd(generations)
		stats.MinGenerations, stats.MaxGenerations = minMax(generations)
		stats.AvgNFE, stats.StdNFE = avgStd(nfe)
		stats.MinNFE, stats.MaxNFE = minMax(nfe)
	}
	return stats
}

func avgStd(values []float64) (avg, std float64) {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	avg = sum / float64(len(values))

	sq := 0.0
	for _, v := range values {
		diff := v - avg
		sq += diff * diff
	}
	std = math.Sqrt(sq / float64(len(values)))
	return avg, std
}

func minMax(values []float64) (lo, hi float64) {
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// FormatRunStats renders stats as aligned plain-text lines, using
// go-humanize for thousands separators on evaluation/generation counts.
func FormatRunStats(stats RunStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "runs:          %s\n", humanize.Comma(int64(stats.TotalRuns)))
	fmt.Fprintf(&b, "successes:     %s (%s)\n",
		humanize.Comma(int64(stats.SuccessRuns)),
		humanize.FormatFloat("#,###.#%", stats.SuccessRate*100))
	if stats.SuccessRuns == 0 {
		return b.String()
	}
	fmt.Fprintf(&b, "generations:   avg %s  std %s  range [%s, %s]\n",
		humanize.CommafWithDigits(stats.AvgGenerations, 1),
		humanize.CommafWithDigits(stats.StdGenerations, 1),
		humanize.Comma(int64(stats.MinGenerations)),
		humanize.Comma(int64(stats.MaxGenerations)))
	fmt.Fprintf(&b, "evaluations:   avg %s  std %s  range [%s, %s]\n",
		humanize.CommafWithDigits(stats.AvgNFE, 1),
		humanize.CommafWithDigits(stats.StdNFE, 1),
		humanize.Comma(int64(stats.MinNFE)),
		humanize.Comma(int64(stats.MaxNFE)))
	return b.String()
}

// FormatRun renders a single engine.Result as a one-line human summary.
func FormatRun(r engine.Result) string {
	return fmt.Sprintf("status=%s optimum=%v best=%s generations=%s evaluations=%s",
		r.Status, r.ReachedOptimum,
		humanize.FormatFloat("#,###.##", r.BestFitness),
		humanize.Comma(int64(r.Generations)),
		humanize.Comma(r.NFE))
}

// FormatSweep renders a sweep.Result as a one-line human summary.
func FormatSweep(res sweep.Result) string {
	return fmt.Sprintf("population=%s mean_generations=%s mean_evaluations=%s",
		humanize.Comma(int64(res.PopulationSize)),
		humanize.CommafWithDigits(res.MeanGenerations, 1),
		humanize.CommafWithDigits(res.MeanNFE, 1))
}
