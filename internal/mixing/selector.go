package mixing

import (
	"fmt"
	"math/rand"

	"dsmga2/internal/chromosome"
)

// DonorSelector chooses a donor chromosome index (never equal to target) for
// a Restricted Mixing trial.
type DonorSelector interface {
	Name() string
	SelectDonor(rng *rand.Rand, population []*chromosome.Chromosome, target int) (int, error)
}

// UniformDonorSelector picks a donor uniformly at random from the
// population, excluding the target.
type UniformDonorSelector struct{}

func (UniformDonorSelector) Name() string { return "uniform" }

func (UniformDonorSelector) SelectDonor(rng *rand.Rand, population []*chromosome.Chromosome, target int) (int, error) {
	if len(population) < 2 {
		return 0, fmt.Errorf("mixing: need at least 2 chromosomes to pick a donor, have %d", len(population))
	}
	for {
		d := rng.Intn(len(population))
		if d != target {
			return d, nil
		}
	}
}

// TournamentDonorSelector draws Size candidates (default 2, excluding the
// target) and returns the index with the highest fitness, ties broken by
// the smaller index.
type TournamentDonorSelector struct {
	Size int
}

func (TournamentDonorSelector) Name() string { return "tournament" }

func (s TournamentDonorSelector) SelectDonor(rng *rand.Rand, population []*chromosome.Chromosome, target int) (int, error) {
	if len(population) < 2 {
		return 0, fmt.Errorf("mixing: need at least 2 chromosomes to pick a donor, have %d", len(population))
	}
	size := s.Size
	if size <= 0 {
		size = 2
	}

	drawOther := func() int {
		for {
			d := rng.Intn(len(population))
			if d != target {
				return d
			}
		}
	}

	best := drawOther()
	for i := 1; i < size; i++ {
		cand := drawOther()
		cf, bf := population[cand].Fitness(), population[best].Fitness()
		if cf > bf || (cf == bf && cand < best) {
			best = cand
		}
	}
	return best, nil
}
