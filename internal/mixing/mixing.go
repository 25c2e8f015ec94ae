// Package mixing implements the model-guided crossover operators (C5):
// Restricted Mixing walks the ILL chain from a random seed locus, growing a
// mask of loci copied from a donor and accepting the trial whenever it is
// no worse than the target; Back Mixing re-plays each generation's
// successful masks against the whole population to spread them further.
package mixing

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"dsmga2/internal/chromosome"
	"dsmga2/internal/fastcounting"
	"dsmga2/internal/linkage"
)

// SuccessPattern is a mask of loci and the bit values imposed on them by a
// Restricted Mixing step that strictly improved its target's fitness.
type SuccessPattern struct {
	Mask   []int
	Values []int // Values[k] is the bit imposed at Mask[k]
}

func (p SuccessPattern) key() string {
	type pair struct{ locus, val int }
	pairs := make([]pair, len(p.Mask))
	for i, l := range p.Mask {
		pairs[i] = pair{l, p.Values[i]}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].locus < pairs[j].locus })
	var sb strings.Builder
	for _, pr := range pairs {
		sb.WriteString(strconv.Itoa(pr.locus))
		sb.WriteByte(':')
		sb.WriteByte(byte('0' + pr.val))
		sb.WriteByte(',')
	}
	return sb.String()
}

// Engine owns the per-generation mixing bookkeeping: the orphan set and each
// chromosome's bounded Back-Mixing history. It operates on a population and
// fastcounting mirror owned by the caller (the generational loop).
type Engine struct {
	ell           int
	donorSelector DonorSelector
	historyWindow int

	orphan  []bool
	history []map[string]int // history[chromIdx][patternKey] = generation recorded
}

// New builds a mixing engine over ell loci and a population of size
// popSize. historyWindow is the number of generations a Back-Mixing pattern
// is remembered before it may be re-imposed (the spec's default is 5).
func New(ell, popSize int, donorSelector DonorSelector, historyWindow int) *Engine {
	if historyWindow <= 0 {
		historyWindow = 5
	}
	history := make([]map[string]int, popSize)
	for i := range history {
		history[i] = make(map[string]int)
	}
	return &Engine{
		ell:           ell,
		donorSelector: donorSelector,
		historyWindow: historyWindow,
		orphan:        make([]bool, ell),
		history:       history,
	}
}

// ResetOrphans marks every locus as orphaned at the start of a generation;
// RestrictedMixingPass clears the flag for loci touched by a success.
func (e *Engine) ResetOrphans() {
	for i := range e.orphan {
		e.orphan[i] = true
	}
}

// Orphans reports which loci were not touched by any successful Restricted
// Mixing step in the most recent pass.
func (e *Engine) Orphans() []bool {
	out := make([]bool, len(e.orphan))
	copy(out, e.orphan)
	return out
}

func (e *Engine) purgeHistory(chromIdx, generation int) {
	h := e.history[chromIdx]
	for k, recorded := range h {
		if generation-recorded >= e.historyWindow {
			delete(h, k)
		}
	}
}

// RestrictedMixingPass runs one full pass of Restricted Mixing over the
// population in a random permutation order, mutating accepted chromosomes
// in place and keeping fc in sync on every accepted bit change. It returns
// the successful patterns discovered this pass and the number of chromosomes
// that accepted at least one change (used by the engine's stagnation test).
func (e *Engine) RestrictedMixingPass(
	rng *rand.Rand,
	population []*chromosome.Chromosome,
	fc *fastcounting.FastCounting,
	model *linkage.Model,
	fd chromosome.FitnessDispatcher,
) ([]SuccessPattern, int, error) {
	if len(population) != len(e.history) {
		return nil, 0, fmt.Errorf("mixing: population size %d does not match engine size %d", len(population), len(e.history))
	}

	order := rng.Perm(len(population))
	var successes []SuccessPattern
	accepted := 0

	for _, t := range order {
		target := population[t]
		if _, err := target.GetFitness(fd); err != nil {
			return successes, accepted, fmt.Errorf("mixing: evaluating target %d: %w", t, err)
		}

		s := rng.Intn(e.ell)
		chain := model.BuildOrder(s)

		d, err := e.donorSelector.SelectDonor(rng, population, t)
		if err != nil {
			return successes, accepted, fmt.Errorf("mixing: selecting donor for target %d: %w", t, err)
		}
		donor := population[d]
		if _, err := donor.GetFitness(fd); err != nil {
			return successes, accepted, fmt.Errorf("mixing: evaluating donor %d: %w", d, err)
		}

		current := target.Clone()
		var mask []int
		touchedAny := false

		for _, locus := range chain {
			donorBit := donor.GetVal(locus)
			if current.GetVal(locus) == donorBit {
				mask = append(mask, locus)
				continue
			}

			trial := current.Clone()
			trial.SetVal(locus, donorBit)
			mask = append(mask, locus)

			tf, err := trial.GetFitness(fd)
			if err != nil {
				return successes, accepted, fmt.Errorf("mixing: evaluating trial for target %d: %w", t, err)
			}
			cf, err := current.GetFitness(fd)
			if err != nil {
				return successes, accepted, fmt.Errorf("mixing: evaluating current for target %d: %w", t, err)
			}

			if tf < cf {
				break // strict worsening: stop without replacing
			}

			current = trial
			touchedAny = true

			if tf > cf {
				// strict improvement: record the success and stop extending
				values := make([]int, len(mask))
				for i, l := range mask {
					values[i] = current.GetVal(l)
				}
				successes = append(successes, SuccessPattern{Mask: append([]int(nil), mask...), Values: values})
				for _, l := range mask {
					e.orphan[l] = false
				}
				break
			}
			// neutral acceptance: continue extending the chain
		}

		if touchedAny {
			accepted++
			target.CopyFrom(current)
			for _, locus := range mask {
				fc.SetVal(locus, t, current.GetVal(locus))
			}
		}
	}

	return successes, accepted, nil
}

// BackMixingPass re-plays each of this generation's successful patterns
// against the whole population: a chromosome that does not already carry
// the pattern and has not seen it before has its bits overwritten and is
// re-evaluated, keeping the change only if fitness did not drop. Whether
// kept or reverted, the pattern is recorded in the chromosome's history so
// it is not re-imposed until the entry ages out of the history window.
func (e *Engine) BackMixingPass(
	generation int,
	patterns []SuccessPattern,
	population []*chromosome.Chromosome,
	fc *fastcounting.FastCounting,
	fd chromosome.FitnessDispatcher,
) error {
	for idx := range population {
		e.purgeHistory(idx, generation)
	}

	for _, pattern := range patterns {
		key := pattern.key()
		for idx, c := range population {
			if patternAlreadyMatches(c, pattern) {
				continue
			}
			if _, seen := e.history[idx][key]; seen {
				continue
			}

			oldFitness, err := c.GetFitness(fd)
			if err != nil {
				return fmt.Errorf("mixing: evaluating chromosome %d before back mixing: %w", idx, err)
			}

			trial := c.Clone()
			for i, locus := range pattern.Mask {
				trial.SetVal(locus, pattern.Values[i])
			}
			newFitness, err := trial.GetFitness(fd)
			if err != nil {
				return fmt.Errorf("mixing: evaluating back-mixing trial for chromosome %d: %w", idx, err)
			}

			if newFitness >= oldFitness {
				c.CopyFrom(trial)
				for i, locus := range pattern.Mask {
					fc.SetVal(locus, idx, pattern.Values[i])
				}
			}
			e.history[idx][key] = generation
		}
	}
	return nil
}

func patternAlreadyMatches(c *chromosome.Chromosome, pattern SuccessPattern) bool {
	for i, locus := range pattern.Mask {
		if c.GetVal(locus) != pattern.Values[i] {
			return false
		}
	}
	return true
}
