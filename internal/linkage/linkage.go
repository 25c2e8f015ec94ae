// Package linkage implements the pairwise mutual-information model (C4): a
// symmetric matrix over loci built from the population's joint bit
// distributions, and the per-seed Incremental Linkage Learning chain used to
// order a restricted-mixing trial.
package linkage

import (
	"fmt"
	"math"

	"dsmga2/internal/fastcounting"
)

// Model holds the ell x ell mutual-information matrix and exposes the
// greedy nearest-neighbor chain (ILL order) used to drive Restricted Mixing.
type Model struct {
	ell int
	m   []float64 // row-major ell x ell, m[i*ell+j] == m[j*ell+i]
}

// New allocates an empty model over ell loci. The matrix is populated by
// the first call to BuildGraph.
func New(ell int) *Model {
	if ell <= 0 {
		panic(fmt.Sprintf("linkage: ell must be positive, got %d", ell))
	}
	return &Model{ell: ell, m: make([]float64, ell*ell)}
}

func (mod *Model) at(i, j int) float64 {
	return mod.m[i*mod.ell+j]
}

func (mod *Model) set(i, j int, v float64) {
	mod.m[i*mod.ell+j] = v
	mod.m[j*mod.ell+i] = v
}

// Ell returns the number of loci the model covers.
func (mod *Model) Ell() int {
	return mod.ell
}

// MI returns the current mutual-information estimate between loci i and j
// (0 when i == j, by definition).
func (mod *Model) MI(i, j int) float64 {
	if i == j {
		return 0
	}
	return mod.at(i, j)
}

// BuildGraph recomputes the whole matrix from the fastcounting mirror's
// joint bit counts: O(ell^2 * P/word) time, O(ell^2) memory.
func (mod *Model) BuildGraph(fc *fastcounting.FastCounting) {
	if fc.Ell() != mod.ell {
		panic(fmt.Sprintf("linkage: fastcounting ell %d does not match model ell %d", fc.Ell(), mod.ell))
	}
	p := float64(fc.PopulationSize())
	for i := 0; i < mod.ell; i++ {
		mod.set(i, i, 0)
		for j := i + 1; j < mod.ell; j++ {
			n00, n01, n10, n11 := fc.CountXY(i, j)
			mod.set(i, j, mutualInformation(n00, n01, n10, n11, p))
		}
	}
}

// UpdateGraph recomputes only the rows/columns of the loci named in
// touched, an optional incremental alternative to a full BuildGraph when
// few loci changed since the last rebuild. It is equivalent to a full
// rebuild when touched covers every locus.
func (mod *Model) UpdateGraph(fc *fastcounting.FastCounting, touched []int) {
	if fc.Ell() != mod.ell {
		panic(fmt.Sprintf("linkage: fastcounting ell %d does not match model ell %d", fc.Ell(), mod.ell))
	}
	p := float64(fc.PopulationSize())
	seen := make(map[int]bool, len(touched))
	for _, i := range touched {
		if seen[i] {
			continue
		}
		seen[i] = true
		for j := 0; j < mod.ell; j++ {
			if j == i {
				mod.set(i, i, 0)
				continue
			}
			n00, n01, n10, n11 := fc.CountXY(i, j)
			mod.set(i, j, mutualInformation(n00, n01, n10, n11, p))
		}
	}
}

// mutualInformation computes MI = sum(p_ab * log2(p_ab / (p_a. * p.b))) over
// the four joint outcomes, with the convention 0*log(0) = 0. Negative
// rounding-error results are clamped to 0, since MI is defined non-negative.
func mutualInformation(n00, n01, n10, n11 int, p float64) float64 {
	p00, p01, p10, p11 := float64(n00)/p, float64(n01)/p, float64(n10)/p, float64(n11)/p
	pi0 := p00 + p01 // marginal P(locus i == 0)
	pi1 := p10 + p11
	pj0 := p00 + p10 // marginal P(locus j == 0)
	pj1 := p01 + p11

	mi := term(p00, pi0, pj0) + term(p01, pi0, pj1) + term(p10, pi1, pj0) + term(p11, pi1, pj1)
	if mi < 0 {
		return 0
	}
	return mi
}

func term(pab, pa, pb float64) float64 {
	if pab <= 0 || pa <= 0 || pb <= 0 {
		return 0
	}
	return pab * math.Log2(pab/(pa*pb))
}

// BuildOrder returns the ILL greedy nearest-neighbor chain seeded at locus
// s: pi[0] = s, and each subsequent entry is the unseen locus with the
// highest mutual information to any already-picked locus, ties broken by
// the smaller locus index.
func (mod *Model) BuildOrder(s int) []int {
	order := make([]int, 0, mod.ell)
	order = append(order, s)
	picked := make([]bool, mod.ell)
	picked[s] = true

	best := make([]float64, mod.ell)
	for j := 0; j < mod.ell; j++ {
		best[j] = mod.at(s, j)
	}

	for len(order) < mod.ell {
		next := -1
		var nextScore float64
		for j := 0; j < mod.ell; j++ {
			if picked[j] {
				continue
			}
			if next == -1 || best[j] > nextScore || (best[j] == nextScore && j < next) {
				next = j
				nextScore = best[j]
			}
		}
		order = append(order, next)
		picked[next] = true
		for j := 0; j < mod.ell; j++ {
			if picked[j] {
				continue
			}
			if v := mod.at(next, j); v > best[j] {
				best[j] = v
			}
		}
	}
	return order
}
