package fitness

import "dsmga2/internal/chromosome"

// trapValue is the canonical deceptive-trap payoff for a block with u ones
// out of k bits, matching trap(u, 1.0, 0.8, k): the optimum (u==k) scores
// fHigh=1.0, and every other count falls linearly from fLow=0.8 at u=0 to 0
// at u=k-1, pulling the search away from the optimum until it is very close.
func trapValue(u, k int) float64 {
	const fHigh = 1.0
	const fLow = 0.8
	if u == k {
		return fHigh
	}
	return fLow - float64(u)*fLow/float64(k-1)
}

// blockTrapFitness sums trapValue over blocks of size k. When cyclic is
// false the blocks are consecutive and non-overlapping (ell/k of them). When
// cyclic is true, block i starts at i*k - i, so each block shares its first
// bit with the previous block's last bit, the final block wraps around to
// reuse bits from the front of the string, and there are ell/(k-1) blocks.
func blockTrapFitness(c *chromosome.Chromosome, k int, cyclic bool) float64 {
	ell := c.Length()
	if !cyclic {
		fitness := 0.0
		blocks := ell / k
		for b := 0; b < blocks; b++ {
			u := 0
			for i := 0; i < k; i++ {
				u += c.GetVal(b*k + i)
			}
			fitness += trapValue(u, k)
		}
		return fitness
	}

	blocks := ell / (k - 1)
	fitness := 0.0
	for b := 0; b < blocks; b++ {
		u := 0
		for i := 0; i < k; i++ {
			idx := (b*(k-1) + i) % ell
			u += c.GetVal(idx)
		}
		fitness += trapValue(u, k)
	}
	return fitness
}

// fTrapFitness implements the fixed 6-bit "fully deceptive" trap with a
// closed payoff table, indexed by the block's one-count u:
//
//	u:      0    1    2    3    4    5    6
//	payoff: 1.0  0.0  0.4  0.8  0.4  0.0  1.0
func fTrapFitness(c *chromosome.Chromosome) float64 {
	const blockSize = 6
	payoff := [blockSize + 1]float64{1.0, 0.0, 0.4, 0.8, 0.4, 0.0, 1.0}

	ell := c.Length()
	blocks := ell / blockSize
	fitness := 0.0
	for b := 0; b < blocks; b++ {
		u := 0
		for i := 0; i < blockSize; i++ {
			u += c.GetVal(b*blockSize + i)
		}
		fitness += payoff[u]
	}
	return fitness
}
