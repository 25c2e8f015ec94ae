// Package fastcounting implements the column-major mirror of the population
// (C2): one bitset per locus over the P chromosomes, giving O(P/word) marginal
// and joint counts for the linkage model instead of O(P) scans per locus pair.
package fastcounting

import (
	"fmt"
	"math/bits"

	"dsmga2/internal/chromosome"
)

const wordBits = 64

// FastCounting is the authoritative source of linkage statistics. It must be
// kept in sync with the population's packed bits: Sync rebuilds it wholesale
// at a generation boundary, SetVal amends a single (locus, chromosome) cell
// as mixing flips bits in place.
type FastCounting struct {
	ell       int
	pop       int
	wordsPerLocus int
	rows      [][]uint64 // rows[locus] has wordsPerLocus words, bit c = chromosome c's value
}

// New allocates a FastCounting table for ell loci over a population of size pop.
func New(ell, pop int) *FastCounting {
	if ell <= 0 {
		panic(fmt.Sprintf("fastcounting: ell must be positive, got %d", ell))
	}
	if pop <= 0 {
		panic(fmt.Sprintf("fastcounting: population size must be positive, got %d", pop))
	}
	wordsPerLocus := (pop + wordBits - 1) / wordBits
	rows := make([][]uint64, ell)
	for i := range rows {
		rows[i] = make([]uint64, wordsPerLocus)
	}
	return &FastCounting{ell: ell, pop: pop, wordsPerLocus: wordsPerLocus, rows: rows}
}

// Sync rebuilds the entire mirror from the current population bits. Column j
// row i is set to bit i of chromosome j, per the mirror-coherence invariant.
func (fc *FastCounting) Sync(population []*chromosome.Chromosome) {
	if len(population) != fc.pop {
		panic(fmt.Sprintf("fastcounting: population size mismatch: have %d, want %d", len(population), fc.pop))
	}
	for i := 0; i < fc.ell; i++ {
		row := fc.rows[i]
		for w := range row {
			row[w] = 0
		}
		for c, chrom := range population {
			if chrom.GetVal(i) == 1 {
				row[c/wordBits] |= uint64(1) << uint(c%wordBits)
			}
		}
	}
}

// SetVal writes a single bit of the mirror: locus i, chromosome index c, value bit.
func (fc *FastCounting) SetVal(i, c, bit int) {
	q, r := c/wordBits, uint(c%wordBits)
	if bit != 0 {
		fc.rows[i][q] |= uint64(1) << r
	} else {
		fc.rows[i][q] &^= uint64(1) << r
	}
}

// CountOne returns the number of chromosomes with a 1 at locus i.
func (fc *FastCounting) CountOne(i int) int {
	total := 0
	for _, w := range fc.rows[i] {
		total += bits.OnesCount64(w)
	}
	return total
}

// CountXY returns the joint counts (n00, n01, n10, n11) for loci i (first
// index of the pair) and j (second index) over the population.
func (fc *FastCounting) CountXY(i, j int) (n00, n01, n10, n11 int) {
	rowI, rowJ := fc.rows[i], fc.rows[j]
	for w := 0; w < fc.wordsPerLocus; w++ {
		a, b := rowI[w], rowJ[w]
		n11 += bits.OnesCount64(a & b)
		n10 += bits.OnesCount64(a &^ b)
		n01 += bits.OnesCount64(b &^ a)
		n00 += bits.OnesCount64(^a & ^b)
	}
	// The last word may include padding beyond `pop` chromosomes; those
	// padding bits are 0 in both rows and were just counted into n00.
	if pad := fc.wordsPerLocus*wordBits - fc.pop; pad > 0 {
		n00 -= pad
	}
	return n00, n01, n10, n11
}

// Ell returns the number of loci.
func (fc *FastCounting) Ell() int {
	return fc.ell
}

// PopulationSize returns P.
func (fc *FastCounting) PopulationSize() int {
	return fc.pop
}
