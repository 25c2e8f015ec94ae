package linkage

import (
	"math"
	"testing"

	"dsmga2/internal/chromosome"
	"dsmga2/internal/fastcounting"
)

func buildFC(ell int, rows [][]int) *fastcounting.FastCounting {
	pop := make([]*chromosome.Chromosome, len(rows))
	for c, row := range rows {
		chrom := chromosome.New(ell)
		for i, v := range row {
			chrom.SetVal(i, v)
		}
		pop[c] = chrom
	}
	fc := fastcounting.New(ell, len(pop))
	fc.Sync(pop)
	return fc
}

func TestMIZeroOnDiagonal(t *testing.T) {
	fc := buildFC(3, [][]int{{1, 0, 1}, {0, 1, 0}, {1, 1, 1}})
	m := New(3)
	m.BuildGraph(fc)
	for i := 0; i < 3; i++ {
		if m.MI(i, i) != 0 {
			t.Fatalf("MI(%d,%d): got %v, want 0", i, i, m.MI(i, i))
		}
	}
}

func TestMISymmetric(t *testing.T) {
	fc := buildFC(4, [][]int{{1, 0, 1, 1}, {0, 1, 0, 1}, {1, 1, 1, 0}, {0, 0, 1, 1}})
	m := New(4)
	m.BuildGraph(fc)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if m.MI(i, j) != m.MI(j, i) {
				t.Fatalf("MI(%d,%d)=%v != MI(%d,%d)=%v", i, j, m.MI(i, j), j, i, m.MI(j, i))
			}
		}
	}
}

func TestMINonNegative(t *testing.T) {
	rows := [][]int{
		{1, 0, 1, 0, 1},
		{0, 1, 0, 1, 0},
		{1, 1, 0, 0, 1},
		{0, 0, 1, 1, 0},
		{1, 0, 0, 1, 1},
		{0, 1, 1, 0, 0},
	}
	fc := buildFC(5, rows)
	m := New(5)
	m.BuildGraph(fc)
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			if m.MI(i, j) < 0 {
				t.Fatalf("MI(%d,%d) negative: %v", i, j, m.MI(i, j))
			}
		}
	}
}

func TestMIMaximalForPerfectlyCorrelatedLoci(t *testing.T) {
	// Loci 0 and 1 are identical across the population (perfect correlation):
	// MI should equal the entropy of a fair-coin marginal, log2(2) = 1 bit.
	rows := [][]int{{1, 1}, {0, 0}, {1, 1}, {0, 0}}
	fc := buildFC(2, rows)
	m := New(2)
	m.BuildGraph(fc)
	if got, want := m.MI(0, 1), 1.0; math.Abs(got-want) > 1e-9 {
		t.Fatalf("MI for perfectly correlated loci: got %v, want %v", got, want)
	}
}

func TestMIZeroForIndependentLoci(t *testing.T) {
	// All four joint combinations occur with equal frequency: independent.
	rows := [][]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	fc := buildFC(2, rows)
	m := New(2)
	m.BuildGraph(fc)
	if got := m.MI(0, 1); math.Abs(got) > 1e-9 {
		t.Fatalf("MI for independent loci: got %v, want 0", got)
	}
}

func TestBuildOrderStartsAtSeed(t *testing.T) {
	fc := buildFC(4, [][]int{{1, 0, 1, 1}, {0, 1, 0, 1}, {1, 1, 1, 0}, {0, 0, 1, 1}})
	m := New(4)
	m.BuildGraph(fc)

	order := m.BuildOrder(2)
	if order[0] != 2 {
		t.Fatalf("BuildOrder: first element got %d, want seed 2", order[0])
	}
	if len(order) != 4 {
		t.Fatalf("BuildOrder: length got %d, want 4", len(order))
	}
	seen := make(map[int]bool)
	for _, v := range order {
		if seen[v] {
			t.Fatalf("BuildOrder: duplicate locus %d", v)
		}
		seen[v] = true
	}
}

func TestBuildOrderDeterministicTieBreak(t *testing.T) {
	// All MI values zero (independent loci): ties should always resolve to
	// the smallest unseen index.
	rows := [][]int{{0, 0, 0}, {0, 1, 1}, {1, 0, 1}, {1, 1, 0}}
	fc := buildFC(3, rows)
	m := New(3)
	m.BuildGraph(fc)

	order := m.BuildOrder(1)
	// seed=1; remaining unseen {0,2} tie at MI=0 -> pick smaller index 0 first.
	if order[1] != 0 || order[2] != 2 {
		t.Fatalf("BuildOrder tie-break: got %v, want [1 0 2]", order)
	}
}

func TestUpdateGraphMatchesFullRebuild(t *testing.T) {
	rows := [][]int{{1, 0, 1, 0}, {0, 1, 1, 1}, {1, 1, 0, 0}, {0, 0, 0, 1}}
	fc := buildFC(4, rows)

	full := New(4)
	full.BuildGraph(fc)

	incremental := New(4)
	incremental.UpdateGraph(fc, []int{0, 1, 2, 3})

	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if math.Abs(full.MI(i, j)-incremental.MI(i, j)) > 1e-12 {
				t.Fatalf("UpdateGraph(all loci) mismatch at (%d,%d): full=%v incremental=%v", i, j, full.MI(i, j), incremental.MI(i, j))
			}
		}
	}
}
