package fitness

import (
	"bufio"
	"fmt"
	"io"

	"dsmga2/internal/chromosome"
)

// SpinCoupling is one bond in the spin-glass interaction graph, with weight
// J between spins I and J.
type SpinCoupling struct {
	I, J int
	W    float64
}

// SpinProblem is a +/-1 Ising spin-glass instance over N spins. Chromosome
// bit b maps to spin +1 (b==1) or -1 (b==0). Fitness is the negated
// Hamiltonian H = -sum(W_ij * s_i * s_j), so higher fitness corresponds to a
// lower-energy (more satisfied) configuration.
type SpinProblem struct {
	N         int
	Couplings []SpinCoupling
}

func spinOf(bit int) float64 {
	if bit == 1 {
		return 1
	}
	return -1
}

func (p *SpinProblem) evaluate(c *chromosome.Chromosome) float64 {
	fitness := 0.0
	for _, cp := range p.Couplings {
		fitness += cp.W * spinOf(c.GetVal(cp.I)) * spinOf(c.GetVal(cp.J))
	}
	return fitness
}

// LoadSpinProblem parses a spin-glass instance file:
//
//	N numCouplings
//	<i> <j> <weight>
//	...
//
// with i, j zero-indexed spin numbers.
func LoadSpinProblem(r io.Reader) (*SpinProblem, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	tok := newTokenizer(sc)

	n, err := tok.nextInt()
	if err != nil {
		return nil, fmt.Errorf("spin: reading N: %w", err)
	}
	numCouplings, err := tok.nextInt()
	if err != nil {
		return nil, fmt.Errorf("spin: reading coupling count: %w", err)
	}
	if n <= 0 || numCouplings < 0 {
		return nil, fmt.Errorf("spin: invalid N=%d numCouplings=%d", n, numCouplings)
	}

	couplings := make([]SpinCoupling, numCouplings)
	for c := 0; c < numCouplings; c++ {
		i, err := tok.nextInt()
		if err != nil {
			return nil, fmt.Errorf("spin: reading coupling %d endpoint i: %w", c, err)
		}
		j, err := tok.nextInt()
		if err != nil {
			return nil, fmt.Errorf("spin: reading coupling %d endpoint j: %w", c, err)
		}
		w, err := tok.nextFloat()
		if err != nil {
			return nil, fmt.Errorf("spin: reading coupling %d weight: %w", c, err)
		}
		if i < 0 || i >= n || j < 0 || j >= n {
			return nil, fmt.Errorf("spin: coupling %d references out-of-range spin (%d,%d) for N=%d", c, i, j, n)
		}
		couplings[c] = SpinCoupling{I: i, J: j, W: w}
	}

	return &SpinProblem{N: n, Couplings: couplings}, nil
}
