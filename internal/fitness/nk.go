package fitness

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"dsmga2/internal/chromosome"
)

// NKProblem is an NK-landscape instance: N loci, each driven by a subfunction
// over K+1 input loci (itself plus K epistatic neighbors), with a lookup
// table of 2^(K+1) values indexed by those loci's bits in the order the
// instance file lists them, most-significant bit first.
type NKProblem struct {
	N       int
	K       int
	Indices [][]int     // Indices[i] has K+1 loci feeding subfunction i
	Table   [][]float64 // Table[i] has 2^(K+1) entries
}

func (p *NKProblem) evaluate(c *chromosome.Chromosome) float64 {
	total := 0.0
	for i := 0; i < p.N; i++ {
		idx := 0
		for _, j := range p.Indices[i] {
			idx = (idx << 1) | c.GetVal(j)
		}
		total += p.Table[i][idx]
	}
	return total
}

// LoadNKProblem parses an NK-landscape instance file in the whitespace
// delimited format:
//
//	N K
//	<2^(K+1) fitness contributions for subfunction 0>
//	<2^(K+1) fitness contributions for subfunction 1>
//	...
//	<K+1 locus indices for subfunction 0>
//	<K+1 locus indices for subfunction 1>
//	...
func LoadNKProblem(r io.Reader) (*NKProblem, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	tok := newTokenizer(sc)

	n, err := tok.nextInt()
	if err != nil {
		return nil, fmt.Errorf("nk: reading N: %w", err)
	}
	k, err := tok.nextInt()
	if err != nil {
		return nil, fmt.Errorf("nk: reading K: %w", err)
	}
	if n <= 0 || k < 0 || k >= n {
		return nil, fmt.Errorf("nk: invalid N=%d K=%d", n, k)
	}

	entries := 1 << uint(k+1)
	table := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, entries)
		for j := 0; j < entries; j++ {
			v, err := tok.nextFloat()
			if err != nil {
				return nil, fmt.Errorf("nk: reading table entry %d of locus %d: %w", j, i, err)
			}
			row[j] = v
		}
		table[i] = row
	}

	indices := make([][]int, n)
	for i := 0; i < n; i++ {
		row := make([]int, k+1)
		for j := 0; j < k+1; j++ {
			v, err := tok.nextInt()
			if err != nil {
				return nil, fmt.Errorf("nk: reading index %d of locus %d: %w", j, i, err)
			}
			row[j] = v
		}
		indices[i] = row
	}

	return &NKProblem{N: n, K: k, Indices: indices, Table: table}, nil
}

// tokenizer reads whitespace (and newline) separated numeric tokens across
// line boundaries, since NK/SAT/spin instance files are commonly laid out
// with one record per line but are not required to be.
type tokenizer struct {
	sc *bufio.Scanner
}

func newTokenizer(sc *bufio.Scanner) *tokenizer {
	sc.Split(bufio.ScanWords)
	return &tokenizer{sc: sc}
}

func (t *tokenizer) next() (string, error) {
	if !t.sc.Scan() {
		if err := t.sc.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	return t.sc.Text(), nil
}

func (t *tokenizer) nextInt() (int, error) {
	s, err := t.next()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(s))
}

func (t *tokenizer) nextFloat() (float64, error) {
	s, err := t.next()
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
