package fitness

import (
	"bufio"
	"fmt"
	"io"

	"dsmga2/internal/chromosome"
)

// Literal is a signed variable reference: a positive value v represents
// variable v-1 unnegated, a negative value -v represents it negated.
// Variables are 1-indexed in instance files, matching DIMACS CNF convention.
type Literal int

// SATProblem is a MAX-SAT instance: NumVars variables and a set of disjunctive
// clauses, each a slice of Literals. Fitness is the count of satisfied
// clauses.
type SATProblem struct {
	NumVars    int
	NumClauses int
	Clauses    [][]Literal
}

func (p *SATProblem) evaluate(c *chromosome.Chromosome) float64 {
	satisfied := 0
	for _, clause := range p.Clauses {
		for _, lit := range clause {
			v := int(lit)
			neg := v < 0
			if neg {
				v = -v
			}
			bit := c.GetVal(v - 1)
			if (bit == 1) != neg {
				satisfied++
				break
			}
		}
	}
	return float64(satisfied)
}

// LoadSATProblem parses a DIMACS-style CNF file:
//
//	p cnf <numVars> <numClauses>
//	<lit> <lit> ... 0
//	...
//
// Comment lines beginning with 'c' are skipped.
func LoadSATProblem(r io.Reader) (*SATProblem, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var numVars, numClauses int
	header := false
	clauses := make([][]Literal, 0)
	var current []Literal

	for sc.Scan() {
		line := sc.Text()
		fields := splitFields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "c":
			continue
		case "p":
			if len(fields) < 4 || fields[1] != "cnf" {
				return nil, fmt.Errorf("sat: malformed problem line %q", line)
			}
			var err error
			numVars, err = parseIntField(fields[2])
			if err != nil {
				return nil, fmt.Errorf("sat: numVars: %w", err)
			}
			numClauses, err = parseIntField(fields[3])
			if err != nil {
				return nil, fmt.Errorf("sat: numClauses: %w", err)
			}
			header = true
		default:
			if !header {
				return nil, fmt.Errorf("sat: clause data before problem line")
			}
			for _, f := range fields {
				lit, err := parseIntField(f)
				if err != nil {
					return nil, fmt.Errorf("sat: parsing literal %q: %w", f, err)
				}
				if lit == 0 {
					clauses = append(clauses, current)
					current = nil
					continue
				}
				current = append(current, Literal(lit))
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(current) > 0 {
		clauses = append(clauses, current)
	}
	if !header {
		return nil, fmt.Errorf("sat: missing problem line")
	}
	if len(clauses) != numClauses {
		return nil, fmt.Errorf("sat: header declares %d clauses, found %d", numClauses, len(clauses))
	}

	return &SATProblem{NumVars: numVars, NumClauses: numClauses, Clauses: clauses}, nil
}
