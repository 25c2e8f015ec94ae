// Package fitness implements the tagged fitness dispatcher (C3): one
// evaluator per supported problem shape, a number-of-function-evaluations
// counter, and, where the problem defines one, a known global optimum used
// by the engine's target-reached termination test.
package fitness

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"dsmga2/internal/chromosome"
)

// Kind tags the fitness function a Dispatcher evaluates.
type Kind int

const (
	OneMax Kind = iota
	MKTrap
	FTrap
	CyclicTrap
	NKLandscape
	MAXSAT
	IsingSpin
	Custom
)

func (k Kind) String() string {
	switch k {
	case OneMax:
		return "onemax"
	case MKTrap:
		return "mktrap"
	case FTrap:
		return "ftrap"
	case CyclicTrap:
		return "cyctrap"
	case NKLandscape:
		return "nk"
	case MAXSAT:
		return "sat"
	case IsingSpin:
		return "spin"
	case Custom:
		return "custom"
	default:
		return fmt.Sprintf("fitness.Kind(%d)", int(k))
	}
}

// ParseKind maps a configuration string (as read from a JSON config or CLI
// flag) onto a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "onemax":
		return OneMax, nil
	case "mktrap", "trap":
		return MKTrap, nil
	case "ftrap":
		return FTrap, nil
	case "cyctrap", "cyclictrap":
		return CyclicTrap, nil
	case "nk":
		return NKLandscape, nil
	case "sat", "maxsat":
		return MAXSAT, nil
	case "spin", "isingspin":
		return IsingSpin, nil
	case "custom":
		return Custom, nil
	default:
		return 0, fmt.Errorf("fitness: unrecognized kind %q", s)
	}
}

var (
	// ErrModeNotCustom is returned by SetObjectiveFunction when the
	// dispatcher was not built with Kind Custom.
	ErrModeNotCustom = errors.New("fitness: SetObjectiveFunction requires kind Custom")
	// ErrCustomFunctionUnset is returned when a Custom dispatcher is asked
	// to evaluate before a callback has been installed.
	ErrCustomFunctionUnset = errors.New("fitness: custom objective function not set")
	// ErrInvalidFitnessValue flags a NaN or infinite fitness value, which
	// would otherwise silently corrupt selection and linkage statistics.
	ErrInvalidFitnessValue = errors.New("fitness: evaluator returned a non-finite value")
)

// ObjectiveFunc is the signature of a user-supplied Custom evaluator. It
// receives the chromosome's gene string as a 0/1 slice, one entry per locus,
// rather than the chromosome type itself, so callers outside this module
// never need to import the chromosome package.
type ObjectiveFunc func(bits []int) (float64, error)

// Dispatcher evaluates chromosomes according to its configured Kind and
// counts evaluations.
type Dispatcher struct {
	kind  Kind
	ell   int
	trapK int

	nk   *NKProblem
	sat  *SATProblem
	spin *SpinProblem

	custom ObjectiveFunc

	nfe int64
}

// Option configures a Dispatcher at construction time.
type Option func(*Dispatcher)

// WithTrapK sets the trap block size for MKTrap and CyclicTrap (default 5,
// matching the canonical deceptive-trap block width).
func WithTrapK(k int) Option {
	return func(d *Dispatcher) { d.trapK = k }
}

// WithNKProblem attaches NK-landscape instance data; required for Kind
// NKLandscape.
func WithNKProblem(p *NKProblem) Option {
	return func(d *Dispatcher) { d.nk = p }
}

// WithSATProblem attaches a MAX-SAT clause set; required for Kind MAXSAT.
func WithSATProblem(p *SATProblem) Option {
	return func(d *Dispatcher) { d.sat = p }
}

// WithSpinProblem attaches Ising spin-glass couplings; required for Kind
// IsingSpin.
func WithSpinProblem(p *SpinProblem) Option {
	return func(d *Dispatcher) { d.spin = p }
}

// NewDispatcher builds a Dispatcher for the given Kind over chromosomes of
// length ell. Problem-specific data (NK, SAT, spin) must be supplied via the
// matching With*Problem option; its absence is a configuration error
// surfaced here rather than at first evaluation.
func NewDispatcher(kind Kind, ell int, opts ...Option) (*Dispatcher, error) {
	if ell <= 0 {
		return nil, fmt.Errorf("fitness: ell must be positive, got %d", ell)
	}
	d := &Dispatcher{kind: kind, ell: ell, trapK: 5}
	for _, opt := range opts {
		opt(d)
	}
	if d.trapK < 2 {
		return nil, fmt.Errorf("fitness: trap block size must be >= 2, got %d", d.trapK)
	}
	switch kind {
	case NKLandscape:
		if d.nk == nil {
			return nil, errors.New("fitness: NKLandscape requires WithNKProblem")
		}
		if d.nk.N != ell {
			return nil, fmt.Errorf("fitness: NK problem length %d does not match ell %d", d.nk.N, ell)
		}
	case MAXSAT:
		if d.sat == nil {
			return nil, errors.New("fitness: MAXSAT requires WithSATProblem")
		}
		if d.sat.NumVars != ell {
			return nil, fmt.Errorf("fitness: SAT problem has %d variables, ell is %d", d.sat.NumVars, ell)
		}
	case IsingSpin:
		if d.spin == nil {
			return nil, errors.New("fitness: IsingSpin requires WithSpinProblem")
		}
		if d.spin.N != ell {
			return nil, fmt.Errorf("fitness: spin problem length %d does not match ell %d", d.spin.N, ell)
		}
	case OneMax, MKTrap, FTrap, CyclicTrap, Custom:
		// no problem-instance data required
	default:
		return nil, fmt.Errorf("fitness: unknown kind %v", kind)
	}
	return d, nil
}

// Kind reports the dispatcher's fitness function tag.
func (d *Dispatcher) Kind() Kind {
	return d.kind
}

// SetObjectiveFunction installs the callback used by a Custom dispatcher. It
// is a mode error to call this on a dispatcher built with any other Kind.
func (d *Dispatcher) SetObjectiveFunction(fn ObjectiveFunc) error {
	if d.kind != Custom {
		return fmt.Errorf("%w: dispatcher kind is %s", ErrModeNotCustom, d.kind)
	}
	if fn == nil {
		return errors.New("fitness: objective function must not be nil")
	}
	d.custom = fn
	return nil
}

// ValidateReady reports a configuration error that would otherwise only
// surface on the first evaluation, so callers can fail before any search
// begins.
func (d *Dispatcher) ValidateReady() error {
	if d.kind == Custom && d.custom == nil {
		return ErrCustomFunctionUnset
	}
	return nil
}

// Evaluate computes the fitness of c and implements chromosome.FitnessDispatcher.
func (d *Dispatcher) Evaluate(c *chromosome.Chromosome) (float64, error) {
	var f float64
	switch d.kind {
	case OneMax:
		f = float64(c.PopCount())
	case MKTrap:
		f = blockTrapFitness(c, d.trapK, false)
	case FTrap:
		f = fTrapFitness(c)
	case CyclicTrap:
		f = blockTrapFitness(c, d.trapK, true)
	case NKLandscape:
		f = d.nk.evaluate(c)
	case MAXSAT:
		f = d.sat.evaluate(c)
	case IsingSpin:
		f = d.spin.evaluate(c)
	case Custom:
		if d.custom == nil {
			return 0, ErrCustomFunctionUnset
		}
		var err error
		f, err = d.custom(c.Bits())
		if err != nil {
			return 0, fmt.Errorf("fitness: custom evaluator: %w", err)
		}
	default:
		return 0, fmt.Errorf("fitness: unknown kind %v", d.kind)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: got %v", ErrInvalidFitnessValue, f)
	}
	d.nfe++
	return f, nil
}

// NFE returns the number of function evaluations performed so far.
func (d *Dispatcher) NFE() int64 {
	return d.nfe
}

// ResetNFE zeroes the evaluation counter. The sweep controller does not use
// it: it builds a fresh dispatcher for every trial instead.
func (d *Dispatcher) ResetNFE() {
	d.nfe = 0
}

// KnownOptimum returns the problem's known global optimum fitness and true,
// or (0, false) when the kind has no known optimum (NK, SAT, spin glass, and
// custom instances are instance-dependent and not known in closed form).
func (d *Dispatcher) KnownOptimum() (float64, bool) {
	switch d.kind {
	case OneMax:
		return float64(d.ell), true
	case MKTrap:
		return float64(d.ell / d.trapK), true
	case FTrap:
		return float64(d.ell / 6), true
	case CyclicTrap:
		return float64(d.ell / (d.trapK - 1)), true
	default:
		return 0, false
	}
}
