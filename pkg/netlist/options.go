package netlist

// TransientMethod selects the time-integration rule used by the transient
// driver's companion-matrix construction.
type TransientMethod int

const (
	BackwardEuler TransientMethod = iota
	Trapezoidal
)

func (m TransientMethod) String() string {
	if m == Trapezoidal {
		return "TR"
	}
	return "BE"
}

// Method is the tagged enum a Solver is constructed around. Selection is a
// pure function of Options (see Select), never a virtual dispatch: the
// solver's construct and solve paths switch on this value instead of
// calling through an interface (spec Design Notes, 9).
type Method int

const (
	LU Method = iota
	Cholesky
	CG
	BiCG
)

func (m Method) String() string {
	switch m {
	case LU:
		return "LU"
	case Cholesky:
		return "Cholesky"
	case CG:
		return "CG"
	case BiCG:
		return "BiCG"
	default:
		return "unknown"
	}
}

// Options mirrors the netlist's .OPTIONS directive and the matching CLI
// flags. It is merged once at startup (.OPTIONS unless --bypass_options is
// set, in which case CLI flags win) and is read-only thereafter.
type Options struct {
	Custom          bool
	SPD             bool
	Iter            bool
	Sparse          bool
	ITol            float64
	TransientMethod TransientMethod
}

// DefaultOptions matches the original implementation's defaults: dense,
// library-backed, direct LU, Backward Euler, and an iterative tolerance of
// 1e-6 that only takes effect when Iter is set.
func DefaultOptions() Options {
	return Options{
		Custom:          false,
		SPD:             false,
		Iter:            false,
		Sparse:          false,
		ITol:            1e-6,
		TransientMethod: BackwardEuler,
	}
}

// Select chooses the method from (iter, spd) per spec.md 4.2's table.
func (o Options) Select() Method {
	switch {
	case !o.Iter && !o.SPD:
		return LU
	case !o.Iter && o.SPD:
		return Cholesky
	case o.Iter && !o.SPD:
		return BiCG
	default:
		return CG
	}
}

// Validate rejects configuration combinations that are fatal at startup
// per spec.md 7: custom direct kernels are dense-only.
func (o Options) Validate() error {
	if o.Sparse && o.Custom && !o.Iter {
		return &ConfigError{Reason: "sparse ∧ custom ∧ ¬iter is unsupported: custom direct kernels are dense-only"}
	}
	return nil
}

// ConfigError marks a fatal configuration error detected before any
// numeric work starts.
type ConfigError struct{ Reason string }

func (e *ConfigError) Error() string { return "netlist: configuration error: " + e.Reason }
