// Package solver selects one of four numerical methods (LU, Cholesky, CG,
// BiCG), in a library-backed or hand-rolled flavor, over a dense or
// sparse System, and exposes a single solve(b) surface plus perf counters.
//
// Method selection happens once at construction (netlist.Options.Select);
// everything past that point switches on the resulting Method tag rather
// than dispatching through an interface, per spec.md 9's Design Notes.
package solver

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/lucidcircuit/spicesim/pkg/mna"
	"github.com/lucidcircuit/spicesim/pkg/netlist"
)

// FatalError marks a condition spec.md 7 requires to terminate the run:
// a singular LU pivot or a non-SPD Cholesky factorization.
type FatalError struct{ Reason string }

func (e *FatalError) Error() string { return "solver: " + e.Reason }

// state is the per-method cached algorithm state (spec.md 9's union-typed
// algorithm state): a flat struct with only the fields for the active
// Method populated, never a void pointer.
type state struct {
	customLU     *customLUState
	libDenseLU   *mat.LU
	customChol   *customCholeskyState
	libDenseChol *mat.Cholesky
	libSparse    *sparseLUState

	preconditioner []float64
	sparsePattern  *mna.CSR

	lastIterations int
	lastError      float64
	lastConverged  bool
}

// Solver is the uniform surface every analysis driver solves through.
type Solver struct {
	opts   netlist.Options
	method netlist.Method

	denseSys  *mna.DenseSystem
	sparseSys *mna.SparseSystem

	st   state
	perf PerfCounters
}

// NewDense constructs a Solver bound to a dense System, performing the
// one-shot factorization (direct methods) or precompute (iterative
// methods) construction requires.
func NewDense(sys *mna.DenseSystem, opts netlist.Options) (*Solver, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	s := &Solver{opts: opts, method: opts.Select(), denseSys: sys}
	if err := s.constructDense(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewSparse constructs a Solver bound to a sparse System.
func NewSparse(sys *mna.SparseSystem, opts netlist.Options) (*Solver, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	s := &Solver{opts: opts, method: opts.Select(), sparseSys: sys}
	if err := s.constructSparse(); err != nil {
		return nil, err
	}
	return s, nil
}

// Refactor redoes the construction-time factorization or precompute
// against the owning system's current A. Callers must invoke this after
// reassigning A out from under the Solver (spec.md 5's invalidation rule),
// e.g. once after the transient driver forms its step-time operator.
func (s *Solver) Refactor() error {
	s.st = state{}
	if s.denseSys != nil {
		return s.constructDense()
	}
	return s.constructSparse()
}

func (s *Solver) constructDense() error {
	start := time.Now()
	defer func() {
		if s.method == netlist.LU || s.method == netlist.Cholesky {
			s.perf.record("decompose", start)
		}
	}()

	switch s.method {
	case netlist.LU:
		if s.opts.Custom {
			st, err := factorLUCustom(s.denseSys.A)
			if err != nil {
				return &FatalError{Reason: err.Error()}
			}
			s.st.customLU = st
		} else {
			lu := &mat.LU{}
			lu.Factorize(s.denseSys.A)
			s.st.libDenseLU = lu
		}
	case netlist.Cholesky:
		if s.opts.Custom {
			st, err := factorCholeskyCustom(s.denseSys.A)
			if err != nil {
				return &FatalError{Reason: err.Error()}
			}
			s.st.customChol = st
		} else {
			sym := mat.NewSymDense(s.denseSys.N, nil)
			for i := 0; i < s.denseSys.N; i++ {
				for j := i; j < s.denseSys.N; j++ {
					sym.SetSym(i, j, s.denseSys.A.At(i, j))
				}
			}
			chol := &mat.Cholesky{}
			if ok := chol.Factorize(sym); !ok {
				return &FatalError{Reason: "matrix is not symmetric positive-definite"}
			}
			s.st.libDenseChol = chol
		}
	case netlist.CG, netlist.BiCG:
		startCompute := time.Now()
		s.st.preconditioner = jacobiPreconditionerDense(s.denseSys.A, s.denseSys.N)
		s.perf.record("compute", startCompute)
	}
	return nil
}

func (s *Solver) constructSparse() error {
	start := time.Now()
	defer func() {
		if s.method == netlist.LU || s.method == netlist.Cholesky {
			s.perf.record("decompose", start)
		}
	}()

	switch s.method {
	case netlist.LU, netlist.Cholesky:
		m, err := s.sparseSys.LibMatrix()
		if err != nil {
			return &FatalError{Reason: err.Error()}
		}
		st, err := factorSparseLibrary(m)
		if err != nil {
			return &FatalError{Reason: err.Error()}
		}
		if s.method == netlist.Cholesky {
			if err := checkSparseSPD(st, s.sparseSys.N); err != nil {
				return &FatalError{Reason: err.Error()}
			}
		}
		s.st.libSparse = st
	case netlist.CG, netlist.BiCG:
		startCompute := time.Now()
		pattern := s.sparseSys.CSRMatrix()
		s.st.sparsePattern = pattern
		s.st.preconditioner = jacobiPreconditionerSparse(pattern.Diag())
		s.perf.record("compute", startCompute)
	}
	return nil
}

// Solve solves A*x=b for the given b, writing the result into the owning
// system's X and returning it. Iterative non-convergence and BiCG
// breakdown are reported via Converged()/LastError rather than an error,
// per spec.md 7; only a singular pivot or non-SPD factor is fatal.
func (s *Solver) Solve(b []float64) ([]float64, error) {
	start := time.Now()
	defer func() { s.perf.record("solve", start) }()

	if s.denseSys != nil {
		return s.solveDense(b)
	}
	return s.solveSparse(b)
}

func (s *Solver) solveDense(b []float64) ([]float64, error) {
	var x []float64
	switch s.method {
	case netlist.LU:
		if s.opts.Custom {
			x = solveLUCustom(s.st.customLU, b)
		} else {
			x = make([]float64, s.denseSys.N)
			xVec := mat.NewVecDense(s.denseSys.N, x)
			if err := xVec.SolveVec(s.st.libDenseLU, mat.NewVecDense(s.denseSys.N, b)); err != nil {
				return nil, &FatalError{Reason: fmt.Sprintf("singular matrix: %v", err)}
			}
		}
	case netlist.Cholesky:
		if s.opts.Custom {
			x = solveCholeskyCustom(s.st.customChol, b)
		} else {
			x = make([]float64, s.denseSys.N)
			xVec := mat.NewVecDense(s.denseSys.N, x)
			if err := xVec.SolveVec(s.st.libDenseChol, mat.NewVecDense(s.denseSys.N, b)); err != nil {
				return nil, &FatalError{Reason: fmt.Sprintf("cholesky solve failed: %v", err)}
			}
		}
	case netlist.CG:
		var res iterResult
		if s.opts.Custom {
			res = solveCGDenseCustom(s.denseSys.A, s.st.preconditioner, b, s.denseSys.X, s.opts.ITol)
		} else {
			res = solveCGDenseLibrary(s.denseSys.A, s.st.preconditioner, b, s.denseSys.X, s.opts.ITol)
		}
		x = s.finishIterative(res)
	case netlist.BiCG:
		var res iterResult
		if s.opts.Custom {
			res = solveBiCGDenseCustom(s.denseSys.A, s.st.preconditioner, b, s.denseSys.X, s.opts.ITol)
		} else {
			res = solveBiCGDenseLibrary(s.denseSys.A, s.st.preconditioner, b, s.denseSys.X, s.opts.ITol)
		}
		x = s.finishIterative(res)
	}

	copy(s.denseSys.X, x)
	return x, nil
}

func (s *Solver) solveSparse(b []float64) ([]float64, error) {
	var x []float64
	switch s.method {
	case netlist.LU, netlist.Cholesky:
		var err error
		x, err = solveSparseLibrary(s.st.libSparse, s.sparseSys.N, b)
		if err != nil {
			return nil, &FatalError{Reason: err.Error()}
		}
	case netlist.CG:
		var res iterResult
		if s.opts.Custom {
			res = solveCGSparseCustom(s.st.sparsePattern, s.st.preconditioner, b, s.sparseSys.X, s.opts.ITol)
		} else {
			m, _ := s.sparseSys.LibMatrix()
			res = solveCGSparseLibrary(m, s.st.sparsePattern, s.st.preconditioner, b, s.sparseSys.X, s.opts.ITol)
		}
		x = s.finishIterative(res)
	case netlist.BiCG:
		var res iterResult
		if s.opts.Custom {
			res = solveBiCGSparseCustom(s.st.sparsePattern, s.st.preconditioner, b, s.sparseSys.X, s.opts.ITol)
		} else {
			m, _ := s.sparseSys.LibMatrix()
			res = solveBiCGSparseLibrary(m, s.st.sparsePattern, s.st.preconditioner, b, s.sparseSys.X, s.opts.ITol)
		}
		x = s.finishIterative(res)
	}

	copy(s.sparseSys.X, x)
	return x, nil
}

// finishIterative records the iteration outcome and prunes components that
// settled below itol, per spec.md 9 ("prune only after iterative solves").
func (s *Solver) finishIterative(res iterResult) []float64 {
	s.st.lastIterations, s.st.lastError, s.st.lastConverged = res.Iterations, res.Error, res.Converged
	x := res.X
	for i := range x {
		if x[i] < s.opts.ITol && x[i] > -s.opts.ITol {
			x[i] = 0
		}
	}
	return x
}

// LastIterations returns the iteration count of the most recent CG/BiCG
// solve.
func (s *Solver) LastIterations() int { return s.st.lastIterations }

// LastError returns the achieved relative residual of the most recent
// CG/BiCG solve.
func (s *Solver) LastError() float64 { return s.st.lastError }

// Converged reports whether the most recent CG/BiCG solve met itol.
func (s *Solver) Converged() bool { return s.st.lastConverged }

// Method returns the selected method.
func (s *Solver) Method() netlist.Method { return s.method }

// PerfCounters returns the accumulated counters.
func (s *Solver) PerfCounters() *PerfCounters { return &s.perf }
