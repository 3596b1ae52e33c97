// Package mna builds and mutates the Modified Nodal Analysis linear system:
// the dense and sparse System representations, the stamping assembler, and
// the scoped transient view that swaps in a time-stepping operator.
package mna

import "gonum.org/v1/gonum/mat"

// DenseSystem holds A, x, b of dimension N, backed by gonum's dense matrix
// type so the library-backed LU path (mat.LU) can factorize it directly;
// the library Cholesky path copies it into a mat.SymDense first.
type DenseSystem struct {
	N int
	A *mat.Dense
	B []float64
	X []float64
}

// NewDenseSystem allocates a zeroed N x N system.
func NewDenseSystem(n int) *DenseSystem {
	return &DenseSystem{
		N: n,
		A: mat.NewDense(n, n, nil),
		B: make([]float64, n),
		X: make([]float64, n),
	}
}

// Stamp adds value at A[i,j]. Callers are responsible for the ground-skip
// rule: ground has no row (see row in assemble.go), so i and j are always
// rows of non-ground nodes or branches.
func (s *DenseSystem) Stamp(i, j int, value float64) {
	s.A.Set(i, j, s.A.At(i, j)+value)
}

// StampRHS adds value to b[i].
func (s *DenseSystem) StampRHS(i int, value float64) {
	s.B[i] += value
}

// SetRHS overwrites b[i] (used for the voltage-source branch equation,
// whose RHS is set rather than accumulated per spec.md 4.1).
func (s *DenseSystem) SetRHS(i int, value float64) {
	s.B[i] = value
}

// Reset zeroes A and b, per the "A and b start at zero before stamping"
// invariant (spec.md 3).
func (s *DenseSystem) Reset() {
	s.A.Zero()
	for i := range s.B {
		s.B[i] = 0
	}
}

// CloneAB returns independent copies of A and b, used by the transient
// view to save/restore the DC system around a transient run.
func (s *DenseSystem) CloneAB() (*mat.Dense, []float64) {
	aCopy := mat.DenseCopyOf(s.A)
	bCopy := make([]float64, len(s.B))
	copy(bCopy, s.B)
	return aCopy, bCopy
}

// RestoreAB overwrites A and b with previously cloned values.
func (s *DenseSystem) RestoreAB(a *mat.Dense, b []float64) {
	s.A.Copy(a)
	copy(s.B, b)
}
