package solver

import (
	"fmt"

	"github.com/edp1096/sparse"
)

// sparseLUState caches the factored github.com/edp1096/sparse.Matrix for a
// sparse LU (or, after the SPD check below, Cholesky) solve. Custom sparse
// direct solves are rejected at Options.Validate time (spec.md 7), so no
// hand-rolled variant exists here.
type sparseLUState struct {
	matrix *sparse.Matrix
}

// factorSparseLibrary factors m in place.
func factorSparseLibrary(m *sparse.Matrix) (*sparseLUState, error) {
	if err := m.Factor(); err != nil {
		return nil, fmt.Errorf("solver: sparse factorization failed: %w", err)
	}
	return &sparseLUState{matrix: m}, nil
}

// checkSparseSPD validates that every diagonal pivot came out positive
// after factoring, the substitute this library offers for a dedicated SPD
// factorization path (see DESIGN.md).
func checkSparseSPD(st *sparseLUState, n int) error {
	for i := 1; i <= n; i++ {
		d := st.matrix.Diags[i]
		if d == nil || d.Real <= 0 {
			return fmt.Errorf("solver: matrix is not symmetric positive-definite (diagonal %d)", i)
		}
	}
	return nil
}

// solveSparseLibrary solves against the cached factorization. b is 0-based
// length-n; the sparse library's RHS vector is 1-based length n+1.
func solveSparseLibrary(st *sparseLUState, n int, b []float64) ([]float64, error) {
	rhs := make([]float64, n+1)
	for i := 0; i < n; i++ {
		rhs[i+1] = b[i]
	}
	sol, err := st.matrix.Solve(rhs)
	if err != nil {
		return nil, fmt.Errorf("solver: sparse solve failed: %w", err)
	}
	x := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = sol[i+1]
	}
	return x, nil
}
