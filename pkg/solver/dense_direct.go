package solver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// denseMatrix is a plain row-major copy used by the hand-rolled dense
// kernels; factorizing in place on a slice-of-slices keeps the pivoting and
// Schur-complement update in spec.md 4.2 a direct transcription instead of
// going through mat.Dense's bounds-checked accessors on every inner-loop
// touch.
type denseMatrix struct {
	n    int
	rows [][]float64
}

func denseMatrixFromGonum(a *mat.Dense) *denseMatrix {
	n, _ := a.Dims()
	m := &denseMatrix{n: n, rows: make([][]float64, n)}
	for i := 0; i < n; i++ {
		m.rows[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			m.rows[i][j] = a.At(i, j)
		}
	}
	return m
}

// customLUState is the cached state for a hand-rolled dense LU solve:
// the in-place L/U factors and the row permutation.
type customLUState struct {
	factored    *denseMatrix
	permutation []int
}

// factorLUCustom performs in-place partial-pivot LU decomposition per
// spec.md 4.2: L unit-diagonal below the factored diagonal, U on and above.
func factorLUCustom(a *mat.Dense) (*customLUState, error) {
	m := denseMatrixFromGonum(a)
	n := m.n
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}

	const eps = 1e-300
	for k := 0; k < n; k++ {
		pivotRow, pivotVal := k, math.Abs(m.rows[k][k])
		for i := k + 1; i < n; i++ {
			if v := math.Abs(m.rows[i][k]); v > pivotVal {
				pivotRow, pivotVal = i, v
			}
		}
		if pivotRow != k {
			m.rows[k], m.rows[pivotRow] = m.rows[pivotRow], m.rows[k]
			perm[k], perm[pivotRow] = perm[pivotRow], perm[k]
		}
		if math.Abs(m.rows[k][k]) <= eps {
			return nil, fmt.Errorf("solver: singular matrix at pivot %d", k)
		}
		for i := k + 1; i < n; i++ {
			m.rows[i][k] /= m.rows[k][k]
			for j := k + 1; j < n; j++ {
				m.rows[i][j] -= m.rows[i][k] * m.rows[k][j]
			}
		}
	}

	return &customLUState{factored: m, permutation: perm}, nil
}

// solveLUCustom forward- and back-substitutes per spec.md 4.2.
func solveLUCustom(st *customLUState, b []float64) []float64 {
	n := st.factored.n
	m := st.factored.rows
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := b[st.permutation[i]]
		for j := 0; j < i; j++ {
			sum -= m[i][j] * y[j]
		}
		y[i] = sum
	}

	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := y[i]
		for j := i + 1; j < n; j++ {
			sum -= m[i][j] * x[j]
		}
		x[i] = sum / m[i][i]
	}
	return x
}

// customCholeskyState caches the in-place lower-triangular factor L.
type customCholeskyState struct {
	factored *denseMatrix
}

// factorCholeskyCustom performs in-place Cholesky factorization A = L*Lt,
// storing only L, per spec.md 4.2. Returns an error (never silently
// demoted to LU) when a negative radicand shows A is not SPD.
func factorCholeskyCustom(a *mat.Dense) (*customCholeskyState, error) {
	m := denseMatrixFromGonum(a)
	n := m.n

	for k := 0; k < n; k++ {
		s := m.rows[k][k]
		for j := 0; j < k; j++ {
			s -= m.rows[k][j] * m.rows[k][j]
		}
		if s < 0 {
			return nil, fmt.Errorf("solver: matrix is not symmetric positive-definite (negative radicand at %d)", k)
		}
		m.rows[k][k] = math.Sqrt(s)

		for i := k + 1; i < n; i++ {
			s := m.rows[i][k]
			for j := 0; j < k; j++ {
				s -= m.rows[i][j] * m.rows[k][j]
			}
			m.rows[i][k] = s / m.rows[k][k]
		}
	}

	return &customCholeskyState{factored: m}, nil
}

// solveCholeskyCustom solves L*y=b then Lt*x=y, reading the lower triangle
// in place of Lt (since only L is stored), per spec.md 4.2.
func solveCholeskyCustom(st *customCholeskyState, b []float64) []float64 {
	n := st.factored.n
	m := st.factored.rows

	y := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := b[i]
		for j := 0; j < i; j++ {
			sum -= m[i][j] * y[j]
		}
		y[i] = sum / m[i][i]
	}

	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := y[i]
		for j := i + 1; j < n; j++ {
			sum -= m[j][i] * x[j]
		}
		x[i] = sum / m[i][i]
	}
	return x
}
