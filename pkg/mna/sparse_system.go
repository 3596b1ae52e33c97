package mna

import (
	"fmt"
	"sort"

	"github.com/edp1096/sparse"
)

// Triplet is one accumulated (row, col, value) stamp contribution. Sparse
// assembly accumulates into a triplet list which is later compressed, per
// spec.md 4.1; duplicates at the same (row, col) are summed on compress,
// matching how a stamp touching the same cell twice (e.g. two resistors on
// one node) must add rather than overwrite.
type Triplet struct {
	Row, Col int
	Value    float64
}

// CSR is a compressed-row-storage matrix used by the hand-rolled sparse
// solver kernels, independent of the library-backed sparse.Matrix.
type CSR struct {
	N      int
	RowPtr []int
	ColIdx []int
	Val    []float64
}

// MatVec computes A*x.
func (m *CSR) MatVec(x []float64) []float64 {
	y := make([]float64, m.N)
	for i := 0; i < m.N; i++ {
		var sum float64
		for k := m.RowPtr[i]; k < m.RowPtr[i+1]; k++ {
			sum += m.Val[k] * x[m.ColIdx[k]]
		}
		y[i] = sum
	}
	return y
}

// MatVecT computes A^T*x, needed by the two-sided BiCG variant.
func (m *CSR) MatVecT(x []float64) []float64 {
	y := make([]float64, m.N)
	for i := 0; i < m.N; i++ {
		for k := m.RowPtr[i]; k < m.RowPtr[i+1]; k++ {
			y[m.ColIdx[k]] += m.Val[k] * x[i]
		}
	}
	return y
}

// Diag returns the matrix diagonal, used by the Jacobi preconditioner.
func (m *CSR) Diag() []float64 {
	d := make([]float64, m.N)
	for i := 0; i < m.N; i++ {
		for k := m.RowPtr[i]; k < m.RowPtr[i+1]; k++ {
			if m.ColIdx[k] == i {
				d[i] = m.Val[k]
				break
			}
		}
	}
	return d
}

// CompressTriplets sums duplicate (row,col) entries and builds a sorted CSR
// matrix of dimension n.
func CompressTriplets(n int, triplets []Triplet) *CSR {
	type key struct{ r, c int }
	acc := make(map[key]float64, len(triplets))
	for _, t := range triplets {
		acc[key{t.Row, t.Col}] += t.Value
	}

	rowEntries := make([][]struct {
		col int
		val float64
	}, n)
	for k, v := range acc {
		rowEntries[k.r] = append(rowEntries[k.r], struct {
			col int
			val float64
		}{k.c, v})
	}

	rowPtr := make([]int, n+1)
	var colIdx []int
	var val []float64
	for i := 0; i < n; i++ {
		entries := rowEntries[i]
		sort.Slice(entries, func(a, b int) bool { return entries[a].col < entries[b].col })
		rowPtr[i] = len(colIdx)
		for _, e := range entries {
			colIdx = append(colIdx, e.col)
			val = append(val, e.val)
		}
	}
	rowPtr[n] = len(colIdx)

	return &CSR{N: n, RowPtr: rowPtr, ColIdx: colIdx, Val: val}
}

// SparseSystem holds the triplet accumulation buffer plus the two
// representations built from it on demand: a hand-rolled CSR matrix (for
// custom sparse iterative kernels) and a github.com/edp1096/sparse.Matrix
// (for the library-backed sparse direct and iterative paths).
type SparseSystem struct {
	N        int
	Triplets []Triplet
	B        []float64
	X        []float64

	csr *CSR
	lib *sparse.Matrix
}

// NewSparseSystem allocates a system with triplet capacity pre-reserved to
// capacityHint (AssembleSparse passes 4*(R+V+L), per spec.md 4.1) to avoid
// slice growth during stamping.
func NewSparseSystem(n, capacityHint int) *SparseSystem {
	return &SparseSystem{
		N:        n,
		Triplets: make([]Triplet, 0, capacityHint),
		B:        make([]float64, n),
		X:        make([]float64, n),
	}
}

// Stamp appends a triplet contribution at (i,j).
func (s *SparseSystem) Stamp(i, j int, value float64) {
	s.Triplets = append(s.Triplets, Triplet{Row: i, Col: j, Value: value})
	s.csr = nil
	s.lib = nil
}

// StampRHS adds value to b[i].
func (s *SparseSystem) StampRHS(i int, value float64) {
	s.B[i] += value
}

// SetRHS overwrites b[i].
func (s *SparseSystem) SetRHS(i int, value float64) {
	s.B[i] = value
}

// CSRMatrix lazily compresses the triplet list into the hand-rolled CSR
// representation used by custom sparse solvers.
func (s *SparseSystem) CSRMatrix() *CSR {
	if s.csr == nil {
		s.csr = CompressTriplets(s.N, s.Triplets)
	}
	return s.csr
}

// LibMatrix lazily builds a github.com/edp1096/sparse.Matrix from the same
// triplet list, used by the library-backed sparse solver paths.
func (s *SparseSystem) LibMatrix() (*sparse.Matrix, error) {
	if s.lib != nil {
		return s.lib, nil
	}

	config := &sparse.Configuration{
		Real:           true,
		Expandable:     true,
		ModifiedNodal:  true,
		TiesMultiplier: 5,
		PrinterWidth:   140,
	}

	m, err := sparse.Create(int64(s.N), config)
	if err != nil {
		return nil, fmt.Errorf("mna: creating sparse matrix: %w", err)
	}
	for _, t := range s.Triplets {
		m.GetElement(int64(t.Row+1), int64(t.Col+1)).Real += t.Value
	}

	s.lib = m
	return s.lib, nil
}

// CloneTripletsAndB returns an independent copy of the current triplet list
// and RHS, used by the transient view to save/restore the DC system.
func (s *SparseSystem) CloneTripletsAndB() ([]Triplet, []float64) {
	tCopy := make([]Triplet, len(s.Triplets))
	copy(tCopy, s.Triplets)
	bCopy := make([]float64, len(s.B))
	copy(bCopy, s.B)
	return tCopy, bCopy
}

// RestoreTripletsAndB overwrites the triplet list and RHS.
func (s *SparseSystem) RestoreTripletsAndB(triplets []Triplet, b []float64) {
	s.Triplets = append(s.Triplets[:0], triplets...)
	s.csr = nil
	s.lib = nil
	copy(s.B, b)
}
