package mna

import (
	"gonum.org/v1/gonum/mat"

	"github.com/lucidcircuit/spicesim/pkg/netlist"
)

// DenseTransientView is the scoped resource spec.md 4.4 describes: it saves
// the DC G and b, stamps the companion matrix C, and on Release restores
// the original DC A and b on its owning system, on every exit path.
type DenseTransientView struct {
	sys       *DenseSystem
	savedA    *mat.Dense
	savedB    []float64
	C         *mat.Dense
	h         float64
	method    netlist.TransientMethod
}

// NewDenseTransientView snapshots sys's current A/b as the DC system, then
// builds the companion matrix C from the netlist's capacitors and
// inductors.
func NewDenseTransientView(sys *DenseSystem, nl *netlist.Netlist, nodeCount int, h float64, method netlist.TransientMethod) *DenseTransientView {
	savedA, savedB := sys.CloneAB()
	companion := AssembleCompanionDense(nl, nodeCount)
	return &DenseTransientView{sys: sys, savedA: savedA, savedB: savedB, C: companion.A, h: h, method: method}
}

// StepOperator forms A <- G + C/h (Backward Euler) or A <- G + (2/h)*C
// (Trapezoidal) into the owning system's A, per spec.md 4.4 step 4. It
// mutates sys.A in place and returns it for convenience.
func (tv *DenseTransientView) StepOperator() *mat.Dense {
	var coeff float64
	if tv.method == netlist.Trapezoidal {
		coeff = 2 / tv.h
	} else {
		coeff = 1 / tv.h
	}

	a := mat.NewDense(tv.sys.N, tv.sys.N, nil)
	a.Copy(tv.savedA)
	scaledC := mat.NewDense(tv.sys.N, tv.sys.N, nil)
	scaledC.Scale(coeff, tv.C)
	a.Add(a, scaledC)
	tv.sys.A.Copy(a)
	return tv.sys.A
}

// BackwardEulerRHS forms b = e(kh) + (C/h)*x_prev.
func (tv *DenseTransientView) BackwardEulerRHS(e, xPrev []float64) []float64 {
	cx := make([]float64, tv.sys.N)
	mat.NewVecDense(tv.sys.N, cx).MulVec(tv.C, mat.NewVecDense(tv.sys.N, xPrev))
	b := make([]float64, tv.sys.N)
	coeff := 1 / tv.h
	for i := range b {
		b[i] = e[i] + coeff*cx[i]
	}
	return b
}

// TrapezoidalRHS forms b = e(kh) + e((k-1)h) - (G - (2/h)*C)*x_prev.
func (tv *DenseTransientView) TrapezoidalRHS(eNow, ePrev, xPrev []float64) []float64 {
	coeff := 2 / tv.h
	gMinus := mat.NewDense(tv.sys.N, tv.sys.N, nil)
	scaledC := mat.NewDense(tv.sys.N, tv.sys.N, nil)
	scaledC.Scale(coeff, tv.C)
	gMinus.Sub(tv.savedA, scaledC)

	term := make([]float64, tv.sys.N)
	mat.NewVecDense(tv.sys.N, term).MulVec(gMinus, mat.NewVecDense(tv.sys.N, xPrev))

	b := make([]float64, tv.sys.N)
	for i := range b {
		b[i] = eNow[i] + ePrev[i] - term[i]
	}
	return b
}

// G returns the saved DC coefficient matrix.
func (tv *DenseTransientView) G() *mat.Dense { return tv.savedA }

// DCValues returns the saved DC RHS, i.e. e(0).
func (tv *DenseTransientView) DCValues() []float64 { return tv.savedB }

// Release restores the owning system's A and b to their pre-transient DC
// values. Callers must defer this immediately after construction so it
// runs on every exit path (spec.md 4.4 step 1).
func (tv *DenseTransientView) Release() {
	tv.sys.RestoreAB(tv.savedA, tv.savedB)
}

// SparseTransientView is the sparse-representation analogue of
// DenseTransientView, operating over CSR matrices built from triplets.
type SparseTransientView struct {
	sys        *SparseSystem
	savedTrip  []Triplet
	savedB     []float64
	C          *CSR
	h          float64
	method     netlist.TransientMethod
}

func NewSparseTransientView(sys *SparseSystem, nl *netlist.Netlist, nodeCount int, h float64, method netlist.TransientMethod) *SparseTransientView {
	savedTrip, savedB := sys.CloneTripletsAndB()
	companion := AssembleCompanionSparse(nl, nodeCount)
	return &SparseTransientView{sys: sys, savedTrip: savedTrip, savedB: savedB, C: companion.CSRMatrix(), h: h, method: method}
}

// StepOperator rebuilds sys's triplet list as G's triplets plus the scaled
// companion triplets, then invalidates the cached CSR/library matrices so
// the next solve recompresses.
func (tv *SparseTransientView) StepOperator() {
	var coeff float64
	if tv.method == netlist.Trapezoidal {
		coeff = 2 / tv.h
	} else {
		coeff = 1 / tv.h
	}

	merged := make([]Triplet, 0, len(tv.savedTrip)+len(tv.C.Val))
	merged = append(merged, tv.savedTrip...)
	for i := 0; i < tv.C.N; i++ {
		for k := tv.C.RowPtr[i]; k < tv.C.RowPtr[i+1]; k++ {
			merged = append(merged, Triplet{Row: i, Col: tv.C.ColIdx[k], Value: coeff * tv.C.Val[k]})
		}
	}
	tv.sys.RestoreTripletsAndB(merged, tv.sys.B)
}

// GCSR returns the saved DC coefficient matrix as CSR.
func (tv *SparseTransientView) GCSR() *CSR { return CompressTriplets(tv.sys.N, tv.savedTrip) }

// DCValues returns the saved DC RHS, i.e. e(0).
func (tv *SparseTransientView) DCValues() []float64 { return tv.savedB }

// BackwardEulerRHS forms b = e(kh) + (C/h)*x_prev.
func (tv *SparseTransientView) BackwardEulerRHS(e, xPrev []float64) []float64 {
	cx := tv.C.MatVec(xPrev)
	b := make([]float64, tv.sys.N)
	coeff := 1 / tv.h
	for i := range b {
		b[i] = e[i] + coeff*cx[i]
	}
	return b
}

// TrapezoidalRHS forms b = e(kh) + e((k-1)h) - (G - (2/h)*C)*x_prev.
func (tv *SparseTransientView) TrapezoidalRHS(eNow, ePrev, xPrev []float64) []float64 {
	coeff := 2 / tv.h
	g := tv.GCSR()
	gx := g.MatVec(xPrev)
	cx := tv.C.MatVec(xPrev)
	b := make([]float64, tv.sys.N)
	for i := range b {
		b[i] = eNow[i] + ePrev[i] - (gx[i] - coeff*cx[i])
	}
	return b
}

// Release restores the owning system's triplets and RHS to the saved DC
// values.
func (tv *SparseTransientView) Release() {
	tv.sys.RestoreTripletsAndB(tv.savedTrip, tv.savedB)
}
