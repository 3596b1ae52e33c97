package solver

import (
	"math"

	"github.com/edp1096/sparse"

	"github.com/lucidcircuit/spicesim/pkg/mna"
)

func jacobiPreconditionerSparse(diag []float64) []float64 {
	p := make([]float64, len(diag))
	for i, d := range diag {
		if math.Abs(d) >= iterativeEps {
			p[i] = 1 / d
		} else {
			p[i] = 1
		}
	}
	return p
}

// sparseLibMatVec multiplies using the nonzero pattern of csr but reads
// values from the library's sparse.Matrix storage, so the "library-backed"
// sparse iterative flavor actually exercises the library's element store
// rather than duplicating it.
func sparseLibMatVec(m *sparse.Matrix, csr *mna.CSR, x []float64) []float64 {
	n := csr.N
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for k := csr.RowPtr[i]; k < csr.RowPtr[i+1]; k++ {
			j := csr.ColIdx[k]
			sum += m.GetElement(int64(i+1), int64(j+1)).Real * x[j]
		}
		y[i] = sum
	}
	return y
}

func sparseLibMatVecT(m *sparse.Matrix, csr *mna.CSR, x []float64) []float64 {
	n := csr.N
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		for k := csr.RowPtr[i]; k < csr.RowPtr[i+1]; k++ {
			j := csr.ColIdx[k]
			y[j] += m.GetElement(int64(i+1), int64(j+1)).Real * x[i]
		}
	}
	return y
}

// solveCGSparseCustom mirrors solveCGDenseCustom over a hand-rolled CSR
// matrix.
func solveCGSparseCustom(a *mna.CSR, precond []float64, b, x0 []float64, itol float64) iterResult {
	n := len(b)
	bNorm := norm2(b)
	if bNorm < iterativeEps {
		return iterResult{X: make([]float64, n), Iterations: 0, Error: 0, Converged: true}
	}

	x := append([]float64(nil), x0...)
	r := make([]float64, n)
	ax := a.MatVec(x)
	for i := range r {
		r[i] = b[i] - ax[i]
	}

	p := make([]float64, n)
	var rhoPrev float64
	var lastErr float64
	iterations := n
	converged := false

	for iter := 1; iter <= n; iter++ {
		z := make([]float64, n)
		for i := range z {
			z[i] = precond[i] * r[i]
		}
		var rho float64
		for i := range r {
			rho += r[i] * z[i]
		}

		if iter == 1 {
			copy(p, z)
		} else {
			beta := rho / rhoPrev
			for i := range p {
				p[i] = z[i] + beta*p[i]
			}
		}

		q := a.MatVec(p)
		var pq float64
		for i := range p {
			pq += p[i] * q[i]
		}
		alpha := rho / pq

		for i := range x {
			x[i] += alpha * p[i]
			r[i] -= alpha * q[i]
		}
		rhoPrev = rho

		lastErr = norm2(r) / bNorm
		if lastErr <= itol {
			iterations = iter
			converged = true
			break
		}
		iterations = iter
	}

	return iterResult{X: x, Iterations: iterations, Error: lastErr, Converged: converged}
}

// solveCGSparseLibrary is CG over the same CSR pattern, reading matrix
// values from the library's sparse.Matrix storage.
func solveCGSparseLibrary(m *sparse.Matrix, pattern *mna.CSR, precond []float64, b, x0 []float64, itol float64) iterResult {
	n := len(b)
	bNorm := norm2(b)
	if bNorm < iterativeEps {
		return iterResult{X: make([]float64, n), Iterations: 0, Error: 0, Converged: true}
	}

	x := append([]float64(nil), x0...)
	r := make([]float64, n)
	ax := sparseLibMatVec(m, pattern, x)
	for i := range r {
		r[i] = b[i] - ax[i]
	}

	p := make([]float64, n)
	var rhoPrev float64
	var lastErr float64
	iterations := n
	converged := false

	for iter := 1; iter <= n; iter++ {
		z := make([]float64, n)
		for i := range z {
			z[i] = precond[i] * r[i]
		}
		var rho float64
		for i := range r {
			rho += r[i] * z[i]
		}

		if iter == 1 {
			copy(p, z)
		} else {
			beta := rho / rhoPrev
			for i := range p {
				p[i] = z[i] + beta*p[i]
			}
		}

		q := sparseLibMatVec(m, pattern, p)
		var pq float64
		for i := range p {
			pq += p[i] * q[i]
		}
		alpha := rho / pq

		for i := range x {
			x[i] += alpha * p[i]
			r[i] -= alpha * q[i]
		}
		rhoPrev = rho

		lastErr = norm2(r) / bNorm
		if lastErr <= itol {
			iterations = iter
			converged = true
			break
		}
		iterations = iter
	}

	return iterResult{X: x, Iterations: iterations, Error: lastErr, Converged: converged}
}

// solveBiCGSparseCustom mirrors solveBiCGDenseCustom over a hand-rolled
// CSR matrix, using CSR.MatVecT for the transposed product against the
// shadow direction.
func solveBiCGSparseCustom(a *mna.CSR, precond []float64, b, x0 []float64, itol float64) iterResult {
	n := len(b)
	bNorm := norm2(b)
	if bNorm < iterativeEps {
		return iterResult{X: make([]float64, n), Iterations: 0, Error: 0, Converged: true}
	}

	x := append([]float64(nil), x0...)
	r := make([]float64, n)
	ax := a.MatVec(x)
	for i := range r {
		r[i] = b[i] - ax[i]
	}
	rShadow := append([]float64(nil), r...)

	p := make([]float64, n)
	pShadow := make([]float64, n)
	var rhoPrev float64
	var lastErr float64
	iterations := n

	for iter := 1; iter <= n; iter++ {
		z := make([]float64, n)
		zShadow := make([]float64, n)
		for i := range z {
			z[i] = precond[i] * r[i]
			zShadow[i] = precond[i] * rShadow[i]
		}
		var rho float64
		for i := range rShadow {
			rho += rShadow[i] * z[i]
		}
		if math.Abs(rho) < iterativeEps {
			return iterResult{X: x, Iterations: iter, Error: norm2(r) / bNorm, Converged: false}
		}

		if iter == 1 {
			copy(p, z)
			copy(pShadow, zShadow)
		} else {
			beta := rho / rhoPrev
			for i := range p {
				p[i] = z[i] + beta*p[i]
				pShadow[i] = zShadow[i] + beta*pShadow[i]
			}
		}
		rhoPrev = rho

		q := a.MatVec(p)
		qShadow := a.MatVecT(pShadow)

		var omega float64
		for i := range pShadow {
			omega += pShadow[i] * q[i]
		}
		if math.Abs(omega) < iterativeEps {
			return iterResult{X: x, Iterations: iter, Error: norm2(r) / bNorm, Converged: false}
		}
		alpha := rho / omega

		for i := range x {
			x[i] += alpha * p[i]
			r[i] -= alpha * q[i]
			rShadow[i] -= alpha * qShadow[i]
		}

		lastErr = norm2(r) / bNorm
		if lastErr <= itol {
			iterations = iter
			return iterResult{X: x, Iterations: iterations, Error: lastErr, Converged: true}
		}
		iterations = iter
	}

	return iterResult{X: x, Iterations: iterations, Error: lastErr, Converged: false}
}

// solveBiCGSparseLibrary mirrors solveBiCGSparseCustom, reading matrix
// values from the library's sparse.Matrix storage via sparseLibMatVec and
// sparseLibMatVecT.
func solveBiCGSparseLibrary(m *sparse.Matrix, pattern *mna.CSR, precond []float64, b, x0 []float64, itol float64) iterResult {
	n := len(b)
	bNorm := norm2(b)
	if bNorm < iterativeEps {
		return iterResult{X: make([]float64, n), Iterations: 0, Error: 0, Converged: true}
	}

	x := append([]float64(nil), x0...)
	r := make([]float64, n)
	ax := sparseLibMatVec(m, pattern, x)
	for i := range r {
		r[i] = b[i] - ax[i]
	}
	rShadow := append([]float64(nil), r...)

	p := make([]float64, n)
	pShadow := make([]float64, n)
	var rhoPrev float64
	var lastErr float64
	iterations := n

	for iter := 1; iter <= n; iter++ {
		z := make([]float64, n)
		zShadow := make([]float64, n)
		for i := range z {
			z[i] = precond[i] * r[i]
			zShadow[i] = precond[i] * rShadow[i]
		}
		var rho float64
		for i := range rShadow {
			rho += rShadow[i] * z[i]
		}
		if math.Abs(rho) < iterativeEps {
			return iterResult{X: x, Iterations: iter, Error: norm2(r) / bNorm, Converged: false}
		}

		if iter == 1 {
			copy(p, z)
			copy(pShadow, zShadow)
		} else {
			beta := rho / rhoPrev
			for i := range p {
				p[i] = z[i] + beta*p[i]
				pShadow[i] = zShadow[i] + beta*pShadow[i]
			}
		}
		rhoPrev = rho

		q := sparseLibMatVec(m, pattern, p)
		qShadow := sparseLibMatVecT(m, pattern, pShadow)

		var omega float64
		for i := range pShadow {
			omega += pShadow[i] * q[i]
		}
		if math.Abs(omega) < iterativeEps {
			return iterResult{X: x, Iterations: iter, Error: norm2(r) / bNorm, Converged: false}
		}
		alpha := rho / omega

		for i := range x {
			x[i] += alpha * p[i]
			r[i] -= alpha * q[i]
			rShadow[i] -= alpha * qShadow[i]
		}

		lastErr = norm2(r) / bNorm
		if lastErr <= itol {
			iterations = iter
			return iterResult{X: x, Iterations: iterations, Error: lastErr, Converged: true}
		}
		iterations = iter
	}

	return iterResult{X: x, Iterations: iterations, Error: lastErr, Converged: false}
}
