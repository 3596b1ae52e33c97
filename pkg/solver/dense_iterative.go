package solver

import (
	"math"

	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

const iterativeEps = 1e-300

// jacobiPreconditioner extracts M^-1[i] = 1/A[i,i] if |A[i,i]| >= eps, else
// 1, per spec.md 4.2.
func jacobiPreconditionerDense(a *mat.Dense, n int) []float64 {
	p := make([]float64, n)
	for i := 0; i < n; i++ {
		d := a.At(i, i)
		if math.Abs(d) >= iterativeEps {
			p[i] = 1 / d
		} else {
			p[i] = 1
		}
	}
	return p
}

func matVecDense(a *mat.Dense, x []float64) []float64 {
	n, _ := a.Dims()
	y := make([]float64, n)
	mat.NewVecDense(n, y).MulVec(a, mat.NewVecDense(n, x))
	return y
}

// matVecDenseT computes A^T*x, the transposed product the two-sided BiCG
// iteration needs for its shadow residual.
func matVecDenseT(a *mat.Dense, x []float64) []float64 {
	n, _ := a.Dims()
	y := make([]float64, n)
	mat.NewVecDense(n, y).MulVec(a.T(), mat.NewVecDense(n, x))
	return y
}

func norm2(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}

// iterResult carries the outcome spec.md requires callers retain:
// the solution, iteration count, achieved relative error, and whether the
// method converged (for CG/BiCG) or broke down (BiCG only).
type iterResult struct {
	X          []float64
	Iterations int
	Error      float64
	Converged  bool
}

// solveCGDenseCustom is the hand-rolled preconditioned CG loop from
// spec.md 4.2, operating on plain slices.
func solveCGDenseCustom(a *mat.Dense, precond []float64, b, x0 []float64, itol float64) iterResult {
	n := len(b)
	bNorm := norm2(b)
	if bNorm < iterativeEps {
		return iterResult{X: make([]float64, n), Iterations: 0, Error: 0, Converged: true}
	}

	x := append([]float64(nil), x0...)
	r := make([]float64, n)
	ax := matVecDense(a, x)
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

		q := matVecDense(a, p)
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

// solveCGDenseLibrary is the library-backed flavor: same algorithm, but
// vector arithmetic goes through gonum's blas64 routines instead of
// hand-written loops.
func solveCGDenseLibrary(a *mat.Dense, precond []float64, b, x0 []float64, itol float64) iterResult {
	n := len(b)
	bVec := blas64.Vector{N: n, Data: append([]float64(nil), b...), Inc: 1}
	bNorm := blas64.Nrm2(bVec)
	if bNorm < iterativeEps {
		return iterResult{X: make([]float64, n), Iterations: 0, Error: 0, Converged: true}
	}

	x := blas64.Vector{N: n, Data: append([]float64(nil), x0...), Inc: 1}
	ax := matVecDense(a, x.Data)
	r := blas64.Vector{N: n, Data: make([]float64, n), Inc: 1}
	for i := 0; i < n; i++ {
		r.Data[i] = b[i] - ax[i]
	}

	p := blas64.Vector{N: n, Data: make([]float64, n), Inc: 1}
	var rhoPrev float64
	var lastErr float64
	iterations := n
	converged := false

	for iter := 1; iter <= n; iter++ {
		z := make([]float64, n)
		for i := 0; i < n; i++ {
			z[i] = precond[i] * r.Data[i]
		}
		zVec := blas64.Vector{N: n, Data: z, Inc: 1}
		rho := blas64.Dot(r, zVec)

		if iter == 1 {
			copy(p.Data, z)
		} else {
			beta := rho / rhoPrev
			blas64.Scal(beta, p)
			blas64.Axpy(1, zVec, p)
		}

		q := matVecDense(a, p.Data)
		qVec := blas64.Vector{N: n, Data: q, Inc: 1}
		pq := blas64.Dot(p, qVec)
		alpha := rho / pq

		blas64.Axpy(alpha, p, x)
		blas64.Axpy(-alpha, qVec, r)
		rhoPrev = rho

		lastErr = blas64.Nrm2(r) / bNorm
		if lastErr <= itol {
			iterations = iter
			converged = true
			break
		}
		iterations = iter
	}

	return iterResult{X: x.Data, Iterations: iterations, Error: lastErr, Converged: converged}
}

// solveBiCGDenseCustom is the hand-rolled two-sided BiCG variant from
// spec.md 4.2: shadow residual r~ = r, shadow direction p~, and a transposed
// matrix-vector product A^T*p~ each iteration. Returns Converged=false on
// breakdown (|rho| or |p~.q| below eps) without aborting the caller.
func solveBiCGDenseCustom(a *mat.Dense, precond []float64, b, x0 []float64, itol float64) iterResult {
	n := len(b)
	bNorm := norm2(b)
	if bNorm < iterativeEps {
		return iterResult{X: make([]float64, n), Iterations: 0, Error: 0, Converged: true}
	}

	x := append([]float64(nil), x0...)
	r := make([]float64, n)
	ax := matVecDense(a, x)
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

		q := matVecDense(a, p)
		qShadow := matVecDenseT(a, pShadow)

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

// solveBiCGDenseLibrary mirrors solveBiCGDenseCustom but routes vector
// arithmetic through blas64. Gonum has no boxed two-sided BiCG (see
// SPEC_FULL.md 2); the "library" flavor differs from the custom one only in
// using blas64 for the axpy/dot/nrm2 steps, same as CG.
func solveBiCGDenseLibrary(a *mat.Dense, precond []float64, b, x0 []float64, itol float64) iterResult {
	n := len(b)
	bVec := blas64.Vector{N: n, Data: append([]float64(nil), b...), Inc: 1}
	bNorm := blas64.Nrm2(bVec)
	if bNorm < iterativeEps {
		return iterResult{X: make([]float64, n), Iterations: 0, Error: 0, Converged: true}
	}

	x := blas64.Vector{N: n, Data: append([]float64(nil), x0...), Inc: 1}
	ax := matVecDense(a, x.Data)
	r := blas64.Vector{N: n, Data: make([]float64, n), Inc: 1}
	for i := 0; i < n; i++ {
		r.Data[i] = b[i] - ax[i]
	}
	rShadow := blas64.Vector{N: n, Data: append([]float64(nil), r.Data...), Inc: 1}

	p := blas64.Vector{N: n, Data: make([]float64, n), Inc: 1}
	pShadow := blas64.Vector{N: n, Data: make([]float64, n), Inc: 1}
	var rhoPrev float64
	var lastErr float64
	iterations := n

	for iter := 1; iter <= n; iter++ {
		z := make([]float64, n)
		zShadow := make([]float64, n)
		for i := 0; i < n; i++ {
			z[i] = precond[i] * r.Data[i]
			zShadow[i] = precond[i] * rShadow.Data[i]
		}
		zVec := blas64.Vector{N: n, Data: z, Inc: 1}
		zShadowVec := blas64.Vector{N: n, Data: zShadow, Inc: 1}
		rho := blas64.Dot(rShadow, zVec)
		if math.Abs(rho) < iterativeEps {
			return iterResult{X: x.Data, Iterations: iter, Error: blas64.Nrm2(r) / bNorm, Converged: false}
		}

		if iter == 1 {
			copy(p.Data, z)
			copy(pShadow.Data, zShadow)
		} else {
			beta := rho / rhoPrev
			blas64.Scal(beta, p)
			blas64.Axpy(1, zVec, p)
			blas64.Scal(beta, pShadow)
			blas64.Axpy(1, zShadowVec, pShadow)
		}
		rhoPrev = rho

		q := blas64.Vector{N: n, Data: matVecDense(a, p.Data), Inc: 1}
		qShadow := blas64.Vector{N: n, Data: matVecDenseT(a, pShadow.Data), Inc: 1}

		omega := blas64.Dot(pShadow, q)
		if math.Abs(omega) < iterativeEps {
			return iterResult{X: x.Data, Iterations: iter, Error: blas64.Nrm2(r) / bNorm, Converged: false}
		}
		alpha := rho / omega

		blas64.Axpy(alpha, p, x)
		blas64.Axpy(-alpha, q, r)
		blas64.Axpy(-alpha, qShadow, rShadow)

		lastErr = blas64.Nrm2(r) / bNorm
		if lastErr <= itol {
			iterations = iter
			return iterResult{X: x.Data, Iterations: iterations, Error: lastErr, Converged: true}
		}
		iterations = iter
	}

	return iterResult{X: x.Data, Iterations: iterations, Error: lastErr, Converged: false}
}
