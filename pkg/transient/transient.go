// Package transient advances a circuit's MNA system step-by-step under
// Backward Euler or Trapezoidal integration, updating the source vector
// from each element's waveform and repeatedly calling the Solver, per
// spec.md 4.4.
package transient

import (
	"math"

	"github.com/lucidcircuit/spicesim/pkg/mna"
	"github.com/lucidcircuit/spicesim/pkg/netlist"
	"github.com/lucidcircuit/spicesim/pkg/nodetable"
	"github.com/lucidcircuit/spicesim/pkg/solver"
)

// Sample is one solved time step: the time and the voltage at each
// requested output node.
type Sample struct {
	Time       float64
	NodeValues map[string]float64
}

// Result is the full ordered trajectory of one transient analysis.
type Result struct {
	Spec    netlist.TransientSpec
	Samples []Sample
}

// sourceVector forms e(t): each voltage source's value into its branch
// row, each current source's value stamped into its node rows, per
// spec.md 4.4 step 3/5.
func sourceVector(nl *netlist.Netlist, n int, t float64) []float64 {
	e := make([]float64, n)
	for _, v := range nl.VoltageSources {
		e[v.BranchRow] = v.ValueAt(t)
	}
	for _, c := range nl.CurrentSources {
		if c.Pos != 0 {
			e[c.Pos-1] -= c.ValueAt(t)
		}
		if c.Neg != 0 {
			e[c.Neg-1] += c.ValueAt(t)
		}
	}
	return e
}

func readNodes(nodes *nodetable.Table, x []float64, outputNodes []string) map[string]float64 {
	values := make(map[string]float64, len(outputNodes))
	for _, name := range outputNodes {
		id := nodes.Lookup(name)
		if id == 0 {
			values[name] = 0
			continue
		}
		values[name] = x[id-1]
	}
	return values
}

// RunDense executes one .TRAN analysis over a dense system. It scopes a
// transient view that is guaranteed to release (restoring the DC A and b)
// on every exit path, including solver errors.
func RunDense(spec netlist.TransientSpec, opts netlist.Options, nl *netlist.Netlist, nodes *nodetable.Table, sys *mna.DenseSystem, slv *solver.Solver, outputNodes []string) (*Result, error) {
	view := mna.NewDenseTransientView(sys, nl, nodes.Count(), spec.TimeStep, opts.TransientMethod)
	defer view.Release()

	n := sys.N
	e0 := sourceVector(nl, n, 0)
	x0, err := slv.Solve(e0)
	if err != nil {
		return nil, err
	}

	view.StepOperator()
	if err := slv.Refactor(); err != nil {
		return nil, err
	}

	res := &Result{Spec: spec}
	res.Samples = append(res.Samples, Sample{Time: 0, NodeValues: readNodes(nodes, x0, outputNodes)})

	xPrev := x0
	ePrev := e0
	steps := int(math.Floor(spec.FinTime / spec.TimeStep))
	for k := 1; k <= steps; k++ {
		t := float64(k) * spec.TimeStep
		eNow := sourceVector(nl, n, t)

		var b []float64
		if opts.TransientMethod == netlist.Trapezoidal {
			b = view.TrapezoidalRHS(eNow, ePrev, xPrev)
		} else {
			b = view.BackwardEulerRHS(eNow, xPrev)
		}

		x, err := slv.Solve(b)
		if err != nil {
			return nil, err
		}
		res.Samples = append(res.Samples, Sample{Time: t, NodeValues: readNodes(nodes, x, outputNodes)})
		xPrev, ePrev = x, eNow
	}

	// Restore the DC A/b (idempotent with the deferred Release above) and
	// refactor the Solver against it before handing control back, so a
	// subsequent DC sweep or transient sees a valid DC factorization
	// (spec.md 5's invalidate-on-reassign rule).
	view.Release()
	if err := slv.Refactor(); err != nil {
		return nil, err
	}

	return res, nil
}

// RunSparse mirrors RunDense over a sparse system.
func RunSparse(spec netlist.TransientSpec, opts netlist.Options, nl *netlist.Netlist, nodes *nodetable.Table, sys *mna.SparseSystem, slv *solver.Solver, outputNodes []string) (*Result, error) {
	view := mna.NewSparseTransientView(sys, nl, nodes.Count(), spec.TimeStep, opts.TransientMethod)
	defer view.Release()

	n := sys.N
	e0 := sourceVector(nl, n, 0)
	x0, err := slv.Solve(e0)
	if err != nil {
		return nil, err
	}

	view.StepOperator()
	if err := slv.Refactor(); err != nil {
		return nil, err
	}

	res := &Result{Spec: spec}
	res.Samples = append(res.Samples, Sample{Time: 0, NodeValues: readNodes(nodes, x0, outputNodes)})

	xPrev := x0
	ePrev := e0
	steps := int(math.Floor(spec.FinTime / spec.TimeStep))
	for k := 1; k <= steps; k++ {
		t := float64(k) * spec.TimeStep
		eNow := sourceVector(nl, n, t)

		var b []float64
		if opts.TransientMethod == netlist.Trapezoidal {
			b = view.TrapezoidalRHS(eNow, ePrev, xPrev)
		} else {
			b = view.BackwardEulerRHS(eNow, xPrev)
		}

		x, err := slv.Solve(b)
		if err != nil {
			return nil, err
		}
		res.Samples = append(res.Samples, Sample{Time: t, NodeValues: readNodes(nodes, x, outputNodes)})
		xPrev, ePrev = x, eNow
	}

	view.Release()
	if err := slv.Refactor(); err != nil {
		return nil, err
	}

	return res, nil
}
