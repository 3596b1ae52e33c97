// Package dcsweep reparametrizes a DC system's RHS over a swept voltage or
// current source, repeatedly calling the Solver and collecting per-node
// trajectories, per spec.md 4.3.
package dcsweep

import (
	"fmt"
	"math"

	"github.com/lucidcircuit/spicesim/pkg/netlist"
	"github.com/lucidcircuit/spicesim/pkg/nodetable"
	"github.com/lucidcircuit/spicesim/pkg/solver"
)

// Point is one solved sweep step: the swept source's value and the
// resulting voltage at each requested output node, keyed by node name.
type Point struct {
	SourceValue float64
	NodeValues  map[string]float64
}

// Result is the full ordered trajectory of one sweep.
type Result struct {
	Sweep  netlist.DCSweep
	Points []Point
}

// Run executes one declared sweep against baseB (the DC system's current
// RHS, left untouched) and returns the ordered per-point trajectory.
// Output rows are strictly increasing in src_value, per spec.md 4.3's
// ordering guarantee.
func Run(sweep netlist.DCSweep, nl *netlist.Netlist, nodes *nodetable.Table, baseB []float64, slv *solver.Solver, outputNodes []string) (*Result, error) {
	switch sweep.Kind {
	case netlist.VoltageSweep:
		return runVoltageSweep(sweep, nl, nodes, baseB, slv, outputNodes)
	case netlist.CurrentSweep:
		return runCurrentSweep(sweep, nl, nodes, baseB, slv, outputNodes)
	default:
		return nil, fmt.Errorf("dcsweep: unknown sweep kind %v", sweep.Kind)
	}
}

func runVoltageSweep(sweep netlist.DCSweep, nl *netlist.Netlist, nodes *nodetable.Table, baseB []float64, slv *solver.Solver, outputNodes []string) (*Result, error) {
	vs := nl.FindVoltageSource(sweep.SourceName)
	if vs == nil {
		return nil, fmt.Errorf("dcsweep: unknown voltage source %q", sweep.SourceName)
	}

	res := &Result{Sweep: sweep}
	err := forEachSweepValue(sweep, func(srcValue float64) error {
		bNew := append([]float64(nil), baseB...)
		bNew[vs.BranchRow] = srcValue

		x, err := slv.Solve(bNew)
		if err != nil {
			return err
		}
		res.Points = append(res.Points, Point{SourceValue: srcValue, NodeValues: readNodes(nodes, x, outputNodes)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func runCurrentSweep(sweep netlist.DCSweep, nl *netlist.Netlist, nodes *nodetable.Table, baseB []float64, slv *solver.Solver, outputNodes []string) (*Result, error) {
	cs := nl.FindCurrentSource(sweep.SourceName)
	if cs == nil {
		return nil, fmt.Errorf("dcsweep: unknown current source %q", sweep.SourceName)
	}

	res := &Result{Sweep: sweep}
	err := forEachSweepValue(sweep, func(srcValue float64) error {
		bNew := append([]float64(nil), baseB...)
		// Undo the DC stamp (b[p] -= I, b[n] += I) by adding the original
		// value back, then stamp the new sweep value with the same
		// convention, per spec.md 4.3/9.
		stampCurrent(bNew, cs.Pos, cs.Neg, -cs.DCValue)
		stampCurrent(bNew, cs.Pos, cs.Neg, srcValue)

		x, err := slv.Solve(bNew)
		if err != nil {
			return err
		}
		res.Points = append(res.Points, Point{SourceValue: srcValue, NodeValues: readNodes(nodes, x, outputNodes)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// stampCurrent applies b[p] -= I, b[n] += I, subject to the ground-skip
// rule, consistent with mna.stampCurrentSource's convention.
func stampCurrent(b []float64, pos, neg int, current float64) {
	if pos != 0 {
		b[pos-1] -= current
	}
	if neg != 0 {
		b[neg-1] += current
	}
}

// forEachSweepValue walks src_value from start to end (inclusive within
// tolerance) by step, invoking fn at each point in increasing order.
func forEachSweepValue(sweep netlist.DCSweep, fn func(srcValue float64) error) error {
	src := sweep.Start
	for {
		tol := 0.0001 * math.Max(math.Abs(src), math.Abs(sweep.End))
		if src > sweep.End && math.Abs(src-sweep.End) >= tol {
			break
		}
		if err := fn(src); err != nil {
			return err
		}
		src += sweep.Step
	}
	return nil
}

// readNodes evaluates the requested V(node) outputs from a solved x,
// returning 0 for ground without consulting x (ground is never a row).
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
