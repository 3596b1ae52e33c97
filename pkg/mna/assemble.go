package mna

import "github.com/lucidcircuit/spicesim/pkg/netlist"

// row converts a 0-based node id to a 0-based system row, returning
// (row, ok) where ok is false for ground (skip the stamp entirely), per
// the ground-skip invariant in spec.md 3.
func row(node int) (int, bool) {
	if node == 0 {
		return 0, false
	}
	return node - 1, true
}

// AssembleDense builds the DC formulation G*x = e as a dense system, per
// the stamps in spec.md 4.1.
func AssembleDense(nl *netlist.Netlist, nodeCount int) *DenseSystem {
	n := nl.Dimension(nodeCount)
	sys := NewDenseSystem(n)
	stampDC(nl, denseStamper{sys})
	return sys
}

// AssembleSparse builds the same DC formulation as a triplet-backed sparse
// system, with capacity pre-reserved to 4*(R+V+L) per spec.md 4.1.
func AssembleSparse(nl *netlist.Netlist, nodeCount int) *SparseSystem {
	n := nl.Dimension(nodeCount)
	capacityHint := 4 * (len(nl.Resistors) + len(nl.VoltageSources) + len(nl.Inductors))
	sys := NewSparseSystem(n, capacityHint)
	stampDC(nl, sparseStamper{sys})
	return sys
}

// AssembleCompanionDense builds the transient companion matrix C (dense),
// per spec.md 4.1: capacitor four-point stamps plus inductor branch-row
// stamps.
func AssembleCompanionDense(nl *netlist.Netlist, nodeCount int) *DenseSystem {
	n := nl.Dimension(nodeCount)
	sys := NewDenseSystem(n)
	stampCompanion(nl, denseStamper{sys})
	return sys
}

// AssembleCompanionSparse builds the transient companion matrix C (sparse).
func AssembleCompanionSparse(nl *netlist.Netlist, nodeCount int) *SparseSystem {
	n := nl.Dimension(nodeCount)
	capacityHint := 4 * (len(nl.Capacitors) + len(nl.Inductors))
	sys := NewSparseSystem(n, capacityHint)
	stampCompanion(nl, sparseStamper{sys})
	return sys
}

// stamper is the minimal sink the two representation-specific stamp passes
// write through. It exists only to avoid writing stampDC/stampCompanion
// twice; it is not used anywhere near the solver's per-iteration hot loop,
// so it does not reintroduce the dynamic dispatch the assembler itself
// must avoid (spec.md 9).
type stamper interface {
	stamp(i, j int, v float64)
	stampRHS(i int, v float64)
	setRHS(i int, v float64)
}

type denseStamper struct{ sys *DenseSystem }

func (d denseStamper) stamp(i, j int, v float64)   { d.sys.Stamp(i, j, v) }
func (d denseStamper) stampRHS(i int, v float64)   { d.sys.StampRHS(i, v) }
func (d denseStamper) setRHS(i int, v float64)     { d.sys.SetRHS(i, v) }

type sparseStamper struct{ sys *SparseSystem }

func (s sparseStamper) stamp(i, j int, v float64) { s.sys.Stamp(i, j, v) }
func (s sparseStamper) stampRHS(i int, v float64) { s.sys.StampRHS(i, v) }
func (s sparseStamper) setRHS(i int, v float64)   { s.sys.SetRHS(i, v) }

func stampDC(nl *netlist.Netlist, s stamper) {
	for _, r := range nl.Resistors {
		stampResistor(s, r.Pos, r.Neg, 1/r.Value)
	}
	for _, c := range nl.CurrentSources {
		stampCurrentSource(s, c.Pos, c.Neg, c.DCValue)
	}
	for _, v := range nl.VoltageSources {
		stampBranchSource(s, v.Pos, v.Neg, v.BranchRow, v.DCValue)
	}
	for _, l := range nl.Inductors {
		stampBranchSource(s, l.Pos, l.Neg, l.BranchRow, 0)
	}
}

func stampCompanion(nl *netlist.Netlist, s stamper) {
	for _, c := range nl.Capacitors {
		stampResistor(s, c.Pos, c.Neg, c.Value)
	}
	for _, l := range nl.Inductors {
		s.stamp(l.BranchRow, l.BranchRow, -l.Value)
	}
}

// stampResistor applies the symmetric four-point conductance stamp shared
// by resistors (g=1/R) and, in the companion matrix, capacitors (g=C).
func stampResistor(s stamper, pos, neg int, g float64) {
	p, pOK := row(pos)
	n, nOK := row(neg)
	if pOK {
		s.stamp(p, p, g)
	}
	if nOK {
		s.stamp(n, n, g)
	}
	if pOK && nOK {
		s.stamp(p, n, -g)
		s.stamp(n, p, -g)
	}
}

func stampCurrentSource(s stamper, pos, neg int, current float64) {
	if p, ok := row(pos); ok {
		s.stampRHS(p, -current)
	}
	if n, ok := row(neg); ok {
		s.stampRHS(n, current)
	}
}

// stampBranchSource applies the voltage-source (or zero-volt inductor)
// branch stamp at row r: A[r,p]+=1, A[p,r]+=1, A[r,n]-=1, A[n,r]-=1,
// b[r]=value, subject to the ground-skip rule.
func stampBranchSource(s stamper, pos, neg, r int, value float64) {
	if p, ok := row(pos); ok {
		s.stamp(r, p, 1)
		s.stamp(p, r, 1)
	}
	if n, ok := row(neg); ok {
		s.stamp(r, n, -1)
		s.stamp(n, r, -1)
	}
	s.setRHS(r, value)
}
