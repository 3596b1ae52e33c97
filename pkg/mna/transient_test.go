package mna

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucidcircuit/spicesim/pkg/netlist"
)

// rcNetlist builds V1(1,0,5V) - R1(1,2,1k) - C1(2,0,1u), a one-pole RC
// low-pass, mirroring the transient step-response seed scenario.
func rcNetlist(t *testing.T) (*netlist.Netlist, int) {
	t.Helper()
	nl := netlist.New()
	require.NoError(t, nl.AddVoltageSource(&netlist.VoltageSource{Name: "V1", Pos: 1, Neg: 0, DCValue: 5}))
	require.NoError(t, nl.AddResistor(&netlist.Resistor{Name: "R1", Pos: 1, Neg: 2, Value: 1000}))
	require.NoError(t, nl.AddCapacitor(&netlist.Capacitor{Name: "C1", Pos: 2, Neg: 0, Value: 1e-6}))
	nodeCount := 3
	nl.AssignBranchRows(nodeCount)
	return nl, nodeCount
}

func TestDenseTransientViewReleaseRestoresDCState(t *testing.T) {
	nl, nodeCount := rcNetlist(t)
	sys := AssembleDense(nl, nodeCount)
	a0, b0 := sys.CloneAB()

	view := NewDenseTransientView(sys, nl, nodeCount, 1e-4, netlist.BackwardEuler)
	view.StepOperator()
	assert.NotEqual(t, a0.At(1, 1), sys.A.At(1, 1), "StepOperator must mutate A in place")

	view.Release()
	assert.Equal(t, a0.At(1, 1), sys.A.At(1, 1))
	assert.Equal(t, b0, sys.B)
}

func TestDenseTransientViewBackwardEulerOperatorAddsCOverH(t *testing.T) {
	nl, nodeCount := rcNetlist(t)
	sys := AssembleDense(nl, nodeCount)
	gBefore := sys.A.At(1, 1)

	h := 1e-4
	view := NewDenseTransientView(sys, nl, nodeCount, h, netlist.BackwardEuler)
	view.StepOperator()

	want := gBefore + 1e-6/h
	assert.InDelta(t, want, sys.A.At(1, 1), 1e-9)
}

func TestDenseTransientViewTrapezoidalOperatorAddsTwoCOverH(t *testing.T) {
	nl, nodeCount := rcNetlist(t)
	sys := AssembleDense(nl, nodeCount)
	gBefore := sys.A.At(1, 1)

	h := 1e-4
	view := NewDenseTransientView(sys, nl, nodeCount, h, netlist.Trapezoidal)
	view.StepOperator()

	want := gBefore + 2*1e-6/h
	assert.InDelta(t, want, sys.A.At(1, 1), 1e-9)
}

func TestSparseTransientViewReleaseRestoresDCState(t *testing.T) {
	nl, nodeCount := rcNetlist(t)
	sys := AssembleSparse(nl, nodeCount)
	diagBefore := append([]float64(nil), sys.CSRMatrix().Diag()...)
	bBefore := append([]float64(nil), sys.B...)

	view := NewSparseTransientView(sys, nl, nodeCount, 1e-4, netlist.BackwardEuler)
	view.StepOperator()
	assert.NotEqual(t, diagBefore, sys.CSRMatrix().Diag())

	view.Release()
	assert.Equal(t, diagBefore, sys.CSRMatrix().Diag())
	assert.Equal(t, bBefore, sys.B)
}
