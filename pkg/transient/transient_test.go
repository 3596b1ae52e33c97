package transient

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucidcircuit/spicesim/pkg/mna"
	"github.com/lucidcircuit/spicesim/pkg/netlist"
	"github.com/lucidcircuit/spicesim/pkg/nodetable"
	"github.com/lucidcircuit/spicesim/pkg/solver"
)

// rcStepSetup builds V1(1,0) - R1(1,2,1k) - C1(2,0,1u), an RC low-pass
// driven by a step: V1 is 5V at DC, and its PULSE waveform is 0V at t=0 and
// 5V from then on, mirroring the transient step-response seed scenario.
func rcStepSetup(t *testing.T) (*netlist.Netlist, *nodetable.Table, *mna.DenseSystem, *solver.Solver) {
	t.Helper()
	nodes := nodetable.New()
	nodes.Lookup("1")
	nodes.Lookup("2")
	nl := netlist.New()
	require.NoError(t, nl.AddVoltageSource(&netlist.VoltageSource{Name: "V1", Pos: 1, Neg: 0, DCValue: 5, Waveform: netlist.NewPulse(0, 5, 0, 0, 0, 1, 0)}))
	require.NoError(t, nl.AddResistor(&netlist.Resistor{Name: "R1", Pos: 1, Neg: 2, Value: 1000}))
	require.NoError(t, nl.AddCapacitor(&netlist.Capacitor{Name: "C1", Pos: 2, Neg: 0, Value: 1e-6}))
	nl.AssignBranchRows(nodes.Count())

	sys := mna.AssembleDense(nl, nodes.Count())
	slv, err := solver.NewDense(sys, netlist.Options{ITol: 1e-9})
	require.NoError(t, err)
	return nl, nodes, sys, slv
}

func TestRunDenseProducesOneSampleAtEachStep(t *testing.T) {
	nl, nodes, sys, slv := rcStepSetup(t)
	spec := netlist.TransientSpec{TimeStep: 1e-4, FinTime: 1e-3}

	res, err := RunDense(spec, netlist.Options{TransientMethod: netlist.BackwardEuler}, nl, nodes, sys, slv, []string{"2"})
	require.NoError(t, err)

	require.Len(t, res.Samples, 11) // t=0 plus 10 steps of 1e-4 up to 1e-3
	assert.Equal(t, 0.0, res.Samples[0].Time)
	assert.InDelta(t, 1e-3, res.Samples[len(res.Samples)-1].Time, 1e-12)
}

func TestRunDenseApproachesSteadyState(t *testing.T) {
	nl, nodes, sys, slv := rcStepSetup(t)
	// tau = R*C = 1ms; run for 10*tau so the capacitor is essentially charged.
	spec := netlist.TransientSpec{TimeStep: 1e-4, FinTime: 10e-3}

	res, err := RunDense(spec, netlist.Options{TransientMethod: netlist.BackwardEuler}, nl, nodes, sys, slv, []string{"2"})
	require.NoError(t, err)

	last := res.Samples[len(res.Samples)-1]
	assert.InDelta(t, 5.0, last.NodeValues["2"], 0.01, "node 2 should approach the 5V supply")
}

func TestRunDenseFollowsExponentialChargeCurve(t *testing.T) {
	nl, nodes, sys, slv := rcStepSetup(t)
	tau := 1000.0 * 1e-6 // R*C
	spec := netlist.TransientSpec{TimeStep: 1e-6, FinTime: tau}

	res, err := RunDense(spec, netlist.Options{TransientMethod: netlist.BackwardEuler}, nl, nodes, sys, slv, []string{"2"})
	require.NoError(t, err)

	last := res.Samples[len(res.Samples)-1]
	want := 5.0 * (1 - math.Exp(-1))
	assert.InDelta(t, want, last.NodeValues["2"], 0.05, "one time constant should reach ~63%% of the step")
}

func TestRunDenseRestoresDCStateForSubsequentSolves(t *testing.T) {
	nl, nodes, sys, slv := rcStepSetup(t)
	spec := netlist.TransientSpec{TimeStep: 1e-4, FinTime: 1e-3}

	dcX, err := slv.Solve(sys.B)
	require.NoError(t, err)

	_, err = RunDense(spec, netlist.Options{TransientMethod: netlist.BackwardEuler}, nl, nodes, sys, slv, []string{"2"})
	require.NoError(t, err)

	dcX2, err := slv.Solve(sys.B)
	require.NoError(t, err)
	for i := range dcX {
		assert.InDelta(t, dcX[i], dcX2[i], 1e-9, "solver must see the same DC system after a transient run completes")
	}
}

func TestRunDenseNoReactiveElementsMatchesDCOperatingPoint(t *testing.T) {
	nodes := nodetable.New()
	nodes.Lookup("1")
	nl := netlist.New()
	require.NoError(t, nl.AddVoltageSource(&netlist.VoltageSource{Name: "V1", Pos: 1, Neg: 0, DCValue: 5}))
	require.NoError(t, nl.AddResistor(&netlist.Resistor{Name: "R1", Pos: 1, Neg: 0, Value: 1000}))
	nl.AssignBranchRows(nodes.Count())

	sys := mna.AssembleDense(nl, nodes.Count())
	slv, err := solver.NewDense(sys, netlist.Options{ITol: 1e-9})
	require.NoError(t, err)

	spec := netlist.TransientSpec{TimeStep: 1e-4, FinTime: 5e-4}
	res, err := RunDense(spec, netlist.Options{TransientMethod: netlist.BackwardEuler}, nl, nodes, sys, slv, []string{"1"})
	require.NoError(t, err)

	for _, s := range res.Samples {
		assert.InDelta(t, 5.0, s.NodeValues["1"], 1e-9, "no reactive elements means every step equals the DC solution")
	}
}

func TestRunDenseTrapezoidalAlsoConverges(t *testing.T) {
	nl, nodes, sys, slv := rcStepSetup(t)
	spec := netlist.TransientSpec{TimeStep: 1e-4, FinTime: 10e-3}

	res, err := RunDense(spec, netlist.Options{TransientMethod: netlist.Trapezoidal}, nl, nodes, sys, slv, []string{"2"})
	require.NoError(t, err)

	last := res.Samples[len(res.Samples)-1]
	assert.InDelta(t, 5.0, last.NodeValues["2"], 0.01)
}
