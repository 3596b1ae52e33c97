package dcsweep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucidcircuit/spicesim/pkg/mna"
	"github.com/lucidcircuit/spicesim/pkg/netlist"
	"github.com/lucidcircuit/spicesim/pkg/nodetable"
	"github.com/lucidcircuit/spicesim/pkg/solver"
)

func dividerSetup(t *testing.T) (*netlist.Netlist, *nodetable.Table, *mna.DenseSystem, *solver.Solver) {
	t.Helper()
	nodes := nodetable.New()
	nl := netlist.New()
	nodes.Lookup("1")
	nodes.Lookup("2")
	require.NoError(t, nl.AddVoltageSource(&netlist.VoltageSource{Name: "V1", Pos: 1, Neg: 0, DCValue: 0}))
	require.NoError(t, nl.AddResistor(&netlist.Resistor{Name: "R1", Pos: 1, Neg: 2, Value: 1000}))
	require.NoError(t, nl.AddResistor(&netlist.Resistor{Name: "R2", Pos: 2, Neg: 0, Value: 1000}))
	nl.AssignBranchRows(nodes.Count())

	sys := mna.AssembleDense(nl, nodes.Count())
	slv, err := solver.NewDense(sys, netlist.Options{ITol: 1e-9})
	require.NoError(t, err)
	return nl, nodes, sys, slv
}

func TestVoltageSweepProducesExpectedRowCountAndOrdering(t *testing.T) {
	nl, nodes, sys, slv := dividerSetup(t)
	sweep := netlist.DCSweep{Kind: netlist.VoltageSweep, SourceName: "V1", Start: 0, End: 10, Step: 1}

	res, err := Run(sweep, nl, nodes, sys.B, slv, []string{"1", "2"})
	require.NoError(t, err)

	require.Len(t, res.Points, 11, "0..10 inclusive at step 1 is 11 points")
	for i, p := range res.Points {
		assert.Equal(t, float64(i), p.SourceValue)
		// equal-value divider: node 2 always holds half of node 1.
		assert.InDelta(t, p.NodeValues["1"]/2, p.NodeValues["2"], 1e-9)
	}
}

func TestVoltageSweepUnknownSourceErrors(t *testing.T) {
	nl, nodes, sys, slv := dividerSetup(t)
	sweep := netlist.DCSweep{Kind: netlist.VoltageSweep, SourceName: "V99", Start: 0, End: 1, Step: 1}
	_, err := Run(sweep, nl, nodes, sys.B, slv, nil)
	assert.Error(t, err)
}

func TestCurrentSweepStampsReplaceDCValue(t *testing.T) {
	nodes := nodetable.New()
	nl := netlist.New()
	nodes.Lookup("1")
	require.NoError(t, nl.AddCurrentSource(&netlist.CurrentSource{Name: "I1", Pos: 1, Neg: 0, DCValue: 1e-3}))
	require.NoError(t, nl.AddResistor(&netlist.Resistor{Name: "R1", Pos: 1, Neg: 0, Value: 1000}))
	nl.AssignBranchRows(nodes.Count())

	sys := mna.AssembleDense(nl, nodes.Count())
	slv, err := solver.NewDense(sys, netlist.Options{ITol: 1e-9})
	require.NoError(t, err)

	sweep := netlist.DCSweep{Kind: netlist.CurrentSweep, SourceName: "I1", Start: 0, End: 2e-3, Step: 1e-3}
	res, err := Run(sweep, nl, nodes, sys.B, slv, []string{"1"})
	require.NoError(t, err)

	require.Len(t, res.Points, 3)
	// V = -I*R under the n+/n- stamp convention (b[pos]-=I, b[neg]+=I).
	assert.InDelta(t, 0.0, res.Points[0].NodeValues["1"], 1e-9)
	assert.InDelta(t, -1.0, res.Points[1].NodeValues["1"], 1e-9)
	assert.InDelta(t, -2.0, res.Points[2].NodeValues["1"], 1e-9)
}

func TestSweepStopsOnceNextStepOvershootsEnd(t *testing.T) {
	nl, nodes, sys, slv := dividerSetup(t)
	sweep := netlist.DCSweep{Kind: netlist.VoltageSweep, SourceName: "V1", Start: 0, End: 1, Step: 0.3}
	res, err := Run(sweep, nl, nodes, sys.B, slv, []string{"1"})
	require.NoError(t, err)
	// 0, 0.3, 0.6, 0.9 -- next step (1.2) exceeds End+tol so the walk stops.
	assert.Len(t, res.Points, 4)
}
