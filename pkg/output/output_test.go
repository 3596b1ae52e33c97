package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucidcircuit/spicesim/pkg/dcsweep"
	"github.com/lucidcircuit/spicesim/pkg/netlist"
	"github.com/lucidcircuit/spicesim/pkg/nodetable"
	"github.com/lucidcircuit/spicesim/pkg/transient"
)

func TestStripNumberDropsTrailingZerosAndDot(t *testing.T) {
	cases := map[float64]string{
		0:      "0",
		10:     "10",
		1.5:    "1.5",
		-5:     "-5",
		0.0001: "0.0001",
	}
	for in, want := range cases {
		assert.Equal(t, want, stripNumber(in), "stripNumber(%v)", in)
	}
}

func TestDCSweepFileNameMatchesSeedScenario(t *testing.T) {
	sweep := netlist.DCSweep{Kind: netlist.VoltageSweep, SourceName: "1", Start: 0, End: 10, Step: 1}
	got := dcSweepFileName(sweep, "1")
	assert.Equal(t, "V1_0_10_1_V(1).dat", got, "trailing-zero stripping must not leave 0.000000-style names")
}

func TestCurrentSweepFileNameUsesIPrefix(t *testing.T) {
	sweep := netlist.DCSweep{Kind: netlist.CurrentSweep, SourceName: "1", Start: 0, End: 2e-3, Step: 1e-3}
	got := dcSweepFileName(sweep, "2")
	assert.Equal(t, "I1_0_0.002_0.001_V(2).dat", got)
}

func TestTransientFileName(t *testing.T) {
	spec := netlist.TransientSpec{TimeStep: 1e-3, FinTime: 10e-3}
	got := transientFileName(spec, "2")
	assert.Equal(t, "tran_0.001_0.01_V(2).dat", got)
}

func TestWriteDCOperatingPoint(t *testing.T) {
	nodes := nodetable.New()
	nodes.Lookup("1")
	nl := netlist.New()
	require.NoError(t, nl.AddVoltageSource(&netlist.VoltageSource{Name: "V1", Pos: 1, Neg: 0, DCValue: 5, BranchRow: 1}))

	path := filepath.Join(t.TempDir(), "dc_op.dat")
	x := []float64{5, 0.005}
	require.NoError(t, WriteDCOperatingPoint(path, nl, nodes, x))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "1 5")
	assert.Contains(t, string(data), "V1 0.005")
}

func TestWriteDCSweepResultOneFilePerNode(t *testing.T) {
	res := &dcsweep.Result{
		Sweep: netlist.DCSweep{Kind: netlist.VoltageSweep, SourceName: "1", Start: 0, End: 1, Step: 1},
		Points: []dcsweep.Point{
			{SourceValue: 0, NodeValues: map[string]float64{"1": 0, "2": 0}},
			{SourceValue: 1, NodeValues: map[string]float64{"1": 1, "2": 0.5}},
		},
	}
	dir := t.TempDir()
	require.NoError(t, WriteDCSweepResult(dir, res))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestWriteTransientResult(t *testing.T) {
	res := &transient.Result{
		Spec: netlist.TransientSpec{TimeStep: 1e-3, FinTime: 2e-3},
		Samples: []transient.Sample{
			{Time: 0, NodeValues: map[string]float64{"2": 0}},
			{Time: 1e-3, NodeValues: map[string]float64{"2": 3}},
		},
	}
	dir := t.TempDir()
	require.NoError(t, WriteTransientResult(dir, res))

	path := filepath.Join(dir, "tran_0.001_0.002_V(2).dat")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "0.001 3")
}

func TestWriteNetlistEchoFiltersOptionsWhenBypassing(t *testing.T) {
	src := "V1 1 0 5\n.OPTIONS SPD\nR1 1 0 1k\n"
	path := filepath.Join(t.TempDir(), "echo.cir")

	require.NoError(t, WriteNetlistEcho(path, src, true))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), ".OPTIONS")
	assert.Contains(t, string(data), "R1 1 0 1k")
}

func TestWriteNetlistEchoKeepsOptionsWhenNotBypassing(t *testing.T) {
	src := "V1 1 0 5\n.OPTIONS SPD\n"
	path := filepath.Join(t.TempDir(), "echo.cir")

	require.NoError(t, WriteNetlistEcho(path, src, false))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), ".OPTIONS")
}
