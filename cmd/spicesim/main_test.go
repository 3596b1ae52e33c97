package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lucidcircuit/spicesim/pkg/netlist"
)

func TestSplitSweepsKeepsDeclarationOrderWithinKind(t *testing.T) {
	sweeps := []netlist.DCSweep{
		{Kind: netlist.CurrentSweep, SourceName: "I1"},
		{Kind: netlist.VoltageSweep, SourceName: "V1"},
		{Kind: netlist.VoltageSweep, SourceName: "V2"},
		{Kind: netlist.CurrentSweep, SourceName: "I2"},
	}

	voltage, current := splitSweeps(sweeps)

	assert.Equal(t, []string{"V1", "V2"}, names(voltage))
	assert.Equal(t, []string{"I1", "I2"}, names(current))
}

func names(sweeps []netlist.DCSweep) []string {
	out := make([]string, len(sweeps))
	for i, s := range sweeps {
		out[i] = s.SourceName
	}
	return out
}
