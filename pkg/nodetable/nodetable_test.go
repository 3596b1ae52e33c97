package nodetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroundAlwaysZero(t *testing.T) {
	tbl := New()
	assert.Equal(t, 0, tbl.Lookup("0"))
	assert.Equal(t, 0, tbl.Lookup("gnd"))
	assert.Equal(t, 0, tbl.Lookup("GND"))
}

func TestLookupAssignsFirstSeenOrder(t *testing.T) {
	tbl := New()
	a := tbl.Lookup("a")
	b := tbl.Lookup("b")
	aAgain := tbl.Lookup("a")

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
	assert.Equal(t, a, aAgain, "repeated lookups of the same name must return the same id")
}

func TestCountIncludesGround(t *testing.T) {
	tbl := New()
	require.Equal(t, 1, tbl.Count())
	tbl.Lookup("a")
	tbl.Lookup("b")
	assert.Equal(t, 3, tbl.Count())
}

func TestNameRoundTrips(t *testing.T) {
	tbl := New()
	id := tbl.Lookup("out")
	assert.Equal(t, "out", tbl.Name(id))
	assert.Equal(t, "0", tbl.Name(0))
	assert.Equal(t, "", tbl.Name(99))
}

func TestNonGroundNamesExcludesGround(t *testing.T) {
	tbl := New()
	tbl.Lookup("in")
	tbl.Lookup("out")
	assert.Equal(t, []string{"in", "out"}, tbl.NonGroundNames())
}

func TestNonGroundNamesEmptyWhenOnlyGround(t *testing.T) {
	tbl := New()
	assert.Nil(t, tbl.NonGroundNames())
}
