package mna

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDenseSystemStampAccumulates(t *testing.T) {
	sys := NewDenseSystem(2)
	sys.Stamp(0, 0, 1)
	sys.Stamp(0, 0, 2)
	assert.Equal(t, 3.0, sys.A.At(0, 0))
}

func TestDenseSystemSetRHSOverwrites(t *testing.T) {
	sys := NewDenseSystem(1)
	sys.StampRHS(0, 5)
	sys.SetRHS(0, 9)
	assert.Equal(t, 9.0, sys.B[0])
}

func TestDenseSystemReset(t *testing.T) {
	sys := NewDenseSystem(2)
	sys.Stamp(0, 0, 1)
	sys.StampRHS(1, 3)
	sys.Reset()
	assert.Equal(t, 0.0, sys.A.At(0, 0))
	assert.Equal(t, []float64{0, 0}, sys.B)
}

func TestDenseSystemCloneAndRestore(t *testing.T) {
	sys := NewDenseSystem(2)
	sys.Stamp(0, 0, 5)
	sys.StampRHS(0, 7)

	a, b := sys.CloneAB()

	sys.Stamp(0, 0, 100)
	sys.SetRHS(0, 999)

	sys.RestoreAB(a, b)
	assert.Equal(t, 5.0, sys.A.At(0, 0))
	assert.Equal(t, 7.0, sys.B[0])
}
