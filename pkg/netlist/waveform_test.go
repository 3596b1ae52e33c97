package netlist

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpWaveformHoldsBeforeTd1(t *testing.T) {
	w := NewExp(0, 5, 1, 0.1, 2, 0.1)
	assert.Equal(t, 0.0, w.Eval(0))
	assert.Equal(t, 0.0, w.Eval(1))
}

func TestExpWaveformRisesBetweenDelays(t *testing.T) {
	w := NewExp(0, 5, 1, 0.1, 2, 0.1)
	got := w.Eval(1.1)
	want := 0 + 5*(1-math.Exp(-0.1/0.1))
	assert.InDelta(t, want, got, 1e-9)
}

func TestExpWaveformDecaysAfterSecondDelay(t *testing.T) {
	w := NewExp(0, 5, 1, 0.1, 2, 0.1)
	got := w.Eval(2.1)
	want := 0 + 5*(math.Exp(-0.1/0.1)-math.Exp(-1.1/0.1))
	assert.InDelta(t, want, got, 1e-9)
}

func TestSinWaveformHoldsBeforeDelay(t *testing.T) {
	w := NewSin(1, 2, 60, 0.5, 0, 0)
	assert.Equal(t, 1.0, w.Eval(0))
	assert.Equal(t, 1.0, w.Eval(0.5))
}

func TestSinWaveformOscillatesAfterDelay(t *testing.T) {
	w := NewSin(0, 1, 1, 0, 0, 0)
	// at t=0.25 with fr=1Hz, phase = 2*pi*0.25 = pi/2, sin = 1
	assert.InDelta(t, 1.0, w.Eval(0.25), 1e-9)
}

func TestSinWaveformAppliesDamping(t *testing.T) {
	w := NewSin(0, 1, 1, 0, 1, 0)
	undamped := 1 * math.Sin(2*math.Pi*1*0.25)
	damped := undamped * math.Exp(-0.25)
	assert.InDelta(t, damped, w.Eval(0.25), 1e-9)
}

func TestPulseWaveformSegments(t *testing.T) {
	w := NewPulse(0, 1, 1, 1, 1, 2, 0)
	assert.Equal(t, 0.0, w.Eval(0.5), "before td holds i1")
	assert.InDelta(t, 0.5, w.Eval(1.5), 1e-9, "mid-rise ramps linearly")
	assert.Equal(t, 1.0, w.Eval(2.5), "plateau holds i2")
	assert.InDelta(t, 0.5, w.Eval(4.5), 1e-9, "mid-fall ramps linearly")
	assert.Equal(t, 0.0, w.Eval(6), "after fall holds i1")
}

func TestPulseWaveformRepeatsWithPeriod(t *testing.T) {
	w := NewPulse(0, 1, 0, 1, 1, 1, 4)
	first := w.Eval(0.5)
	second := w.Eval(4.5)
	assert.InDelta(t, first, second, 1e-9, "pulse must repeat every Per seconds")
}

func TestPWLWaveformInterpolatesLinearly(t *testing.T) {
	w := NewPWL([]float64{0, 1, 2}, []float64{0, 10, 0})
	assert.Equal(t, 0.0, w.Eval(0))
	assert.Equal(t, 10.0, w.Eval(1))
	assert.InDelta(t, 5.0, w.Eval(0.5), 1e-9)
	assert.InDelta(t, 5.0, w.Eval(1.5), 1e-9)
}

func TestPWLWaveformClampsOutsideRange(t *testing.T) {
	w := NewPWL([]float64{1, 2}, []float64{3, 4})
	assert.Equal(t, 3.0, w.Eval(0))
	assert.Equal(t, 4.0, w.Eval(5))
}

func TestVoltageSourceValueAtPrefersWaveform(t *testing.T) {
	v := &VoltageSource{DCValue: 1, Waveform: NewExp(0, 5, 1, 0.1, 2, 0.1)}
	assert.Equal(t, 0.0, v.ValueAt(0))

	vDCOnly := &VoltageSource{DCValue: 3}
	assert.Equal(t, 3.0, vDCOnly.ValueAt(100))
}

func TestCurrentSourceValueAtPrefersWaveform(t *testing.T) {
	c := &CurrentSource{DCValue: 2, Waveform: NewPWL([]float64{0, 1}, []float64{0, 4})}
	assert.InDelta(t, 2.0, c.ValueAt(0.5), 1e-9)

	cDCOnly := &CurrentSource{DCValue: 7}
	assert.Equal(t, 7.0, cDCOnly.ValueAt(100))
}
