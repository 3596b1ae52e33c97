package netlist

// ElementID is a per-kind dense integer assigned in parse order, used for
// deterministic row/column placement in the MNA system.
type ElementID int

// Resistor is a two-node passive element (pos, neg, value>0).
type Resistor struct {
	ID       ElementID
	Name     string
	Pos, Neg int
	Value    float64
}

// Capacitor is a two-node passive element (pos, neg, value>0).
type Capacitor struct {
	ID       ElementID
	Name     string
	Pos, Neg int
	Value    float64
}

// Inductor is a two-node passive element (pos, neg, value>0). Its BranchRow
// is assigned once the node table and voltage-source count are known (see
// Netlist.AssignBranchRows).
type Inductor struct {
	ID        ElementID
	Name      string
	Pos, Neg  int
	Value     float64
	BranchRow int
}

// VoltageSource is a two-node source (pos, neg, dc_value, optional
// waveform). BranchRow is assigned in parse order once the node count is
// known.
type VoltageSource struct {
	ID        ElementID
	Name      string
	Pos, Neg  int
	DCValue   float64
	Waveform  *Waveform
	BranchRow int
}

// ValueAt returns the source's instantaneous value at time t: its waveform
// if one is attached, otherwise its DC value (spec.md 4.4).
func (v *VoltageSource) ValueAt(t float64) float64 {
	if v.Waveform != nil {
		return v.Waveform.Eval(t)
	}
	return v.DCValue
}

// CurrentSource is a two-node source (pos, neg, dc_value, optional
// waveform).
type CurrentSource struct {
	ID       ElementID
	Name     string
	Pos, Neg int
	DCValue  float64
	Waveform *Waveform
}

// ValueAt returns the source's instantaneous value at time t.
func (c *CurrentSource) ValueAt(t float64) float64 {
	if c.Waveform != nil {
		return c.Waveform.Eval(t)
	}
	return c.DCValue
}

// Diode is a two-node semiconductor element. It is parsed and stored but,
// per spec.md 1 and 9, contributes no stamp to the linear core.
type Diode struct {
	ID       ElementID
	Name     string
	Pos, Neg int
	Model    string
}

// MOS is a four-node semiconductor element, parsed and stored only.
type MOS struct {
	ID                     ElementID
	Name                   string
	Drain, Gate, Source, Bulk int
	Model                  string
}

// BJT is a three-node semiconductor element, parsed and stored only.
type BJT struct {
	ID                    ElementID
	Name                  string
	Collector, Base, Emitter int
	Model                 string
}
