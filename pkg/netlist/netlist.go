package netlist

import "fmt"

// Netlist is the typed, by-kind collection of parsed circuit elements.
// Containers are separated by kind so the MNA assembler walks one
// monomorphic slice per kind instead of dispatching through a common
// element interface (spec.md 9).
type Netlist struct {
	Resistors      []*Resistor
	Capacitors     []*Capacitor
	Inductors      []*Inductor
	VoltageSources []*VoltageSource
	CurrentSources []*CurrentSource
	Diodes         []*Diode
	MOSes          []*MOS
	BJTs           []*BJT

	names map[string]bool
}

// New returns an empty netlist.
func New() *Netlist {
	return &Netlist{names: make(map[string]bool)}
}

func (nl *Netlist) claimName(name string) error {
	if nl.names[name] {
		return fmt.Errorf("netlist: duplicate element name %q", name)
	}
	nl.names[name] = true
	return nil
}

func (nl *Netlist) AddResistor(r *Resistor) error {
	if err := nl.claimName(r.Name); err != nil {
		return err
	}
	r.ID = ElementID(len(nl.Resistors))
	nl.Resistors = append(nl.Resistors, r)
	return nil
}

func (nl *Netlist) AddCapacitor(c *Capacitor) error {
	if err := nl.claimName(c.Name); err != nil {
		return err
	}
	c.ID = ElementID(len(nl.Capacitors))
	nl.Capacitors = append(nl.Capacitors, c)
	return nil
}

func (nl *Netlist) AddInductor(l *Inductor) error {
	if err := nl.claimName(l.Name); err != nil {
		return err
	}
	l.ID = ElementID(len(nl.Inductors))
	nl.Inductors = append(nl.Inductors, l)
	return nil
}

func (nl *Netlist) AddVoltageSource(v *VoltageSource) error {
	if err := nl.claimName(v.Name); err != nil {
		return err
	}
	v.ID = ElementID(len(nl.VoltageSources))
	nl.VoltageSources = append(nl.VoltageSources, v)
	return nil
}

func (nl *Netlist) AddCurrentSource(c *CurrentSource) error {
	if err := nl.claimName(c.Name); err != nil {
		return err
	}
	c.ID = ElementID(len(nl.CurrentSources))
	nl.CurrentSources = append(nl.CurrentSources, c)
	return nil
}

func (nl *Netlist) AddDiode(d *Diode) error {
	if err := nl.claimName(d.Name); err != nil {
		return err
	}
	d.ID = ElementID(len(nl.Diodes))
	nl.Diodes = append(nl.Diodes, d)
	return nil
}

func (nl *Netlist) AddMOS(m *MOS) error {
	if err := nl.claimName(m.Name); err != nil {
		return err
	}
	m.ID = ElementID(len(nl.MOSes))
	nl.MOSes = append(nl.MOSes, m)
	return nil
}

func (nl *Netlist) AddBJT(q *BJT) error {
	if err := nl.claimName(q.Name); err != nil {
		return err
	}
	q.ID = ElementID(len(nl.BJTs))
	nl.BJTs = append(nl.BJTs, q)
	return nil
}

// AssignBranchRows fills in the branch-row index of every voltage source
// and inductor, per the MNA row layout in spec.md 3: voltage sources occupy
// rows N-1..N-1+V-1 in parse order, inductors occupy the rows after that.
func (nl *Netlist) AssignBranchRows(nodeCount int) {
	base := nodeCount - 1
	for _, v := range nl.VoltageSources {
		v.BranchRow = base + int(v.ID)
	}
	base += len(nl.VoltageSources)
	for _, l := range nl.Inductors {
		l.BranchRow = base + int(l.ID)
	}
}

// Dimension returns n = (N-1) + V + L, the size of the MNA system.
func (nl *Netlist) Dimension(nodeCount int) int {
	return (nodeCount - 1) + len(nl.VoltageSources) + len(nl.Inductors)
}

// FindVoltageSource looks a named voltage source up for .DC validation.
func (nl *Netlist) FindVoltageSource(name string) *VoltageSource {
	for _, v := range nl.VoltageSources {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// FindCurrentSource looks a named current source up for .DC validation.
func (nl *Netlist) FindCurrentSource(name string) *CurrentSource {
	for _, c := range nl.CurrentSources {
		if c.Name == name {
			return c
		}
	}
	return nil
}
