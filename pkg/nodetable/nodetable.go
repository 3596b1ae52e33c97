// Package nodetable maintains the bijection between netlist node names and
// the dense integer indices the MNA system is built over.
package nodetable

// Table assigns integer ids to node names in first-seen order. Node 0 is
// always ground, regardless of whether "0" or "gnd" appears in the netlist.
type Table struct {
	idByName []nameID
	names    []string
}

type nameID struct {
	name string
	id   int
}

// New returns a Table seeded with ground.
func New() *Table {
	t := &Table{}
	t.names = append(t.names, "0")
	t.idByName = append(t.idByName, nameID{name: "0", id: 0})
	return t
}

func isGroundName(name string) bool {
	return name == "0" || name == "gnd" || name == "GND"
}

// Lookup returns the id for name, assigning the next free id on first sight.
func (t *Table) Lookup(name string) int {
	if isGroundName(name) {
		return 0
	}
	for _, e := range t.idByName {
		if e.name == name {
			return e.id
		}
	}
	id := len(t.names)
	t.names = append(t.names, name)
	t.idByName = append(t.idByName, nameID{name: name, id: id})
	return id
}

// Name returns the node name for id, or "" if id is out of range.
func (t *Table) Name(id int) string {
	if id < 0 || id >= len(t.names) {
		return ""
	}
	return t.names[id]
}

// Count returns the number of distinct nodes, including ground.
func (t *Table) Count() int {
	return len(t.names)
}

// NonGroundNames returns node names in id order, excluding ground, i.e. in
// the order they occupy rows 0..N-2 of the MNA system.
func (t *Table) NonGroundNames() []string {
	if len(t.names) <= 1 {
		return nil
	}
	out := make([]string, len(t.names)-1)
	copy(out, t.names[1:])
	return out
}
