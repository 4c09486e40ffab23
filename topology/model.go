// Package topology holds the validated in-memory description of the
// network that everything else is wired from.
package topology

import "github.com/skylab-sim/skymesh/sim"

// A Record describes one declared node. Records are created by the
// ModelBuilder and are read-only afterwards.
type Record struct {
	ID        sim.NodeID
	Role      sim.Role
	Variant   string // implementation tag; empty means policy-assigned
	Neighbors []sim.NodeID
	DropRate  float64
}

// A Model is the frozen set of node records. Every neighbor reference in
// a Model is guaranteed to resolve to another record.
type Model struct {
	records []Record
	index   map[sim.NodeID]int
}

// Records returns the records in declaration order. The returned slice
// must be treated as read-only.
func (m *Model) Records() []Record {
	return m.records
}

// Record returns the record with the given id.
func (m *Model) Record(id sim.NodeID) (Record, bool) {
	i, ok := m.index[id]
	if !ok {
		return Record{}, false
	}
	return m.records[i], true
}

// Size returns the number of nodes.
func (m *Model) Size() int {
	return len(m.records)
}

// CountByRole returns the number of nodes with the given role.
func (m *Model) CountByRole(role sim.Role) int {
	n := 0
	for _, r := range m.records {
		if r.Role == role {
			n++
		}
	}
	return n
}

// NumDirectedEdges returns the sum of all adjacency-list lengths, which
// equals the number of directed point-to-point channels the fabric will
// create.
func (m *Model) NumDirectedEdges() int {
	n := 0
	for _, r := range m.records {
		n += len(r.Neighbors)
	}
	return n
}
