// Package controller implements the supervisory controller: the one
// place that can address every node after boot.
package controller

import (
	"errors"
	"fmt"

	"github.com/skylab-sim/skymesh/sim"
)

// Directory lookup errors.
var (
	ErrUnknownNode   = errors.New("node not in control directory")
	ErrDuplicateNode = errors.New("node already in control directory")
)

// An Entry holds the producer ends the controller retains for one node.
// The controller never holds a node's inbound consumer; it can inject
// packets and commands but never competes for consumption.
type Entry struct {
	Role     sim.Role
	Commands sim.Sender[sim.Command]
	Packets  sim.Sender[sim.Packet]
}

// A Directory maps every node id to its control entry. It is populated
// once during the graph build and read-only afterwards.
type Directory struct {
	entries map[sim.NodeID]Entry
	order   []sim.NodeID
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		entries: make(map[sim.NodeID]Entry),
	}
}

// Add records the entry for a node. Each node can be added exactly once.
func (d *Directory) Add(id sim.NodeID, e Entry) error {
	if _, dup := d.entries[id]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, id)
	}

	d.entries[id] = e
	d.order = append(d.order, id)

	return nil
}

// Entry returns the control entry for a node.
func (d *Directory) Entry(id sim.NodeID) (Entry, error) {
	e, ok := d.entries[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	return e, nil
}

// Len returns the number of addressable nodes.
func (d *Directory) Len() int {
	return len(d.entries)
}

// IDs returns the node ids in the order they were added.
func (d *Directory) IDs() []sim.NodeID {
	ids := make([]sim.NodeID, len(d.order))
	copy(ids, d.order)
	return ids
}
