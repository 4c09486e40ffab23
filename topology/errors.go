package topology

import (
	"fmt"

	"github.com/skylab-sim/skymesh/sim"
)

// An Error reports a structural defect in a declared topology. The boot
// sequence aborts on the first Build that returns one; no channel or
// actor is ever created from a defective topology.
type Error struct {
	Node   sim.NodeID
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("topology: %s: %s: %s", e.Node, e.Field, e.Reason)
}

func errf(node sim.NodeID, field, format string, args ...any) *Error {
	return &Error{
		Node:   node,
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	}
}
