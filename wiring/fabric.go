// Package wiring derives the full set of communication channels from a
// validated topology model.
package wiring

import (
	"fmt"

	"github.com/skylab-sim/skymesh/sim"
	"github.com/skylab-sim/skymesh/topology"
)

// An Error reports that the fabric could not locate a channel it needs.
// It indicates an internal inconsistency between the topology model and
// the channel table and should never occur once validation has passed.
type Error struct {
	Node   sim.NodeID
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("wiring: %s: %s", e.Node, e.Detail)
}

// A Bundle holds the channel ends one node is constructed with. The
// Inbound and Commands receivers are exclusively owned by the node; the
// Outbound senders are clones of the neighbors' inbound producers.
type Bundle struct {
	Inbound  sim.Receiver[sim.Packet]
	Commands sim.Receiver[sim.Command]
	Events   sim.Sender[sim.Event]
	Outbound map[sim.NodeID]sim.Sender[sim.Packet]
}

// A Table maps every node to its channel bundle and retains the
// producer ends the controller needs to address nodes. The table holds
// no consumer end except the per-category event receivers, which the
// controller takes exactly once.
type Table struct {
	bundles        map[sim.NodeID]*Bundle
	packetSenders  map[sim.NodeID]sim.Sender[sim.Packet]
	commandSenders map[sim.NodeID]sim.Sender[sim.Command]
	events         map[sim.Role]*sim.Conduit[sim.Event]

	directedEdges int
}

// Build allocates one inbound packet conduit and one command conduit per
// node, one event conduit per role category, and one directed
// point-to-point producer per declared adjacency. An adjacency whose
// inbound channel cannot be found fails the build; a missing entry would
// otherwise surface as a silent runtime deadlock.
func Build(m *topology.Model) (*Table, error) {
	t := &Table{
		bundles:        make(map[sim.NodeID]*Bundle, m.Size()),
		packetSenders:  make(map[sim.NodeID]sim.Sender[sim.Packet], m.Size()),
		commandSenders: make(map[sim.NodeID]sim.Sender[sim.Command], m.Size()),
		events:         make(map[sim.Role]*sim.Conduit[sim.Event]),
	}

	for _, role := range sim.Roles() {
		t.events[role] = sim.NewConduit[sim.Event]()
	}

	for _, r := range m.Records() {
		inbound := sim.NewConduit[sim.Packet]()
		commands := sim.NewConduit[sim.Command]()

		t.packetSenders[r.ID] = inbound.Sender()
		t.commandSenders[r.ID] = commands.Sender()
		t.bundles[r.ID] = &Bundle{
			Inbound:  inbound.Receiver(),
			Commands: commands.Receiver(),
			Events:   t.events[r.Role].Sender(),
			Outbound: make(map[sim.NodeID]sim.Sender[sim.Packet],
				len(r.Neighbors)),
		}
	}

	edges, err := distributeOutbound(m.Records(), t.packetSenders, t.bundles)
	if err != nil {
		return nil, err
	}
	t.directedEdges = edges

	return t, nil
}

// distributeOutbound attaches, for each record and each declared
// neighbor, a clone of the neighbor's inbound producer to the record's
// outbound set. It returns the number of directed edges realized.
func distributeOutbound(
	records []topology.Record,
	packetSenders map[sim.NodeID]sim.Sender[sim.Packet],
	bundles map[sim.NodeID]*Bundle,
) (int, error) {
	edges := 0

	for _, r := range records {
		bundle, ok := bundles[r.ID]
		if !ok {
			return 0, &Error{Node: r.ID, Detail: "no channel bundle"}
		}

		for _, nb := range r.Neighbors {
			sender, ok := packetSenders[nb]
			if !ok {
				return 0, &Error{
					Node:   r.ID,
					Detail: fmt.Sprintf("no inbound channel for neighbor %s", nb),
				}
			}

			bundle.Outbound[nb] = sender
			edges++
		}
	}

	return edges, nil
}

// Bundle returns the channel bundle for the given node.
func (t *Table) Bundle(id sim.NodeID) (*Bundle, error) {
	b, ok := t.bundles[id]
	if !ok {
		return nil, &Error{Node: id, Detail: "no channel bundle"}
	}
	return b, nil
}

// PacketSender returns a producer for the node's inbound message
// channel.
func (t *Table) PacketSender(id sim.NodeID) (sim.Sender[sim.Packet], error) {
	s, ok := t.packetSenders[id]
	if !ok {
		return sim.Sender[sim.Packet]{},
			&Error{Node: id, Detail: "no inbound packet channel"}
	}
	return s, nil
}

// CommandSender returns a producer for the node's control-command
// channel.
func (t *Table) CommandSender(id sim.NodeID) (sim.Sender[sim.Command], error) {
	s, ok := t.commandSenders[id]
	if !ok {
		return sim.Sender[sim.Command]{},
			&Error{Node: id, Detail: "no command channel"}
	}
	return s, nil
}

// EventReceiver hands out the consumer end of one role category's event
// channel. Each category's receiver can be taken only once.
func (t *Table) EventReceiver(role sim.Role) sim.Receiver[sim.Event] {
	return t.events[role].Receiver()
}

// InboundCount returns the number of inbound message channels.
func (t *Table) InboundCount() int {
	return len(t.bundles)
}

// DirectedEdgeCount returns the number of outbound producer
// registrations, one per declared adjacency.
func (t *Table) DirectedEdgeCount() int {
	return t.directedEdges
}
