// Package drones provides the routing-node implementations. Every
// variant satisfies the sim.Node contract and can be swapped for any
// other through the factory registry.
package drones

import (
	"math/rand"

	"github.com/skylab-sim/skymesh/sim"
)

// VariantHop is the registry tag of the source-routing drone.
const VariantHop = "hop"

// A HopRouter forwards packets strictly along their embedded source
// route, dropping each forwarded packet with its configured
// probability.
type HopRouter struct {
	id       sim.NodeID
	events   sim.Sender[sim.Event]
	commands sim.Receiver[sim.Command]
	inbound  sim.Receiver[sim.Packet]
	outbound map[sim.NodeID]sim.Sender[sim.Packet]
	dropRate float64
	rng      *rand.Rand
}

// NewHopRouter builds a hop router. The drop decision stream is seeded
// from the node id so a run is reproducible for a fixed topology.
func NewHopRouter(
	id sim.NodeID,
	events sim.Sender[sim.Event],
	commands sim.Receiver[sim.Command],
	inbound sim.Receiver[sim.Packet],
	outbound map[sim.NodeID]sim.Sender[sim.Packet],
	params sim.Params,
) sim.Node {
	return &HopRouter{
		id:       id,
		events:   events,
		commands: commands,
		inbound:  inbound,
		outbound: outbound,
		dropRate: params.DropRate,
		rng:      rand.New(rand.NewSource(int64(id))),
	}
}

// ID returns the router's network-wide identity.
func (r *HopRouter) ID() sim.NodeID {
	return r.id
}

// Run consumes the inbound packet channel and the command channel until
// a Crash command arrives or both channels are closed.
func (r *HopRouter) Run() {
	packets := r.inbound.Ch()
	commands := r.commands.Ch()

	for packets != nil || commands != nil {
		select {
		case cmd, ok := <-commands:
			if !ok {
				commands = nil
				continue
			}
			if r.handleCommand(cmd) {
				return
			}
		case pkt, ok := <-packets:
			if !ok {
				packets = nil
				continue
			}
			r.handlePacket(pkt)
		}
	}
}

// handleCommand applies one control command. It reports true when the
// router must stop.
func (r *HopRouter) handleCommand(cmd sim.Command) bool {
	switch c := cmd.(type) {
	case sim.Crash:
		return true
	case sim.SetDropRate:
		r.dropRate = c.Rate
	case sim.AddSender:
		r.outbound[c.Peer] = c.Sender
	case sim.RemoveSender:
		delete(r.outbound, c.Peer)
	}

	return false
}

func (r *HopRouter) handlePacket(pkt sim.Packet) {
	if pkt.Destination() == r.id {
		r.events.Send(sim.PacketDelivered{Node: r.id, Packet: pkt})
		return
	}

	next, ok := pkt.NextHop()
	if !ok {
		r.events.Send(sim.PacketDropped{Node: r.id, Packet: pkt})
		return
	}

	sender, ok := r.outbound[next]
	if !ok {
		r.events.Send(sim.PacketDropped{Node: r.id, Packet: pkt})
		return
	}

	if pkt.Kind == sim.PacketData && r.rng.Float64() < r.dropRate {
		r.events.Send(sim.PacketDropped{Node: r.id, Packet: pkt})
		return
	}

	pkt.Hop++
	sender.Send(pkt)
	r.events.Send(sim.PacketSent{Node: r.id, Packet: pkt})
}
