package drones

import (
	"math/rand"

	"github.com/skylab-sim/skymesh/sim"
)

// VariantFlood is the registry tag of the flooding drone.
const VariantFlood = "flood"

type floodKey struct {
	source  sim.NodeID
	session uint64
}

// A FloodRouter ignores the embedded route and rebroadcasts every
// first-seen packet to all neighbors except the one it arrived from.
// A seen-set keyed by (source, session) keeps floods from circulating
// forever.
type FloodRouter struct {
	id       sim.NodeID
	events   sim.Sender[sim.Event]
	commands sim.Receiver[sim.Command]
	inbound  sim.Receiver[sim.Packet]
	outbound map[sim.NodeID]sim.Sender[sim.Packet]
	dropRate float64
	rng      *rand.Rand
	seen     map[floodKey]bool
}

// NewFloodRouter builds a flooding router.
func NewFloodRouter(
	id sim.NodeID,
	events sim.Sender[sim.Event],
	commands sim.Receiver[sim.Command],
	inbound sim.Receiver[sim.Packet],
	outbound map[sim.NodeID]sim.Sender[sim.Packet],
	params sim.Params,
) sim.Node {
	return &FloodRouter{
		id:       id,
		events:   events,
		commands: commands,
		inbound:  inbound,
		outbound: outbound,
		dropRate: params.DropRate,
		rng:      rand.New(rand.NewSource(int64(id))),
		seen:     make(map[floodKey]bool),
	}
}

// ID returns the router's network-wide identity.
func (r *FloodRouter) ID() sim.NodeID {
	return r.id
}

// Run consumes the inbound packet channel and the command channel until
// a Crash command arrives or both channels are closed.
func (r *FloodRouter) Run() {
	packets := r.inbound.Ch()
	commands := r.commands.Ch()

	for packets != nil || commands != nil {
		select {
		case cmd, ok := <-commands:
			if !ok {
				commands = nil
				continue
			}
			switch c := cmd.(type) {
			case sim.Crash:
				return
			case sim.SetDropRate:
				r.dropRate = c.Rate
			case sim.AddSender:
				r.outbound[c.Peer] = c.Sender
			case sim.RemoveSender:
				delete(r.outbound, c.Peer)
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

func (r *FloodRouter) handlePacket(pkt sim.Packet) {
	if pkt.Destination() == r.id {
		r.events.Send(sim.PacketDelivered{Node: r.id, Packet: pkt})
		return
	}

	key := floodKey{source: pkt.Source(), session: pkt.Session}
	if r.seen[key] {
		return
	}
	r.seen[key] = true

	arrivedFrom := sim.NodeID(0)
	if pkt.Hop > 0 && pkt.Hop < len(pkt.Route) {
		arrivedFrom = pkt.Route[pkt.Hop-1]
	}

	for peer, sender := range r.outbound {
		if peer == arrivedFrom {
			continue
		}

		if pkt.Kind == sim.PacketData && r.rng.Float64() < r.dropRate {
			r.events.Send(sim.PacketDropped{Node: r.id, Packet: pkt})
			continue
		}

		sender.Send(pkt)
		r.events.Send(sim.PacketSent{Node: r.id, Packet: pkt})
	}
}
