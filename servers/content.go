// Package servers provides the server-node implementations.
package servers

import (
	"fmt"

	"github.com/skylab-sim/skymesh/sim"
)

// Registry tags for the server variants.
const (
	VariantTextContent  = "text-content"
	VariantMediaContent = "media-content"
)

// A ContentServer answers every data packet addressed to it with a
// content reply of its kind, sent back along the reversed route.
type ContentServer struct {
	id       sim.NodeID
	kind     string
	events   sim.Sender[sim.Event]
	commands sim.Receiver[sim.Command]
	inbound  sim.Receiver[sim.Packet]
	outbound map[sim.NodeID]sim.Sender[sim.Packet]
}

// NewTextContentServer builds a server that serves text content.
func NewTextContentServer(
	id sim.NodeID,
	events sim.Sender[sim.Event],
	commands sim.Receiver[sim.Command],
	inbound sim.Receiver[sim.Packet],
	outbound map[sim.NodeID]sim.Sender[sim.Packet],
	_ sim.Params,
) sim.Node {
	return newContentServer(id, "text", events, commands, inbound, outbound)
}

// NewMediaContentServer builds a server that serves media content.
func NewMediaContentServer(
	id sim.NodeID,
	events sim.Sender[sim.Event],
	commands sim.Receiver[sim.Command],
	inbound sim.Receiver[sim.Packet],
	outbound map[sim.NodeID]sim.Sender[sim.Packet],
	_ sim.Params,
) sim.Node {
	return newContentServer(id, "media", events, commands, inbound, outbound)
}

func newContentServer(
	id sim.NodeID,
	kind string,
	events sim.Sender[sim.Event],
	commands sim.Receiver[sim.Command],
	inbound sim.Receiver[sim.Packet],
	outbound map[sim.NodeID]sim.Sender[sim.Packet],
) *ContentServer {
	return &ContentServer{
		id:       id,
		kind:     kind,
		events:   events,
		commands: commands,
		inbound:  inbound,
		outbound: outbound,
	}
}

// ID returns the server's network-wide identity.
func (s *ContentServer) ID() sim.NodeID {
	return s.id
}

// Run blocks until a Crash command arrives or both channels are closed.
func (s *ContentServer) Run() {
	packets := s.inbound.Ch()
	commands := s.commands.Ch()

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
			case sim.AddSender:
				s.outbound[c.Peer] = c.Sender
			case sim.RemoveSender:
				delete(s.outbound, c.Peer)
			}
		case pkt, ok := <-packets:
			if !ok {
				packets = nil
				continue
			}
			s.handlePacket(pkt)
		}
	}
}

func (s *ContentServer) handlePacket(pkt sim.Packet) {
	if pkt.Destination() != s.id {
		s.events.Send(sim.PacketDropped{Node: s.id, Packet: pkt})
		return
	}

	s.events.Send(sim.PacketDelivered{Node: s.id, Packet: pkt})

	if pkt.Kind != sim.PacketData {
		return
	}

	reply := pkt.Reply(sim.PacketData)
	reply.Payload = fmt.Appendf(nil, "%s/%d", s.kind, pkt.Session)
	s.reply(reply)
}

func (s *ContentServer) reply(pkt sim.Packet) {
	next, ok := pkt.NextHop()
	if !ok {
		return
	}

	sender, ok := s.outbound[next]
	if !ok {
		s.events.Send(sim.PacketDropped{Node: s.id, Packet: pkt})
		return
	}

	pkt.Hop++
	sender.Send(pkt)
	s.events.Send(sim.PacketSent{Node: s.id, Packet: pkt})
}
