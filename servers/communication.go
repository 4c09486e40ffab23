package servers

import "github.com/skylab-sim/skymesh/sim"

// VariantCommunication is the registry tag of the relay server.
const VariantCommunication = "communication"

// A CommunicationServer relays every data packet addressed to it back
// to the originator unchanged, acting as a store-and-forward mailbox
// between clients.
type CommunicationServer struct {
	id       sim.NodeID
	events   sim.Sender[sim.Event]
	commands sim.Receiver[sim.Command]
	inbound  sim.Receiver[sim.Packet]
	outbound map[sim.NodeID]sim.Sender[sim.Packet]
}

// NewCommunicationServer builds a communication server.
func NewCommunicationServer(
	id sim.NodeID,
	events sim.Sender[sim.Event],
	commands sim.Receiver[sim.Command],
	inbound sim.Receiver[sim.Packet],
	outbound map[sim.NodeID]sim.Sender[sim.Packet],
	_ sim.Params,
) sim.Node {
	return &CommunicationServer{
		id:       id,
		events:   events,
		commands: commands,
		inbound:  inbound,
		outbound: outbound,
	}
}

// ID returns the server's network-wide identity.
func (s *CommunicationServer) ID() sim.NodeID {
	return s.id
}

// Run blocks until a Crash command arrives or both channels are closed.
func (s *CommunicationServer) Run() {
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

func (s *CommunicationServer) handlePacket(pkt sim.Packet) {
	if pkt.Destination() != s.id {
		s.events.Send(sim.PacketDropped{Node: s.id, Packet: pkt})
		return
	}

	s.events.Send(sim.PacketDelivered{Node: s.id, Packet: pkt})

	if pkt.Kind != sim.PacketData {
		return
	}

	echo := pkt.Reply(sim.PacketData)
	echo.Payload = pkt.Payload

	next, ok := echo.NextHop()
	if !ok {
		return
	}

	sender, ok := s.outbound[next]
	if !ok {
		s.events.Send(sim.PacketDropped{Node: s.id, Packet: echo})
		return
	}

	echo.Hop++
	sender.Send(echo)
	s.events.Send(sim.PacketSent{Node: s.id, Packet: echo})
}
