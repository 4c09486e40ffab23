// Package clients provides the client-node implementations.
package clients

import "github.com/skylab-sim/skymesh/sim"

// VariantChat is the registry tag of the chat client.
const VariantChat = "chat"

// A ChatClient consumes packets addressed to it and acknowledges every
// data packet back along the reversed route.
type ChatClient struct {
	id       sim.NodeID
	events   sim.Sender[sim.Event]
	commands sim.Receiver[sim.Command]
	inbound  sim.Receiver[sim.Packet]
	outbound map[sim.NodeID]sim.Sender[sim.Packet]
}

// NewChatClient builds a chat client.
func NewChatClient(
	id sim.NodeID,
	events sim.Sender[sim.Event],
	commands sim.Receiver[sim.Command],
	inbound sim.Receiver[sim.Packet],
	outbound map[sim.NodeID]sim.Sender[sim.Packet],
	_ sim.Params,
) sim.Node {
	return &ChatClient{
		id:       id,
		events:   events,
		commands: commands,
		inbound:  inbound,
		outbound: outbound,
	}
}

// ID returns the client's network-wide identity.
func (c *ChatClient) ID() sim.NodeID {
	return c.id
}

// Run blocks until a Crash command arrives or both channels are closed.
func (c *ChatClient) Run() {
	packets := c.inbound.Ch()
	commands := c.commands.Ch()

	for packets != nil || commands != nil {
		select {
		case cmd, ok := <-commands:
			if !ok {
				commands = nil
				continue
			}
			switch cc := cmd.(type) {
			case sim.Crash:
				return
			case sim.AddSender:
				c.outbound[cc.Peer] = cc.Sender
			case sim.RemoveSender:
				delete(c.outbound, cc.Peer)
			}
		case pkt, ok := <-packets:
			if !ok {
				packets = nil
				continue
			}
			c.handlePacket(pkt)
		}
	}
}

func (c *ChatClient) handlePacket(pkt sim.Packet) {
	if pkt.Destination() != c.id {
		c.events.Send(sim.PacketDropped{Node: c.id, Packet: pkt})
		return
	}

	c.events.Send(sim.PacketDelivered{Node: c.id, Packet: pkt})

	if pkt.Kind != sim.PacketData {
		return
	}

	reply := pkt.Reply(sim.PacketAck)
	c.send(reply)
}

func (c *ChatClient) send(pkt sim.Packet) {
	next, ok := pkt.NextHop()
	if !ok {
		return
	}

	sender, ok := c.outbound[next]
	if !ok {
		c.events.Send(sim.PacketDropped{Node: c.id, Packet: pkt})
		return
	}

	pkt.Hop++
	sender.Send(pkt)
	c.events.Send(sim.PacketSent{Node: c.id, Packet: pkt})
}
