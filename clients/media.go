package clients

import "github.com/skylab-sim/skymesh/sim"

// VariantMedia is the registry tag of the media client.
const VariantMedia = "media"

// A MediaClient consumes media streams addressed to it. Unlike the chat
// client it never acknowledges; lost fragments are simply counted by
// the drop events upstream.
type MediaClient struct {
	id       sim.NodeID
	events   sim.Sender[sim.Event]
	commands sim.Receiver[sim.Command]
	inbound  sim.Receiver[sim.Packet]
	outbound map[sim.NodeID]sim.Sender[sim.Packet]

	bytesReceived int
}

// NewMediaClient builds a media client.
func NewMediaClient(
	id sim.NodeID,
	events sim.Sender[sim.Event],
	commands sim.Receiver[sim.Command],
	inbound sim.Receiver[sim.Packet],
	outbound map[sim.NodeID]sim.Sender[sim.Packet],
	_ sim.Params,
) sim.Node {
	return &MediaClient{
		id:       id,
		events:   events,
		commands: commands,
		inbound:  inbound,
		outbound: outbound,
	}
}

// ID returns the client's network-wide identity.
func (c *MediaClient) ID() sim.NodeID {
	return c.id
}

// Run blocks until a Crash command arrives or both channels are closed.
func (c *MediaClient) Run() {
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

func (c *MediaClient) handlePacket(pkt sim.Packet) {
	if pkt.Destination() != c.id {
		c.events.Send(sim.PacketDropped{Node: c.id, Packet: pkt})
		return
	}

	c.bytesReceived += len(pkt.Payload)
	c.events.Send(sim.PacketDelivered{Node: c.id, Packet: pkt})
}
