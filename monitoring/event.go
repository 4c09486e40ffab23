package monitoring

import (
	"github.com/skylab-sim/skymesh/sim"
)

// eventMsg is the JSON shape of one event on the stream.
type eventMsg struct {
	Kind    string         `json:"kind"`
	Node    *sim.NodeID    `json:"node,omitempty"`
	Session *uint64        `json:"session,omitempty"`
	Route   []sim.NodeID   `json:"route,omitempty"`
	Reason  string         `json:"reason,omitempty"`
	Nodes   []sim.NodeInfo `json:"nodes,omitempty"`
}

func eventView(ev sim.Event) eventMsg {
	switch e := ev.(type) {
	case sim.PacketSent:
		return packetMsg("packet_sent", e.Node, e.Packet)
	case sim.PacketDropped:
		return packetMsg("packet_dropped", e.Node, e.Packet)
	case sim.PacketDelivered:
		return packetMsg("packet_delivered", e.Node, e.Packet)
	case sim.NodeCrashed:
		node := e.Node
		return eventMsg{Kind: "node_crashed", Node: &node, Reason: e.Reason}
	case sim.TopologySnapshot:
		return eventMsg{Kind: "topology", Nodes: e.Nodes}
	default:
		return eventMsg{Kind: "unknown"}
	}
}

func packetMsg(kind string, node sim.NodeID, pkt sim.Packet) eventMsg {
	session := pkt.Session
	return eventMsg{
		Kind:    kind,
		Node:    &node,
		Session: &session,
		Route:   pkt.Route,
	}
}
