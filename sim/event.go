package sim

// An Event is a notification a node or the controller publishes on a
// control-event channel.
type Event interface {
	isEvent()
}

// PacketSent reports that Node forwarded Packet to its next hop.
type PacketSent struct {
	Node   NodeID
	Packet Packet
}

// PacketDropped reports that Node discarded Packet, either by its drop
// probability or because no outbound edge to the next hop exists.
type PacketDropped struct {
	Node   NodeID
	Packet Packet
}

// PacketDelivered reports that Packet reached its final destination.
type PacketDelivered struct {
	Node   NodeID
	Packet Packet
}

// NodeCrashed reports that a node's run loop terminated. Reason is empty
// for a commanded, orderly stop.
type NodeCrashed struct {
	Node   NodeID
	Reason string
}

// NodeInfo describes one node in a topology snapshot.
type NodeInfo struct {
	ID        NodeID   `json:"id"`
	Role      string   `json:"role"`
	Variant   string   `json:"variant"`
	Neighbors []NodeID `json:"neighbors"`
}

// TopologySnapshot carries the full realized node/edge list. It is
// published once at boot and again after every topology mutation.
type TopologySnapshot struct {
	Nodes []NodeInfo
}

func (PacketSent) isEvent()       {}
func (PacketDropped) isEvent()    {}
func (PacketDelivered) isEvent()  {}
func (NodeCrashed) isEvent()      {}
func (TopologySnapshot) isEvent() {}
