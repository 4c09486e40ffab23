package sim

// PacketKind distinguishes the traffic classes that travel over message
// channels.
type PacketKind int

const (
	// PacketData carries application payload.
	PacketData PacketKind = iota

	// PacketAck acknowledges a delivered data packet.
	PacketAck

	// PacketNack reports a packet that could not be delivered.
	PacketNack
)

func (k PacketKind) String() string {
	switch k {
	case PacketData:
		return "data"
	case PacketAck:
		return "ack"
	case PacketNack:
		return "nack"
	default:
		return "unknown"
	}
}

// A Packet is a source-routed network message. Route holds the full hop
// list, with Route[0] being the originator and the last entry the final
// destination. Hop is the index of the node currently holding the packet.
type Packet struct {
	Session uint64
	Kind    PacketKind
	Route   []NodeID
	Hop     int
	Payload []byte
}

// Source returns the originator of the packet.
func (p Packet) Source() NodeID {
	if len(p.Route) == 0 {
		return 0
	}
	return p.Route[0]
}

// Destination returns the final hop of the route.
func (p Packet) Destination() NodeID {
	if len(p.Route) == 0 {
		return 0
	}
	return p.Route[len(p.Route)-1]
}

// NextHop returns the node the packet should be forwarded to. The second
// return value is false if the packet already sits at its destination or
// the hop index is out of range.
func (p Packet) NextHop() (NodeID, bool) {
	next := p.Hop + 1
	if next <= 0 || next >= len(p.Route) {
		return 0, false
	}
	return p.Route[next], true
}

// Reply builds a packet of the given kind that travels the reversed
// route, starting from the current holder.
func (p Packet) Reply(kind PacketKind) Packet {
	route := make([]NodeID, 0, p.Hop+1)
	for i := p.Hop; i >= 0; i-- {
		route = append(route, p.Route[i])
	}

	return Packet{
		Session: p.Session,
		Kind:    kind,
		Route:   route,
		Hop:     0,
	}
}
