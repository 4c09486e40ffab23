package sim

// Params carries the role parameters a node is constructed with.
type Params struct {
	// DropRate is the probability in [0, 1] that a router discards a
	// forwarded packet. Ignored by non-router roles.
	DropRate float64
}

// A Node is a runnable actor in the network. Implementations consume
// their inbound packet channel and command channel inside Run and
// return when a Crash command arrives or both channels are closed.
type Node interface {
	ID() NodeID
	Run()
}
