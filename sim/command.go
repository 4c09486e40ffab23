package sim

// A Command is a supervisory instruction sent to one node through its
// control channel.
type Command interface {
	isCommand()
}

// Crash tells a node to stop its run loop immediately.
type Crash struct{}

// SetDropRate changes a router's packet drop probability.
type SetDropRate struct {
	Rate float64
}

// AddSender hands a node a producer for a new outbound edge.
type AddSender struct {
	Peer   NodeID
	Sender Sender[Packet]
}

// RemoveSender withdraws the outbound edge toward Peer.
type RemoveSender struct {
	Peer NodeID
}

func (Crash) isCommand()        {}
func (SetDropRate) isCommand()  {}
func (AddSender) isCommand()    {}
func (RemoveSender) isCommand() {}
