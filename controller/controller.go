package controller

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/skylab-sim/skymesh/datarecording"
	"github.com/skylab-sim/skymesh/sim"
)

const eventTable = "controller_events"

// eventRow is the flattened shape of one event in the data recorder.
type eventRow struct {
	Time   string
	Node   int
	Kind   string
	Detail string
}

// A Controller owns the control directory and the merged event stream.
// It is the only party that can address every node, and it never holds
// any node's inbound consumer.
type Controller struct {
	directory *Directory
	sources   []sim.Receiver[sim.Event]
	merged    *sim.Conduit[sim.Event]
	feed      *sim.Conduit[sim.Event]
	feedOn    atomic.Bool
	recorder  datarecording.DataRecorder

	mu       sync.Mutex
	snapshot []sim.NodeInfo

	stopOnce sync.Once
	stop     chan struct{}
}

// New creates a controller over a populated directory, the per-category
// event receivers, and the realized topology snapshot.
func New(
	directory *Directory,
	sources []sim.Receiver[sim.Event],
	snapshot []sim.NodeInfo,
) *Controller {
	return &Controller{
		directory: directory,
		sources:   sources,
		merged:    sim.NewConduit[sim.Event](),
		feed:      sim.NewConduit[sim.Event](),
		snapshot:  snapshot,
		stop:      make(chan struct{}),
	}
}

// RegisterRecorder attaches a data recorder that will persist every
// event flowing through the controller. Must be called before Run.
func (c *Controller) RegisterRecorder(r datarecording.DataRecorder) {
	c.recorder = r
	r.CreateTable(eventTable, eventRow{})
}

// Directory exposes the control directory.
func (c *Controller) Directory() *Directory {
	return c.directory
}

// Feed hands out the consumer end of the controller's outbound event
// feed. A monitor takes it exactly once; without a consumer the feed is
// not populated.
func (c *Controller) Feed() sim.Receiver[sim.Event] {
	c.feedOn.Store(true)
	return c.feed.Receiver()
}

// Run fans the per-category event channels into one merged stream and
// processes it until Stop is called. Closed category channels are
// treated as end-of-stream.
func (c *Controller) Run() {
	for _, src := range c.sources {
		go func(src sim.Receiver[sim.Event]) {
			sender := c.merged.Sender()
			for ev := range src.Ch() {
				sender.Send(ev)
			}
		}(src)
	}

	mergedCh := c.merged.Receiver().Ch()
	for {
		select {
		case ev, ok := <-mergedCh:
			if !ok {
				return
			}
			c.handleEvent(ev)
		case <-c.stop:
			return
		}
	}
}

// Stop terminates Run. Safe to call more than once.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Controller) handleEvent(ev sim.Event) {
	if c.recorder != nil {
		c.recorder.InsertData(eventTable, flatten(ev))
	}

	if c.feedOn.Load() {
		c.feed.Sender().Send(ev)
	}
}

func flatten(ev sim.Event) eventRow {
	row := eventRow{Time: time.Now().UTC().Format(time.RFC3339Nano)}

	switch e := ev.(type) {
	case sim.PacketSent:
		row.Node = int(e.Node)
		row.Kind = "packet_sent"
		row.Detail = fmt.Sprintf("session=%d dest=%s",
			e.Packet.Session, e.Packet.Destination())
	case sim.PacketDropped:
		row.Node = int(e.Node)
		row.Kind = "packet_dropped"
		row.Detail = fmt.Sprintf("session=%d dest=%s",
			e.Packet.Session, e.Packet.Destination())
	case sim.PacketDelivered:
		row.Node = int(e.Node)
		row.Kind = "packet_delivered"
		row.Detail = fmt.Sprintf("session=%d", e.Packet.Session)
	case sim.NodeCrashed:
		row.Node = int(e.Node)
		row.Kind = "node_crashed"
		row.Detail = e.Reason
	case sim.TopologySnapshot:
		row.Kind = "topology"
		row.Detail = fmt.Sprintf("%d nodes", len(e.Nodes))
	default:
		row.Kind = "unknown"
		row.Detail = fmt.Sprintf("%T", ev)
	}

	return row
}

// publish injects a controller-originated event into the merged stream
// so it is recorded and fed exactly like node events.
func (c *Controller) publish(ev sim.Event) {
	c.merged.Sender().Send(ev)
}

// PublishSnapshot emits the current topology as an event. The
// orchestrator calls it once at boot so an attached monitor starts from
// the full node/edge list.
func (c *Controller) PublishSnapshot() {
	c.publish(sim.TopologySnapshot{Nodes: c.Snapshot()})
}

// ReportFault surfaces an abnormal node termination as a crash event.
func (c *Controller) ReportFault(id sim.NodeID, reason string) {
	c.publish(sim.NodeCrashed{Node: id, Reason: reason})
}

// Snapshot returns a copy of the current topology view.
func (c *Controller) Snapshot() []sim.NodeInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	nodes := make([]sim.NodeInfo, len(c.snapshot))
	for i, n := range c.snapshot {
		nodes[i] = n
		nodes[i].Neighbors = slices.Clone(n.Neighbors)
	}
	return nodes
}

// Crash commands one node to stop.
func (c *Controller) Crash(id sim.NodeID) error {
	e, err := c.directory.Entry(id)
	if err != nil {
		return err
	}

	e.Commands.Send(sim.Crash{})
	c.publish(sim.NodeCrashed{Node: id})

	return nil
}

// SetDropRate changes one router's drop probability.
func (c *Controller) SetDropRate(id sim.NodeID, rate float64) error {
	if rate < 0 || rate > 1 {
		return fmt.Errorf("drop rate %v is outside [0, 1]", rate)
	}

	e, err := c.directory.Entry(id)
	if err != nil {
		return err
	}

	e.Commands.Send(sim.SetDropRate{Rate: rate})

	return nil
}

// InjectPacket enqueues a packet on a node's inbound channel, useful
// for traffic generation from the monitor.
func (c *Controller) InjectPacket(id sim.NodeID, pkt sim.Packet) error {
	e, err := c.directory.Entry(id)
	if err != nil {
		return err
	}

	e.Packets.Send(pkt)

	return nil
}

// AddEdge opens a bidirectional link between two nodes and republishes
// the topology.
func (c *Controller) AddEdge(a, b sim.NodeID) error {
	ea, err := c.directory.Entry(a)
	if err != nil {
		return err
	}
	eb, err := c.directory.Entry(b)
	if err != nil {
		return err
	}

	ea.Commands.Send(sim.AddSender{Peer: b, Sender: eb.Packets})
	eb.Commands.Send(sim.AddSender{Peer: a, Sender: ea.Packets})

	c.mutateNeighbors(a, b, true)
	c.PublishSnapshot()

	return nil
}

// RemoveEdge withdraws the link between two nodes and republishes the
// topology.
func (c *Controller) RemoveEdge(a, b sim.NodeID) error {
	ea, err := c.directory.Entry(a)
	if err != nil {
		return err
	}
	eb, err := c.directory.Entry(b)
	if err != nil {
		return err
	}

	ea.Commands.Send(sim.RemoveSender{Peer: b})
	eb.Commands.Send(sim.RemoveSender{Peer: a})

	c.mutateNeighbors(a, b, false)
	c.PublishSnapshot()

	return nil
}

func (c *Controller) mutateNeighbors(a, b sim.NodeID, add bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.snapshot {
		n := &c.snapshot[i]

		var peer sim.NodeID
		switch n.ID {
		case a:
			peer = b
		case b:
			peer = a
		default:
			continue
		}

		if add {
			if !slices.Contains(n.Neighbors, peer) {
				n.Neighbors = append(n.Neighbors, peer)
			}
		} else {
			n.Neighbors = slices.DeleteFunc(n.Neighbors,
				func(id sim.NodeID) bool { return id == peer })
		}
	}
}
