package simulation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylab-sim/skymesh/controller"
	"github.com/skylab-sim/skymesh/registry"
	"github.com/skylab-sim/skymesh/sim"
	"github.com/skylab-sim/skymesh/topology"
)

func TestSimulationStartsAndShutsDown(t *testing.T) {
	s := buildRing(t)

	require.NoError(t, s.Start())
	s.Shutdown()

	assert.Empty(t, s.Faults())

	// Later calls are no-ops.
	s.Shutdown()
}

func TestSimulationRejectsDoubleStart(t *testing.T) {
	s := buildRing(t)

	require.NoError(t, s.Start())
	defer s.Shutdown()

	assert.Error(t, s.Start())
}

func TestCrashedNodeJoinsWithoutBlockingOthers(t *testing.T) {
	s := buildRing(t)

	require.NoError(t, s.Start())
	defer s.Shutdown()

	require.NoError(t, s.Controller().Crash(3))
	require.NoError(t, s.Join(3))

	// The rest of the network is still addressable.
	assert.NoError(t, s.Controller().SetDropRate(4, 0.5))
}

func TestJoinRejectsUnknownNode(t *testing.T) {
	s := buildRing(t)

	require.NoError(t, s.Start())
	defer s.Shutdown()

	assert.ErrorIs(t, s.Join(99), controller.ErrUnknownNode)
}

func TestPacketTraversesRing(t *testing.T) {
	s := buildRing(t)

	feed := s.Controller().Feed()
	require.NoError(t, s.Start())
	defer s.Shutdown()

	pkt := sim.Packet{
		Session: 7,
		Kind:    sim.PacketData,
		Route:   []sim.NodeID{11, 1, 2, 3, 4, 5, 12},
		Hop:     1,
		Payload: []byte("hello"),
	}
	require.NoError(t, s.Controller().InjectPacket(1, pkt))

	delivered := awaitEvent(t, feed, func(ev sim.Event) bool {
		d, ok := ev.(sim.PacketDelivered)
		return ok && d.Node == 12 && d.Packet.Session == 7
	})
	assert.Equal(t, []byte("hello"),
		delivered.(sim.PacketDelivered).Packet.Payload)

	// The server echoes along the reversed route, but router 1 has no
	// edge back to the client, so the echo dies there.
	awaitEvent(t, feed, func(ev sim.Event) bool {
		d, ok := ev.(sim.PacketDropped)
		return ok && d.Node == 1 && d.Packet.Session == 7
	})
}

func TestPanickingNodeIsReportedAsFault(t *testing.T) {
	m, err := topology.MakeModelBuilder().WithMinRouters(1).
		Add(topology.Record{ID: 1, Role: sim.RoleRouter}).
		Build()
	require.NoError(t, err)

	r := registry.NewRegistry()
	r.Register(sim.RoleRouter, "unstable",
		func(
			id sim.NodeID,
			_ sim.Sender[sim.Event],
			_ sim.Receiver[sim.Command],
			_ sim.Receiver[sim.Packet],
			_ map[sim.NodeID]sim.Sender[sim.Packet],
			_ sim.Params,
		) sim.Node {
			return panickyNode{id: id}
		})

	s, err := MakeBuilder().
		WithTopology(m).
		WithRegistry(r).
		WithPartitionPolicy(PartitionPolicy{
			Routers: []Share{{Variant: "unstable", Weight: 1}},
		}).
		Build()
	require.NoError(t, err)

	feed := s.Controller().Feed()
	require.NoError(t, s.Start())

	require.NoError(t, s.Join(1))

	crash := awaitEvent(t, feed, func(ev sim.Event) bool {
		c, ok := ev.(sim.NodeCrashed)
		return ok && c.Node == 1 && c.Reason != ""
	})
	assert.Contains(t, crash.(sim.NodeCrashed).Reason, "rotor failure")

	s.Shutdown()

	faults := s.Faults()
	require.Len(t, faults, 1)
	assert.Equal(t, sim.NodeID(1), faults[0].Node)
	assert.Contains(t, faults[0].Reason, "rotor failure")
}

type panickyNode struct {
	id sim.NodeID
}

func (n panickyNode) ID() sim.NodeID {
	return n.id
}

func (n panickyNode) Run() {
	panic("rotor failure")
}

// awaitEvent drains the feed until an event matches, failing the test
// after a timeout.
func awaitEvent(
	t *testing.T,
	feed sim.Receiver[sim.Event],
	match func(sim.Event) bool,
) sim.Event {
	t.Helper()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-feed.Ch():
			if !ok {
				t.Fatal("event feed closed before the expected event")
			}
			if match(ev) {
				return ev
			}
		case <-deadline:
			t.Fatal("timed out waiting for event")
		}
	}
}
