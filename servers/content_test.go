package servers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylab-sim/skymesh/sim"
)

type serverHarness struct {
	inbound  *sim.Conduit[sim.Packet]
	commands *sim.Conduit[sim.Command]
	eventRx  sim.Receiver[sim.Event]
	routerRx sim.Receiver[sim.Packet]
	done     chan struct{}
}

// startServer wires a server of the given variant to one router (id 5).
func startServer(
	t *testing.T,
	ctor func(sim.NodeID, sim.Sender[sim.Event], sim.Receiver[sim.Command],
		sim.Receiver[sim.Packet], map[sim.NodeID]sim.Sender[sim.Packet],
		sim.Params) sim.Node,
	id sim.NodeID,
) *serverHarness {
	t.Helper()

	events := sim.NewConduit[sim.Event]()
	router := sim.NewConduit[sim.Packet]()

	h := &serverHarness{
		inbound:  sim.NewConduit[sim.Packet](),
		commands: sim.NewConduit[sim.Command](),
		eventRx:  events.Receiver(),
		routerRx: router.Receiver(),
		done:     make(chan struct{}),
	}

	node := ctor(id, events.Sender(), h.commands.Receiver(),
		h.inbound.Receiver(),
		map[sim.NodeID]sim.Sender[sim.Packet]{5: router.Sender()},
		sim.Params{})

	go func() {
		node.Run()
		close(h.done)
	}()

	return h
}

func (h *serverHarness) stop(t *testing.T) {
	t.Helper()

	h.commands.Sender().Send(sim.Crash{})
	select {
	case <-h.done:
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop on Crash command")
	}
}

func TestContentServerServesRequestedKind(t *testing.T) {
	h := startServer(t, NewTextContentServer, 12)
	defer h.stop(t)

	h.inbound.Sender().Send(sim.Packet{
		Session: 8,
		Kind:    sim.PacketData,
		Route:   []sim.NodeID{11, 5, 12},
		Hop:     2,
	})

	reply, ok := h.routerRx.Receive()
	require.True(t, ok)
	assert.Equal(t, sim.PacketData, reply.Kind)
	assert.Equal(t, sim.NodeID(11), reply.Destination())
	assert.Equal(t, "text/8", string(reply.Payload))
}

func TestMediaContentServerTagsItsKind(t *testing.T) {
	h := startServer(t, NewMediaContentServer, 12)
	defer h.stop(t)

	h.inbound.Sender().Send(sim.Packet{
		Session: 4,
		Kind:    sim.PacketData,
		Route:   []sim.NodeID{11, 5, 12},
		Hop:     2,
	})

	reply, ok := h.routerRx.Receive()
	require.True(t, ok)
	assert.Equal(t, "media/4", string(reply.Payload))
}

func TestCommunicationServerEchoesPayload(t *testing.T) {
	h := startServer(t, NewCommunicationServer, 12)
	defer h.stop(t)

	h.inbound.Sender().Send(sim.Packet{
		Session: 2,
		Kind:    sim.PacketData,
		Route:   []sim.NodeID{11, 5, 12},
		Hop:     2,
		Payload: []byte("relay me"),
	})

	echo, ok := h.routerRx.Receive()
	require.True(t, ok)
	assert.Equal(t, []byte("relay me"), echo.Payload)
	assert.Equal(t, sim.NodeID(11), echo.Destination())
}

func TestServerDropsMisroutedPacket(t *testing.T) {
	h := startServer(t, NewCommunicationServer, 12)
	defer h.stop(t)

	h.inbound.Sender().Send(sim.Packet{
		Kind:  sim.PacketData,
		Route: []sim.NodeID{11, 5, 40},
		Hop:   2,
	})

	ev, ok := h.eventRx.Receive()
	require.True(t, ok)
	_, isDrop := ev.(sim.PacketDropped)
	assert.True(t, isDrop)
}
