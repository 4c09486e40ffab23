package wiring

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skylab-sim/skymesh/sim"
	"github.com/skylab-sim/skymesh/topology"
)

// ringModel builds 10 routers in a ring (ids 1..10), one client (11)
// attached to router 1, and one server (12) attached to router 5.
func ringModel() *topology.Model {
	b := topology.MakeModelBuilder().WithAsymmetricLinks()
	for i := 0; i < 10; i++ {
		id := sim.NodeID(i + 1)
		prev := sim.NodeID((i+9)%10 + 1)
		next := sim.NodeID((i+1)%10 + 1)
		b = b.Add(topology.Record{
			ID:        id,
			Role:      sim.RoleRouter,
			Neighbors: []sim.NodeID{prev, next},
		})
	}
	b = b.Add(topology.Record{
		ID:        11,
		Role:      sim.RoleClient,
		Neighbors: []sim.NodeID{1},
	})
	b = b.Add(topology.Record{
		ID:        12,
		Role:      sim.RoleServer,
		Neighbors: []sim.NodeID{5},
	})

	m, err := b.Build()
	if err != nil {
		panic(err)
	}

	return m
}

var _ = Describe("Fabric", func() {
	var (
		model *topology.Model
		table *Table
	)

	BeforeEach(func() {
		model = ringModel()

		var err error
		table, err = Build(model)
		Expect(err).ToNot(HaveOccurred())
	})

	It("should create one inbound channel per node", func() {
		Expect(table.InboundCount()).To(Equal(12))
		Expect(table.InboundCount()).To(Equal(model.Size()))
	})

	It("should register one directed edge per declared adjacency", func() {
		Expect(table.DirectedEdgeCount()).To(Equal(22))
		Expect(table.DirectedEdgeCount()).To(Equal(model.NumDirectedEdges()))
	})

	It("should key each node's outbound set by its neighbors", func() {
		bundle, err := table.Bundle(1)
		Expect(err).ToNot(HaveOccurred())
		Expect(bundle.Outbound).To(HaveLen(2))
		Expect(bundle.Outbound).To(HaveKey(sim.NodeID(10)))
		Expect(bundle.Outbound).To(HaveKey(sim.NodeID(2)))

		bundle, err = table.Bundle(11)
		Expect(err).ToNot(HaveOccurred())
		Expect(bundle.Outbound).To(HaveLen(1))
		Expect(bundle.Outbound).To(HaveKey(sim.NodeID(1)))
	})

	It("should route an outbound producer to the neighbor's inbound "+
		"consumer", func() {
		clientBundle, err := table.Bundle(11)
		Expect(err).ToNot(HaveOccurred())
		routerBundle, err := table.Bundle(1)
		Expect(err).ToNot(HaveOccurred())

		pkt := sim.Packet{Session: 7, Route: []sim.NodeID{11, 1}}
		clientBundle.Outbound[1].Send(pkt)

		received, ok := routerBundle.Inbound.Receive()
		Expect(ok).To(BeTrue())
		Expect(received.Session).To(Equal(uint64(7)))
	})

	It("should give every node its own command channel", func() {
		sender, err := table.CommandSender(5)
		Expect(err).ToNot(HaveOccurred())

		sender.Send(sim.Crash{})

		bundle, err := table.Bundle(5)
		Expect(err).ToNot(HaveOccurred())
		cmd, ok := bundle.Commands.Receive()
		Expect(ok).To(BeTrue())
		Expect(cmd).To(BeAssignableToTypeOf(sim.Crash{}))
	})

	It("should share one event channel per role category", func() {
		router1, err := table.Bundle(1)
		Expect(err).ToNot(HaveOccurred())
		router2, err := table.Bundle(2)
		Expect(err).ToNot(HaveOccurred())

		router1.Events.Send(sim.PacketSent{Node: 1})
		router2.Events.Send(sim.PacketSent{Node: 2})

		receiver := table.EventReceiver(sim.RoleRouter)
		first, ok := receiver.Receive()
		Expect(ok).To(BeTrue())
		second, ok := receiver.Receive()
		Expect(ok).To(BeTrue())

		nodes := []sim.NodeID{
			first.(sim.PacketSent).Node,
			second.(sim.PacketSent).Node,
		}
		Expect(nodes).To(ConsistOf(sim.NodeID(1), sim.NodeID(2)))
	})

	It("should fail lookups for unknown nodes", func() {
		_, err := table.Bundle(99)
		Expect(err).To(HaveOccurred())

		_, err = table.CommandSender(99)
		Expect(err).To(HaveOccurred())

		_, err = table.PacketSender(99)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("distributeOutbound", func() {
	It("should fail fast when a neighbor has no inbound channel", func() {
		records := []topology.Record{
			{ID: 1, Role: sim.RoleRouter, Neighbors: []sim.NodeID{99}},
		}
		senders := map[sim.NodeID]sim.Sender[sim.Packet]{}
		bundles := map[sim.NodeID]*Bundle{
			1: {Outbound: map[sim.NodeID]sim.Sender[sim.Packet]{}},
		}

		_, err := distributeOutbound(records, senders, bundles)

		Expect(err).To(HaveOccurred())

		var wiringErr *Error
		Expect(err).To(BeAssignableToTypeOf(wiringErr))
		Expect(err.(*Error).Node).To(Equal(sim.NodeID(1)))
	})
})
