// Package simulation materializes the actor graph from a topology model
// and orchestrates the lifecycle of every running actor.
package simulation

import (
	"fmt"
	"slices"

	"github.com/rs/xid"

	"github.com/skylab-sim/skymesh/controller"
	"github.com/skylab-sim/skymesh/datarecording"
	"github.com/skylab-sim/skymesh/monitoring"
	"github.com/skylab-sim/skymesh/registry"
	"github.com/skylab-sim/skymesh/sim"
	"github.com/skylab-sim/skymesh/topology"
	"github.com/skylab-sim/skymesh/wiring"
)

// Builder can be used to build a simulation.
type Builder struct {
	model    *topology.Model
	registry *registry.Registry
	policy   PartitionPolicy

	monitorOn   bool
	monitorPort int

	outputFileName string
	recorder       datarecording.DataRecorder
}

// MakeBuilder creates a builder with the default registry and partition
// policy, no monitor, and no data recording.
func MakeBuilder() Builder {
	return Builder{
		registry: DefaultRegistry(),
		policy:   DefaultPartitionPolicy(),
	}
}

// WithTopology sets the topology model to materialize.
func (b Builder) WithTopology(m *topology.Model) Builder {
	b.model = m
	return b
}

// WithRegistry replaces the factory registry.
func (b Builder) WithRegistry(r *registry.Registry) Builder {
	b.registry = r
	return b
}

// WithPartitionPolicy replaces the variant partition policy.
func (b Builder) WithPartitionPolicy(p PartitionPolicy) Builder {
	b.policy = p
	return b
}

// WithMonitor enables the web monitor.
func (b Builder) WithMonitor() Builder {
	b.monitorOn = true
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithOutputFileName enables data recording into the named SQLite file.
func (b Builder) WithOutputFileName(name string) Builder {
	b.outputFileName = name
	return b
}

// WithDataRecorder injects an existing recorder instead of creating one
// from the output file name.
func (b Builder) WithDataRecorder(r datarecording.DataRecorder) Builder {
	b.recorder = r
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.model == nil {
		panic("topology model must be set before building")
	}

	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}
}

// Build wires the channel fabric, constructs every node through the
// registry, populates the control directory, and assembles the
// controller and the optional monitor. Any missing channel or
// constructor aborts the whole build; no partially-built network is
// ever returned.
func (b Builder) Build() (*Simulation, error) {
	b.parametersMustBeValid()

	table, err := wiring.Build(b.model)
	if err != nil {
		return nil, err
	}

	variants, err := assignVariants(b.model.Records(), b.policy)
	if err != nil {
		return nil, err
	}

	directory := controller.NewDirectory()
	nodes := make([]sim.Node, 0, b.model.Size())
	snapshot := make([]sim.NodeInfo, 0, b.model.Size())

	for _, rec := range b.model.Records() {
		node, err := b.buildNode(rec, variants[rec.ID], table, directory)
		if err != nil {
			return nil, err
		}

		nodes = append(nodes, node)
		snapshot = append(snapshot, sim.NodeInfo{
			ID:        rec.ID,
			Role:      rec.Role.String(),
			Variant:   variants[rec.ID],
			Neighbors: slices.Clone(rec.Neighbors),
		})
	}

	sources := make([]sim.Receiver[sim.Event], 0, len(sim.Roles()))
	for _, role := range sim.Roles() {
		sources = append(sources, table.EventReceiver(role))
	}

	ctrl := controller.New(directory, sources, snapshot)

	recorder := b.recorder
	if recorder == nil && b.outputFileName != "" {
		recorder = datarecording.New(b.outputFileName)
	}
	if recorder != nil {
		ctrl.RegisterRecorder(recorder)
	}

	s := &Simulation{
		id:         xid.New().String(),
		nodes:      nodes,
		controller: ctrl,
		recorder:   recorder,
	}

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}
		s.monitor.RegisterController(ctrl)
	}

	return s, nil
}

func (b Builder) buildNode(
	rec topology.Record,
	variant string,
	table *wiring.Table,
	directory *controller.Directory,
) (sim.Node, error) {
	ctor, err := b.registry.Resolve(rec.Role, variant)
	if err != nil {
		return nil, err
	}

	bundle, err := table.Bundle(rec.ID)
	if err != nil {
		return nil, err
	}

	commandSender, err := table.CommandSender(rec.ID)
	if err != nil {
		return nil, err
	}
	packetSender, err := table.PacketSender(rec.ID)
	if err != nil {
		return nil, err
	}

	node := ctor(rec.ID, bundle.Events, bundle.Commands, bundle.Inbound,
		bundle.Outbound, sim.Params{DropRate: rec.DropRate})

	if node.ID() != rec.ID {
		return nil, fmt.Errorf(
			"constructor for %s variant %q built %s instead of %s",
			rec.Role, variant, node.ID(), rec.ID)
	}

	err = directory.Add(rec.ID, controller.Entry{
		Role:     rec.Role,
		Commands: commandSender,
		Packets:  packetSender,
	})
	if err != nil {
		return nil, err
	}

	return node, nil
}
