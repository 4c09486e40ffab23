package simulation

import (
	"github.com/skylab-sim/skymesh/clients"
	"github.com/skylab-sim/skymesh/drones"
	"github.com/skylab-sim/skymesh/registry"
	"github.com/skylab-sim/skymesh/servers"
	"github.com/skylab-sim/skymesh/sim"
)

// DefaultRegistry returns a registry with every built-in node variant
// registered.
func DefaultRegistry() *registry.Registry {
	r := registry.NewRegistry()

	r.Register(sim.RoleRouter, drones.VariantHop, drones.NewHopRouter)
	r.Register(sim.RoleRouter, drones.VariantFlood, drones.NewFloodRouter)

	r.Register(sim.RoleClient, clients.VariantChat, clients.NewChatClient)
	r.Register(sim.RoleClient, clients.VariantMedia, clients.NewMediaClient)

	r.Register(sim.RoleServer, servers.VariantTextContent,
		servers.NewTextContentServer)
	r.Register(sim.RoleServer, servers.VariantMediaContent,
		servers.NewMediaContentServer)
	r.Register(sim.RoleServer, servers.VariantCommunication,
		servers.NewCommunicationServer)

	return r
}
