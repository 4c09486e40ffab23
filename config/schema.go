package config

import (
	"fmt"
	"math"

	"github.com/skylab-sim/skymesh/sim"
	"github.com/skylab-sim/skymesh/topology"
)

// A NodeDecl is one node entry in the topology document.
type NodeDecl struct {
	ID        int     `yaml:"id"`
	Variant   string  `yaml:"variant,omitempty"`
	DropRate  float64 `yaml:"pdr,omitempty"`
	Connected []int   `yaml:"connected"`
}

// A Document is the parsed topology description. It is a plain schema;
// all structural validation happens when it is built into a
// topology.Model.
type Document struct {
	MinDrones       int  `yaml:"min_drones,omitempty"`
	AsymmetricLinks bool `yaml:"asymmetric_links,omitempty"`

	Drones  []NodeDecl `yaml:"drones"`
	Clients []NodeDecl `yaml:"clients"`
	Servers []NodeDecl `yaml:"servers"`
}

// BuildModel turns the document into a validated topology model.
// Schema-level defects (ids outside the NodeID range) surface as
// ErrDocumentInvalid; structural defects surface as *topology.Error.
func (d *Document) BuildModel() (*topology.Model, error) {
	b := topology.MakeModelBuilder()
	if d.MinDrones > 0 {
		b = b.WithMinRouters(d.MinDrones)
	}
	if d.AsymmetricLinks {
		b = b.WithAsymmetricLinks()
	}

	sections := []struct {
		role  sim.Role
		decls []NodeDecl
	}{
		{sim.RoleRouter, d.Drones},
		{sim.RoleClient, d.Clients},
		{sim.RoleServer, d.Servers},
	}

	for _, section := range sections {
		for _, decl := range section.decls {
			rec, err := decl.toRecord(section.role)
			if err != nil {
				return nil, err
			}
			b = b.Add(rec)
		}
	}

	return b.Build()
}

func (decl NodeDecl) toRecord(role sim.Role) (topology.Record, error) {
	if decl.ID < 0 || decl.ID > math.MaxUint8 {
		return topology.Record{}, fmt.Errorf(
			"%w: node id %d is outside [0, %d]",
			ErrDocumentInvalid, decl.ID, math.MaxUint8)
	}

	neighbors := make([]sim.NodeID, 0, len(decl.Connected))
	for _, nb := range decl.Connected {
		if nb < 0 || nb > math.MaxUint8 {
			return topology.Record{}, fmt.Errorf(
				"%w: node %d references neighbor id %d outside [0, %d]",
				ErrDocumentInvalid, decl.ID, nb, math.MaxUint8)
		}
		neighbors = append(neighbors, sim.NodeID(nb))
	}

	return topology.Record{
		ID:        sim.NodeID(decl.ID),
		Role:      role,
		Variant:   decl.Variant,
		Neighbors: neighbors,
		DropRate:  decl.DropRate,
	}, nil
}
