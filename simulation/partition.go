package simulation

import (
	"fmt"

	"github.com/skylab-sim/skymesh/clients"
	"github.com/skylab-sim/skymesh/drones"
	"github.com/skylab-sim/skymesh/servers"
	"github.com/skylab-sim/skymesh/sim"
	"github.com/skylab-sim/skymesh/topology"
)

// A Share assigns a proportional weight to one variant tag.
type Share struct {
	Variant string
	Weight  int
}

// A PartitionPolicy decides which variant the untagged entries of each
// role receive. Assignment is purely positional over declaration order:
// the same topology and policy always produce the same assignment.
// Entries that carry an explicit variant tag are never touched.
type PartitionPolicy struct {
	Routers []Share
	Clients []Share
	Servers []Share
}

// DefaultPartitionPolicy routes every untagged drone through the hop
// router, splits clients evenly between chat and media, and splits
// servers evenly across text content, media content, and communication.
func DefaultPartitionPolicy() PartitionPolicy {
	return PartitionPolicy{
		Routers: []Share{
			{Variant: drones.VariantHop, Weight: 1},
		},
		Clients: []Share{
			{Variant: clients.VariantChat, Weight: 1},
			{Variant: clients.VariantMedia, Weight: 1},
		},
		Servers: []Share{
			{Variant: servers.VariantTextContent, Weight: 1},
			{Variant: servers.VariantMediaContent, Weight: 1},
			{Variant: servers.VariantCommunication, Weight: 1},
		},
	}
}

func (p PartitionPolicy) shares(role sim.Role) []Share {
	switch role {
	case sim.RoleRouter:
		return p.Routers
	case sim.RoleClient:
		return p.Clients
	case sim.RoleServer:
		return p.Servers
	default:
		return nil
	}
}

// assignVariants resolves the variant tag of every record. Tagged
// records keep their tag; untagged records of each role are partitioned
// across the policy's shares, in declaration order, proportionally to
// the share weights.
func assignVariants(
	records []topology.Record,
	policy PartitionPolicy,
) (map[sim.NodeID]string, error) {
	assigned := make(map[sim.NodeID]string, len(records))

	for _, role := range sim.Roles() {
		var untagged []sim.NodeID
		for _, r := range records {
			if r.Role != role {
				continue
			}
			if r.Variant != "" {
				assigned[r.ID] = r.Variant
				continue
			}
			untagged = append(untagged, r.ID)
		}

		if len(untagged) == 0 {
			continue
		}

		tags, err := partition(len(untagged), policy.shares(role))
		if err != nil {
			return nil, fmt.Errorf("partitioning %s nodes: %w", role, err)
		}

		for i, id := range untagged {
			assigned[id] = tags[i]
		}
	}

	return assigned, nil
}

// partition splits n slots across the shares. Slot boundaries are fixed
// by cumulative weight, so adding a node never reshuffles the variants
// of the nodes declared before it within the same share block.
func partition(n int, shares []Share) ([]string, error) {
	if len(shares) == 0 {
		return nil, fmt.Errorf("no shares configured")
	}

	total := 0
	for _, s := range shares {
		if s.Weight < 0 {
			return nil, fmt.Errorf("share %q has negative weight %d",
				s.Variant, s.Weight)
		}
		total += s.Weight
	}
	if total == 0 {
		return nil, fmt.Errorf("all share weights are zero")
	}

	tags := make([]string, 0, n)
	cum := 0
	prevBoundary := 0
	for _, s := range shares {
		cum += s.Weight
		boundary := n * cum / total
		for i := prevBoundary; i < boundary; i++ {
			tags = append(tags, s.Variant)
		}
		prevBoundary = boundary
	}

	return tags, nil
}
