package simulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylab-sim/skymesh/clients"
	"github.com/skylab-sim/skymesh/drones"
	"github.com/skylab-sim/skymesh/sim"
	"github.com/skylab-sim/skymesh/topology"
)

func TestPartitionSplitsProportionally(t *testing.T) {
	tags, err := partition(4, []Share{
		{Variant: "a", Weight: 1},
		{Variant: "b", Weight: 1},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a", "b", "b"}, tags)
}

func TestPartitionRoundsAtCumulativeBoundaries(t *testing.T) {
	tags, err := partition(5, []Share{
		{Variant: "a", Weight: 1},
		{Variant: "b", Weight: 1},
		{Variant: "c", Weight: 1},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "b", "c", "c"}, tags)
}

func TestPartitionGivesEverythingToASingleShare(t *testing.T) {
	tags, err := partition(3, []Share{{Variant: "only", Weight: 1}})

	require.NoError(t, err)
	assert.Equal(t, []string{"only", "only", "only"}, tags)
}

func TestPartitionRejectsEmptyShares(t *testing.T) {
	_, err := partition(3, nil)
	assert.Error(t, err)
}

func TestPartitionRejectsZeroTotalWeight(t *testing.T) {
	_, err := partition(3, []Share{{Variant: "a", Weight: 0}})
	assert.Error(t, err)
}

func TestPartitionRejectsNegativeWeight(t *testing.T) {
	_, err := partition(3, []Share{
		{Variant: "a", Weight: 2},
		{Variant: "b", Weight: -1},
	})
	assert.Error(t, err)
}

func TestAssignVariantsKeepsExplicitTags(t *testing.T) {
	records := []topology.Record{
		{ID: 1, Role: sim.RoleRouter, Variant: drones.VariantFlood},
		{ID: 2, Role: sim.RoleRouter},
	}

	assigned, err := assignVariants(records, DefaultPartitionPolicy())

	require.NoError(t, err)
	assert.Equal(t, drones.VariantFlood, assigned[1])
	assert.Equal(t, drones.VariantHop, assigned[2])
}

func TestAssignVariantsPartitionsInDeclarationOrder(t *testing.T) {
	records := []topology.Record{
		{ID: 1, Role: sim.RoleClient},
		{ID: 2, Role: sim.RoleRouter},
		{ID: 3, Role: sim.RoleClient},
	}

	assigned, err := assignVariants(records, DefaultPartitionPolicy())

	require.NoError(t, err)
	assert.Equal(t, clients.VariantChat, assigned[1])
	assert.Equal(t, clients.VariantMedia, assigned[3])
}

func TestAssignVariantsIsDeterministic(t *testing.T) {
	records := []topology.Record{
		{ID: 1, Role: sim.RoleRouter},
		{ID: 2, Role: sim.RoleClient},
		{ID: 3, Role: sim.RoleServer},
		{ID: 4, Role: sim.RoleClient},
		{ID: 5, Role: sim.RoleServer},
		{ID: 6, Role: sim.RoleServer},
	}

	first, err := assignVariants(records, DefaultPartitionPolicy())
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := assignVariants(records, DefaultPartitionPolicy())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestAssignVariantsReportsBadPolicy(t *testing.T) {
	records := []topology.Record{{ID: 1, Role: sim.RoleRouter}}

	_, err := assignVariants(records, PartitionPolicy{})

	assert.ErrorContains(t, err, "router")
}
