package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylab-sim/skymesh/sim"
)

type stubNode struct {
	id sim.NodeID
}

func (n *stubNode) ID() sim.NodeID { return n.id }
func (n *stubNode) Run()           {}

func stubConstructor(
	id sim.NodeID,
	_ sim.Sender[sim.Event],
	_ sim.Receiver[sim.Command],
	_ sim.Receiver[sim.Packet],
	_ map[sim.NodeID]sim.Sender[sim.Packet],
	_ sim.Params,
) sim.Node {
	return &stubNode{id: id}
}

func TestResolveRegisteredVariant(t *testing.T) {
	r := NewRegistry()
	r.Register(sim.RoleRouter, "hop", stubConstructor)

	ctor, err := r.Resolve(sim.RoleRouter, "hop")

	require.NoError(t, err)
	node := ctor(7, sim.Sender[sim.Event]{}, sim.Receiver[sim.Command]{},
		sim.Receiver[sim.Packet]{}, nil, sim.Params{})
	assert.Equal(t, sim.NodeID(7), node.ID())
}

func TestResolveUnknownVariant(t *testing.T) {
	r := NewRegistry()
	r.Register(sim.RoleRouter, "hop", stubConstructor)

	_, err := r.Resolve(sim.RoleRouter, "teleport")

	require.Error(t, err)
	var notFound *VariantNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "teleport", notFound.Tag)
	assert.Equal(t, []string{"hop"}, notFound.Known)
}

func TestResolveSameTagAcrossRoles(t *testing.T) {
	r := NewRegistry()
	r.Register(sim.RoleClient, "media", stubConstructor)
	r.Register(sim.RoleServer, "media", stubConstructor)

	_, err := r.Resolve(sim.RoleClient, "media")
	assert.NoError(t, err)
	_, err = r.Resolve(sim.RoleServer, "media")
	assert.NoError(t, err)
	_, err = r.Resolve(sim.RoleRouter, "media")
	assert.Error(t, err)
}

func TestRegisterDuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(sim.RoleRouter, "hop", stubConstructor)

	assert.Panics(t, func() {
		r.Register(sim.RoleRouter, "hop", stubConstructor)
	})
}

func TestTagsPreserveRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(sim.RoleServer, "text-content", stubConstructor)
	r.Register(sim.RoleServer, "media-content", stubConstructor)
	r.Register(sim.RoleServer, "communication", stubConstructor)

	assert.Equal(t,
		[]string{"text-content", "media-content", "communication"},
		r.Tags(sim.RoleServer))
}
