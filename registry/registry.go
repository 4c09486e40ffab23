// Package registry maps role/variant tags to node constructors. It is
// the seam that lets independently-authored node implementations be
// substituted without touching the orchestrator.
package registry

import (
	"fmt"

	"github.com/skylab-sim/skymesh/sim"
)

// A Constructor builds one ready-to-run node from its identity, its
// assembled channel ends, and its role parameters.
type Constructor func(
	id sim.NodeID,
	events sim.Sender[sim.Event],
	commands sim.Receiver[sim.Command],
	inbound sim.Receiver[sim.Packet],
	outbound map[sim.NodeID]sim.Sender[sim.Packet],
	params sim.Params,
) sim.Node

// A VariantNotFoundError reports a topology referencing a role/variant
// with no registered constructor.
type VariantNotFoundError struct {
	Role  sim.Role
	Tag   string
	Known []string
}

func (e *VariantNotFoundError) Error() string {
	return fmt.Sprintf(
		"no %s variant %q registered (known: %v)", e.Role, e.Tag, e.Known)
}

// A Registry holds the constructors for every role, keyed by variant
// tag. Lookup is by tag, never by position, so the registry size and
// the node count may diverge freely.
type Registry struct {
	byRole map[sim.Role]map[string]Constructor
	tags   map[sim.Role][]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byRole: make(map[sim.Role]map[string]Constructor),
		tags:   make(map[sim.Role][]string),
	}
}

// Register adds a constructor under a role and tag. Registering the same
// tag twice is a programming error and panics.
func (r *Registry) Register(role sim.Role, tag string, ctor Constructor) {
	variants, ok := r.byRole[role]
	if !ok {
		variants = make(map[string]Constructor)
		r.byRole[role] = variants
	}

	if _, dup := variants[tag]; dup {
		panic(fmt.Sprintf("%s variant %q already registered", role, tag))
	}

	variants[tag] = ctor
	r.tags[role] = append(r.tags[role], tag)
}

// Resolve returns the constructor registered under the role and tag.
func (r *Registry) Resolve(role sim.Role, tag string) (Constructor, error) {
	ctor, ok := r.byRole[role][tag]
	if !ok {
		return nil, &VariantNotFoundError{
			Role:  role,
			Tag:   tag,
			Known: r.Tags(role),
		}
	}

	return ctor, nil
}

// Tags returns the variant tags registered for a role, in registration
// order.
func (r *Registry) Tags(role sim.Role) []string {
	tags := make([]string, len(r.tags[role]))
	copy(tags, r.tags[role])
	return tags
}
