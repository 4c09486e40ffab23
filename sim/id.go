package sim

import "fmt"

// NodeID identifies a node. IDs are unique across the whole network,
// regardless of role.
type NodeID uint8

func (id NodeID) String() string {
	return fmt.Sprintf("node-%d", uint8(id))
}

// Role is the broad category of a node.
type Role int

const (
	RoleRouter Role = iota
	RoleClient
	RoleServer
)

func (r Role) String() string {
	switch r {
	case RoleRouter:
		return "router"
	case RoleClient:
		return "client"
	case RoleServer:
		return "server"
	default:
		return fmt.Sprintf("role-%d", int(r))
	}
}

// Roles lists all roles in a fixed order.
func Roles() []Role {
	return []Role{RoleRouter, RoleClient, RoleServer}
}
