// Package migration implements connected-components island detection
// and the max-corner destination rule described in spec.md §4.6, plus
// the AssignIsland hand-off protocol.
//
// Grounded on original_source/.../connected_components.rs (iterative
// flood fill with a visited set) and region_assignment.rs (destination
// selection, ghost-short-circuit).
package migration

import (
	"github.com/google/uuid"

	"github.com/steadyum/steadyum-go/regionmath"
)

// BodyHandle is an opaque solver-local identifier for a body, matching
// the "dense handle" design note in spec.md §9 (no application-level
// reference cycles; the solver arena owns storage and hands out small
// integer handles).
type BodyHandle uint32

// Graph is the minimal view connected-components needs of a Worker's
// solver state: which bodies are dynamic, which are ghosts, and the
// contact/joint adjacency between them. Kept separate from the real
// solver's internal types (out of this spec's scope, see Non-goals)
// so this package is independently testable.
type Graph struct {
	// DynamicBodies is every locally-owned dynamic body eligible to be
	// a component root. Non-dynamic bodies and ghosts are never roots
	// but may appear as leaves reached via Contacts/Joints.
	DynamicBodies []BodyHandle

	// Contacts and Joints both define edges between handles (either
	// may reference dynamic bodies, fixed bodies, or ghosts).
	Contacts map[BodyHandle][]BodyHandle
	Joints   map[BodyHandle][]BodyHandle

	// Ghosts maps a ghost handle to the UUID it mirrors and the region
	// it was watched from (the owning neighbor's region).
	Ghosts map[BodyHandle]GhostInfo

	// AABBs is each non-ghost body's current collider AABB, used by
	// the max-corner destination rule.
	AABBs map[BodyHandle]regionmath.AABB
}

// GhostInfo is what the migration algorithm needs to know about a
// locally-mirrored ghost body.
type GhostInfo struct {
	UUID         uuid.UUID
	SourceRegion regionmath.Region
}

// Component is one connected island of bodies discovered by flood
// fill, retaining which members (if any) were ghosts.
type Component struct {
	Bodies []BodyHandle
}

// ConnectedComponents partitions every dynamic body reachable from
// Graph.DynamicBodies into islands, following Contacts and Joints
// edges. The flood fill uses a visited set on body handles so no body
// is assigned to more than one component. Ghost and other non-dynamic
// handles reached as edge endpoints join the component as leaves:
// their own edges are not followed, and since they are never in
// DynamicBodies they never start a component on their own.
func ConnectedComponents(g *Graph) []Component {
	visited := make(map[BodyHandle]bool)
	dynamic := make(map[BodyHandle]bool, len(g.DynamicBodies))
	for _, h := range g.DynamicBodies {
		dynamic[h] = true
	}
	var components []Component

	for _, root := range g.DynamicBodies {
		if visited[root] {
			continue
		}
		comp := floodFill(g, root, visited, dynamic)
		components = append(components, Component{Bodies: comp})
	}
	return components
}

func floodFill(g *Graph, root BodyHandle, visited, dynamic map[BodyHandle]bool) []BodyHandle {
	stack := []BodyHandle{root}
	visited[root] = true
	var members []BodyHandle

	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		members = append(members, h)
		if !dynamic[h] {
			continue
		}

		for _, n := range g.Contacts[h] {
			if !visited[n] {
				visited[n] = true
				stack = append(stack, n)
			}
		}
		for _, n := range g.Joints[h] {
			if !visited[n] {
				visited[n] = true
				stack = append(stack, n)
			}
		}
	}
	return members
}
