package migration

import "github.com/steadyum/steadyum-go/regionmath"

// Destination computes the best destination region for a component per
// spec.md §4.6's max-corner rule: starting from sim_bounds, each
// member's candidate region (a watched ghost's source region if the
// member is a ghost, else region_of(member.AABB, width)) can only push
// the destination strictly forward in region order. The second return
// value is false if the component stays in sim_bounds (no migration).
func Destination(g *Graph, comp Component, simBounds regionmath.Region, width int64) (regionmath.Region, bool) {
	best := simBounds

	for _, h := range comp.Bodies {
		var candidate regionmath.Region
		if ghost, ok := g.Ghosts[h]; ok {
			candidate = ghost.SourceRegion
		} else {
			aabb, ok := g.AABBs[h]
			if !ok {
				continue
			}
			candidate = regionmath.RegionOf(aabb, width)
		}
		if best.Less(candidate) {
			best = candidate
		}
	}

	if best.Equal(simBounds) {
		return simBounds, false
	}
	return best, true
}

// NonGhostMembers filters ghosts out of a component's body list — the
// set that actually migrates (spec.md: "the whole component (minus any
// ghosts) migrates to best").
func NonGhostMembers(g *Graph, comp Component) []BodyHandle {
	out := make([]BodyHandle, 0, len(comp.Bodies))
	for _, h := range comp.Bodies {
		if _, isGhost := g.Ghosts[h]; !isGhost {
			out = append(out, h)
		}
	}
	return out
}
