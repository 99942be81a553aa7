package partitioner

import (
	"context"

	"github.com/google/uuid"

	"github.com/steadyum/steadyum-go/regionmath"
	"github.com/steadyum/steadyum-go/simobjects"
)

// bodyAABB returns the cube of half-size one bounding radius around a
// body's position (the AABB circumscribing its bounding sphere, the
// same box solver.Body.AABB uses). No extra margin is added beyond
// that cube.
func bodyAABB(b simobjects.BodyAssignment) simobjects.AABB {
	r := simobjects.BoundingRadius(b.Cold.Shape)
	return simobjects.AABBFromPose(b.Warm.Position, r)
}

func toRegionAABB(a simobjects.AABB) regionmath.AABB {
	return regionmath.AABB{
		Mins: [3]float64{a.Mins.X, a.Mins.Y, a.Mins.Z},
		Maxs: [3]float64{a.Maxs.X, a.Maxs.Y, a.Maxs.Z},
	}
}

// groupByDestination implements spec.md §4.1/§4.4's ingest fan-out
// rule: a dynamic body goes to the single region owning its AABB's
// maxs corner; a non-dynamic body (fixed or kinematic) is replicated
// into every region its loosened AABB intersects, since such bodies
// never migrate and every neighboring region needs its own copy to
// generate boundary contacts against (S3 "non-dynamic ground").
func groupByDestination(bodies []simobjects.BodyAssignment, width int64) (map[regionmath.Region][]simobjects.BodyAssignment, map[uuid.UUID]regionmath.Region) {
	groups := make(map[regionmath.Region][]simobjects.BodyAssignment)
	// primary records each body's single "home" group for joint
	// routing: the one region a dynamic body always belongs to, or
	// (arbitrarily but deterministically) the first region a
	// replicated non-dynamic body was fanned out to.
	primary := make(map[uuid.UUID]regionmath.Region, len(bodies))
	for _, b := range bodies {
		box := toRegionAABB(bodyAABB(b))
		if b.Cold.Kind.IsDynamic() {
			region := regionmath.RegionOf(box, width)
			groups[region] = append(groups[region], b)
			primary[b.UUID] = region
			continue
		}
		for i, region := range regionmath.RegionsIntersecting(box, width) {
			groups[region] = append(groups[region], b)
			if i == 0 {
				primary[b.UUID] = region
			}
		}
	}
	return groups, primary
}

// groupJoints attaches each impulse joint to the AssignIsland group of
// the region both of its endpoints share. A joint whose endpoints land
// in different destination groups has no single recipient that could
// install it meaningfully; it is dropped here rather than sent to an
// arbitrary side, consistent with DESIGN.md's joint-migration
// resolution (joints are a best-effort supplement, never required for
// correctness).
func groupJoints(joints []simobjects.ImpulseJointAssignment, primary map[uuid.UUID]regionmath.Region) map[regionmath.Region][]simobjects.ImpulseJointAssignment {
	out := make(map[regionmath.Region][]simobjects.ImpulseJointAssignment)
	for _, j := range joints {
		r1, ok1 := primary[j.Body1]
		r2, ok2 := primary[j.Body2]
		if ok1 && ok2 && r1.Equal(r2) {
			out[r1] = append(out[r1], j)
		}
	}
	return out
}

// Insert handles POST /insert: group bodies by destination region,
// resolve (or spawn) each destination's owning Worker via AssignRegion,
// and publish one AssignIsland per group.
func (p *Partitioner) Insert(ctx context.Context, req simobjects.InsertRequest) error {
	width := int64(p.cfg.RegionWidth)
	groups, primary := groupByDestination(req.Bodies, width)
	joints := groupJoints(req.ImpulseJoints, primary)

	for region, bodies := range groups {
		assignment, err := p.AssignRegion(ctx, region)
		if err != nil {
			return err
		}
		cmd := simobjects.RunnerCommand{
			Kind:          simobjects.CmdAssignIsland,
			Bodies:        bodies,
			ImpulseJoints: joints[region],
		}
		payload, err := simobjects.MarshalCommand(cmd)
		if err != nil {
			return err
		}
		if err := p.Bus.Publish(ctx, "runner/"+assignment.UUID.String(), payload); err != nil {
			return err
		}
	}
	return nil
}
