// Package solver is the opaque per-Worker physics bag spec.md §9
// describes as "a solver arena keyed by dense handles" — deliberately
// minimal, since solver internals are out of this spec's scope (see
// spec.md §1 Non-goals: "physics solver internals"). It supplies just
// enough rigid-body integration and AABB-overlap contact detection for
// the orchestration logic in package worker (watch-set, migration,
// kinematic animation) to have real state to operate on and be
// testable end to end.
package solver

import (
	"math"

	"github.com/google/uuid"

	"github.com/steadyum/steadyum-go/migration"
	"github.com/steadyum/steadyum-go/regionmath"
	"github.com/steadyum/steadyum-go/simobjects"
)

// Gravity is the constant downward (−Y) acceleration applied to every
// dynamic body, matching the original's default scene gravity.
const Gravity = -9.81

// Handle is the dense integer handle every body (real or ghost) is
// known by inside a Solver, matching migration.BodyHandle's role.
type Handle = migration.BodyHandle

// Body is one solver-owned rigid body (real, not a ghost).
type Body struct {
	UUID       uuid.UUID
	Kind       simobjects.BodyKind
	Shape      simobjects.Shape
	Pose       simobjects.Isometry
	LinVel     simobjects.Vec3
	AngVel     simobjects.Vec3
	Animations simobjects.KinematicAnimations
	// halfExtent approximates the body's local bounding-sphere radius,
	// derived from Shape at creation; used for both AABB and the
	// watch-ghost radius (1.1x local bounding sphere, spec.md §4.5
	// step 3).
	halfExtent float64
}

// Ghost is a locally-mirrored boundary body: generates no forces on
// this Worker's region, exists purely so narrow-phase-style contact
// detection can see across region boundaries.
type Ghost struct {
	Info   migration.GhostInfo
	Sphere simobjects.BoundingSphere
	// iterationTag records the last watch-set update tick that touched
	// this ghost; the owning Worker reaps any ghost whose tag doesn't
	// match the current iteration (generational cleanup).
	iterationTag uint64
}

// Solver owns every body and ghost in one Worker's region.
type Solver struct {
	nextHandle Handle
	Bodies     map[Handle]*Body
	Ghosts     map[Handle]*Ghost
	uuid2body  map[uuid.UUID]Handle
}

// New returns an empty Solver.
func New() *Solver {
	return &Solver{
		Bodies:    make(map[Handle]*Body),
		Ghosts:    make(map[Handle]*Ghost),
		uuid2body: make(map[uuid.UUID]Handle),
	}
}

// CreateBody installs a real body from a BodyAssignment's warm+cold
// state, returning its new handle. If a body with the same UUID
// already exists, it is replaced — this is what makes installing a
// duplicate AssignIsland idempotent (spec.md §8 invariant 7).
func (s *Solver) CreateBody(uid uuid.UUID, warm simobjects.WarmBody, cold simobjects.ColdBody) Handle {
	if old, ok := s.uuid2body[uid]; ok {
		delete(s.Bodies, old)
	}
	h := s.nextHandle
	s.nextHandle++
	b := &Body{
		UUID:       uid,
		Kind:       cold.Kind,
		Shape:      cold.Shape,
		Pose:       warm.Position,
		LinVel:     warm.LinVel,
		AngVel:     warm.AngVel,
		Animations: cold.Animations,
		halfExtent: simobjects.BoundingRadius(cold.Shape),
	}
	s.Bodies[h] = b
	s.uuid2body[uid] = h
	return h
}

// RemoveBody deletes a real body (used when it migrates away).
func (s *Solver) RemoveBody(h Handle) {
	if b, ok := s.Bodies[h]; ok {
		delete(s.uuid2body, b.UUID)
		delete(s.Bodies, h)
	}
}

// UpsertGhost creates or updates the ghost mirroring neighborUUID
// (owned by sourceRegion), tagging it with iteration so the caller can
// reap stale ghosts after a full watch-set refresh.
func (s *Solver) UpsertGhost(neighborUUID uuid.UUID, sourceRegion regionmath.Region, sphere simobjects.BoundingSphere, iteration uint64) {
	for h, g := range s.Ghosts {
		if g.Info.UUID == neighborUUID {
			g.Sphere = sphere
			g.iterationTag = iteration
			g.Info.SourceRegion = sourceRegion
			s.Ghosts[h] = g
			return
		}
	}
	h := s.nextHandle
	s.nextHandle++
	s.Ghosts[h] = &Ghost{
		Info:         migration.GhostInfo{UUID: neighborUUID, SourceRegion: sourceRegion},
		Sphere:       sphere,
		iterationTag: iteration,
	}
}

// ReapStaleGhosts removes every ghost whose iteration tag does not
// match the current iteration, implementing the generational cleanup
// spec.md §4.5 step 4 describes.
func (s *Solver) ReapStaleGhosts(currentIteration uint64) {
	for h, g := range s.Ghosts {
		if g.iterationTag != currentIteration {
			delete(s.Ghosts, h)
		}
	}
}

// AABB returns the body's current axis-aligned bounding box, derived
// from its pose and bounding radius (a cube circumscribing the
// bounding sphere — adequate for region_of/regions_intersecting, which
// only need a conservative AABB).
func (b *Body) AABB() simobjects.AABB {
	return simobjects.AABBFromPose(b.Pose, b.halfExtent)
}

func overlaps(a, b simobjects.AABB) bool {
	return a.Mins.X <= b.Maxs.X && a.Maxs.X >= b.Mins.X &&
		a.Mins.Y <= b.Maxs.Y && a.Maxs.Y >= b.Mins.Y &&
		a.Mins.Z <= b.Maxs.Z && a.Maxs.Z >= b.Mins.Z
}

func toRegionAABB(a simobjects.AABB) regionmath.AABB {
	return regionmath.AABB{
		Mins: [3]float64{a.Mins.X, a.Mins.Y, a.Mins.Z},
		Maxs: [3]float64{a.Maxs.X, a.Maxs.Y, a.Maxs.Z},
	}
}

// WatchSphere returns the bounding sphere a Worker publishes for body h
// in its WatchedObjects blob: 1.1x the local bounding radius, centered
// on the body's current pose (spec.md §4.5 step 3).
func (s *Solver) WatchSphere(h Handle) (simobjects.BoundingSphere, bool) {
	b, ok := s.Bodies[h]
	if !ok {
		return simobjects.BoundingSphere{}, false
	}
	return simobjects.BoundingSphere{Center: b.Pose.Translation, Radius: b.halfExtent * 1.1}, true
}

// Step advances every dynamic body by dt using semi-implicit Euler
// under Gravity, and evaluates kinematic animation curves for
// kinematic bodies. Contact resolution and joint solving are out of
// this spec's scope (see package doc); this is enough to exercise the
// orchestration logic above it (migration, watch-set, pacing).
func (s *Solver) Step(dt float64, simTime float64) {
	for _, b := range s.Bodies {
		switch b.Kind {
		case simobjects.BodyDynamic:
			b.LinVel.Y += Gravity * dt
			b.Pose.Translation.X += b.LinVel.X * dt
			b.Pose.Translation.Y += b.LinVel.Y * dt
			b.Pose.Translation.Z += b.LinVel.Z * dt
		case simobjects.BodyKinematicPositionBased, simobjects.BodyKinematicVelocityBased:
			b.Pose = b.Animations.Eval(simTime, b.Pose)
		}
	}
}

// Snapshot builds the migration.Graph view of every locally-owned
// dynamic body and current ghost, for the connected-components pass.
// contacts/joints adjacency (produced by real narrow-phase/joint
// solving, out of scope here) is supplied by the caller.
func (s *Solver) Snapshot(contacts, joints map[Handle][]Handle) *migration.Graph {
	g := &migration.Graph{
		Contacts: contacts,
		Joints:   joints,
		Ghosts:   make(map[Handle]migration.GhostInfo, len(s.Ghosts)),
		AABBs:    make(map[Handle]regionmath.AABB, len(s.Bodies)),
	}
	for h, b := range s.Bodies {
		if b.Kind == simobjects.BodyDynamic {
			g.DynamicBodies = append(g.DynamicBodies, h)
		}
		g.AABBs[h] = toRegionAABB(b.AABB())
	}
	for h, gh := range s.Ghosts {
		g.Ghosts[h] = gh.Info
	}
	return g
}

// DetectContacts returns an AABB-overlap adjacency over every body and
// ghost (real narrow-phase contact generation is out of this spec's
// scope; AABB overlap is a conservative stand-in sufficient to drive
// connected-components island detection across a boundary, since any
// pair close enough to need migrating together already has overlapping
// AABBs).
func (s *Solver) DetectContacts() map[Handle][]Handle {
	type entry struct {
		h    Handle
		aabb simobjects.AABB
	}
	var all []entry
	for h, b := range s.Bodies {
		all = append(all, entry{h, b.AABB()})
	}
	for h, g := range s.Ghosts {
		all = append(all, entry{h, simobjects.AABB{
			Mins: simobjects.Vec3{X: g.Sphere.Center.X - g.Sphere.Radius, Y: g.Sphere.Center.Y - g.Sphere.Radius, Z: g.Sphere.Center.Z - g.Sphere.Radius},
			Maxs: simobjects.Vec3{X: g.Sphere.Center.X + g.Sphere.Radius, Y: g.Sphere.Center.Y + g.Sphere.Radius, Z: g.Sphere.Center.Z + g.Sphere.Radius},
		}})
	}

	contacts := make(map[Handle][]Handle)
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			if overlaps(all[i].aabb, all[j].aabb) {
				contacts[all[i].h] = append(contacts[all[i].h], all[j].h)
				contacts[all[j].h] = append(contacts[all[j].h], all[i].h)
			}
		}
	}
	return contacts
}

// RayCast finds the closest body (if any) whose bounding sphere the
// ray (origin, direction, unit length assumed) intersects within
// maxToi. Exact narrow-phase ray/shape intersection is out of this
// spec's scope (see package doc); the bounding-sphere test is the same
// conservative approximation DetectContacts and the watch-set radius
// already rely on.
func (s *Solver) RayCast(origin, direction simobjects.Vec3, maxToi float64) (uuid.UUID, float64, bool) {
	var (
		bestUUID uuid.UUID
		bestToi  = maxToi
		found    bool
	)
	for _, b := range s.Bodies {
		center := b.Pose.Translation
		toi, hit := raySphereToi(origin, direction, center, b.halfExtent, bestToi)
		if hit && toi <= bestToi {
			bestToi = toi
			bestUUID = b.UUID
			found = true
		}
	}
	return bestUUID, bestToi, found
}

// raySphereToi returns the smallest non-negative t <= maxToi at which
// origin+t*direction enters the sphere (center, radius), if any.
func raySphereToi(origin, direction, center simobjects.Vec3, radius, maxToi float64) (float64, bool) {
	ox, oy, oz := origin.X-center.X, origin.Y-center.Y, origin.Z-center.Z
	a := direction.X*direction.X + direction.Y*direction.Y + direction.Z*direction.Z
	if a == 0 {
		return 0, false
	}
	b := 2 * (ox*direction.X + oy*direction.Y + oz*direction.Z)
	c := ox*ox + oy*oy + oz*oz - radius*radius
	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, false
	}
	sqrtDisc := math.Sqrt(disc)
	t0 := (-b - sqrtDisc) / (2 * a)
	t1 := (-b + sqrtDisc) / (2 * a)
	if t0 > t1 {
		t0, t1 = t1, t0
	}
	if t0 < 0 {
		t0 = t1
		if t0 < 0 {
			return 0, false
		}
	}
	if t0 > maxToi {
		return 0, false
	}
	return t0, true
}
