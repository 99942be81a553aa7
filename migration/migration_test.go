package migration

import (
	"testing"

	"github.com/google/uuid"

	"github.com/steadyum/steadyum-go/regionmath"
	"github.com/steadyum/steadyum-go/simobjects"
)

func regionAt(x, y, z int64) regionmath.Region {
	w := regionmath.DefaultWidth
	return regionmath.Region{Mins: [3]int64{x, y, z}, Maxs: [3]int64{x + w, y + w, z + w}}
}

func TestConnectedComponentsGroupsViaContactsAndJoints(t *testing.T) {
	g := &Graph{
		DynamicBodies: []BodyHandle{1, 2, 3, 4},
		Contacts:      map[BodyHandle][]BodyHandle{1: {2}, 2: {1}},
		Joints:        map[BodyHandle][]BodyHandle{3: {4}, 4: {3}},
	}
	comps := ConnectedComponents(g)
	if len(comps) != 2 {
		t.Fatalf("expected 2 components, got %d", len(comps))
	}
	sizes := map[int]int{}
	for _, c := range comps {
		sizes[len(c.Bodies)]++
	}
	if sizes[2] != 2 {
		t.Fatalf("expected two components of size 2, got sizes=%v", sizes)
	}
}

func TestConnectedComponentsIsolatedBodyIsOwnComponent(t *testing.T) {
	g := &Graph{DynamicBodies: []BodyHandle{1, 2}}
	comps := ConnectedComponents(g)
	if len(comps) != 2 {
		t.Fatalf("expected 2 singleton components, got %d", len(comps))
	}
}

func TestDestinationStaysWhenNoBodyLeavesRegion(t *testing.T) {
	sim := regionAt(0, 0, 0)
	g := &Graph{
		AABBs: map[BodyHandle]regionmath.AABB{
			1: {Mins: [3]float64{10, 10, 10}, Maxs: [3]float64{20, 20, 20}},
		},
	}
	comp := Component{Bodies: []BodyHandle{1}}
	_, migrates := Destination(g, comp, sim, regionmath.DefaultWidth)
	if migrates {
		t.Fatal("expected no migration: body AABB stays within sim_bounds")
	}
}

// S2 "stacked pair crosses boundary": two bodies in contact whose
// combined AABB straddles x=100; the destination must be the greater
// of the two candidate regions in lex order.
func TestDestinationMaxCornerRuleAcrossBoundary(t *testing.T) {
	sim := regionAt(0, 0, 0)
	greater := regionAt(100, 0, 0)
	g := &Graph{
		AABBs: map[BodyHandle]regionmath.AABB{
			1: {Mins: [3]float64{90, 0, 0}, Maxs: [3]float64{99, 10, 10}},   // stays in sim region
			2: {Mins: [3]float64{101, 0, 0}, Maxs: [3]float64{110, 10, 10}}, // crosses into greater region
		},
	}
	comp := Component{Bodies: []BodyHandle{1, 2}}
	dest, migrates := Destination(g, comp, sim, regionmath.DefaultWidth)
	if !migrates {
		t.Fatal("expected migration since one body's AABB left sim_bounds")
	}
	if !dest.Equal(greater) {
		t.Fatalf("expected destination %v, got %v", greater.Mins, dest.Mins)
	}
}

func TestDestinationGhostMemberUsesGhostSourceRegion(t *testing.T) {
	sim := regionAt(0, 0, 0)
	ghostSource := regionAt(200, 0, 0)
	g := &Graph{
		Ghosts: map[BodyHandle]GhostInfo{
			1: {UUID: uuid.New(), SourceRegion: ghostSource},
		},
		AABBs: map[BodyHandle]regionmath.AABB{
			2: {Mins: [3]float64{10, 10, 10}, Maxs: [3]float64{20, 20, 20}},
		},
	}
	comp := Component{Bodies: []BodyHandle{1, 2}}
	dest, migrates := Destination(g, comp, sim, regionmath.DefaultWidth)
	if !migrates || !dest.Equal(ghostSource) {
		t.Fatalf("expected migration to ghost source region %v, got %v (migrates=%v)", ghostSource.Mins, dest.Mins, migrates)
	}

	nonGhost := NonGhostMembers(g, comp)
	if len(nonGhost) != 1 || nonGhost[0] != 2 {
		t.Fatalf("expected only body 2 to migrate, got %v", nonGhost)
	}
}

func TestPendingQueueTimestampGate(t *testing.T) {
	q := NewPendingQueue()
	id := uuid.New()
	q.Enqueue(simobjects.BodyAssignment{UUID: id, Warm: simobjects.WarmBody{Timestamp: 100}})

	if ready := q.Drain(50); len(ready) != 0 {
		t.Fatalf("expected nothing ready before timestamp, got %d", len(ready))
	}
	if q.Len() != 1 {
		t.Fatalf("expected assignment still queued, got len=%d", q.Len())
	}

	ready := q.Drain(100)
	if len(ready) != 1 || ready[0].UUID != id {
		t.Fatalf("expected assignment ready at timestamp, got %v", ready)
	}
	if q.Len() != 0 {
		t.Fatalf("expected queue drained, got len=%d", q.Len())
	}
}

// Migration idempotence (invariant #7): enqueueing the same UUID twice
// (e.g. a duplicate AssignIsland) must replace, not duplicate.
func TestPendingQueueEnqueueIsIdempotentByUUID(t *testing.T) {
	q := NewPendingQueue()
	id := uuid.New()
	q.Enqueue(simobjects.BodyAssignment{UUID: id, Warm: simobjects.WarmBody{Timestamp: 5, LinVel: simobjects.Vec3{X: 1}}})
	q.Enqueue(simobjects.BodyAssignment{UUID: id, Warm: simobjects.WarmBody{Timestamp: 5, LinVel: simobjects.Vec3{X: 2}}})

	if q.Len() != 1 {
		t.Fatalf("expected exactly one queued assignment for duplicate uuid, got %d", q.Len())
	}
	ready := q.Drain(5)
	if len(ready) != 1 || ready[0].Warm.LinVel.X != 2 {
		t.Fatalf("expected latest assignment to win, got %+v", ready)
	}
}
