package simobjects

import "github.com/google/uuid"

// WarmBody is the per-step mutable state of a body: everything that
// changes every macro-step. Published far more often than ColdBody.
type WarmBody struct {
	Timestamp uint64
	Position  Isometry
	LinVel    Vec3
	AngVel    Vec3
}

// ColdBody is the session-stable state of a body: its kind, collider
// shape, and any kinematic animation. Published once at creation and
// again only on an explicit UpdateColdObject.
type ColdBody struct {
	Kind       BodyKind
	Shape      Shape
	Animations KinematicAnimations
}

// BodyPositionObject is one entry in a WarmBodyObjectSet: a body's
// identity, the publishing timestamp, and its pose. Velocity is
// omitted here — WarmBodyObjectSet is the authoritative per-region
// position broadcast consumed by neighbors for ghost placement, which
// only needs pose, not velocity.
type BodyPositionObject struct {
	UUID      uuid.UUID
	Timestamp uint64
	Position  Isometry
}

// WarmBodyObjectSet is the blob a Worker publishes every macro-step:
// every locally owned body's current pose, batched under one
// timestamp.
type WarmBodyObjectSet struct {
	Timestamp uint64
	Objects   []BodyPositionObject
}

// WatchedEntry is one ghost's published footprint: identity plus a
// bounding sphere sized for the neighbor's predicted swept motion.
type WatchedEntry struct {
	UUID   uuid.UUID
	Sphere BoundingSphere
}

// WatchedObjects is the blob a Worker publishes describing every
// locally owned body visible to neighbor regions as a potential ghost.
type WatchedObjects struct {
	Objects []WatchedEntry
}

// RegionList is the Partitioner's response enumerating every currently
// assigned region, keyed and paired with the owning Worker's port.
type RegionList struct {
	Keys  []string
	Ports []uint32
}

// RegionAssignment is the Partitioner's POST /region response: the
// Worker UUID (and listening port) now owning region, used both by
// clients doing initial ingest and by Workers resolving a migration
// destination.
type RegionAssignment struct {
	UUID uuid.UUID
	Port uint32
}
