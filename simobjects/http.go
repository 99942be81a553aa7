package simobjects

import (
	"github.com/google/uuid"

	"github.com/steadyum/steadyum-go/regionmath"
)

// The types below are the Partitioner's HTTP wire contract (spec.md
// §6): request/response bodies for /initialized, /region, /insert,
// /list_regions, /start_stop. Grouped separately from the bus message
// types in messages.go since these never cross the MessageBus.

// InitializedRequest is POST /initialized's body: a Worker announcing
// its process has come up and is ready to receive a region.
type InitializedRequest struct {
	UUID uuid.UUID `json:"uuid"`
}

// RegionRequest is POST /region's body.
type RegionRequest struct {
	Region regionmath.Region `json:"region"`
}

// InsertRequest is POST /insert's body: a batch of bodies (plus any
// impulse joints between them) a client wants ingested into the
// simulation. The Partitioner groups these by destination region.
type InsertRequest struct {
	Bodies        []BodyAssignment         `json:"bodies"`
	ImpulseJoints []ImpulseJointAssignment `json:"impulse_joints,omitempty"`
}

// StartStopRequest is POST /start_stop's body: the new global
// play/pause state.
type StartStopRequest struct {
	Running bool `json:"running"`
}
