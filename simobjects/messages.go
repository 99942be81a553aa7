package simobjects

import (
	"github.com/google/uuid"

	"github.com/steadyum/steadyum-go/regionmath"
)

// BodyAssignment is the full per-body payload carried by an
// AssignIsland command: enough for the destination Worker to
// reconstruct the body from scratch (warm + cold state).
type BodyAssignment struct {
	UUID uuid.UUID
	Warm WarmBody
	Cold ColdBody
}

// ImpulseJointAssignment names a joint between two bodies being
// migrated together. Per DESIGN.md's resolution of the joint-migration
// Open Question, destinations record but do not install these.
type ImpulseJointAssignment struct {
	Body1 uuid.UUID
	Body2 uuid.UUID
}

// CommandKind tags the variant of a RunnerCommand, the message carried
// on a Worker's runner/<worker-uuid> topic.
type CommandKind int

const (
	CmdAssignRegion CommandKind = iota
	CmdAssignIsland
	CmdMoveObject
	CmdUpdateColdObject
	CmdStartStop
)

// RunnerCommand is the single wire message type published to
// runner/<worker-uuid>, tagged by Kind; only the fields relevant to
// Kind are populated. A tagged struct (not separate Go types behind an
// interface) because every consumer is one command-drain switch with
// no open extension point, mirroring the Shape tagged union.
type RunnerCommand struct {
	Kind CommandKind

	// CmdAssignRegion
	Region     regionmath.Region
	TimeOrigin uint64

	// CmdAssignIsland
	Bodies        []BodyAssignment
	ImpulseJoints []ImpulseJointAssignment

	// CmdMoveObject / CmdUpdateColdObject
	UUID     uuid.UUID
	Position Isometry

	// CmdStartStop
	Running bool
}

// AckSteps is the message published to runner-ack/<region-key> at the
// end of every macro-step.
type AckSteps struct {
	StepID uint64
}

// RayCastQuery / RayCastResponse are the Client API's ray-cast
// query supplement (see SPEC_FULL.md §4.7), grounded on
// original_source's queries.rs.
type RayCastQuery struct {
	Origin    Vec3
	Direction Vec3
	MaxToi    float64
}

type RayCastResponse struct {
	Hit   *uuid.UUID
	Toi   float64
}
