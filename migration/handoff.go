package migration

import (
	"github.com/google/uuid"

	"github.com/steadyum/steadyum-go/cmn/debug"
	"github.com/steadyum/steadyum-go/simobjects"
)

// BuildAssignIsland constructs the AssignIsland command sent to a
// destination Worker: one BodyAssignment per migrating body, carrying
// both warm and cold state so the destination can recreate the body
// without a separate BlobStore round trip.
func BuildAssignIsland(bodies []simobjects.BodyAssignment, joints []simobjects.ImpulseJointAssignment) simobjects.RunnerCommand {
	return simobjects.RunnerCommand{
		Kind:          simobjects.CmdAssignIsland,
		Bodies:        bodies,
		ImpulseJoints: joints,
	}
}

// PendingQueue is the destination-side holding area for bodies handed
// off by a migration, gated by warm.timestamp so a migrated body's
// first integration on its new owner happens strictly after its last
// integration on the previous owner (spec.md §4.6 "preventing
// retrograde integration").
//
// Enqueue is idempotent by UUID: receiving the same AssignIsland twice
// (or a body that arrives twice due to retry) replaces any previous
// entry for that UUID rather than duplicating it, satisfying the
// migration-idempotence invariant (spec.md §8 item 7).
type PendingQueue struct {
	byUUID map[uuid.UUID]simobjects.BodyAssignment
}

// NewPendingQueue returns an empty queue.
func NewPendingQueue() *PendingQueue {
	return &PendingQueue{byUUID: make(map[uuid.UUID]simobjects.BodyAssignment)}
}

// Enqueue adds or replaces the pending assignment for a.UUID.
func (q *PendingQueue) Enqueue(a simobjects.BodyAssignment) {
	debug.Assert(a.UUID != uuid.Nil, "enqueued a body assignment with a nil uuid")
	q.byUUID[a.UUID] = a
}

// Drain returns every assignment whose warm.timestamp <= stepID and
// removes them from the queue; assignments with a future timestamp
// remain queued for a later call.
func (q *PendingQueue) Drain(stepID uint64) []simobjects.BodyAssignment {
	var ready []simobjects.BodyAssignment
	for id, a := range q.byUUID {
		if a.Warm.Timestamp <= stepID {
			ready = append(ready, a)
			delete(q.byUUID, id)
		}
	}
	return ready
}

// Len reports how many assignments are still queued (for metrics/tests).
func (q *PendingQueue) Len() int { return len(q.byUUID) }
