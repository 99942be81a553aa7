// Package partitioner implements the central allocator and ingest
// broker: a pool of pre-spawned Worker processes, idempotent
// region-to-worker assignment, global start/stop broadcast, and
// scene-object ingest fan-out by destination region (spec.md §4.4).
//
// Grounded on original_source/crates/steadyum-partitionner/src/main.rs
// (LiveRunners, assign_object_to_region, the pending-queue-until-
// started pattern) for the allocator state machine; the teacher's
// ais/prxs3.go for the HTTP-handler idiom (jsoniter decode,
// nlog-gated logging, resolve-owner-then-forward).
package partitioner

import (
	"sync"

	"github.com/google/uuid"

	"github.com/steadyum/steadyum-go/blobstore"
	"github.com/steadyum/steadyum-go/bus"
	"github.com/steadyum/steadyum-go/cmn/atomic"
	"github.com/steadyum/steadyum-go/cmn/config"
	"github.com/steadyum/steadyum-go/regionmath"
)

// runnerHandle is the Partitioner's bookkeeping record for one spawned
// Worker process: its identity, its listening port (for raycast
// proxying), the region it owns (nil until assigned), and the handle
// needed to tear it down.
type runnerHandle struct {
	uuid    uuid.UUID
	port    uint32
	region  *regionmath.Region
	process Process
}

// Partitioner is the central allocator. One value per process; all
// mutable state lives behind mu plus the two atomic counters, matching
// spec.md §5's "single async task tree with a mutex over its
// allocation map and an atomic counter for pending workers."
type Partitioner struct {
	cfg     *config.Config
	Bus     bus.Bus
	Blobs   blobstore.Client
	Spawner Spawner

	mu            sync.Mutex
	cond          *sync.Cond
	nextPortID    uint32
	assigned      map[string]*runnerHandle // keyed by region.Key()
	pending       []*runnerHandle
	uninitialized map[uuid.UUID]*runnerHandle

	numPending atomic.Int64
	running    atomic.Bool

	// wake is signaled (non-blocking) whenever the pending pool shrinks,
	// so the allocator goroutine can top it back up without polling on
	// a tight timer.
	wake chan struct{}
}

// New constructs an empty Partitioner: no workers spawned yet, global
// play/pause defaulting to paused, next port seeded at 10000 per
// spec.md §4.4.
func New(cfg *config.Config, b bus.Bus, blobs blobstore.Client, spawner Spawner) *Partitioner {
	p := &Partitioner{
		cfg:           cfg,
		Bus:           b,
		Blobs:         blobs,
		Spawner:       spawner,
		nextPortID:    10000,
		assigned:      make(map[string]*runnerHandle),
		uninitialized: make(map[uuid.UUID]*runnerHandle),
		wake:          make(chan struct{}, 1),
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

func (p *Partitioner) signalWake() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}
