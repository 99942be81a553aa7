// Package worker implements the per-region simulation process: it
// drains commands from its runner/<worker-uuid> topic, waits at the
// neighbor-ack barrier, advances its solver, watches its neighbors'
// boundary objects, computes and publishes migrations, and paces
// itself to real time. One process runs exactly one Worker, owning
// exactly one Region at a time (spec.md §4.5).
//
// Grounded on original_source/crates/steadyum-runner (runner.rs,
// commands.rs, watch.rs, region_assignment.rs, server.rs) and, for the
// atomic-state/WaitGroup lifecycle idiom, the teacher's
// xact/xs/tcb.go.
package worker

import (
	"sync"

	"github.com/google/uuid"
	"github.com/teris-io/shortid"

	"github.com/steadyum/steadyum-go/blobstore"
	"github.com/steadyum/steadyum-go/bus"
	"github.com/steadyum/steadyum-go/cmn/atomic"
	"github.com/steadyum/steadyum-go/cmn/config"
	"github.com/steadyum/steadyum-go/cmn/nlog"
	"github.com/steadyum/steadyum-go/migration"
	"github.com/steadyum/steadyum-go/regionmath"
	"github.com/steadyum/steadyum-go/solver"
)

// Worker is one region-owning simulation process. Before its first
// AssignRegion command arrives it has no Bounds and simply idles,
// draining commands.
type Worker struct {
	UUID uuid.UUID
	cfg  *config.Config

	Bus   bus.Bus
	Blobs blobstore.Client

	Solver *solver.Solver

	// debugLabel is a short, human-distinguishable tag for this
	// Worker's log lines and /healthz response — purely cosmetic, there
	// to make "which of the N runner processes logged this" legible in
	// a terminal full of UUIDs.
	debugLabel string

	// Presets is the set of named kinematic curves preloaded from
	// cfg.AssetPresetDir at construction, resolved into a ColdBody's
	// Animations just before it enters the Solver (see resolveAnimationPresets).
	Presets *PresetStore

	stepID     atomic.Uint64
	isRunning  atomic.Bool
	hasRegion  atomic.Bool
	timeOrigin atomic.Uint64

	mu      sync.Mutex
	bounds  regionmath.Region
	pending *migration.PendingQueue

	watchIteration atomic.Uint64

	// startWG is released once the command-drain goroutine has
	// subscribed, matching the teacher's "wg.Add(1)/wg.Done() in Run,
	// WaitRunning() blocks the caller until startup completes" idiom.
	startWG sync.WaitGroup

	ackTimeouts            atomic.Uint64
	migrationJointsDropped atomic.Uint64
}

// New constructs an idle Worker identified by uuid, with no region
// assigned yet.
func New(id uuid.UUID, cfg *config.Config, b bus.Bus, blobs blobstore.Client) *Worker {
	presets, err := LoadPresets(cfg.AssetPresetDir)
	if err != nil {
		nlog.Warningf("worker %s: load presets from %s: %s", id, cfg.AssetPresetDir, err.Error())
		presets = &PresetStore{}
	}

	label, err := shortid.Generate()
	if err != nil {
		label = id.String()[:8]
	}

	w := &Worker{
		UUID:       id,
		cfg:        cfg,
		Bus:        b,
		Blobs:      blobs,
		Solver:     solver.New(),
		debugLabel: label,
		Presets:    presets,
		pending:    migration.NewPendingQueue(),
	}
	w.startWG.Add(1)
	return w
}

// WaitStarted blocks until the command-drain loop has subscribed to
// this Worker's command topic.
func (w *Worker) WaitStarted() { w.startWG.Wait() }

// Bounds returns the Worker's current region and whether one has been
// assigned yet.
func (w *Worker) Bounds() (regionmath.Region, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.bounds, w.hasRegion.Load()
}

func (w *Worker) setBounds(r regionmath.Region, timeOrigin uint64) {
	w.mu.Lock()
	w.bounds = r
	w.mu.Unlock()
	w.hasRegion.Store(true)
	w.timeOrigin.Store(timeOrigin)
	seed := timeOrigin
	if seed < 1 {
		seed = 1
	}
	w.stepID.Store(seed)
	nlog.Infof("worker %s: assigned region %s", w.UUID, r.Key())
}

// StepID returns the current macro-step counter (the Worker's own ack
// clock).
func (w *Worker) StepID() uint64 { return w.stepID.Load() }

// IsRunning reports whether StartStop has most recently enabled
// stepping.
func (w *Worker) IsRunning() bool { return w.isRunning.Load() }

// Metrics returns the counters prometheus/client_golang's collector
// wraps (see newMetrics in worker/server.go).
func (w *Worker) Metrics() (ackTimeouts, jointsDropped uint64) {
	return w.ackTimeouts.Load(), w.migrationJointsDropped.Load()
}

// simTime returns elapsed simulated seconds since TimeOrigin, derived
// from the step counter and the configured macro-step size — used to
// evaluate kinematic animation curves, never wall-clock (mono.NanoTime
// is reserved for pacing and ack-timeout bookkeeping).
func (w *Worker) simTime(dt float64) float64 {
	return float64(w.stepID.Load()-w.timeOrigin.Load()) * dt * float64(w.cfg.MacroStep)
}
