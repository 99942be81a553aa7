package worker

import (
	"context"
	"time"

	"github.com/steadyum/steadyum-go/blobstore"
	"github.com/steadyum/steadyum-go/cmn/mono"
	"github.com/steadyum/steadyum-go/cmn/nlog"
	"github.com/steadyum/steadyum-go/regionmath"
	"github.com/steadyum/steadyum-go/simobjects"
)

// dt is the solver substep size; K (cfg.MacroStep) substeps run per
// published macro-step, matching the original's fixed 1/60s physics
// tick.
const dt = 1.0 / 60.0

// RunMainLoop runs the per-macro-step loop described in spec.md §4.5
// until ctx is cancelled: drain is expected to already be running in
// its own goroutine (see RunCommandLoop); this loop performs the
// remaining steps every macro-step, in order:
//
//  1. wait for neighbors (ack barrier)
//  2. apply pending assignments (timestamp-gated)
//  3. update watch set
//  4. integrate (solver step x K)
//  5. compute migrations
//  6. publish state
//  7. ack
//  8. pace to real time
//
// A Worker idles (sleeps and retries) until it has been assigned a
// region and is running.
func (w *Worker) RunMainLoop(ctx context.Context) error {
	var nsync *NeighborSync

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		bounds, has := w.Bounds()
		if !has || !w.IsRunning() {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		if nsync == nil {
			nsync = NewNeighborSync(bounds.Neighbors())
			go func() {
				if err := nsync.WatchAcks(ctx, w.Bus); err != nil {
					nlog.Errorf("worker %s: ack watch: %v", w.UUID, err)
				}
			}()
		}

		started := mono.NanoTime()

		// 1. wait for neighbors: every Neighbors() region must have
		// acked at least this Worker's previous step before it may
		// safely read their watch/position blobs for this step.
		stepID := w.stepID.Load()
		if stepID > 0 {
			if WaitForNeighbors(nsync, stepID-1, w.cfg.AckTimeout) {
				w.ackTimeouts.Add(1)
				nlog.Warningf("worker %s: ack timeout waiting for step %d, proceeding anyway", w.UUID, stepID-1)
			}
		}

		// 2. apply pending assignments gated by their warm timestamp.
		for _, a := range w.pending.Drain(stepID) {
			w.resolveAnimationPresets(a.UUID.String(), &a.Cold.Animations)
			w.Solver.CreateBody(a.UUID, a.Warm, a.Cold)
		}

		// 3. update watch set.
		w.UpdateWatchSet(ctx)

		// 4. integrate.
		for i := 0; i < w.cfg.MacroStep; i++ {
			w.Solver.Step(dt, w.simTime(dt))
		}

		// 5. compute migrations.
		w.runMigrations(ctx, bounds)

		// 6. publish state.
		if err := w.publishWarmState(ctx, bounds, stepID+1); err != nil {
			nlog.Errorf("worker %s: publish warm state: %v", w.UUID, err)
		}
		if err := w.PublishWatchSet(ctx); err != nil {
			nlog.Errorf("worker %s: publish watch set: %v", w.UUID, err)
		}

		// 7. ack.
		w.stepID.Store(stepID + 1)
		ackBlob, err := simobjects.MarshalAck(simobjects.AckSteps{StepID: stepID + 1})
		if err != nil {
			nlog.Errorf("worker %s: marshal ack: %v", w.UUID, err)
		} else if err := w.Bus.Publish(ctx, bounds.AckTopic(), ackBlob); err != nil {
			nlog.Errorf("worker %s: publish ack: %v", w.UUID, err)
		}

		// 8. pace to real time: sleep until at least K*dt/2 wall seconds
		// have elapsed since this iteration started (spec.md §4.5's
		// pacing note).
		budget := time.Duration(float64(w.cfg.MacroStep) * dt / 2 * float64(time.Second))
		elapsed := time.Duration(mono.Since(started))
		if remaining := budget - elapsed; remaining > 0 {
			time.Sleep(remaining)
		}
	}
}

// publishWarmState writes the authoritative per-region WarmBodyObjectSet
// batch (every locally owned body's pose at step_id x K) under the
// region's warm-state BlobStore key (spec.md §4.5 step 7 / §6 BlobStore
// keys).
func (w *Worker) publishWarmState(ctx context.Context, bounds regionmath.Region, timestamp uint64) error {
	objects := make([]simobjects.BodyPositionObject, 0, len(w.Solver.Bodies))
	for _, b := range w.Solver.Bodies {
		objects = append(objects, simobjects.BodyPositionObject{
			UUID:      b.UUID,
			Timestamp: timestamp,
			Position:  b.Pose,
		})
	}
	blob := blobstore.EncodeWarmBodyObjectSet(simobjects.WarmBodyObjectSet{Timestamp: timestamp, Objects: objects})
	return w.Blobs.Put(ctx, bounds.WarmStateKey(), blob)
}
