package worker

import (
	"context"

	"github.com/steadyum/steadyum-go/cmn/nlog"
	"github.com/steadyum/steadyum-go/simobjects"
)

// RunCommandLoop subscribes to this Worker's runner/<uuid> topic and
// applies every RunnerCommand as it arrives, until ctx is cancelled.
// Grounded on original_source's commands.rs start_command_loop, with
// RunnerMessage's AssignJoint/ReAssignObject/RunSteps variants
// collapsed into spec.md's simpler AssignRegion/AssignIsland contract.
func (w *Worker) RunCommandLoop(ctx context.Context) error {
	topic := "runner/" + w.UUID.String()
	envelopes, cancel, err := w.Bus.Subscribe(ctx, topic)
	if err != nil {
		return err
	}
	defer cancel()

	w.startWG.Done()
	nlog.Infof("worker %s: listening on %s", w.UUID, topic)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env, ok := <-envelopes:
			if !ok {
				return nil
			}
			cmd, err := simobjects.UnmarshalCommand(env.Value)
			if err != nil {
				nlog.Errorf("worker %s: decode command: %v", w.UUID, err)
				continue
			}
			w.applyCommand(cmd)
		}
	}
}

func (w *Worker) applyCommand(cmd simobjects.RunnerCommand) {
	switch cmd.Kind {
	case simobjects.CmdAssignRegion:
		// First-time-only: spec.md §4.5.1 — a Worker is assigned exactly
		// one region for its lifetime; a repeat AssignRegion for an
		// already-bound Worker is a partitioner bug, logged and ignored
		// rather than silently re-homing live bodies.
		if cur, has := w.Bounds(); has {
			nlog.Warningf("worker %s: ignoring repeat AssignRegion (already bound to %s)", w.UUID, cur.Key())
			return
		}
		w.setBounds(cmd.Region, cmd.TimeOrigin)

	case simobjects.CmdAssignIsland:
		for _, j := range cmd.ImpulseJoints {
			_ = j
			w.migrationJointsDropped.Add(1)
		}
		if len(cmd.ImpulseJoints) > 0 {
			nlog.Warningf("worker %s: dropping %d impulse joint(s) on island install (joint migration unsupported)", w.UUID, len(cmd.ImpulseJoints))
		}
		for _, b := range cmd.Bodies {
			w.pending.Enqueue(b)
		}

	case simobjects.CmdStartStop:
		w.isRunning.Store(cmd.Running)
		nlog.Infof("worker %s: running=%v", w.UUID, cmd.Running)

	case simobjects.CmdMoveObject, simobjects.CmdUpdateColdObject:
		// Out of CORE scope per spec.md §4.5.1 ("live object editing");
		// accepted on the wire for forward compatibility but a no-op.
		nlog.Warningf("worker %s: ignoring unsupported command kind %d", w.UUID, cmd.Kind)
	}
}
