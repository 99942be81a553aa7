package worker

import (
	"context"

	"github.com/steadyum/steadyum-go/cmn/nlog"
	"github.com/steadyum/steadyum-go/migration"
	"github.com/steadyum/steadyum-go/regionmath"
	"github.com/steadyum/steadyum-go/simobjects"
)

// runMigrations computes connected components over the current solver
// state, finds any whose max-corner destination differs from bounds,
// and hands each off to its destination Worker via AssignIsland,
// resolved through the Partitioner (spec.md §4.6).
func (w *Worker) runMigrations(ctx context.Context, bounds regionmath.Region) {
	g := w.Solver.Snapshot(w.Solver.DetectContacts(), nil)

	for _, comp := range migration.ConnectedComponents(g) {
		dest, migrates := migration.Destination(g, comp, bounds, int64(w.cfg.RegionWidth))
		if !migrates {
			continue
		}

		movers := migration.NonGhostMembers(g, comp)
		if len(movers) == 0 {
			continue
		}

		var bodies []simobjects.BodyAssignment
		for _, h := range movers {
			b, ok := w.Solver.Bodies[h]
			if !ok {
				continue
			}
			bodies = append(bodies, simobjects.BodyAssignment{
				UUID: b.UUID,
				Warm: simobjects.WarmBody{
					Timestamp: w.stepID.Load() + 1,
					Position:  b.Pose,
					LinVel:    b.LinVel,
					AngVel:    b.AngVel,
				},
				Cold: simobjects.ColdBody{Kind: b.Kind, Shape: b.Shape, Animations: b.Animations},
			})
		}
		if len(bodies) == 0 {
			continue
		}

		if err := w.sendAssignIsland(ctx, dest, bodies); err != nil {
			nlog.Errorf("worker %s: migrate %d bodies to %s: %v", w.UUID, len(bodies), dest.Key(), err)
			continue
		}
		for _, h := range movers {
			w.Solver.RemoveBody(h)
		}
	}
}

// sendAssignIsland resolves dest's owning Worker through the
// Partitioner's idempotent POST /region and publishes an AssignIsland
// command on that Worker's runner/<uuid> topic.
func (w *Worker) sendAssignIsland(ctx context.Context, dest regionmath.Region, bodies []simobjects.BodyAssignment) error {
	assignment, err := w.resolveRegionOwner(ctx, dest)
	if err != nil {
		return err
	}

	cmd := migrationCommand(bodies)
	payload, err := simobjects.MarshalCommand(cmd)
	if err != nil {
		return err
	}
	return w.Bus.Publish(ctx, "runner/"+assignment.UUID.String(), payload)
}

func migrationCommand(bodies []simobjects.BodyAssignment) simobjects.RunnerCommand {
	return simobjects.RunnerCommand{Kind: simobjects.CmdAssignIsland, Bodies: bodies}
}
