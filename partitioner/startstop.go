package partitioner

import (
	"context"

	"github.com/steadyum/steadyum-go/simobjects"
)

// StartStop handles POST /start_stop: set the global play/pause flag
// and broadcast StartStop to every currently assigned Worker.
func (p *Partitioner) StartStop(ctx context.Context, running bool) error {
	p.running.Store(running)

	p.mu.Lock()
	handles := make([]*runnerHandle, 0, len(p.assigned))
	for _, h := range p.assigned {
		handles = append(handles, h)
	}
	p.mu.Unlock()

	cmd := simobjects.RunnerCommand{Kind: simobjects.CmdStartStop, Running: running}
	payload, err := simobjects.MarshalCommand(cmd)
	if err != nil {
		return err
	}
	for _, h := range handles {
		if err := p.Bus.Publish(ctx, "runner/"+h.uuid.String(), payload); err != nil {
			return err
		}
	}
	return nil
}

// Running reports the current global play/pause state.
func (p *Partitioner) Running() bool { return p.running.Load() }
