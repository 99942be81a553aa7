package partitioner

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/steadyum/steadyum-go/cmn/nlog"
)

// RunAllocator is the background allocator task (spec.md §4.4): while
// the pending pool is below MaxPending, spawn a fresh worker under a
// new UUID and record it uninitialized; once saturated, sleep until a
// /region call pops a pending worker (signalWake) or the 2-second poll
// below expires. /initialized does not wake the allocator.
func (p *Partitioner) RunAllocator(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if p.numPending.Load() < int64(p.cfg.MaxPending) {
			if err := p.spawnOne(ctx); err != nil {
				nlog.Warningf("partitioner: allocator spawn failed: %s", err.Error())
				// Back off briefly rather than spinning a hot loop on a
				// persistently failing spawner (e.g. missing binary).
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(time.Second):
				}
			}
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.wake:
		case <-time.After(2 * time.Second):
			// Bounded poll as a safety net: RunAllocator must never
			// rely solely on signalWake firing, since a missed signal
			// (buffered chan already full) would otherwise stall the
			// pool refill indefinitely.
		}
	}
}

func (p *Partitioner) spawnOne(ctx context.Context) error {
	p.mu.Lock()
	port := p.nextPortID
	p.nextPortID++
	p.mu.Unlock()

	uid := uuid.New()
	proc, err := p.Spawner.Spawn(ctx, uid, port)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.uninitialized[uid] = &runnerHandle{uuid: uid, port: port, process: proc}
	p.mu.Unlock()
	p.numPending.Add(1)
	return nil
}

// Initialized handles POST /initialized: a Worker announcing its
// process has come up. Moves it from uninitialized to pending.
func (p *Partitioner) Initialized(uid uuid.UUID) error {
	p.mu.Lock()
	h, ok := p.uninitialized[uid]
	if ok {
		delete(p.uninitialized, uid)
		p.pending = append(p.pending, h)
	}
	p.mu.Unlock()

	if !ok {
		nlog.Warningf("partitioner: /initialized from unknown worker %s", uid)
		return nil
	}
	nlog.Infof("partitioner: worker %s initialized, pool size %d", uid, len(p.pending))
	p.cond.Broadcast()
	return nil
}
