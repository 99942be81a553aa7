package partitioner

import (
	"context"

	"github.com/steadyum/steadyum-go/blobstore"
	"github.com/steadyum/steadyum-go/cmn/nlog"
	"github.com/steadyum/steadyum-go/regionmath"
	"github.com/steadyum/steadyum-go/simobjects"
)

// AssignRegion is the idempotent POST /region logic (spec.md §4.4): if
// region is already assigned, return its owner; otherwise pop a
// pre-warmed worker from the pending pool, bind it to region, and
// publish AssignRegion on its command topic. Blocks (cooperatively,
// respecting ctx) until the pending pool is non-empty if it is
// currently drained — per spec.md §5, this is the one place the
// Partitioner may block indefinitely.
//
// Region assignment is serialized under p.mu so two concurrent calls
// for the same region can never both pop a worker (spec.md §4.4
// concurrency contract).
func (p *Partitioner) AssignRegion(ctx context.Context, region regionmath.Region) (simobjects.RegionAssignment, error) {
	// cond.Wait has no ctx-awareness; a watcher goroutine broadcasts
	// once on cancellation so a blocked caller is released promptly
	// instead of waiting for the next unrelated Broadcast.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			p.cond.Broadcast()
		case <-done:
		}
	}()

	p.mu.Lock()

	for {
		if h, ok := p.assigned[region.Key()]; ok {
			p.mu.Unlock()
			return simobjects.RegionAssignment{UUID: h.uuid, Port: h.port}, nil
		}
		if ctx.Err() != nil {
			p.mu.Unlock()
			return simobjects.RegionAssignment{}, ctx.Err()
		}
		if len(p.pending) > 0 {
			break
		}
		p.cond.Wait()
	}

	h := p.pending[0]
	p.pending = p.pending[1:]
	r := region
	h.region = &r
	p.assigned[region.Key()] = h
	p.numPending.Add(-1)

	// The assignment is already recorded in p.assigned above, so any
	// concurrent caller for the same region observes it immediately;
	// the remaining I/O (BlobStore reset, command publish, region-list
	// republish) never needs to happen under the lock — per spec.md
	// §7, the Partitioner must never hold its allocation lock across a
	// fallible I/O call.
	p.mu.Unlock()

	if err := p.resetWarmState(ctx, region); err != nil {
		// Non-fatal: a stale warm-set blob from a previous occupant of
		// this region key would only affect the first macro-step's
		// neighbor reads, which self-heal once the new owner publishes.
		nlog.Warningf("partitioner: failed to reset warm state for %s: %s", region.Key(), err.Error())
	}

	cmd := simobjects.RunnerCommand{
		Kind:       simobjects.CmdAssignRegion,
		Region:     region,
		TimeOrigin: 1,
	}
	payload, err := simobjects.MarshalCommand(cmd)
	if err != nil {
		return simobjects.RegionAssignment{}, err
	}
	if err := p.Bus.Publish(ctx, "runner/"+h.uuid.String(), payload); err != nil {
		return simobjects.RegionAssignment{}, err
	}

	p.signalWake()
	p.publishRegionList(ctx)

	return simobjects.RegionAssignment{UUID: h.uuid, Port: h.port}, nil
}

// resetWarmState clears the region's BlobStore warm-set key before
// handing it to a new owner, so a late reader never observes a
// previous occupant's stale WarmBodyObjectSet under this region's key.
func (p *Partitioner) resetWarmState(ctx context.Context, region regionmath.Region) error {
	empty := blobstore.EncodeWarmBodyObjectSet(simobjects.WarmBodyObjectSet{})
	return p.Blobs.Put(ctx, region.WarmStateKey(), empty)
}

// ListRegions handles GET /list_regions: a snapshot of every currently
// assigned region.
func (p *Partitioner) ListRegions() simobjects.RegionList {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.regionListLocked()
}

func (p *Partitioner) regionListLocked() simobjects.RegionList {
	rl := simobjects.RegionList{
		Keys:  make([]string, 0, len(p.assigned)),
		Ports: make([]uint32, 0, len(p.assigned)),
	}
	for key, h := range p.assigned {
		rl.Keys = append(rl.Keys, key)
		rl.Ports = append(rl.Ports, h.port)
	}
	return rl
}

// publishRegionList rewrites the region_list BlobStore key after every
// assignment that changes the region count (spec.md §4.4: Partitioner
// "rewrites region_list" on change). Takes its own snapshot of p.mu
// rather than requiring the caller to hold it, since the BlobStore
// write is fallible I/O and must never run under the allocation lock.
func (p *Partitioner) publishRegionList(ctx context.Context) {
	blob := blobstore.EncodeRegionList(p.ListRegions())
	if err := p.Blobs.Put(ctx, blobstore.RegionListKey, blob); err != nil {
		nlog.Warningf("partitioner: failed to publish region_list: %s", err.Error())
	}
}
