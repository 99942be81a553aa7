package worker

import (
	"context"
	"sync"
	"time"

	"github.com/steadyum/steadyum-go/bus"
	"github.com/steadyum/steadyum-go/cmn/mono"
	"github.com/steadyum/steadyum-go/cmn/nlog"
	"github.com/steadyum/steadyum-go/regionmath"
	"github.com/steadyum/steadyum-go/simobjects"
)

// NeighborSync tracks the latest acked step_id seen from each of a
// Worker's Neighbors() (the 13-of-26 set whose ack this Worker waits
// on — see regionmath.Region.Neighbors doc). One NeighborSync is
// created per AssignRegion, since the neighbor set is fixed for the
// Worker's lifetime.
type NeighborSync struct {
	mu       sync.Mutex
	lastAck  map[string]uint64
	expected []regionmath.Region
}

// NewNeighborSync returns a tracker for exactly the given neighbor
// set, every entry initialized to un-acked.
func NewNeighborSync(neighbors []regionmath.Region) *NeighborSync {
	return &NeighborSync{
		lastAck:  make(map[string]uint64, len(neighbors)),
		expected: neighbors,
	}
}

// WatchAcks subscribes to every expected neighbor's runner-ack/<key>
// topic and records the latest AckSteps seen from each, until ctx is
// cancelled. Intended to run as its own goroutine, one per Worker.
func (n *NeighborSync) WatchAcks(ctx context.Context, b bus.Bus) error {
	var wg sync.WaitGroup
	for _, r := range n.expected {
		envelopes, cancel, err := b.Subscribe(ctx, r.AckTopic())
		if err != nil {
			return err
		}
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			defer cancel()
			for {
				select {
				case <-ctx.Done():
					return
				case env, ok := <-envelopes:
					if !ok {
						return
					}
					ack, err := simobjects.UnmarshalAck(env.Value)
					if err != nil {
						nlog.Errorf("ack watch %s: decode: %v", key, err)
						continue
					}
					n.recordAck(key, ack.StepID)
				}
			}
		}(r.Key())
	}
	wg.Wait()
	return nil
}

func (n *NeighborSync) recordAck(regionKey string, stepID uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if cur, ok := n.lastAck[regionKey]; !ok || stepID > cur {
		n.lastAck[regionKey] = stepID
	}
}

// MinAck returns the minimum acked step_id across every expected
// neighbor; a neighbor never yet heard from counts as 0. A Worker with
// no neighbors (expected is empty) is never blocked.
func (n *NeighborSync) MinAck() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.expected) == 0 {
		return ^uint64(0)
	}
	min := ^uint64(0)
	for _, r := range n.expected {
		v := n.lastAck[r.Key()]
		if v < min {
			min = v
		}
	}
	return min
}

// WaitForNeighbors blocks until every neighbor has acked at least
// minStep, or ackTimeout elapses, whichever comes first. On timeout it
// proceeds anyway and reports timedOut=true (DESIGN.md Open Question
// 2: bounded wait, not unbounded — grounded on the teacher's qcb
// bounded-quiescence-poll idiom in xact/xs/tcb.go).
func WaitForNeighbors(n *NeighborSync, minStep uint64, ackTimeout time.Duration) (timedOut bool) {
	deadline := mono.NanoTime() + ackTimeout.Nanoseconds()
	const pollInterval = 2 * time.Millisecond
	for {
		if n.MinAck() >= minStep {
			return false
		}
		if mono.NanoTime() >= deadline {
			return true
		}
		time.Sleep(pollInterval)
	}
}
