package worker

import (
	"context"
	"sync"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/steadyum/steadyum-go/blobstore"
	"github.com/steadyum/steadyum-go/bus"
	"github.com/steadyum/steadyum-go/cmn/config"
	"github.com/steadyum/steadyum-go/regionmath"
	"github.com/steadyum/steadyum-go/simobjects"
)

// memBlobs is a minimal in-process blobstore.Client double for tests
// that don't need a real Redis connection.
type memBlobs struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemBlobs() *memBlobs { return &memBlobs{data: make(map[string][]byte)} }

func (m *memBlobs) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memBlobs) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, &blobstore.ErrNotFound{Key: key}
	}
	return v, nil
}

func (m *memBlobs) PutMany(ctx context.Context, items map[string][]byte) error {
	for k, v := range items {
		_ = m.Put(ctx, k, v)
	}
	return nil
}

func (m *memBlobs) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte)
	for _, k := range keys {
		if v, err := m.Get(ctx, k); err == nil {
			out[k] = v
		}
	}
	return out, nil
}

func (m *memBlobs) Close() error { return nil }

var _ blobstore.Client = (*memBlobs)(nil)

func newTestWorker() *Worker {
	return New(uuid.New(), config.Default(), bus.NewLocalBus(), newMemBlobs())
}

var _ = Describe("Worker lifecycle", func() {
	var w *Worker

	BeforeEach(func() {
		w = newTestWorker()
	})

	Describe("AssignRegion", func() {
		It("binds the worker to its first assigned region", func() {
			region := regionmath.Region{Mins: [3]int64{0, 0, 0}, Maxs: [3]int64{100, 100, 100}}
			w.applyCommand(simobjects.RunnerCommand{Kind: simobjects.CmdAssignRegion, Region: region, TimeOrigin: 5})

			bounds, has := w.Bounds()
			Expect(has).To(BeTrue())
			Expect(bounds.Equal(region)).To(BeTrue())
			Expect(w.timeOrigin.Load()).To(BeEquivalentTo(5))
		})

		It("ignores a repeat assignment once bound", func() {
			first := regionmath.Region{Mins: [3]int64{0, 0, 0}, Maxs: [3]int64{100, 100, 100}}
			second := regionmath.Region{Mins: [3]int64{100, 0, 0}, Maxs: [3]int64{200, 100, 100}}
			w.applyCommand(simobjects.RunnerCommand{Kind: simobjects.CmdAssignRegion, Region: first})
			w.applyCommand(simobjects.RunnerCommand{Kind: simobjects.CmdAssignRegion, Region: second})

			bounds, _ := w.Bounds()
			Expect(bounds.Equal(first)).To(BeTrue())
		})
	})

	Describe("StartStop", func() {
		It("toggles IsRunning", func() {
			Expect(w.IsRunning()).To(BeFalse())
			w.applyCommand(simobjects.RunnerCommand{Kind: simobjects.CmdStartStop, Running: true})
			Expect(w.IsRunning()).To(BeTrue())
			w.applyCommand(simobjects.RunnerCommand{Kind: simobjects.CmdStartStop, Running: false})
			Expect(w.IsRunning()).To(BeFalse())
		})
	})

	Describe("AssignIsland", func() {
		It("queues bodies as pending assignments rather than installing them immediately", func() {
			id := uuid.New()
			w.applyCommand(simobjects.RunnerCommand{
				Kind: simobjects.CmdAssignIsland,
				Bodies: []simobjects.BodyAssignment{
					{UUID: id, Warm: simobjects.WarmBody{Timestamp: 3}},
				},
			})
			Expect(w.pending.Len()).To(Equal(1))
			Expect(len(w.Solver.Bodies)).To(Equal(0))

			ready := w.pending.Drain(3)
			Expect(ready).To(HaveLen(1))
			w.Solver.CreateBody(ready[0].UUID, ready[0].Warm, ready[0].Cold)
			Expect(len(w.Solver.Bodies)).To(Equal(1))
		})

		It("counts and drops impulse joints rather than installing them", func() {
			w.applyCommand(simobjects.RunnerCommand{
				Kind: simobjects.CmdAssignIsland,
				ImpulseJoints: []simobjects.ImpulseJointAssignment{
					{Body1: uuid.New(), Body2: uuid.New()},
				},
			})
			_, dropped := w.Metrics()
			Expect(dropped).To(BeEquivalentTo(1))
		})
	})
})
