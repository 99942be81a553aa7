package partitioner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/steadyum/steadyum-go/blobstore"
	"github.com/steadyum/steadyum-go/bus"
	"github.com/steadyum/steadyum-go/cmn/config"
	"github.com/steadyum/steadyum-go/regionmath"
	"github.com/steadyum/steadyum-go/simobjects"
)

// memBlobs is a minimal in-process blobstore.Client double, mirroring
// worker/lifecycle_test.go's double of the same name.
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

// fakeSpawner never launches a real process; it hands back a no-op
// Process and reports every spawned UUID on a channel so tests can
// deterministically drive it through Initialized.
type fakeSpawner struct {
	spawned chan uuid.UUID
}

func newFakeSpawner() *fakeSpawner { return &fakeSpawner{spawned: make(chan uuid.UUID, 64)} }

type fakeProcess struct{}

func (fakeProcess) Wait() error { return nil }
func (fakeProcess) Kill() error { return nil }

func (f *fakeSpawner) Spawn(_ context.Context, uid uuid.UUID, _ uint32) (Process, error) {
	f.spawned <- uid
	return fakeProcess{}, nil
}

var _ Spawner = (*fakeSpawner)(nil)

func newTestPartitioner(t *testing.T) (*Partitioner, *fakeSpawner) {
	t.Helper()
	cfg := config.Default()
	cfg.MaxPending = 2
	spawner := newFakeSpawner()
	p := New(cfg, bus.NewLocalBus(), newMemBlobs(), spawner)
	return p, spawner
}

// drainAndInitialize runs the allocator for a bounded window and marks
// every worker it spawns as initialized, simulating each process's own
// POST /initialized call completing immediately.
func drainAndInitialize(t *testing.T, p *Partitioner, spawner *fakeSpawner, want int) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.RunAllocator(ctx)

	for i := 0; i < want; i++ {
		select {
		case uid := <-spawner.spawned:
			if err := p.Initialized(uid); err != nil {
				t.Fatalf("Initialized: %s", err)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for worker %d/%d to spawn", i+1, want)
		}
	}
}

func TestAssignRegionIsIdempotent(t *testing.T) {
	p, spawner := newTestPartitioner(t)
	drainAndInitialize(t, p, spawner, 1)

	region := regionmath.Region{Mins: [3]int64{0, 0, 0}, Maxs: [3]int64{100, 100, 100}}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	first, err := p.AssignRegion(ctx, region)
	if err != nil {
		t.Fatalf("AssignRegion: %s", err)
	}
	second, err := p.AssignRegion(ctx, region)
	if err != nil {
		t.Fatalf("AssignRegion (repeat): %s", err)
	}
	if first.UUID != second.UUID {
		t.Fatalf("expected idempotent assignment, got %s then %s", first.UUID, second.UUID)
	}

	rl := p.ListRegions()
	if len(rl.Keys) != 1 || rl.Keys[0] != region.Key() {
		t.Fatalf("expected region_list to contain exactly %s, got %v", region.Key(), rl.Keys)
	}
}

func TestAssignRegionBlocksUntilPendingPoolFills(t *testing.T) {
	p, spawner := newTestPartitioner(t)

	region := regionmath.Region{Mins: [3]int64{0, 0, 0}, Maxs: [3]int64{100, 100, 100}}

	ctx, cancelAlloc := context.WithCancel(context.Background())
	defer cancelAlloc()
	go p.RunAllocator(ctx)

	done := make(chan struct{})
	go func() {
		ctx2, cancel2 := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel2()
		if _, err := p.AssignRegion(ctx2, region); err != nil {
			t.Errorf("AssignRegion: %s", err)
		}
		close(done)
	}()

	// Mark the first spawned worker initialized only after giving
	// AssignRegion a moment to actually block on the empty pool.
	time.Sleep(50 * time.Millisecond)
	select {
	case uid := <-spawner.spawned:
		if err := p.Initialized(uid); err != nil {
			t.Fatalf("Initialized: %s", err)
		}
	case <-time.After(time.Second):
		t.Fatal("allocator never spawned a worker")
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("AssignRegion never unblocked once a worker became pending")
	}
}

func TestInsertGroupsDynamicByMaxCorner(t *testing.T) {
	p, spawner := newTestPartitioner(t)
	drainAndInitialize(t, p, spawner, 2)

	near := simobjects.BodyAssignment{
		UUID: uuid.New(),
		Warm: simobjects.WarmBody{Position: simobjects.Isometry{Translation: simobjects.Vec3{X: 10, Y: 10, Z: 10}}},
		Cold: simobjects.ColdBody{Kind: simobjects.BodyDynamic, Shape: simobjects.Shape{Kind: simobjects.ShapeBall, Radius: 0.5}},
	}
	far := simobjects.BodyAssignment{
		UUID: uuid.New(),
		Warm: simobjects.WarmBody{Position: simobjects.Isometry{Translation: simobjects.Vec3{X: 150, Y: 10, Z: 10}}},
		Cold: simobjects.ColdBody{Kind: simobjects.BodyDynamic, Shape: simobjects.Shape{Kind: simobjects.ShapeBall, Radius: 0.5}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.Insert(ctx, simobjects.InsertRequest{Bodies: []simobjects.BodyAssignment{near, far}}); err != nil {
		t.Fatalf("Insert: %s", err)
	}

	rl := p.ListRegions()
	if len(rl.Keys) != 2 {
		t.Fatalf("expected 2 distinct regions assigned, got %v", rl.Keys)
	}
}

func TestInsertReplicatesNonDynamicAcrossIntersectingRegions(t *testing.T) {
	width := int64(100)
	ground := simobjects.BodyAssignment{
		UUID: uuid.New(),
		Warm: simobjects.WarmBody{Position: simobjects.Isometry{}},
		Cold: simobjects.ColdBody{Kind: simobjects.BodyFixed, Shape: simobjects.Shape{Kind: simobjects.ShapeCuboid, HalfExtents: simobjects.Vec3{X: 200, Y: 1, Z: 200}}},
	}
	groups, _ := groupByDestination([]simobjects.BodyAssignment{ground}, width)
	if len(groups) <= 1 {
		t.Fatalf("expected a large fixed body to fan out across multiple regions, got %d", len(groups))
	}
	for _, bodies := range groups {
		if len(bodies) != 1 || bodies[0].Cold.Kind != simobjects.BodyFixed {
			t.Fatalf("expected every replicated group to hold exactly the one fixed body")
		}
	}
}

func TestStartStopBroadcastsToAssignedWorkers(t *testing.T) {
	p, spawner := newTestPartitioner(t)
	drainAndInitialize(t, p, spawner, 1)

	region := regionmath.Region{Mins: [3]int64{0, 0, 0}, Maxs: [3]int64{100, 100, 100}}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assignment, err := p.AssignRegion(ctx, region)
	if err != nil {
		t.Fatalf("AssignRegion: %s", err)
	}

	sub, stop, err := p.Bus.Subscribe(ctx, "runner/"+assignment.UUID.String())
	if err != nil {
		t.Fatalf("Subscribe: %s", err)
	}
	defer stop()

	if err := p.StartStop(ctx, true); err != nil {
		t.Fatalf("StartStop: %s", err)
	}
	if !p.Running() {
		t.Fatal("expected Running() to report true after StartStop(true)")
	}

	select {
	case env := <-sub:
		cmd, err := simobjects.UnmarshalCommand(env.Value)
		if err != nil {
			t.Fatalf("UnmarshalCommand: %s", err)
		}
		if cmd.Kind != simobjects.CmdStartStop || !cmd.Running {
			t.Fatalf("expected a CmdStartStop{Running:true}, got %+v", cmd)
		}
	case <-time.After(time.Second):
		t.Fatal("worker never received the StartStop broadcast")
	}
}
