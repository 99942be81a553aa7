package clientapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/steadyum/steadyum-go/blobstore"
	"github.com/steadyum/steadyum-go/bus"
	"github.com/steadyum/steadyum-go/cmn/config"
	"github.com/steadyum/steadyum-go/partitioner"
	"github.com/steadyum/steadyum-go/simobjects"
)

// memBlobs is a minimal in-process blobstore.Client double, mirroring
// the one in partitioner/partitioner_test.go and worker/lifecycle_test.go.
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
// Process and reports every spawned UUID on a channel.
type fakeSpawner struct {
	spawned chan uuid.UUID
}

type fakeProcess struct{}

func (fakeProcess) Wait() error { return nil }
func (fakeProcess) Kill() error { return nil }

func (f *fakeSpawner) Spawn(_ context.Context, uid uuid.UUID, _ uint32) (partitioner.Process, error) {
	f.spawned <- uid
	return fakeProcess{}, nil
}

var _ partitioner.Spawner = (*fakeSpawner)(nil)

// newLiveClient stands up a real Partitioner (with a fake Spawner, so
// no subprocess is ever launched) behind httptest servers for both the
// control-plane mux and a stand-in bulk-insert handler, and returns a
// Client pointed at them. This exercises the wire format end to end
// rather than mocking the transport.
func newLiveClient(t *testing.T) (*Client, *partitioner.Partitioner) {
	t.Helper()
	cfg := config.Default()
	cfg.MaxPending = 2
	spawner := &fakeSpawner{spawned: make(chan uuid.UUID, 64)}
	p := partitioner.New(cfg, bus.NewLocalBus(), newMemBlobs(), spawner)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go p.RunAllocator(ctx)

	go func() {
		for {
			select {
			case uid := <-spawner.spawned:
				p.Initialized(uid)
			case <-ctx.Done():
				return
			}
		}
	}()

	control := httptest.NewServer(p.Mux())
	t.Cleanup(control.Close)

	bulk := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/insert" {
			http.NotFound(w, r)
			return
		}
		var req simobjects.InsertRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := p.Insert(r.Context(), req); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(bulk.Close)

	return New(control.URL, bulk.URL), p
}

func TestClientInsertAndListRegionsRoundTrip(t *testing.T) {
	c, _ := newLiveClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	body := simobjects.BodyAssignment{
		UUID: uuid.New(),
		Warm: simobjects.WarmBody{Position: simobjects.Isometry{Translation: simobjects.Vec3{X: 10, Y: 10, Z: 10}}},
		Cold: simobjects.ColdBody{Kind: simobjects.BodyDynamic, Shape: simobjects.Shape{Kind: simobjects.ShapeBall, Radius: 0.5}},
	}
	if err := c.Insert(ctx, simobjects.InsertRequest{Bodies: []simobjects.BodyAssignment{body}}); err != nil {
		t.Fatalf("Insert: %s", err)
	}

	rl, err := c.ListRegions(ctx)
	if err != nil {
		t.Fatalf("ListRegions: %s", err)
	}
	if len(rl.Keys) != 1 {
		t.Fatalf("expected exactly one assigned region after inserting one body, got %v", rl.Keys)
	}
}

func TestClientStartStopRoundTrip(t *testing.T) {
	c, p := newLiveClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := c.StartStop(ctx, true); err != nil {
		t.Fatalf("StartStop: %s", err)
	}
	if !p.Running() {
		t.Fatal("expected Partitioner.Running() to reflect the StartStop(true) call")
	}
}

func TestClientRayCastMissesUnassignedRegion(t *testing.T) {
	c, _ := newLiveClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := c.RayCast(ctx, simobjects.RayCastQuery{
		Origin:    simobjects.Vec3{X: 50000, Y: 50000, Z: 50000},
		Direction: simobjects.Vec3{X: 0, Y: -1, Z: 0},
		MaxToi:    10,
	})
	if err != nil {
		t.Fatalf("RayCast: %s", err)
	}
	if resp.Hit != nil {
		t.Fatalf("expected a miss against an unassigned region, got %v", resp.Hit)
	}
}
