package worker

import (
	"context"
	"encoding/json"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/steadyum/steadyum-go/cmn/nlog"
	"github.com/steadyum/steadyum-go/simobjects"
)

// metrics are the counters DESIGN.md's Open Question resolutions
// commit to exposing: ack-barrier timeouts and impulse joints dropped
// on island install.
type metrics struct {
	ackTimeouts   prometheus.CounterFunc
	jointsDropped prometheus.CounterFunc
	registry      *prometheus.Registry
}

func newMetrics(w *Worker) *metrics {
	reg := prometheus.NewRegistry()
	m := &metrics{registry: reg}
	m.ackTimeouts = prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "steadyum_worker_ack_timeouts_total",
		Help: "Number of macro-steps where the neighbor-ack barrier timed out before all neighbors acked.",
	}, func() float64 {
		t, _ := w.Metrics()
		return float64(t)
	})
	m.jointsDropped = prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "steadyum_worker_migration_joints_dropped_total",
		Help: "Number of impulse joints dropped on AssignIsland install (joint migration unsupported).",
	}, func() float64 {
		_, j := w.Metrics()
		return float64(j)
	})
	reg.MustRegister(m.ackTimeouts, m.jointsDropped)
	return m
}

// ServeHTTP runs the Worker's dedicated HTTP endpoint (/healthz,
// /metrics, /raycast) on its own listener until ctx is cancelled,
// mirroring original_source's server.rs spawn_server (a dedicated
// thread running its own single-threaded async runtime) as a Go
// goroutine running its own net/http.Server.
func (w *Worker) ServeHTTP(ctx context.Context, addr string) error {
	m := newMetrics(w)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		json.NewEncoder(rw).Encode(struct {
			Status string `json:"status"`
			UUID   string `json:"uuid"`
			Label  string `json:"label"`
		}{Status: "ok", UUID: w.UUID.String(), Label: w.debugLabel})
	})
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/raycast", w.handleRayCast)

	srv := &http.Server{Addr: addr, Handler: mux}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	nlog.Infof("worker %s: HTTP listening on %s", w.UUID, addr)
	err = srv.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (w *Worker) handleRayCast(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var q simobjects.RayCastQuery
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)
		return
	}

	hit, toi, found := w.Solver.RayCast(q.Origin, q.Direction, q.MaxToi)
	resp := simobjects.RayCastResponse{Toi: toi}
	if found {
		resp.Hit = &hit
	}

	rw.Header().Set("Content-Type", "application/json")
	json.NewEncoder(rw).Encode(resp)
}
