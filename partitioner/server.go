package partitioner

import (
	"context"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/steadyum/steadyum-go/cmn/nlog"
)

// Run starts the allocator, the control-plane HTTP listener, and the
// bulk-insert fasthttp listener, and blocks until one fails or ctx is
// cancelled — the same errgroup-supervised shape worker.Run uses.
func (p *Partitioner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return p.RunAllocator(ctx) })
	g.Go(func() error { return p.serveControlPlane(ctx, p.cfg.PartitionerBindAddr) })
	g.Go(func() error { return p.ServeBulkInsert(ctx, p.cfg.PartitionerBulkAddr) })

	nlog.Infof("partitioner: started (control %s, bulk %s)", p.cfg.PartitionerBindAddr, p.cfg.PartitionerBulkAddr)
	return g.Wait()
}

func (p *Partitioner) serveControlPlane(ctx context.Context, addr string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "steadyum_partitioner_assigned_regions",
		Help: "Number of regions currently assigned to a worker.",
	}, func() float64 {
		p.mu.Lock()
		defer p.mu.Unlock()
		return float64(len(p.assigned))
	}))
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "steadyum_partitioner_pending_workers",
		Help: "Number of pre-warmed workers awaiting a region assignment.",
	}, func() float64 {
		return float64(p.numPending.Load())
	}))

	mux := p.Mux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: p.WithAuth(mux)}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	err = srv.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
