package worker

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/steadyum/steadyum-go/cmn/debug"
	"github.com/steadyum/steadyum-go/cmn/nlog"
)

// Run starts every Worker goroutine (command drain, main loop, HTTP
// endpoint) and blocks until one of them fails or ctx is cancelled.
// Callers that need to know when the Worker is actually listening for
// commands (e.g. before telling the Partitioner it is ready) should
// call WaitStarted concurrently with Run, mirroring the teacher's
// xact "wg.Add(1) at construction, wg.Done() once subscribed,
// WaitRunning() blocks the caller until then" convention
// (xact/xs/tcb.go).
func (w *Worker) Run(ctx context.Context, httpAddr string) error {
	debug.Assert(w.UUID != uuid.Nil, "worker started with a nil uuid")
	debug.Assert(httpAddr != "", "worker started with an empty http addr")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return w.RunCommandLoop(ctx) })
	g.Go(func() error { return w.RunMainLoop(ctx) })
	g.Go(func() error { return w.ServeHTTP(ctx, httpAddr) })

	nlog.Infof("worker %s (%s): started", w.UUID, w.debugLabel)
	return g.Wait()
}
