package partitioner

import (
	"context"

	"github.com/valyala/fasthttp"

	"github.com/steadyum/steadyum-go/cmn/nlog"
	"github.com/steadyum/steadyum-go/simobjects"
)

// ServeBulkInsert runs POST /insert on its own fasthttp listener,
// split from the control-plane net/http mux (SPEC_FULL.md §4.4's
// "data-path vs control-path transports" split, mirroring aistore's
// own separation of low-QPS control calls from its bulk object data
// path). Scene-ingest payloads can carry thousands of bodies at once;
// fasthttp's zero-allocation request handling keeps that path cheap
// under load in a way net/http's per-request allocations would not.
func (p *Partitioner) ServeBulkInsert(ctx context.Context, addr string) error {
	srv := &fasthttp.Server{
		Handler: p.fasthttpInsertHandler,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(addr) }()

	nlog.Infof("partitioner: bulk /insert listening on %s", addr)
	select {
	case <-ctx.Done():
		srv.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (p *Partitioner) fasthttpInsertHandler(ctx *fasthttp.RequestCtx) {
	if string(ctx.Method()) != fasthttp.MethodPost || string(ctx.Path()) != "/insert" {
		ctx.Error("not found", fasthttp.StatusNotFound)
		return
	}

	var req simobjects.InsertRequest
	if err := httpJSON.Unmarshal(ctx.PostBody(), &req); err != nil {
		ctx.Error(err.Error(), fasthttp.StatusBadRequest)
		return
	}

	if err := p.Insert(context.Background(), req); err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusOK)
}
