// Command steadyum-runner is one Worker process: it owns at most one
// Region at a time, drains commands from its runner/<uuid> bus topic,
// and announces itself to the Partitioner once it is ready to receive
// an AssignRegion. Flags follow original_source's steadyum-runner CLI
// (crates/steadyum-runner/src/cli.rs) for --uuid, given in canonical
// textual UUID form, extended with --http-addr/--partitioner-url/--config
// since this Worker speaks HTTP to the Partitioner directly instead of
// over a shared message bus enum. There is no --time-origin flag: the
// time origin arrives in the AssignRegion command.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/steadyum/steadyum-go/blobstore"
	"github.com/steadyum/steadyum-go/bus"
	"github.com/steadyum/steadyum-go/cmn/config"
	"github.com/steadyum/steadyum-go/cmn/nlog"
	"github.com/steadyum/steadyum-go/worker"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	uuidFlag := flag.String("uuid", "", "this worker's identity (required)")
	httpAddr := flag.String("http-addr", ":3600", "address for this worker's /healthz, /metrics, /raycast endpoints")
	partitionerURL := flag.String("partitioner-url", "", "override the config file's partitioner_url, if set")
	verbosity := flag.Int("v", 0, "log verbosity")
	flag.Parse()

	nlog.SetVerbosity(int32(*verbosity))

	if *uuidFlag == "" {
		nlog.Errorf("runner: --uuid is required")
		os.Exit(1)
	}
	id, err := uuid.Parse(*uuidFlag)
	if err != nil {
		nlog.Errorf("runner: invalid --uuid %q: %s", *uuidFlag, err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		nlog.Errorf("runner %s: load config: %s", id, err)
		os.Exit(1)
	}
	if *partitionerURL != "" {
		cfg.PartitionerURL = *partitionerURL
	}

	b, err := newBus(cfg)
	if err != nil {
		nlog.Errorf("runner %s: init bus: %s", id, err)
		os.Exit(1)
	}
	defer b.Close()

	blobs := blobstore.NewRedisClient(cfg.RedisAddr)
	defer blobs.Close()

	w := worker.New(id, cfg, b, blobs)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx, *httpAddr) }()

	w.WaitStarted()
	if err := announceInitialized(ctx, w); err != nil {
		nlog.Errorf("runner %s: /initialized: %s", id, err)
		cancel()
	}

	if err := <-errCh; err != nil && ctx.Err() == nil {
		nlog.Errorf("runner %s: %s", id, err)
		os.Exit(1)
	}
}

// announceInitialized retries a few times: the Partitioner's own
// control-plane listener may not be accepting connections yet in the
// brief window right after os/exec.Start returns.
func announceInitialized(ctx context.Context, w *worker.Worker) error {
	var lastErr error
	for attempt := 0; attempt < 5; attempt++ {
		err := w.AnnounceInitialized(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
	return lastErr
}

func newBus(cfg *config.Config) (bus.Bus, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return bus.NewLocalBus(), nil
	}
	return bus.NewKafkaBus(cfg.KafkaBrokers)
}
