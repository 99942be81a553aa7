// Command steadyum-partitioner runs the central allocator and ingest
// broker described by partitioner.Partitioner: it pre-warms a pool of
// Worker processes, assigns regions on demand, and fans out scene
// inserts to the right region. One process per simulation cluster.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/steadyum/steadyum-go/blobstore"
	"github.com/steadyum/steadyum-go/bus"
	"github.com/steadyum/steadyum-go/cmn/config"
	"github.com/steadyum/steadyum-go/cmn/nlog"
	"github.com/steadyum/steadyum-go/partitioner"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	verbosity := flag.Int("v", 0, "log verbosity")
	flag.Parse()

	nlog.SetVerbosity(int32(*verbosity))

	cfg, err := config.Load(*configPath)
	if err != nil {
		nlog.Errorf("partitioner: load config: %s", err)
		os.Exit(1)
	}

	b, err := newBus(cfg)
	if err != nil {
		nlog.Errorf("partitioner: init bus: %s", err)
		os.Exit(1)
	}
	defer b.Close()

	blobs, err := newBlobstore(cfg)
	if err != nil {
		nlog.Errorf("partitioner: init blobstore: %s", err)
		os.Exit(1)
	}
	defer blobs.Close()

	spawner, err := newSpawner(cfg)
	if err != nil {
		nlog.Errorf("partitioner: init spawner: %s", err)
		os.Exit(1)
	}

	p := partitioner.New(cfg, b, blobs, spawner)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := p.Run(ctx); err != nil && ctx.Err() == nil {
		nlog.Errorf("partitioner: %s", err)
		os.Exit(1)
	}
}

func newBus(cfg *config.Config) (bus.Bus, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return bus.NewLocalBus(), nil
	}
	return bus.NewKafkaBus(cfg.KafkaBrokers)
}

func newBlobstore(cfg *config.Config) (blobstore.Client, error) {
	return blobstore.NewRedisClient(cfg.RedisAddr), nil
}

func newSpawner(cfg *config.Config) (partitioner.Spawner, error) {
	switch cfg.SpawnerKind {
	case "kubernetes":
		restCfg, err := rest.InClusterConfig()
		if err != nil {
			home, herr := os.UserHomeDir()
			if herr != nil {
				return nil, herr
			}
			kubeconfig := filepath.Join(home, clientcmd.RecommendedHomeDir, clientcmd.RecommendedFileName)
			restCfg, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
			if err != nil {
				return nil, err
			}
		}
		clientset, err := kubernetes.NewForConfig(restCfg)
		if err != nil {
			return nil, err
		}
		return &partitioner.KubernetesSpawner{
			Clientset:      clientset,
			Namespace:      cfg.K8sNamespace,
			Image:          cfg.K8sImage,
			PartitionerURL: cfg.PartitionerURL,
		}, nil
	default:
		return &partitioner.ProcessSpawner{
			BinaryPath:     cfg.RunnerBinaryPath,
			PartitionerURL: cfg.PartitionerURL,
		}, nil
	}
}
