// Package config loads steadyum-go's process configuration via
// spf13/viper (YAML file + environment overrides), grounded on the
// pack's niceyeti-tabular use of viper for layered config.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the full process configuration surface shared by the
// Partitioner and Worker binaries; each binary only reads the fields
// relevant to it.
type Config struct {
	// RegionWidth is W, the fixed edge length of every Region cube.
	RegionWidth float64

	// MacroStep is K, the number of solver substeps per published
	// macro-step.
	MacroStep int

	// MaxPending is the allocator's pre-warmed worker pool size.
	MaxPending int

	// AckTimeout bounds how long a Worker waits at the neighbor-ack
	// barrier before proceeding anyway (see DESIGN.md Open Question 2).
	AckTimeout time.Duration

	PartitionerBindAddr string

	// PartitionerBulkAddr is the separate fasthttp-served listener for
	// the high-throughput POST /insert data path, split from the
	// control-plane net/http listener at PartitionerBindAddr.
	PartitionerBulkAddr string

	// PartitionerURL is how a Worker reaches the Partitioner's HTTP API
	// (e.g. to resolve a migration destination's worker UUID via
	// POST /region).
	PartitionerURL string

	RedisAddr string

	KafkaBrokers []string

	TLSEnabled bool
	JWTEnabled bool
	JWTSecret  string

	AssetPresetDir string

	// SpawnerKind selects how the Partitioner's allocator launches new
	// Worker processes: "process" (os/exec, the default) or
	// "kubernetes" (a bare Pod per Worker).
	SpawnerKind      string
	RunnerBinaryPath string
	K8sNamespace     string
	K8sImage         string
}

// Default returns the configuration used when no file/env override is
// present, matching the original's DEFAULT_WIDTH and this spec's
// documented defaults.
func Default() *Config {
	return &Config{
		RegionWidth:         100,
		MacroStep:           10,
		MaxPending:          10,
		AckTimeout:          2 * time.Second,
		PartitionerBindAddr: ":3535",
		PartitionerBulkAddr: ":3536",
		PartitionerURL:      "http://127.0.0.1:3535",
		RedisAddr:           "127.0.0.1:6379",
		KafkaBrokers:        []string{"127.0.0.1:9092"},
		AssetPresetDir:      "./presets",
		SpawnerKind:         "process",
		RunnerBinaryPath:    "./steadyum-runner",
		K8sNamespace:        "default",
		K8sImage:            "steadyum-runner:latest",
	}
}

// Load reads configuration from an optional YAML file at path (ignored
// if empty or missing) and from STEADYUM_-prefixed environment
// variables, overlaying Default().
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetEnvPrefix("STEADYUM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("region_width", cfg.RegionWidth)
	v.SetDefault("macro_step", cfg.MacroStep)
	v.SetDefault("max_pending", cfg.MaxPending)
	v.SetDefault("ack_timeout", cfg.AckTimeout)
	v.SetDefault("partitioner_bind_addr", cfg.PartitionerBindAddr)
	v.SetDefault("partitioner_bulk_addr", cfg.PartitionerBulkAddr)
	v.SetDefault("partitioner_url", cfg.PartitionerURL)
	v.SetDefault("redis_addr", cfg.RedisAddr)
	v.SetDefault("kafka_brokers", cfg.KafkaBrokers)
	v.SetDefault("tls_enabled", cfg.TLSEnabled)
	v.SetDefault("jwt_enabled", cfg.JWTEnabled)
	v.SetDefault("jwt_secret", cfg.JWTSecret)
	v.SetDefault("asset_preset_dir", cfg.AssetPresetDir)
	v.SetDefault("spawner_kind", cfg.SpawnerKind)
	v.SetDefault("runner_binary_path", cfg.RunnerBinaryPath)
	v.SetDefault("k8s_namespace", cfg.K8sNamespace)
	v.SetDefault("k8s_image", cfg.K8sImage)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return nil, errors.Wrapf(err, "load config from %s", path)
			}
		}
	}

	cfg.RegionWidth = v.GetFloat64("region_width")
	cfg.MacroStep = v.GetInt("macro_step")
	cfg.MaxPending = v.GetInt("max_pending")
	cfg.AckTimeout = v.GetDuration("ack_timeout")
	cfg.PartitionerBindAddr = v.GetString("partitioner_bind_addr")
	cfg.PartitionerBulkAddr = v.GetString("partitioner_bulk_addr")
	cfg.PartitionerURL = v.GetString("partitioner_url")
	cfg.RedisAddr = v.GetString("redis_addr")
	cfg.KafkaBrokers = v.GetStringSlice("kafka_brokers")
	cfg.TLSEnabled = v.GetBool("tls_enabled")
	cfg.JWTEnabled = v.GetBool("jwt_enabled")
	cfg.JWTSecret = v.GetString("jwt_secret")
	cfg.AssetPresetDir = v.GetString("asset_preset_dir")
	cfg.SpawnerKind = v.GetString("spawner_kind")
	cfg.RunnerBinaryPath = v.GetString("runner_binary_path")
	cfg.K8sNamespace = v.GetString("k8s_namespace")
	cfg.K8sImage = v.GetString("k8s_image")

	return cfg, nil
}
