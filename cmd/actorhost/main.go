// Package main provides the actorhost long-running host process
// entrypoint.
//
// actorhost supervises N concurrently-running ActorInstances on one
// machine: it owns the shared wasm Engine, claims store, policy
// evaluator, object store, and lattice bus connection, and starts every
// actor named in its --config file before blocking until an operator
// requests shutdown.
//
// Usage:
//
//	actorhost run --config <path>
package main

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/latticerun/actorhost/antiforgery"
	"github.com/latticerun/actorhost/bus"
	"github.com/latticerun/actorhost/claims"
	actorhostconfig "github.com/latticerun/actorhost/cli/config"
	"github.com/latticerun/actorhost/events"
	eventsredis "github.com/latticerun/actorhost/events/redis"
	eventswebhook "github.com/latticerun/actorhost/events/webhook"
	"github.com/latticerun/actorhost/lode"
	"github.com/latticerun/actorhost/log"
	"github.com/latticerun/actorhost/metrics"
	"github.com/latticerun/actorhost/objectstore"
	"github.com/latticerun/actorhost/policy"
	"github.com/latticerun/actorhost/registry"
	"github.com/latticerun/actorhost/runtime"
	"github.com/latticerun/actorhost/trace"
	"github.com/latticerun/actorhost/types"
)

// Exit codes.
const (
	exitSuccess = 0
	exitFailure = 1
)

func main() {
	app := &cli.App{
		Name:           "actorhost",
		Usage:          "Actor host process: supervises actor instances on one machine",
		Version:        types.Version,
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			runCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		os.Exit(exitFailure)
	}
}

func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(exitFailure)
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Start the host process and every actor named in --config",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Usage:    "Path to the host YAML config file",
				Required: true,
			},
		},
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	cfg, err := actorhostconfig.Load(c.String("config"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to load config: %v", err), exitFailure)
	}
	if err := cfg.Validate(); err != nil {
		return cli.Exit(fmt.Sprintf("invalid config: %v", err), exitFailure)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := trace.Init(ctx, cfg.Trace.ToTraceConfig()); err != nil {
		return cli.Exit(fmt.Sprintf("failed to initialize tracing: %v", err), exitFailure)
	}

	host, err := newHost(ctx, cfg)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to build host: %v", err), exitFailure)
	}

	started, err := host.startAll(ctx, cfg.HostID, cfg.Actors)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to start actors: %v", err), exitFailure)
	}
	fmt.Fprintf(os.Stderr, "actorhost: started %d actor(s) on host %q\n", len(started), cfg.HostID)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	cancel()

	haltCtx := context.Background()
	for _, inst := range started {
		if err := host.manager.Halt(haltCtx, inst); err != nil {
			fmt.Fprintf(os.Stderr, "actorhost: failed to halt %s: %v\n", inst.InstanceID(), err)
		}
	}

	return cli.Exit("", exitSuccess)
}

// host bundles the collaborators a running actorhost process wires
// together once at startup and reuses for every Start/Halt/LiveUpdate.
type host struct {
	manager *runtime.Manager
}

func newHost(ctx context.Context, cfg *actorhostconfig.Config) (*host, error) {
	b, err := buildBus(cfg.Bus)
	if err != nil {
		return nil, err
	}

	objStore, err := buildObjectStore(ctx, cfg.ObjectStore, cfg.HostID, cfg.LatticePrefix)
	if err != nil {
		return nil, err
	}

	pol, err := buildPolicy(cfg.Policy)
	if err != nil {
		return nil, err
	}

	trustedIssuers, err := parseTrustedIssuers(cfg.TrustedIssuers)
	if err != nil {
		return nil, err
	}

	hosts := registry.NewHostRegistry()
	hosts.Register(cfg.HostID, cfg.LatticePrefix)

	logger := log.NewLogger(log.InstanceContext{HostID: cfg.HostID})
	metricsCollector := metrics.NewCollector(cfg.HostID, cfg.LatticePrefix)
	claimsStore := claims.NewMemoryStore()

	sinks, err := buildSinks(cfg.Sinks, cfg.HostID, cfg.LatticePrefix, metricsCollector)
	if err != nil {
		return nil, err
	}

	deps := runtime.ManagerDeps{
		Engine:     runtime.NewTestEngine(),
		Bus:        b,
		Supervisor: bus.NewSubscriptionSupervisor(b),
		Hosts:      hosts,
		References: registry.NewReferenceMap(),
		Actors:     registry.NewActorRegistry(),
		Claims:     claimsStore,
		Events:     events.NewPublisher(b, cfg.HostID).WithSinks(sinks...),
		Metrics:    metricsCollector,
		Logger:     logger,
		Pipeline: runtime.PipelineDeps{
			Verifier:       antiforgery.NewEd25519Verifier(),
			TrustedIssuers: trustedIssuers,
			Claims:         claimsStore,
			Policy:         pol,
			Objects:        objStore,
			Metrics:        metricsCollector,
		},
	}

	return &host{manager: runtime.NewManager(deps)}, nil
}

// parseTrustedIssuers decodes the host's cluster issuer keys from their
// base64 wire form (the form trusted_issuers carries in the YAML config).
func parseTrustedIssuers(encoded []string) ([]ed25519.PublicKey, error) {
	keys := make([]ed25519.PublicKey, 0, len(encoded))
	for _, e := range encoded {
		raw, err := base64.StdEncoding.DecodeString(e)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted_issuers entry %q: %w", e, err)
		}
		if len(raw) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("trusted_issuers entry %q is not a %d-byte ed25519 key", e, ed25519.PublicKeySize)
		}
		keys = append(keys, ed25519.PublicKey(raw))
	}
	return keys, nil
}

func (h *host) startAll(ctx context.Context, hostID string, actorConfigs []actorhostconfig.ActorConfig) ([]*runtime.Instance, error) {
	started := make([]*runtime.Instance, 0, len(actorConfigs))
	for _, ac := range actorConfigs {
		bytesData, err := os.ReadFile(ac.BytesPath)
		if err != nil {
			return started, fmt.Errorf("read actor bytes %q: %w", ac.BytesPath, err)
		}
		c, err := loadClaims(ac.ClaimsPath)
		if err != nil {
			return started, fmt.Errorf("read actor claims %q: %w", ac.ClaimsPath, err)
		}

		inst, err := h.manager.Start(ctx, runtime.StartRequest{
			Claims:      c,
			Bytes:       bytesData,
			ImageRef:    ac.ImageRef,
			Annotations: ac.Annotations,
			HostID:      hostID,
		})
		if err != nil {
			return started, fmt.Errorf("start actor %q: %w", c.PublicKey, err)
		}
		started = append(started, inst)
	}
	return started, nil
}

func loadClaims(path string) (types.Claims, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Claims{}, err
	}
	var c types.Claims
	if err := json.Unmarshal(data, &c); err != nil {
		return types.Claims{}, fmt.Errorf("invalid claims JSON: %w", err)
	}
	return c, nil
}

func buildBus(cfg actorhostconfig.BusConfig) (bus.Bus, error) {
	switch cfg.Backend {
	case "", "redis":
		return bus.NewRedisBus(cfg.Redis.ToBusConfig())
	default:
		return nil, fmt.Errorf("unknown bus backend %q", cfg.Backend)
	}
}

func buildObjectStore(ctx context.Context, cfg actorhostconfig.ObjectStoreCfg, hostID, latticePrefix string) (objectstore.Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return objectstore.NewMemoryStore(), nil
	case "s3":
		store, err := objectstore.NewS3Store(ctx, cfg.S3.ToObjectStoreConfig())
		if err != nil {
			return nil, err
		}
		if cfg.Archive != nil {
			archiveCfg := objectstore.ArchiveConfig{
				Dataset:       cfg.Archive.Dataset,
				LatticePrefix: latticePrefix,
				HostID:        hostID,
			}
			archiver, err := objectstore.NewArchiver(archiveCfg, cfg.Archive.Path)
			if err != nil {
				return nil, fmt.Errorf("build chunk archiver: %w", err)
			}
			store = store.WithArchiver(archiver)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown object_store backend %q", cfg.Backend)
	}
}

func buildPolicy(cfg actorhostconfig.PolicyConfig) (policy.Evaluator, error) {
	switch cfg.Backend {
	case "", "open":
		return policy.NewOpenEvaluator(), nil
	case "lua":
		script, err := os.ReadFile(cfg.ScriptPath)
		if err != nil {
			return nil, fmt.Errorf("read policy script %q: %w", cfg.ScriptPath, err)
		}
		return policy.NewLuaEvaluator(string(script))
	default:
		return nil, fmt.Errorf("unknown policy backend %q", cfg.Backend)
	}
}

// buildSinks instantiates the fan-out sinks named in cfg, if any.
// Sink failures never block the bus publish, so an unconfigured sink
// (nil) is simply absent from the returned slice.
func buildSinks(cfg actorhostconfig.SinksConfig, hostID, latticePrefix string, metricsCollector *metrics.Collector) ([]events.Sink, error) {
	var sinks []events.Sink

	if cfg.Webhook != nil {
		sink, err := eventswebhook.New(cfg.Webhook.ToSinkConfig())
		if err != nil {
			return nil, fmt.Errorf("build webhook sink: %w", err)
		}
		sinks = append(sinks, sink)
	}

	if cfg.Redis != nil {
		sink, err := eventsredis.New(cfg.Redis.ToSinkConfig())
		if err != nil {
			return nil, fmt.Errorf("build redis sink: %w", err)
		}
		sinks = append(sinks, sink)
	}

	if cfg.Lode != nil {
		lodeCfg := lode.Config{
			Dataset: cfg.Lode.Dataset,
			Source:  latticePrefix,
			RunID:   hostID,
		}
		if lodeCfg.Dataset == "" {
			lodeCfg.Dataset = lode.DefaultDataset
		}
		client, err := lode.NewLodeClient(lodeCfg, cfg.Lode.Path)
		if err != nil {
			return nil, fmt.Errorf("build lode sink: %w", err)
		}
		sinks = append(sinks, lode.NewInstrumentedSink(lode.NewSink(lodeCfg, client), metricsCollector))
	}

	return sinks, nil
}
