package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/aretw0/auraflow"
	"github.com/aretw0/auraflow/internal/config"
	"github.com/aretw0/auraflow/pkg/adapters/file"
	httpapi "github.com/aretw0/auraflow/pkg/adapters/http"
	"github.com/aretw0/auraflow/pkg/adapters/memory"
	"github.com/aretw0/auraflow/pkg/adapters/postgres"
	"github.com/aretw0/auraflow/pkg/adapters/redis"
	"github.com/aretw0/auraflow/pkg/adapters/workshop"
	"github.com/aretw0/auraflow/pkg/domain"
	"github.com/aretw0/auraflow/pkg/observability"
	"github.com/aretw0/auraflow/pkg/persistence/middleware"
	"github.com/aretw0/auraflow/pkg/ports"
	"github.com/aretw0/auraflow/pkg/watch"
)

// Host is everything a command needs, wired from the configuration.
type Host struct {
	Config   *config.Config
	Logger   *slog.Logger
	Engine   *auraflow.Engine
	Source   ports.WorkflowSource
	Store    ports.ConversationStore
	Watcher  ports.VersionWatcher // nil when watching is off
	Registry *prometheus.Registry
	Streams  *httpapi.StreamManager

	closers []func() error
}

// Close stops the engine and releases connections.
func (h *Host) Close() error {
	if h.Engine != nil {
		h.Engine.Shutdown()
	}
	var errs []error
	for i := len(h.closers) - 1; i >= 0; i-- {
		errs = append(errs, h.closers[i]())
	}
	return errors.Join(errs...)
}

// NewHost builds the engine and its collaborators. On error every resource
// opened so far is released.
func NewHost(ctx context.Context, cfg *config.Config, logger *slog.Logger) (host *Host, err error) {
	h := &Host{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
		Streams:  httpapi.NewStreamManager(logger),
	}
	defer func() {
		if err != nil {
			_ = h.Close()
		}
	}()

	if h.Source, err = h.createSource(ctx); err != nil {
		return nil, err
	}
	store, locker, err := h.createStore(ctx)
	if err != nil {
		return nil, err
	}
	h.Store = decorateStore(cfg, store)

	if h.Watcher, err = h.createWatcher(); err != nil {
		return nil, err
	}

	h.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(h.Registry)

	opts := []auraflow.Option{
		auraflow.WithLogger(logger),
		auraflow.WithStore(h.Store),
		auraflow.WithDelays(auraflow.Delays{
			Message:   cfg.Delays.Message,
			Handoff:   cfg.Delays.Handoff,
			Terminate: cfg.Delays.Terminate,
		}),
		auraflow.WithLifecycleHooks(domain.MergeHooks(
			metrics.Hooks(),
			observability.LoggingHooks(logger),
			domain.LifecycleHooks{OnEntry: h.Streams.OnEntry},
		)),
	}
	if locker != nil {
		opts = append(opts, auraflow.WithLocker(locker))
	}
	if cfg.Workshop.BaseURL != "" {
		opts = append(opts, auraflow.WithWorkshop(workshop.NewClient(cfg.Workshop)))
	} else {
		logger.Info("no workshop configured, sale nodes use an empty in-memory catalogue")
		opts = append(opts, auraflow.WithWorkshop(memory.NewWorkshop()))
	}

	if h.Engine, err = auraflow.New(h.Source, opts...); err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return h, nil
}

func (h *Host) redisClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr, Password: password, DB: db})
	h.closers = append(h.closers, client.Close)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to reach redis at %s: %w", addr, err)
	}
	return client, nil
}

func (h *Host) createSource(ctx context.Context) (ports.WorkflowSource, error) {
	wf := h.Config.Workflow
	switch wf.Source {
	case config.SourceFile:
		return file.NewSource(wf.Path), nil
	case config.SourceRedis:
		client, err := h.redisClient(ctx, wf.Addr, wf.Password, wf.DB)
		if err != nil {
			return nil, err
		}
		var opts []redis.SourceOption
		if wf.Prefix != "" {
			opts = append(opts, redis.WithSourcePrefix(wf.Prefix))
		}
		return redis.NewSource(client, opts...), nil
	}
	return nil, fmt.Errorf("unknown workflow source %q", wf.Source)
}

func (h *Host) createStore(ctx context.Context) (ports.ConversationStore, ports.DistributedLocker, error) {
	sc := h.Config.Store
	switch sc.Kind {
	case config.StoreMemory:
		return memory.NewStore(), nil, nil
	case config.StoreFile:
		return file.NewStore(sc.Path), nil, nil
	case config.StoreRedis:
		client, err := h.redisClient(ctx, sc.Addr, sc.Password, sc.DB)
		if err != nil {
			return nil, nil, err
		}
		opts := []redis.Option{redis.WithTTL(sc.TTL)}
		prefix := redis.DefaultPrefix
		if sc.Prefix != "" {
			prefix = sc.Prefix
			opts = append(opts, redis.WithPrefix(sc.Prefix+"session:"))
		}
		var locker ports.DistributedLocker
		if sc.Lock {
			locker = redis.NewLocker(client, prefix)
		}
		return redis.NewFromClient(client, opts...), locker, nil
	case config.StorePostgres:
		store, err := postgres.Open(ctx, sc.DSN)
		if err != nil {
			return nil, nil, err
		}
		h.closers = append(h.closers, store.Close)
		return store, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown store kind %q", sc.Kind)
}

// decorateStore masks PII before encrypting, so ciphertext never holds it.
func decorateStore(cfg *config.Config, store ports.ConversationStore) ports.ConversationStore {
	var mws []middleware.Middleware
	if cfg.Store.PII {
		mws = append(mws, middleware.NewPIIMiddleware(cfg.PIIPatterns()))
	}
	if enc := cfg.EncryptionConfig(); enc != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(*enc))
	}
	return middleware.Chain(store, mws...)
}

func (h *Host) createWatcher() (ports.VersionWatcher, error) {
	switch h.Config.Watch.Mode {
	case config.WatchOff:
		return nil, nil
	case config.WatchPush:
		ws, ok := h.Source.(watch.WatchableSource)
		if !ok {
			return nil, fmt.Errorf("workflow source %q cannot push changes", h.Config.Workflow.Source)
		}
		return watch.NewPush(ws, h.Logger), nil
	default:
		return watch.NewPoller(h.Source,
			watch.WithSpec(h.Config.Watch.Schedule),
			watch.WithLogger(h.Logger),
		), nil
	}
}
