package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/config"
	"github.com/aretw0/parley/pkg/adapters/dynamodb"
	"github.com/aretw0/parley/pkg/adapters/file"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/adapters/postgres"
	"github.com/aretw0/parley/pkg/adapters/redis"
	"github.com/aretw0/parley/pkg/observability"
	"github.com/aretw0/parley/pkg/persistence/middleware"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/registry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const lockPrefix = "parley:"

// runtime bundles an engine with what must be released after use.
type runtime struct {
	engine  *parley.Engine
	store   ports.StateStore
	metrics http.Handler
	closers []func() error
}

func (r *runtime) Close() error {
	var first error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// openStore builds the configured state store, wrapped with encryption when a key is set.
// The Redis store is returned separately so the distributed lock can share its client.
func openStore(ctx context.Context, cfg *config.Config) (ports.StateStore, *redis.Store, []func() error, error) {
	var (
		store   ports.StateStore
		rstore  *redis.Store
		closers []func() error
	)

	switch cfg.Store.Backend {
	case config.BackendMemory:
		store = memory.NewStore()
	case config.BackendFile:
		store = file.New(cfg.Store.File.Dir)
	case config.BackendRedis:
		rstore = newRedisStore(cfg)
		closers = append(closers, rstore.Close)
		if err := rstore.Ping(ctx); err != nil {
			return nil, nil, closers, fmt.Errorf("failed to reach redis: %w", err)
		}
		store = rstore
	case config.BackendDynamoDB:
		var opts []dynamodb.Option
		if cfg.Store.DynamoDB.TTL > 0 {
			opts = append(opts, dynamodb.WithTTL(cfg.Store.DynamoDB.TTL))
		}
		ds, err := dynamodb.Open(ctx, cfg.Store.DynamoDB.Table, cfg.Store.DynamoDB.Region, opts...)
		if err != nil {
			return nil, nil, closers, err
		}
		store = ds
	case config.BackendPostgres:
		ps, err := postgres.Open(cfg.Store.Postgres.DSN, postgres.WithTable(cfg.Store.Postgres.Table))
		if err != nil {
			return nil, nil, closers, err
		}
		closers = append(closers, ps.Close)
		if err := ps.EnsureSchema(ctx); err != nil {
			return nil, nil, closers, err
		}
		store = ps
	default:
		return nil, nil, closers, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	if cfg.Lock.Distributed && rstore == nil {
		rstore = newRedisStore(cfg)
		closers = append(closers, rstore.Close)
	}

	if cfg.Store.Encryption.Key != "" {
		mw, err := encryptionMiddleware(cfg.Store.Encryption)
		if err != nil {
			return nil, nil, closers, err
		}
		store = middleware.Chain(store, mw)
	}
	return store, rstore, closers, nil
}

func newRedisStore(cfg *config.Config) *redis.Store {
	rc := cfg.Store.Redis
	opts := []redis.Option{redis.WithPrefix(rc.Prefix)}
	if rc.TTL > 0 {
		opts = append(opts, redis.WithTTL(rc.TTL))
	}
	return redis.New(rc.Address, rc.Password, rc.DB, opts...)
}

func encryptionMiddleware(ec config.EncryptionConfig) (middleware.Middleware, error) {
	decode := func(s string) ([]byte, error) {
		k, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("invalid encryption key encoding: %w", err)
		}
		return k, nil
	}

	active, err := decode(ec.Key)
	if err != nil {
		return nil, err
	}
	mc := middleware.EncryptionConfig{ActiveKey: active}
	for _, s := range ec.FallbackKeys {
		k, err := decode(s)
		if err != nil {
			return nil, err
		}
		mc.FallbackKeys = append(mc.FallbackKeys, k)
	}
	return middleware.NewEncryptionMiddleware(mc)
}

func loadRegistry(cfg *config.Config) (*registry.Registry, error) {
	if cfg.Registry.File == "" {
		return registry.Default(), nil
	}
	return registry.LoadFile(cfg.Registry.File)
}

// newRuntime wires store, lock, registry, metrics and logging into an Engine.
func (a *app) newRuntime(ctx context.Context) (*runtime, error) {
	rt := &runtime{}

	store, rstore, closers, err := openStore(ctx, a.cfg)
	rt.closers = closers
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.store = store

	reg, err := loadRegistry(a.cfg)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	hooks := observability.LogHooks(a.logger)
	if a.cfg.Metrics.Enabled {
		promReg := prometheus.NewRegistry()
		promReg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m, err := observability.NewMetrics(promReg)
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		hooks = observability.MergeHooks(m.Hooks(), hooks)
		rt.metrics = promhttp.HandlerFor(promReg, promhttp.HandlerOpts{})
	}

	opts := []parley.Option{
		parley.WithStore(store),
		parley.WithRegistry(reg),
		parley.WithLogger(a.logger),
		parley.WithLifecycleHooks(hooks),
	}
	if a.cfg.Lock.Distributed {
		opts = append(opts, parley.WithLocker(redis.NewLocker(rstore.Client(), lockPrefix), a.cfg.Lock.TTL))
	}

	rt.engine, err = parley.New(opts...)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	return rt, nil
}
