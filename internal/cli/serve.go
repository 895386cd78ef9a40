package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/mektycoon/mekforge"
	"github.com/mektycoon/mekforge/internal/catalog"
	httpAdapter "github.com/mektycoon/mekforge/pkg/adapters/http"
	mcpAdapter "github.com/mektycoon/mekforge/pkg/adapters/mcp"
	"github.com/mektycoon/mekforge/pkg/adapters/memory"
	"github.com/mektycoon/mekforge/pkg/adapters/redis"
	"github.com/mektycoon/mekforge/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// ServeOptions contains the configuration of the serve command.
type ServeOptions struct {
	Port      int
	RedisAddr string
}

// RunServe starts the HTTP API and blocks until ctx is cancelled.
func RunServe(ctx context.Context, env *Env, o ServeOptions) error {
	sc := env.Config.Server
	vars, err := catalog.Load(env.Config.Catalog.Path)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	cache, locker, closeCache, err := openCache(ctx, env, o.RedisAddr)
	if err != nil {
		return err
	}
	defer closeCache()

	srv, err := httpAdapter.New(
		httpAdapter.WithLogger(env.Logger),
		httpAdapter.WithRegistry(reg),
		httpAdapter.WithCatalog(vars),
		httpAdapter.WithCache(cache, sc.CacheTTL),
		httpAdapter.WithLocker(locker),
		httpAdapter.WithClassicDefaults(env.Config.Blueprint.ClassicOptions),
		httpAdapter.WithTechnicalDefaults(env.Config.Technical),
		httpAdapter.WithMaxUpload(int64(sc.MaxUploadMB)<<20),
	)
	if err != nil {
		return err
	}

	env.printSystemMessage("mekforge %s serving on :%d", strings.TrimSpace(mekforge.Version), o.Port)
	return httpAdapter.ListenAndServe(ctx, fmt.Sprintf(":%d", o.Port), srv.Handler(), env.Logger)
}

// openCache connects to Redis when addr is set and falls back to a
// process-local cache otherwise.
func openCache(ctx context.Context, env *Env, addr string) (ports.Cache, ports.DistributedLocker, func(), error) {
	sc := env.Config.Server
	if addr == "" {
		env.Logger.Info("using in-memory render cache", "ttl", sc.CacheTTL)
		return memory.NewCache(memory.WithTTL(sc.CacheTTL)), memory.NewLocker(), func() {}, nil
	}

	cache := redis.New(addr, "", 0, redis.WithPrefix(sc.RedisPrefix), redis.WithTTL(sc.CacheTTL))
	if err := cache.Ping(ctx); err != nil {
		_ = cache.Close()
		return nil, nil, nil, fmt.Errorf("redis %s: %w", addr, err)
	}
	env.Logger.Info("using redis render cache", "addr", addr, "prefix", sc.RedisPrefix, "ttl", sc.CacheTTL)
	closeFn := func() {
		if err := cache.Close(); err != nil {
			env.Logger.Warn("redis close failed", "err", err)
		}
	}
	return cache, redis.NewLocker(cache.Client(), sc.RedisPrefix), closeFn, nil
}

// RunMCP starts the Model Context Protocol server on stdio or SSE.
func RunMCP(ctx context.Context, env *Env, transport string, port int) error {
	vars, err := catalog.Load(env.Config.Catalog.Path)
	if err != nil {
		return err
	}
	kit, err := mekforge.New(
		mekforge.WithLogger(env.Logger),
		mekforge.WithVariations(vars),
		mekforge.WithClassicOptions(env.Config.Blueprint.ClassicOptions),
		mekforge.WithTechnicalOptions(env.Config.Technical),
	)
	if err != nil {
		return err
	}

	s := mcpAdapter.NewServer(kit)
	switch transport {
	case "stdio", "":
		return s.ServeStdio()
	case "sse":
		return s.ServeSSE(ctx, port)
	}
	return fmt.Errorf("unknown transport %q (want stdio or sse)", transport)
}
