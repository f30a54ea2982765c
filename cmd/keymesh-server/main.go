package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/keymesh/internal/core/engine"
	"github.com/yndnr/keymesh/internal/infra/buildinfo"
	"github.com/yndnr/keymesh/internal/infra/confloader"
	"github.com/yndnr/keymesh/internal/infra/shutdown"
	"github.com/yndnr/keymesh/internal/server/config"
	"github.com/yndnr/keymesh/internal/server/httpserver"
	"github.com/yndnr/keymesh/internal/server/httpserver/handler"
	"github.com/yndnr/keymesh/internal/server/redisserver"
	"github.com/yndnr/keymesh/internal/storage/memory"
	"github.com/yndnr/keymesh/internal/telemetry/logger"
	"github.com/yndnr/keymesh/internal/telemetry/metric"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "keymesh-server",
		Usage:   "in-memory key-value server speaking RESP",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML configuration file",
				EnvVars: []string{"KEYMESH_CONFIG"},
			},
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "dotenv files loaded before reading KEYMESH_* variables",
				Value: cli.NewStringSlice(".env", ".env.local"),
			},
			&cli.StringFlag{
				Name:  "redis-addr",
				Usage: "RESP listen address (overrides server.redis.addr)",
			},
			&cli.StringFlag{
				Name:  "http-addr",
				Usage: "HTTP listen address (overrides server.http.addr)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error (overrides log.level)",
			},
		},
		Before: func(c *cli.Context) error {
			return confloader.LoadDotEnv(c.StringSlice("env-file")...)
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	configPath := c.String("config")
	overrides := flagOverrides(c)

	cfg, err := loadConfig(configPath, overrides)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)
	slogger := log.Slog()

	log.Info("starting keymesh-server",
		"version", buildinfo.Get().Version,
		"commit", buildinfo.Get().Commit,
		"config_file", configPath,
		"config", config.Sanitize(cfg))

	store := memory.New(memory.WithShards(cfg.Storage.Shards))

	registry := metric.NewRegistry()
	if err := registry.Register(metric.NewKeyspaceCollector(store)); err != nil {
		return fmt.Errorf("register keyspace collector: %w", err)
	}

	eng := engine.New(store,
		engine.WithLogger(slogger.With("component", "engine")),
		engine.WithObserver(registry))

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sh := shutdown.NewHandler(shutdownTimeout, slogger.With("component", "shutdown"))

	rc := redisConfig(cfg.Server.Redis)
	tlsCfg, certWatcher, err := listenerTLS(cfg.Server.Redis.TLS, slogger.With("component", "tls"))
	if err != nil {
		return err
	}
	if certWatcher != nil {
		rc.TLS = tlsCfg
		sh.OnShutdown("tls-watcher", func(context.Context) error { return certWatcher.Stop() })
	}

	redisSrv := redisserver.New(rc, eng,
		slogger.With("component", "redis"),
		redisserver.WithConnObserver(registry))
	if err := redisSrv.Start(ctx); err != nil {
		return fmt.Errorf("start redis server: %w", err)
	}
	sh.OnShutdown("redis", redisSrv.Shutdown)

	var ready atomic.Bool
	if cfg.Server.HTTP.Enabled {
		httpSrv, ln, err := newHTTPServer(cfg, store, redisSrv, registry, &ready, slogger)
		if err != nil {
			_ = redisSrv.Shutdown(context.Background())
			return err
		}
		go func() {
			log.Info("http server listening", "addr", ln.Addr().String())
			if err := httpSrv.Serve(ln); err != nil {
				log.Error("http server error", "error", err)
				sh.Trigger()
			}
		}()
		sh.OnShutdown("http", httpSrv.Shutdown)
	}

	if configPath != "" {
		w, err := watchConfig(configPath, overrides, log)
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else {
			sh.OnShutdown("config-watcher", func(context.Context) error { return w.Stop() })
		}
	}

	// Registered last so it runs first: probes fail before listeners close.
	sh.OnShutdown("readiness", func(context.Context) error {
		ready.Store(false)
		return nil
	})

	ready.Store(true)
	log.Info("server started")

	if err := sh.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

func newHTTPServer(
	cfg *config.ServerConfig,
	store *memory.Store,
	redisSrv *redisserver.Server,
	registry *metric.Registry,
	ready *atomic.Bool,
	slogger *slog.Logger,
) (*httpserver.Server, net.Listener, error) {
	httpCfg := cfg.Server.HTTP
	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Handler: handler.Options{
			Keyspace: store,
			Clients:  redisSrv,
			Metrics:  registry.Handler(),
			Ready: func() error {
				if !ready.Load() {
					return errors.New("not serving")
				}
				return nil
			},
		},
		Logger:     slogger.With("component", "http"),
		AdminToken: httpCfg.AdminToken,
		AllowList:  httpCfg.AllowList,
		RateLimit:  httpCfg.RateLimit,
	})

	// Bind before returning so a taken port fails startup.
	ln, err := net.Listen("tcp", httpCfg.Addr)
	if err != nil {
		return nil, nil, fmt.Errorf("listen http %s: %w", httpCfg.Addr, err)
	}
	return httpserver.New(httpCfg.Addr, router), ln, nil
}
