package main

import (
	"crypto/tls"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/keymesh/internal/infra/confloader"
	"github.com/yndnr/keymesh/internal/infra/tlsroots"
	"github.com/yndnr/keymesh/internal/server/config"
	"github.com/yndnr/keymesh/internal/server/redisserver"
	"github.com/yndnr/keymesh/internal/telemetry/logger"
)

// flagOverrides maps explicitly set command-line flags to config keys.
func flagOverrides(c *cli.Context) map[string]any {
	flags := map[string]string{
		"redis-addr": "server.redis.addr",
		"http-addr":  "server.http.addr",
		"log-level":  "log.level",
	}
	out := make(map[string]any)
	for flag, key := range flags {
		if c.IsSet(flag) {
			out[key] = c.String(flag)
		}
	}
	return out
}

// loadConfig builds the configuration from defaults, the optional file,
// KEYMESH_* variables and flag overrides, in increasing priority.
func loadConfig(path string, overrides map[string]any) (*config.ServerConfig, error) {
	cfg := config.Default()

	var opts []confloader.Option
	if path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}
	loader := confloader.NewLoader(opts...)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	if len(overrides) > 0 {
		if err := loader.LoadMap(overrides); err != nil {
			return nil, err
		}
		if err := loader.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("apply flags: %w", err)
		}
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func redisConfig(c config.RedisConfig) *redisserver.Config {
	return &redisserver.Config{
		Address:      c.Addr,
		UnixSocket:   c.UnixSocket,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
		IdleTimeout:  c.IdleTimeout,
		RateLimit:    c.RateLimit,
		MaxClients:   c.MaxClients,
	}
}

// listenerTLS starts a certificate watcher for the RESP listener. It returns
// nils when TLS is not configured.
func listenerTLS(c config.TLSConfig, log *slog.Logger) (*tls.Config, *tlsroots.Watcher, error) {
	if !c.Enabled() {
		return nil, nil, nil
	}
	w, err := tlsroots.NewWatcher(c.CertFile, c.KeyFile, tlsroots.WithLogger(log))
	if err != nil {
		return nil, nil, fmt.Errorf("load tls key pair: %w", err)
	}
	tlsCfg, err := tlsroots.ServerConfig(w, c.ClientCAFile)
	if err != nil {
		_ = w.Stop()
		return nil, nil, err
	}
	w.StartAsync()
	return tlsCfg, w, nil
}

// watchConfig reloads the file on change and applies log.level. Other
// settings take effect on restart.
func watchConfig(path string, overrides map[string]any, log *logger.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log.Slog().With("component", "config")))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		_ = w.Stop()
		return nil, err
	}

	w.OnChange(func(string) {
		cfg, err := loadConfig(path, overrides)
		if err != nil {
			log.Warn("config reload rejected", "path", path, "error", err)
			return
		}
		if previous := logger.GetLevel(); previous != cfg.Log.Level {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level changed", "from", previous, "to", logger.GetLevel())
		}
	})
	w.StartAsync()
	return w, nil
}
