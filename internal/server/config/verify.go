package config

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"
)

// Verify validates the configuration. All problems are reported together.
func Verify(cfg *ServerConfig) error {
	return errors.Join(
		verifyRedis(&cfg.Server.Redis),
		verifyHTTP(&cfg.Server.HTTP),
		verifyStorage(&cfg.Storage),
		verifyLog(&cfg.Log),
	)
}

func verifyRedis(cfg *RedisConfig) error {
	var errs []error
	if cfg.Addr != "" {
		if err := verifyAddr(cfg.Addr); err != nil {
			errs = append(errs, fmt.Errorf("server.redis.addr: %w", err))
		}
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, errors.New("server.redis.read_timeout must not be negative"))
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, errors.New("server.redis.write_timeout must not be negative"))
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, errors.New("server.redis.idle_timeout must not be negative"))
	}
	if cfg.RateLimit < 0 {
		errs = append(errs, errors.New("server.redis.rate_limit must not be negative"))
	}
	if cfg.MaxClients < 0 {
		errs = append(errs, errors.New("server.redis.max_clients must not be negative"))
	}
	if err := verifyTLS(&cfg.TLS); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func verifyTLS(cfg *TLSConfig) error {
	switch {
	case cfg.Enabled() && (cfg.CertFile == "" || cfg.KeyFile == ""):
		return errors.New("server.redis.tls: cert_file and key_file must be set together")
	case !cfg.Enabled() && cfg.ClientCAFile != "":
		return errors.New("server.redis.tls.client_ca_file requires cert_file and key_file")
	}
	return nil
}

func verifyHTTP(cfg *HTTPConfig) error {
	if !cfg.Enabled {
		return nil
	}
	var errs []error
	if err := verifyAddr(cfg.Addr); err != nil {
		errs = append(errs, fmt.Errorf("server.http.addr: %w", err))
	}
	if cfg.RateLimit < 0 {
		errs = append(errs, errors.New("server.http.rate_limit must not be negative"))
	}
	for _, entry := range cfg.AllowList {
		if _, err := ParseAllowEntry(entry); err != nil {
			errs = append(errs, fmt.Errorf("server.http.allow_list: %w", err))
		}
	}
	return errors.Join(errs...)
}

func verifyStorage(cfg *StorageSection) error {
	if cfg.Shards <= 0 || cfg.Shards&(cfg.Shards-1) != 0 {
		return fmt.Errorf("storage.shards must be a positive power of two, got %d", cfg.Shards)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format %q is not one of json, text", cfg.Format)
	}
	return nil
}

func verifyAddr(addr string) error {
	if addr == "" {
		return errors.New("address is required")
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	if port == "" {
		return errors.New("port is required")
	}
	return nil
}

// ParseAllowEntry parses an allow-list entry. A bare IP is treated as a
// single-address prefix.
func ParseAllowEntry(entry string) (netip.Prefix, error) {
	if strings.Contains(entry, "/") {
		p, err := netip.ParsePrefix(entry)
		if err != nil {
			return netip.Prefix{}, err
		}
		return p.Masked(), nil
	}
	a, err := netip.ParseAddr(entry)
	if err != nil {
		return netip.Prefix{}, err
	}
	return netip.PrefixFrom(a, a.BitLen()), nil
}
