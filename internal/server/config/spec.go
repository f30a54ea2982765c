package config

import "time"

// ServerConfig is the root configuration for keymesh-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Storage StorageSection `koanf:"storage"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	Redis RedisConfig `koanf:"redis"`
	HTTP  HTTPConfig  `koanf:"http"`
}

// RedisConfig configures the RESP listener.
type RedisConfig struct {
	// Addr is the TCP listen address. Empty disables TCP.
	Addr string `koanf:"addr"`
	// UnixSocket is an optional unix socket path.
	UnixSocket   string        `koanf:"unix_socket"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
	// RateLimit is commands per second per client IP; 0 disables it.
	RateLimit int `koanf:"rate_limit"`
	// MaxClients caps concurrent connections; 0 means unlimited.
	MaxClients int `koanf:"max_clients"`
	// TLS enables TLS on the TCP listener. The unix socket stays plain.
	TLS TLSConfig `koanf:"tls"`
}

// TLSConfig locates the listener key pair. Both files are watched and
// reloaded on change.
type TLSConfig struct {
	CertFile string `koanf:"cert_file"`
	KeyFile  string `koanf:"key_file"`
	// ClientCAFile, when set, requires client certificates signed by it.
	ClientCAFile string `koanf:"client_ca_file"`
}

// Enabled reports whether a key pair is configured.
func (c TLSConfig) Enabled() bool {
	return c.CertFile != "" || c.KeyFile != ""
}

// HTTPConfig configures the health, metrics and debug endpoint.
type HTTPConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
	// AdminToken guards /debug/* with a bearer token. Empty leaves the
	// debug endpoints reachable only from AllowList.
	AdminToken string `koanf:"admin_token"`
	// AllowList holds CIDRs or IPs allowed to reach /debug/* and /metrics.
	// Empty allows any peer.
	AllowList []string `koanf:"allow_list"`
	// RateLimit is requests per second per client IP; 0 disables it.
	RateLimit int `koanf:"rate_limit"`
}

// StorageSection configures the in-memory keyspace.
type StorageSection struct {
	// Shards is the keyspace shard count. Must be a power of two.
	Shards int `koanf:"shards"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
