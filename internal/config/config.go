package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/SmitUplenchwar2687/Rewind/internal/archive"
	"github.com/SmitUplenchwar2687/Rewind/internal/logging"
	"github.com/SmitUplenchwar2687/Rewind/internal/recorder"
	"github.com/SmitUplenchwar2687/Rewind/internal/replay"
)

// Config is the top-level configuration shared by every rewind command.
type Config struct {
	Recorder recorder.Config
	Player   replay.Config
	Monitor  MonitorConfig
	Archive  archive.Config
	Log      logging.Options
}

// MonitorConfig holds the HTTP monitor settings.
type MonitorConfig struct {
	Addr string
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Recorder: recorder.DefaultConfig(),
		Player:   replay.DefaultConfig(),
		Monitor:  MonitorConfig{Addr: ":8080"},
		Archive:  archive.DefaultConfig(),
		Log:      logging.DefaultOptions(),
	}
}

// Validate checks that the config is valid.
func (c Config) Validate() error {
	if err := c.Recorder.Validate(); err != nil {
		return fmt.Errorf("recorder: %w", err)
	}
	if err := c.Player.Validate(); err != nil {
		return fmt.Errorf("player: %w", err)
	}
	if c.Monitor.Addr == "" {
		return fmt.Errorf("monitor: addr is required")
	}
	if err := c.Archive.Validate(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	switch c.Log.Format {
	case "", logging.FormatConsole, logging.FormatJSON:
	default:
		return fmt.Errorf("log: unknown format %q, must be one of: console, json", c.Log.Format)
	}
	return nil
}

// LoadFile reads a JSON or TOML (by .toml extension) config file and merges
// it with defaults. Fields not specified in the file retain their default values.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	// Use a raw intermediate struct to handle duration parsing.
	var raw rawConfig
	if isTOML(path) {
		if _, err := toml.Decode(string(data), &raw); err != nil {
			return cfg, fmt.Errorf("parsing config file: %w", err)
		}
	} else if err := json.Unmarshal(data, &raw); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}

	if err := raw.merge(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// rawConfig is the file representation with string durations. Pointers mark
// fields whose zero value is meaningful.
type rawConfig struct {
	Recorder struct {
		Timing      string `json:"timing" toml:"timing"`
		FixedDelay  string `json:"fixed_delay" toml:"fixed_delay"`
		ReadTimeout string `json:"read_timeout" toml:"read_timeout"`
		DialTimeout string `json:"dial_timeout" toml:"dial_timeout"`
	} `json:"recorder" toml:"recorder"`
	Player struct {
		Addr          string   `json:"addr" toml:"addr"`
		Speed         *float64 `json:"speed" toml:"speed"`
		WriteTimeout  string   `json:"write_timeout" toml:"write_timeout"`
		AcceptTimeout string   `json:"accept_timeout" toml:"accept_timeout"`
		Handshake     struct {
			Major    *uint8  `json:"major" toml:"major"`
			Minor    *uint8  `json:"minor" toml:"minor"`
			Checksum *uint32 `json:"checksum" toml:"checksum"`
		} `json:"handshake" toml:"handshake"`
	} `json:"player" toml:"player"`
	Monitor struct {
		Addr string `json:"addr" toml:"addr"`
	} `json:"monitor" toml:"monitor"`
	Archive struct {
		Backend string `json:"backend" toml:"backend"`
		Redis   struct {
			Host         string   `json:"host" toml:"host"`
			Port         int      `json:"port" toml:"port"`
			Password     string   `json:"password" toml:"password"`
			DB           *int     `json:"db" toml:"db"`
			PoolSize     int      `json:"pool_size" toml:"pool_size"`
			MaxRetries   int      `json:"max_retries" toml:"max_retries"`
			DialTimeout  string   `json:"dial_timeout" toml:"dial_timeout"`
			Cluster      *bool    `json:"cluster" toml:"cluster"`
			ClusterNodes []string `json:"cluster_nodes" toml:"cluster_nodes"`
			KeyPrefix    string   `json:"key_prefix" toml:"key_prefix"`
			TTL          string   `json:"ttl" toml:"ttl"`
		} `json:"redis" toml:"redis"`
	} `json:"archive" toml:"archive"`
	Log struct {
		Level   string `json:"level" toml:"level"`
		Format  string `json:"format" toml:"format"`
		NoColor *bool  `json:"no_color" toml:"no_color"`
	} `json:"log" toml:"log"`
}

func (raw *rawConfig) merge(cfg *Config) error {
	r := raw.Recorder
	if r.Timing != "" {
		cfg.Recorder.Timing = recorder.Timing(r.Timing)
	}
	if err := parseDuration("recorder.fixed_delay", r.FixedDelay, &cfg.Recorder.FixedDelay); err != nil {
		return err
	}
	if err := parseDuration("recorder.read_timeout", r.ReadTimeout, &cfg.Recorder.ReadTimeout); err != nil {
		return err
	}
	if err := parseDuration("recorder.dial_timeout", r.DialTimeout, &cfg.Recorder.DialTimeout); err != nil {
		return err
	}

	p := raw.Player
	if p.Addr != "" {
		cfg.Player.Addr = p.Addr
	}
	if p.Speed != nil {
		cfg.Player.Speed = *p.Speed
	}
	if err := parseDuration("player.write_timeout", p.WriteTimeout, &cfg.Player.WriteTimeout); err != nil {
		return err
	}
	if err := parseDuration("player.accept_timeout", p.AcceptTimeout, &cfg.Player.AcceptTimeout); err != nil {
		return err
	}
	if p.Handshake.Major != nil {
		cfg.Player.Handshake.Major = *p.Handshake.Major
	}
	if p.Handshake.Minor != nil {
		cfg.Player.Handshake.Minor = *p.Handshake.Minor
	}
	if p.Handshake.Checksum != nil {
		cfg.Player.Handshake.Checksum = *p.Handshake.Checksum
	}

	if raw.Monitor.Addr != "" {
		cfg.Monitor.Addr = raw.Monitor.Addr
	}

	a := raw.Archive
	if a.Backend != "" {
		cfg.Archive.Backend = a.Backend
	}
	rc := &cfg.Archive.Redis
	if a.Redis.Host != "" {
		rc.Host = a.Redis.Host
	}
	if a.Redis.Port > 0 {
		rc.Port = a.Redis.Port
	}
	if a.Redis.Password != "" {
		rc.Password = a.Redis.Password
	}
	if a.Redis.DB != nil {
		rc.DB = *a.Redis.DB
	}
	if a.Redis.PoolSize > 0 {
		rc.PoolSize = a.Redis.PoolSize
	}
	if a.Redis.MaxRetries > 0 {
		rc.MaxRetries = a.Redis.MaxRetries
	}
	if err := parseDuration("archive.redis.dial_timeout", a.Redis.DialTimeout, &rc.DialTimeout); err != nil {
		return err
	}
	if a.Redis.Cluster != nil {
		rc.Cluster = *a.Redis.Cluster
	}
	if len(a.Redis.ClusterNodes) > 0 {
		rc.ClusterNodes = a.Redis.ClusterNodes
	}
	if a.Redis.KeyPrefix != "" {
		rc.KeyPrefix = a.Redis.KeyPrefix
	}
	if err := parseDuration("archive.redis.ttl", a.Redis.TTL, &rc.TTL); err != nil {
		return err
	}

	if raw.Log.Level != "" {
		cfg.Log.Level = raw.Log.Level
	}
	if raw.Log.Format != "" {
		cfg.Log.Format = raw.Log.Format
	}
	if raw.Log.NoColor != nil {
		cfg.Log.NoColor = *raw.Log.NoColor
	}
	return nil
}

func parseDuration(field, raw string, dst *time.Duration) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", field, err)
	}
	*dst = d
	return nil
}

const exampleJSON = `{
  "recorder": {
    "timing": "fixed",
    "fixed_delay": "16ms",
    "read_timeout": "30s",
    "dial_timeout": "5s"
  },
  "player": {
    "addr": ":42069",
    "speed": 1,
    "write_timeout": "10s",
    "accept_timeout": "0s",
    "handshake": { "major": 1, "minor": 0, "checksum": 0 }
  },
  "monitor": {
    "addr": ":8080"
  },
  "archive": {
    "backend": "memory",
    "redis": {
      "host": "localhost",
      "port": 6379,
      "db": 0,
      "pool_size": 20,
      "max_retries": 3,
      "dial_timeout": "5s",
      "key_prefix": "rewind:",
      "ttl": "0s"
    }
  },
  "log": {
    "level": "info",
    "format": "console"
  }
}
`

const exampleTOML = `[recorder]
timing = "fixed"
fixed_delay = "16ms"
read_timeout = "30s"
dial_timeout = "5s"

[player]
addr = ":42069"
speed = 1.0
write_timeout = "10s"
accept_timeout = "0s"

[player.handshake]
major = 1
minor = 0
checksum = 0

[monitor]
addr = ":8080"

[archive]
backend = "memory"

[archive.redis]
host = "localhost"
port = 6379
db = 0
pool_size = 20
max_retries = 3
dial_timeout = "5s"
key_prefix = "rewind:"
ttl = "0s"

[log]
level = "info"
format = "console"
`

// WriteExample writes an example config file to the given path, as TOML when
// the path ends in .toml and JSON otherwise.
func WriteExample(path string) error {
	example := exampleJSON
	if isTOML(path) {
		example = exampleTOML
	}
	return os.WriteFile(path, []byte(example), 0o644)
}
