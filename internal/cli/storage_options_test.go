package cli

import (
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/Rewind/internal/archive"
)

func TestNormalizeRedisHostPort(t *testing.T) {
	host, port, err := normalizeRedisHostPort("localhost:6380", 6379)
	if err != nil {
		t.Fatalf("normalizeRedisHostPort() error = %v", err)
	}
	if host != "localhost" || port != 6380 {
		t.Fatalf("normalizeRedisHostPort() = %s:%d, want localhost:6380", host, port)
	}

	host, port, err = normalizeRedisHostPort("redis.internal", 6379)
	if err != nil {
		t.Fatalf("normalizeRedisHostPort() error = %v", err)
	}
	if host != "redis.internal" || port != 6379 {
		t.Fatalf("normalizeRedisHostPort() = %s:%d, want redis.internal:6379", host, port)
	}
}

func TestNormalizeRedisHostPort_Invalid(t *testing.T) {
	if _, _, err := normalizeRedisHostPort("", 6379); err == nil {
		t.Fatal("expected error for empty host")
	}
	if _, _, err := normalizeRedisHostPort("localhost", 0); err == nil {
		t.Fatal("expected error for non-positive port")
	}
}

func TestStorageOptions_FlagsOverrideConfig(t *testing.T) {
	var opts storageOptions
	cmd := &cobra.Command{Use: "x", RunE: func(*cobra.Command, []string) error { return nil }}
	opts.addFlags(cmd)
	if err := cmd.ParseFlags([]string{"--storage", "redis", "--redis-host", "cache:6390"}); err != nil {
		t.Fatal(err)
	}

	cfg := archive.DefaultConfig()
	cfg.Redis.DB = 4
	cfg.Redis.Host = "ignored"
	cfg.Redis.TTL = time.Hour
	opts.applyConfigIfUnset(cmd, cfg)
	if err := opts.normalize(); err != nil {
		t.Fatal(err)
	}

	got := opts.toConfig()
	if got.Backend != archive.BackendRedis {
		t.Errorf("backend = %q, want redis from flag", got.Backend)
	}
	if got.Redis.Host != "cache" || got.Redis.Port != 6390 {
		t.Errorf("redis addr = %s:%d, want cache:6390 from flag", got.Redis.Host, got.Redis.Port)
	}
	if got.Redis.DB != 4 || got.Redis.TTL != time.Hour {
		t.Errorf("unset flags should take config values, got db=%d ttl=%s", got.Redis.DB, got.Redis.TTL)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestStorageOptions_MemorySkipsRedisChecks(t *testing.T) {
	opts := storageOptions{backend: archive.BackendMemory, redisHost: ""}
	if err := opts.normalize(); err != nil {
		t.Fatalf("memory backend should ignore redis settings: %v", err)
	}
}
