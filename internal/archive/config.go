package archive

import "fmt"

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config selects and configures the archive backend.
type Config struct {
	Backend string      `json:"backend"`
	Redis   RedisConfig `json:"redis"`
}

func DefaultConfig() Config {
	return Config{
		Backend: BackendMemory,
		Redis: RedisConfig{
			Host:        "localhost",
			Port:        6379,
			PoolSize:    defaultRedisPoolSize,
			MaxRetries:  defaultRedisMaxRetries,
			DialTimeout: defaultRedisDialTimeout,
			KeyPrefix:   defaultRedisKeyPrefix,
		},
	}
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
		return nil
	case BackendRedis:
		if _, err := normalizeRedisConfig(&c.Redis); err != nil {
			return fmt.Errorf("archive.redis: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown archive backend %q, must be one of: memory, redis", c.Backend)
	}
}

// NewStore builds the backend cfg names.
func NewStore(cfg Config) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case BackendRedis:
		return NewRedisStore(&cfg.Redis)
	default:
		return NewMemoryStore(), nil
	}
}

// Open builds the backend and wraps it in an Archive.
func Open(cfg Config, opts ...Option) (*Archive, error) {
	store, err := NewStore(cfg)
	if err != nil {
		return nil, err
	}
	a, err := New(store, opts...)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return a, nil
}
