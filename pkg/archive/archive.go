package archive

import internalarchive "github.com/SmitUplenchwar2687/Rewind/internal/archive"

// Archive verifies, compresses and indexes session files on top of a Store.
type Archive = internalarchive.Archive

// Meta describes one archived session.
type Meta = internalarchive.Meta

// Store persists compressed blobs and their metadata.
type Store = internalarchive.Store

// Config selects and configures the archive backend.
type Config = internalarchive.Config

// RedisConfig configures the Redis archive backend.
type RedisConfig = internalarchive.RedisConfig

type Option = internalarchive.Option

const (
	BackendMemory = internalarchive.BackendMemory
	BackendRedis  = internalarchive.BackendRedis
)

var (
	ErrNotFound = internalarchive.ErrNotFound

	WithClock  = internalarchive.WithClock
	WithLogger = internalarchive.WithLogger

	NewMemoryStore = internalarchive.NewMemoryStore
	NewRedisStore  = internalarchive.NewRedisStore
)

func DefaultConfig() Config {
	return internalarchive.DefaultConfig()
}

func New(store Store, opts ...Option) (*Archive, error) {
	return internalarchive.New(store, opts...)
}

// Open builds the configured backend and wraps it in an Archive.
func Open(cfg Config, opts ...Option) (*Archive, error) {
	return internalarchive.Open(cfg, opts...)
}
