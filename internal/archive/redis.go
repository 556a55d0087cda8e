package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPoolSize    = 20
	defaultRedisMaxRetries  = 3
	defaultRedisDialTimeout = 5 * time.Second
	defaultRedisKeyPrefix   = "rewind:"

	fieldMeta = "meta"
	fieldBlob = "blob"
)

// RedisConfig configures the Redis archive backend.
type RedisConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	Password     string        `json:"password"`
	DB           int           `json:"db"`
	PoolSize     int           `json:"pool_size"`
	MaxRetries   int           `json:"max_retries"`
	DialTimeout  time.Duration `json:"dial_timeout"`
	Cluster      bool          `json:"cluster"`
	ClusterNodes []string      `json:"cluster_nodes"`
	KeyPrefix    string        `json:"key_prefix"`
	// TTL expires archived sessions. 0 keeps them forever.
	TTL time.Duration `json:"ttl"`
}

// RedisStore keeps each session in a hash (metadata and blob) and indexes
// entry IDs in a sorted set scored by creation time.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration

	closeOnce sync.Once
	closeErr  error
}

// NewRedisStore connects and pings the server before returning.
func NewRedisStore(cfg *RedisConfig) (*RedisStore, error) {
	conf, err := normalizeRedisConfig(cfg)
	if err != nil {
		return nil, err
	}

	client := newRedisClient(conf)
	s := &RedisStore{
		client: client,
		prefix: conf.KeyPrefix,
		ttl:    conf.TTL,
	}

	if err := s.pingWithRetry(context.Background(), conf.MaxRetries); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return s, nil
}

func (s *RedisStore) indexKey() string { return s.prefix + "sessions" }

func (s *RedisStore) entryKey(id string) string { return s.prefix + "session:" + id }

func (s *RedisStore) Save(ctx context.Context, meta Meta, blob []byte) error {
	if meta.ID == "" {
		return fmt.Errorf("entry id is required")
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}

	key := s.entryKey(meta.ID)
	_, err = s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, fieldMeta, raw, fieldBlob, blob)
		if s.ttl > 0 {
			p.Expire(ctx, key, s.ttl)
		}
		p.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(meta.CreatedAt.UnixMilli()), Member: meta.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (Meta, []byte, error) {
	vals, err := s.client.HMGet(ctx, s.entryKey(id), fieldMeta, fieldBlob).Result()
	if err != nil {
		return Meta{}, nil, fmt.Errorf("reading %s: %w", id, err)
	}
	if len(vals) != 2 || vals[0] == nil || vals[1] == nil {
		return Meta{}, nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	metaRaw, ok1 := vals[0].(string)
	blob, ok2 := vals[1].(string)
	if !ok1 || !ok2 {
		return Meta{}, nil, fmt.Errorf("unexpected redis hash values for %s: %T, %T", id, vals[0], vals[1])
	}
	var meta Meta
	if err := json.Unmarshal([]byte(metaRaw), &meta); err != nil {
		return Meta{}, nil, fmt.Errorf("decoding metadata for %s: %w", id, err)
	}
	return meta, []byte(blob), nil
}

// List skips index members whose hash has expired and prunes them.
func (s *RedisStore) List(ctx context.Context) ([]Meta, error) {
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.StringCmd, len(ids))
	_, err = s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = p.HGet(ctx, s.entryKey(id), fieldMeta)
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("reading metadata: %w", err)
	}

	out := make([]Meta, 0, len(ids))
	var stale []interface{}
	for i, cmd := range cmds {
		raw, err := cmd.Result()
		if errors.Is(err, redis.Nil) {
			stale = append(stale, ids[i])
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading metadata for %s: %w", ids[i], err)
		}
		var meta Meta
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			return nil, fmt.Errorf("decoding metadata for %s: %w", ids[i], err)
		}
		out = append(out, meta)
	}
	if len(stale) > 0 {
		_ = s.client.ZRem(ctx, s.indexKey(), stale...).Err()
	}
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	var del *redis.IntCmd
	_, err := s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		del = p.Del(ctx, s.entryKey(id))
		p.ZRem(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting %s: %w", id, err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return nil
}

// Close releases Redis resources. It is idempotent.
func (s *RedisStore) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.client.Close()
	})
	return s.closeErr
}

func (s *RedisStore) pingWithRetry(ctx context.Context, maxRetries int) error {
	attempts := maxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	backoff := 100 * time.Millisecond
	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := s.client.Ping(ctx).Err(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	if lastErr == nil {
		lastErr = errors.New("ping failed with unknown error")
	}
	return lastErr
}

func normalizeRedisConfig(cfg *RedisConfig) (*RedisConfig, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config is required")
	}

	conf := *cfg
	if conf.PoolSize <= 0 {
		conf.PoolSize = defaultRedisPoolSize
	}
	if conf.MaxRetries <= 0 {
		conf.MaxRetries = defaultRedisMaxRetries
	}
	if conf.DialTimeout <= 0 {
		conf.DialTimeout = defaultRedisDialTimeout
	}
	if conf.KeyPrefix == "" {
		conf.KeyPrefix = defaultRedisKeyPrefix
	}
	if conf.TTL < 0 {
		return nil, fmt.Errorf("ttl must not be negative, got %s", conf.TTL)
	}

	if conf.Cluster {
		if len(conf.ClusterNodes) == 0 {
			return nil, fmt.Errorf("cluster_nodes is required when cluster=true")
		}
	} else {
		if conf.Host == "" {
			return nil, fmt.Errorf("host is required when cluster=false")
		}
		if conf.Port <= 0 {
			return nil, fmt.Errorf("port must be positive when cluster=false, got %d", conf.Port)
		}
	}
	return &conf, nil
}

func newRedisClient(cfg *RedisConfig) redis.UniversalClient {
	if cfg.Cluster {
		return redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:       cfg.ClusterNodes,
			Password:    cfg.Password,
			PoolSize:    cfg.PoolSize,
			MaxRetries:  cfg.MaxRetries,
			DialTimeout: cfg.DialTimeout,
		})
	}

	return redis.NewClient(&redis.Options{
		Addr:        cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		MaxRetries:  cfg.MaxRetries,
		DialTimeout: cfg.DialTimeout,
	})
}
