package cli

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/Rewind/internal/archive"
)

// storageOptions are the archive backend flags shared by every command that
// touches the session archive.
type storageOptions struct {
	backend           string
	redisHost         string
	redisPort         int
	redisPassword     string
	redisDB           int
	redisCluster      bool
	redisClusterNodes []string
	redisPoolSize     int
	redisMaxRetries   int
	redisDialTimeout  time.Duration
	redisKeyPrefix    string
	redisTTL          time.Duration
}

func (o *storageOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.backend, "storage", archive.BackendMemory, "archive backend (memory, redis)")
	cmd.Flags().StringVar(&o.redisHost, "redis-host", "localhost", "redis host (or host:port)")
	cmd.Flags().IntVar(&o.redisPort, "redis-port", 6379, "redis port")
	cmd.Flags().StringVar(&o.redisPassword, "redis-password", "", "redis password")
	cmd.Flags().IntVar(&o.redisDB, "redis-db", 0, "redis database index")
	cmd.Flags().BoolVar(&o.redisCluster, "redis-cluster", false, "enable redis cluster mode")
	cmd.Flags().StringSliceVar(&o.redisClusterNodes, "redis-cluster-nodes", nil, "redis cluster nodes host:port list")
	cmd.Flags().IntVar(&o.redisPoolSize, "redis-pool-size", 20, "redis connection pool size")
	cmd.Flags().IntVar(&o.redisMaxRetries, "redis-max-retries", 3, "redis max retries")
	cmd.Flags().DurationVar(&o.redisDialTimeout, "redis-dial-timeout", 5*time.Second, "redis dial timeout")
	cmd.Flags().StringVar(&o.redisKeyPrefix, "redis-key-prefix", "rewind:", "prefix for archive keys in redis")
	cmd.Flags().DurationVar(&o.redisTTL, "redis-ttl", 0, "expire archived sessions after this long (0 = never)")
}

// applyConfigIfUnset copies cfg into every option whose flag was not given.
func (o *storageOptions) applyConfigIfUnset(cmd *cobra.Command, cfg archive.Config) {
	if !cmd.Flags().Changed("storage") {
		o.backend = cfg.Backend
	}
	if !cmd.Flags().Changed("redis-host") {
		o.redisHost = cfg.Redis.Host
	}
	if !cmd.Flags().Changed("redis-port") {
		o.redisPort = cfg.Redis.Port
	}
	if !cmd.Flags().Changed("redis-password") {
		o.redisPassword = cfg.Redis.Password
	}
	if !cmd.Flags().Changed("redis-db") {
		o.redisDB = cfg.Redis.DB
	}
	if !cmd.Flags().Changed("redis-cluster") {
		o.redisCluster = cfg.Redis.Cluster
	}
	if !cmd.Flags().Changed("redis-cluster-nodes") {
		o.redisClusterNodes = cfg.Redis.ClusterNodes
	}
	if !cmd.Flags().Changed("redis-pool-size") {
		o.redisPoolSize = cfg.Redis.PoolSize
	}
	if !cmd.Flags().Changed("redis-max-retries") {
		o.redisMaxRetries = cfg.Redis.MaxRetries
	}
	if !cmd.Flags().Changed("redis-dial-timeout") {
		o.redisDialTimeout = cfg.Redis.DialTimeout
	}
	if !cmd.Flags().Changed("redis-key-prefix") {
		o.redisKeyPrefix = cfg.Redis.KeyPrefix
	}
	if !cmd.Flags().Changed("redis-ttl") {
		o.redisTTL = cfg.Redis.TTL
	}
}

func (o *storageOptions) normalize() error {
	if o.redisCluster || o.backend != archive.BackendRedis {
		return nil
	}

	host, port, err := normalizeRedisHostPort(o.redisHost, o.redisPort)
	if err != nil {
		return err
	}
	o.redisHost = host
	o.redisPort = port
	return nil
}

func (o *storageOptions) toConfig() archive.Config {
	return archive.Config{
		Backend: o.backend,
		Redis: archive.RedisConfig{
			Host:         o.redisHost,
			Port:         o.redisPort,
			Password:     o.redisPassword,
			DB:           o.redisDB,
			Cluster:      o.redisCluster,
			ClusterNodes: append([]string(nil), o.redisClusterNodes...),
			PoolSize:     o.redisPoolSize,
			MaxRetries:   o.redisMaxRetries,
			DialTimeout:  o.redisDialTimeout,
			KeyPrefix:    o.redisKeyPrefix,
			TTL:          o.redisTTL,
		},
	}
}

// open resolves flags against cfg and opens the archive.
func (o *storageOptions) open(cmd *cobra.Command, cfg archive.Config, log zerolog.Logger) (*archive.Archive, error) {
	o.applyConfigIfUnset(cmd, cfg)
	if err := o.normalize(); err != nil {
		return nil, err
	}
	acfg := o.toConfig()
	if acfg.Backend == archive.BackendMemory {
		log.Warn().Msg("memory archive is process-local; entries are lost when rewind exits")
	}
	return openArchive(acfg, log)
}

// openArchive is swapped out by tests that need an archive shared across
// command invocations.
var openArchive = func(cfg archive.Config, log zerolog.Logger) (*archive.Archive, error) {
	a, err := archive.Open(cfg, archive.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	return a, nil
}

func normalizeRedisHostPort(host string, port int) (string, int, error) {
	if strings.Contains(host, ":") {
		h, p, err := net.SplitHostPort(host)
		if err != nil {
			return "", 0, fmt.Errorf("invalid --redis-host value %q: %w", host, err)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return "", 0, fmt.Errorf("invalid redis port in --redis-host %q: %w", host, err)
		}
		host = h
		port = n
	}

	if host == "" {
		return "", 0, fmt.Errorf("redis host cannot be empty")
	}
	if port <= 0 {
		return "", 0, fmt.Errorf("redis port must be positive, got %d", port)
	}

	return host, port, nil
}
