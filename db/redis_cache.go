package db

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"student-api-server-go/config"
	"student-api-server-go/models"
)

const (
	studentsKeyPart = "students" // <prefix>:students:<table>:<filter>
	allStudentsKey  = "all"
	pingTimeout     = 2 * time.Second
)

// RedisCache stores serialized /api responses in Redis. Keys include a
// fingerprint of the loaded table, so a restart with a different data file
// never serves bodies built from the old one.
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
	Prefix string

	tableID string
}

// NewRedisCache creates a cache bound to table.
func NewRedisCache(client *redis.Client, table *models.Table, ttl time.Duration, prefix string) (*RedisCache, error) {
	id, err := TableFingerprint(table)
	if err != nil {
		return nil, err
	}
	return &RedisCache{
		Client:  client,
		TTL:     ttl,
		Prefix:  prefix,
		tableID: id,
	}, nil
}

// TableFingerprint hashes the serialized table.
func TableFingerprint(table *models.Table) (string, error) {
	h := sha1.New()
	if err := json.NewEncoder(h).Encode(table.Columns()); err != nil {
		return "", fmt.Errorf("failed to fingerprint table columns: %w", err)
	}
	if err := json.NewEncoder(h).Encode(table.Records()); err != nil {
		return "", fmt.Errorf("failed to fingerprint table rows: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil))[:16], nil
}

// Key derives the cache key for a class filter. Filters selecting the same
// set of classes share a key regardless of order or repeats; distinct sets
// never do.
func (c *RedisCache) Key(classes []string, filtered bool) string {
	filter := allStudentsKey
	if filtered {
		set := slices.Clone(classes)
		slices.Sort(set)
		set = slices.Compact(set)
		h := sha1.New()
		for _, v := range set {
			// length prefix keeps values containing separators apart
			h.Write([]byte(strconv.Itoa(len(v)) + ":" + v))
		}
		filter = "in:" + hex.EncodeToString(h.Sum(nil))
	}
	return strings.Join([]string{c.Prefix, studentsKeyPart, c.tableID, filter}, ":")
}

// Get returns the cached body for key. A miss is not an error.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	body, err := c.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get cached response from Redis: %w", err)
	}
	return body, true, nil
}

// Set stores body under key with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, key string, body []byte) error {
	if err := c.Client.Set(ctx, key, body, c.TTL).Err(); err != nil {
		return fmt.Errorf("failed to cache response in Redis: %w", err)
	}
	return nil
}

// InitializeRedisClient connects to Redis when an address is configured.
// It returns nil when caching is disabled or the server does not answer a
// ping, and callers then run without a cache.
func InitializeRedisClient(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if !cfg.Enabled() {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Warn("could not connect to Redis, response cache disabled", "addr", cfg.Addr, "error", err)
		_ = rdb.Close()
		return nil
	}

	slog.Info("connected to Redis", "addr", cfg.Addr, "db", cfg.DB)
	return rdb
}
