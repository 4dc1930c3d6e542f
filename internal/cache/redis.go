package cache

import (
	"context"
	"strconv"
	"time"

	"StorefrontAPI/internal/metrics"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const keyPrefix = "storefront:view:"

// RedisViews shares the view cache between instances. Entries live under
// a key that embeds the path version, so INCR on the version key orphans
// old entries and the TTL reclaims them.
type RedisViews struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisViews(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisViews {
	return &RedisViews{client: client, ttl: ttl, logger: logger}
}

// Dial parses a redis:// URL and pings the server.
func Dial(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func versionKey(path string) string {
	return keyPrefix + "ver:" + path
}

func entryKey(path, variant string, version uint64) string {
	return keyPrefix + path + "@" + strconv.FormatUint(version, 10) + "|" + variant
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func currentVersion(ctx context.Context, c getter, path string) (uint64, error) {
	ver, err := c.Get(ctx, versionKey(path)).Uint64()
	if err == redis.Nil {
		return 0, nil
	}
	return ver, err
}

func (r *RedisViews) Get(ctx context.Context, path, variant string) ([]byte, uint64, bool) {
	ver, err := currentVersion(ctx, r.client, path)
	if err != nil {
		r.logger.Warn("view cache version lookup failed", zap.String("path", path), zap.Error(err))
		return nil, 0, false
	}
	data, err := r.client.Get(ctx, entryKey(path, variant, ver)).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn("view cache read failed", zap.String("path", path), zap.Error(err))
		}
		return nil, ver, false
	}
	return data, ver, true
}

// Set writes under WATCH on the version key so a concurrent Invalidate
// aborts the write.
func (r *RedisViews) Set(ctx context.Context, path, variant string, version uint64, data []byte) {
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		ver, err := currentVersion(ctx, tx, path)
		if err != nil {
			return err
		}
		if ver != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, entryKey(path, variant, version), data, r.ttl)
			return nil
		})
		return err
	}, versionKey(path))
	if err != nil && err != redis.TxFailedErr {
		r.logger.Warn("view cache write failed", zap.String("path", path), zap.Error(err))
	}
}

func (r *RedisViews) Invalidate(ctx context.Context, paths ...string) {
	if len(paths) == 0 {
		return
	}
	pipe := r.client.TxPipeline()
	for _, p := range paths {
		pipe.Incr(ctx, versionKey(p))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("view cache invalidation failed", zap.Strings("paths", paths), zap.Error(err))
		return
	}
	metrics.CacheInvalidated(len(paths))
}
