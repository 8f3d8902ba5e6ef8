package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ceyewan/tenantdb/cache/serializer"
	"github.com/ceyewan/tenantdb/clog"
	"github.com/ceyewan/tenantdb/connector"
	"github.com/ceyewan/tenantdb/xerrors"
)

type redisCache struct {
	client     *redis.Client
	serializer serializer.Serializer
	prefix     string
	logger     clog.Logger
}

// NewRedis 创建 Redis 缓存实例
func NewRedis(conn connector.RedisConnector, cfg *Config, opts ...Option) (Cache, error) {
	if conn == nil {
		return nil, ErrConnectorNil
	}
	if cfg == nil {
		return nil, ErrConfigNil
	}

	s, err := serializer.New(cfg.Serializer)
	if err != nil {
		return nil, err
	}

	opt := applyOptions(opts...)
	return &redisCache{
		client:     conn.GetClient(),
		serializer: s,
		prefix:     cfg.Prefix,
		logger:     opt.logger,
	}, nil
}

func (c *redisCache) getKey(key string) string {
	return c.prefix + key
}

func (c *redisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := c.serializer.Marshal(value)
	if err != nil {
		return xerrors.Wrap(err, "cache: marshaling value")
	}
	return c.client.Set(ctx, c.getKey(key), data, ttl).Err()
}

func (c *redisCache) Get(ctx context.Context, key string, dest any) error {
	data, err := c.client.Get(ctx, c.getKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return c.serializer.Unmarshal(data, dest)
}

func (c *redisCache) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	data, err := c.serializer.Marshal(value)
	if err != nil {
		return false, xerrors.Wrap(err, "cache: marshaling value")
	}
	return c.client.SetNX(ctx, c.getKey(key), data, ttl).Result()
}

func (c *redisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.getKey(key)).Err()
}

func (c *redisCache) Has(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, c.getKey(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *redisCache) KeysByPrefix(ctx context.Context, prefix string) ([]string, error) {
	full := c.getKey(prefix)
	var out []string

	// SCAN 而不是 KEYS，避免阻塞生产实例
	iter := c.client.Scan(ctx, 0, full+"*", 0).Iterator()
	for iter.Next(ctx) {
		out = append(out, iter.Val()[len(c.prefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, xerrors.Wrap(err, "cache: scanning keys")
	}
	return out, nil
}

func (c *redisCache) Close() error {
	// 连接器归属调用方，这里不关闭客户端
	return nil
}
