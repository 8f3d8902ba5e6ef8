package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/maypok86/otter/v2"
	"github.com/maypok86/otter/v2/stats"

	"github.com/ceyewan/tenantdb/cache/serializer"
	"github.com/ceyewan/tenantdb/clog"
	"github.com/ceyewan/tenantdb/xerrors"
)

const (
	// defaultTTL 当未指定 TTL 时使用的默认时间（100年，模拟永久）
	defaultTTL = 24 * 365 * 100 * time.Hour
)

type standaloneCache struct {
	cache      *otter.Cache[string, []byte]
	serializer serializer.Serializer
	prefix     string
	logger     clog.Logger

	// mu 保护 keys 索引，也为 SetNX 提供检查-写入的原子性。
	// otter 不提供按前缀枚举，索引由本层维护；条目可能被
	// otter 过期或淘汰，枚举时按实际存在性惰性清理。
	mu   sync.Mutex
	keys map[string]struct{}
}

// NewStandalone 创建基于 otter 的进程内缓存实例
func NewStandalone(cfg *Config, opts ...Option) (Cache, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}

	s, err := serializer.New(cfg.Serializer)
	if err != nil {
		return nil, err
	}

	capacity := 10000
	if cfg.Standalone != nil && cfg.Standalone.Capacity > 0 {
		capacity = cfg.Standalone.Capacity
	}

	// 写入过期策略，与 Redis TTL 语义一致：
	// 过期时间从写入开始计算，读取不会重置 TTL。
	// 具体 TTL 在 Set 时通过 SetExpiresAfter 覆盖。
	c, err := otter.New(&otter.Options[string, []byte]{
		MaximumSize:      capacity,
		StatsRecorder:    stats.NewCounter(),
		ExpiryCalculator: otter.ExpiryWriting[string, []byte](defaultTTL),
	})
	if err != nil {
		return nil, xerrors.Wrap(err, "failed to build otter cache")
	}

	opt := applyOptions(opts...)
	return &standaloneCache{
		cache:      c,
		serializer: s,
		prefix:     cfg.Prefix,
		logger:     opt.logger,
		keys:       make(map[string]struct{}),
	}, nil
}

func (c *standaloneCache) getKey(key string) string {
	return c.prefix + key
}

func (c *standaloneCache) set(key string, data []byte, ttl time.Duration) {
	c.cache.Set(key, data)
	if ttl > 0 {
		c.cache.SetExpiresAfter(key, ttl)
	}
	c.keys[key] = struct{}{}
}

func (c *standaloneCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := c.serializer.Marshal(value)
	if err != nil {
		return xerrors.Wrap(err, "cache: marshaling value")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(c.getKey(key), data, ttl)
	return nil
}

func (c *standaloneCache) Get(ctx context.Context, key string, dest any) error {
	data, ok := c.cache.GetIfPresent(c.getKey(key))
	if !ok {
		return ErrNotFound
	}
	return c.serializer.Unmarshal(data, dest)
}

func (c *standaloneCache) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	data, err := c.serializer.Marshal(value)
	if err != nil {
		return false, xerrors.Wrap(err, "cache: marshaling value")
	}

	full := c.getKey(key)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.cache.GetIfPresent(full); ok {
		return false, nil
	}
	c.set(full, data, ttl)
	return true, nil
}

func (c *standaloneCache) Delete(ctx context.Context, key string) error {
	full := c.getKey(key)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Invalidate(full)
	delete(c.keys, full)
	return nil
}

func (c *standaloneCache) Has(ctx context.Context, key string) (bool, error) {
	_, ok := c.cache.GetIfPresent(c.getKey(key))
	return ok, nil
}

func (c *standaloneCache) KeysByPrefix(ctx context.Context, prefix string) ([]string, error) {
	full := c.getKey(prefix)

	c.mu.Lock()
	defer c.mu.Unlock()

	var out []string
	for k := range c.keys {
		if !strings.HasPrefix(k, full) {
			continue
		}
		if _, ok := c.cache.GetIfPresent(k); !ok {
			delete(c.keys, k)
			continue
		}
		out = append(out, k[len(c.prefix):])
	}
	return out, nil
}

func (c *standaloneCache) Close() error {
	c.cache.StopAllGoroutines()
	return nil
}
