// Package redis 实现基于 Redis 的分布式锁（内部使用）。
//
// 加锁使用 SET NX + 随机 token，解锁通过 Lua 脚本校验 token，
// 防止误释放他人持有的锁。
package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ceyewan/tenantdb/clog"
	"github.com/ceyewan/tenantdb/dlock/types"
	"github.com/ceyewan/tenantdb/xerrors"
)

// 校验 token 后删除锁
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`

type Locker struct {
	client *redis.Client
	cfg    *types.Config
	logger clog.Logger
	mu     sync.RWMutex
	tokens map[string]string
}

// New 创建 Redis 锁实例
func New(client *redis.Client, cfg *types.Config, logger clog.Logger) (*Locker, error) {
	if client == nil {
		return nil, xerrors.New("dlock: redis client is nil")
	}
	if cfg == nil {
		return nil, xerrors.New("dlock: config is nil")
	}

	return &Locker{
		client: client,
		cfg:    cfg,
		logger: logger,
		tokens: make(map[string]string),
	}, nil
}

func (l *Locker) Lock(ctx context.Context, key string, opts ...types.LockOption) error {
	if l.cfg.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cfg.AcquireTimeout)
		defer cancel()
	}

	for {
		ok, err := l.TryLock(ctx, key, opts...)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return xerrors.Wrapf(ctx.Err(), "dlock: acquiring %q", key)
		case <-time.After(l.cfg.RetryInterval):
		}
	}
}

func (l *Locker) TryLock(ctx context.Context, key string, opts ...types.LockOption) (bool, error) {
	l.mu.RLock()
	_, held := l.tokens[key]
	l.mu.RUnlock()
	if held {
		return false, xerrors.Newf("dlock: lock %q already held locally", key)
	}

	ttl := types.ResolveTTL(l.cfg.DefaultTTL, opts)

	randBytes := make([]byte, 16)
	if _, err := rand.Read(randBytes); err != nil {
		return false, xerrors.Wrap(err, "dlock: generating token")
	}
	token := hex.EncodeToString(randBytes)

	ok, err := l.client.SetNX(ctx, l.redisKey(key), token, ttl).Result()
	if err != nil {
		return false, xerrors.Wrap(err, "dlock: acquiring lock")
	}
	if !ok {
		return false, nil
	}

	l.mu.Lock()
	l.tokens[key] = token
	l.mu.Unlock()

	l.logger.DebugContext(ctx, "lock acquired", clog.String("key", key))
	return true, nil
}

func (l *Locker) Unlock(ctx context.Context, key string) error {
	l.mu.Lock()
	token, held := l.tokens[key]
	delete(l.tokens, key)
	l.mu.Unlock()

	if !held {
		return xerrors.Newf("dlock: lock %q not held", key)
	}

	result, err := l.client.Eval(ctx, releaseScript, []string{l.redisKey(key)}, token).Result()
	if err != nil {
		return xerrors.Wrap(err, "dlock: releasing lock")
	}
	if n, ok := result.(int64); ok && n == 0 {
		// TTL 已过期且被他人抢走，本地记录已清理，只能如实上报
		return xerrors.Newf("dlock: ownership of %q lost before release", key)
	}

	l.logger.DebugContext(ctx, "lock released", clog.String("key", key))
	return nil
}

func (l *Locker) Close() error {
	return nil
}

func (l *Locker) redisKey(key string) string {
	return l.cfg.Prefix + key
}
