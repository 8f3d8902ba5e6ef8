// Package file 实现基于锁文件的跨进程互斥（内部使用）。
//
// 用于没有中心数据库或缓存可依托的场景（sqlite、纯文件目录）。
// 锁是共享目录下的一个文件，以 O_CREATE|O_EXCL 原子创建；
// 文件内容是持有者 token。超过 TTL 未释放的锁视为持有者崩溃，
// 可被后来者清除后抢占。
package file

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ceyewan/tenantdb/clog"
	"github.com/ceyewan/tenantdb/dlock/types"
	"github.com/ceyewan/tenantdb/xerrors"
)

type Locker struct {
	dir    string
	cfg    *types.Config
	logger clog.Logger
	mu     sync.RWMutex
	tokens map[string]string
}

// New 创建文件锁实例
//
// dir 必须是所有参与进程可见的共享目录；不存在时自动创建。
func New(dir string, cfg *types.Config, logger clog.Logger) (*Locker, error) {
	if dir == "" {
		return nil, xerrors.New("dlock: lock directory is required")
	}
	if cfg == nil {
		return nil, xerrors.New("dlock: config is nil")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, xerrors.Wrapf(err, "dlock: creating lock directory %q", dir)
	}

	return &Locker{
		dir:    dir,
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
	path := l.lockPath(key)

	randBytes := make([]byte, 16)
	if _, err := rand.Read(randBytes); err != nil {
		return false, xerrors.Wrap(err, "dlock: generating token")
	}
	token := hex.EncodeToString(randBytes)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if os.IsExist(err) {
		// 锁被占用；检查是否为崩溃进程遗留的过期锁
		if l.reapStale(path, ttl) {
			return l.TryLock(ctx, key, opts...)
		}
		return false, nil
	}
	if err != nil {
		return false, xerrors.Wrapf(err, "dlock: creating lock file %q", path)
	}

	if _, err := f.WriteString(token); err != nil {
		f.Close()
		os.Remove(path)
		return false, xerrors.Wrap(err, "dlock: writing lock token")
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return false, xerrors.Wrap(err, "dlock: closing lock file")
	}

	l.mu.Lock()
	l.tokens[key] = token
	l.mu.Unlock()

	l.logger.DebugContext(ctx, "lock acquired", clog.String("key", key), clog.String("path", path))
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

	path := l.lockPath(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return xerrors.Wrapf(err, "dlock: reading lock file %q", path)
	}
	if string(data) != token {
		return xerrors.Newf("dlock: ownership of %q lost before release", key)
	}
	if err := os.Remove(path); err != nil {
		return xerrors.Wrapf(err, "dlock: removing lock file %q", path)
	}

	l.logger.DebugContext(ctx, "lock released", clog.String("key", key))
	return nil
}

func (l *Locker) Close() error {
	return nil
}

// reapStale 清除超过 TTL 的遗留锁，返回是否清除成功
func (l *Locker) reapStale(path string, ttl time.Duration) bool {
	info, err := os.Stat(path)
	if err != nil {
		// 刚好被持有者释放
		return true
	}
	if time.Since(info.ModTime()) < ttl {
		return false
	}

	l.logger.Warn("reaping stale lock file", clog.String("path", path))
	return os.Remove(path) == nil
}

func (l *Locker) lockPath(key string) string {
	return filepath.Join(l.dir, l.cfg.Prefix+key+".lock")
}
