// Package dlock 提供跨进程互斥锁。
//
// 分片目录是多进程 Web 部署中唯一的可变共享资源，
// 对它的读-改-写必须在所有节点间串行化。后端二选一：
//   - Redis：已有缓存型目录的部署直接复用 Redis 连接
//   - 锁文件：sqlite / 纯文件目录的部署，锁根目录由配置指定
//
// 使用示例：
//
//	locker, _ := dlock.NewRedis(redisConn, &dlock.Config{
//	    Prefix:     "tenantdb:lock:",
//	    DefaultTTL: 30 * time.Second,
//	}, dlock.WithLogger(logger))
//
//	if err := locker.Lock(ctx, sharding.LockName); err != nil { ... }
//	defer locker.Unlock(ctx, sharding.LockName)
package dlock

import (
	"github.com/ceyewan/tenantdb/clog"
	"github.com/ceyewan/tenantdb/connector"
	"github.com/ceyewan/tenantdb/dlock/types"
	filelock "github.com/ceyewan/tenantdb/internal/dlock/file"
	redislock "github.com/ceyewan/tenantdb/internal/dlock/redis"
)

// 导出 types 包中的定义，方便用户使用

type Locker = types.Locker
type Config = types.Config
type LockOption = types.LockOption

var WithTTL = types.WithTTL

// NewRedis 创建 Redis 分布式锁
func NewRedis(conn connector.RedisConnector, cfg *Config, opts ...Option) (Locker, error) {
	if conn == nil {
		return nil, ErrConnectorNil
	}
	if cfg == nil {
		return nil, ErrConfigNil
	}
	cfg.SetDefaults()

	opt := applyOptions(opts...)
	return redislock.New(conn.GetClient(), cfg, opt.logger)
}

// NewFile 创建文件锁
//
// dir 是所有参与进程共享的锁根目录。
func NewFile(dir string, cfg *Config, opts ...Option) (Locker, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}
	cfg.SetDefaults()

	opt := applyOptions(opts...)
	return filelock.New(dir, cfg, opt.logger)
}

// Option DLock 组件初始化选项函数
type Option func(*options)

type options struct {
	logger clog.Logger
}

func applyOptions(opts ...Option) *options {
	opt := &options{}
	for _, o := range opts {
		o(opt)
	}
	if opt.logger == nil {
		opt.logger = clog.Default().WithNamespace("dlock")
	}
	return opt
}

// WithLogger 注入日志记录器
// 组件内部会自动追加 Namespace: logger.WithNamespace("dlock")
func WithLogger(l clog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l.WithNamespace("dlock")
		}
	}
}
