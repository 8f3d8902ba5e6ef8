// Package types 定义 dlock 组件的公共类型。
package types

import (
	"context"
	"time"
)

// Config 分布式锁静态配置
type Config struct {
	// Prefix 锁 Key 的全局前缀，例如 "tenantdb:lock:"
	Prefix string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`

	// DefaultTTL 默认锁超时时间；持有者崩溃后锁最迟在 TTL 后可被抢占
	DefaultTTL time.Duration `json:"default_ttl" yaml:"default_ttl" mapstructure:"default_ttl"`

	// RetryInterval 阻塞式加锁的重试间隔
	RetryInterval time.Duration `json:"retry_interval" yaml:"retry_interval" mapstructure:"retry_interval"`

	// AcquireTimeout 阻塞式加锁的获取上限；超时返回错误而不是永久等待
	AcquireTimeout time.Duration `json:"acquire_timeout" yaml:"acquire_timeout" mapstructure:"acquire_timeout"`
}

// SetDefaults 填充缺省值
func (c *Config) SetDefaults() {
	if c.DefaultTTL <= 0 {
		c.DefaultTTL = 30 * time.Second
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = 100 * time.Millisecond
	}
	if c.AcquireTimeout <= 0 {
		c.AcquireTimeout = time.Minute
	}
}

// Locker 定义了分布式锁的核心行为
//
// 锁的持有粒度是进程：同一进程内对同一 Key 重复加锁会失败，
// 跨进程互斥由后端（Redis 或锁文件）保证。
type Locker interface {
	// Lock 阻塞式加锁
	//
	// 在 AcquireTimeout 内持续重试；上下文取消或超时返回相应错误。
	Lock(ctx context.Context, key string, opts ...LockOption) error

	// TryLock 非阻塞式尝试加锁
	//
	// 成功返回 true, nil；锁被占用返回 false, nil；出错返回 false, err。
	TryLock(ctx context.Context, key string, opts ...LockOption) (bool, error)

	// Unlock 释放锁，只有持有者才能成功释放
	Unlock(ctx context.Context, key string) error

	// Close 释放底层资源
	Close() error
}

// lockOptions Lock 操作的运行时参数
type lockOptions struct {
	TTL time.Duration
}

// LockOption Lock 操作的选项函数
type LockOption func(*lockOptions)

// WithTTL 覆盖配置中的 DefaultTTL
func WithTTL(d time.Duration) LockOption {
	return func(o *lockOptions) {
		o.TTL = d
	}
}

// ResolveTTL 计算本次加锁的 TTL（内部使用）
func ResolveTTL(defaultTTL time.Duration, opts []LockOption) time.Duration {
	o := &lockOptions{TTL: defaultTTL}
	for _, opt := range opts {
		opt(o)
	}
	if o.TTL <= 0 {
		o.TTL = 30 * time.Second
	}
	return o.TTL
}
