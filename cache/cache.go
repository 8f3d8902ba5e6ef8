// Package cache 提供分片目录所需的键值缓存抽象。
//
// 缓存型分片目录把每个条目作为独立 Key 存储（"ShardingEntry-" + 名称），
// 依赖后端的单 Key 原子性，不需要跨 Key 事务。本包提供两个实现：
//   - Redis：多进程部署的标准选择
//   - Standalone：基于 otter 的进程内缓存，用于测试与单进程部署
//
// 基本使用：
//
//	c, _ := cache.NewRedis(redisConn, &cache.Config{
//	    Prefix:     "tenantdb:",
//	    Serializer: "json",
//	}, cache.WithLogger(logger))
//
//	err := c.Set(ctx, "ShardingEntry-Shard-A", entry, 0)
//
//	var got sharding.Entry
//	err = c.Get(ctx, "ShardingEntry-Shard-A", &got)
package cache

import (
	"context"
	"time"
)

// Cache 定义了缓存组件的核心能力
//
// 值在写入时序列化、读取时反序列化，两端共享同一序列化器配置。
type Cache interface {
	// Set 写入键值；ttl <= 0 表示不过期
	Set(ctx context.Context, key string, value any, ttl time.Duration) error

	// Get 读取并反序列化到 dest；键不存在返回 ErrNotFound
	Get(ctx context.Context, key string, dest any) error

	// SetNX 仅当键不存在时写入，返回是否写入成功
	//
	// 用于隐式默认条目的一次性物化竞争。
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)

	// Delete 删除键，键不存在时为空操作
	Delete(ctx context.Context, key string) error

	// Has 报告键是否存在
	Has(ctx context.Context, key string) (bool, error)

	// KeysByPrefix 枚举指定前缀（不含全局 Prefix）的全部键
	//
	// 与并发写之间没有快照语义：枚举期间新增的键可见与否均属正常。
	KeysByPrefix(ctx context.Context, prefix string) ([]string, error)

	// Close 释放底层资源
	Close() error
}
