// Package config 提供统一的配置加载能力，基于 Viper 实现。
//
// 特性：
//   - 多源加载：YAML/JSON 文件、环境变量、.env 文件
//   - 优先级：环境变量 > .env > 配置文件
//   - 热更新：监听配置文件变化并通知订阅者
//
// 基本使用：
//
//	loader, err := config.New(&config.Config{
//	    Name:  "tenantdb",
//	    Paths: []string{".", "./config"},
//	})
//	if err := loader.Load(ctx); err != nil {
//	    panic(err)
//	}
//
//	opts, err := config.LoadSharding(loader)
//
//	ch, _ := loader.Watch(ctx, "sharding.connection_strings")
//	for event := range ch {
//	    // 连接串表变化，下一次快照读取会看到新值
//	}
package config

import (
	"context"
	"time"
)

// Loader 定义配置加载器的核心行为
type Loader interface {
	// Load 加载配置并初始化内部状态
	Load(ctx context.Context) error

	// Get 获取原始配置值
	Get(key string) any

	// Unmarshal 将整个配置反序列化到结构体
	Unmarshal(v any) error

	// UnmarshalKey 将指定 Key 的配置反序列化到结构体
	UnmarshalKey(key string, v any) error

	// StringMap 读取指定 Key 下的字符串映射，保留键的原始大小写
	//
	// Viper 的 Get/Unmarshal 会把映射键统一转成小写；键大小写
	// 敏感的映射（例如连接串名到 DSN）必须通过本方法读取。
	// 配置不是来自文件、或 Key 不是映射时返回 nil, nil。
	StringMap(key string) (map[string]string, error)

	// Watch 监听配置变化，通过 context 取消监听
	Watch(ctx context.Context, key string) (<-chan Event, error)
}

// Event 配置变更事件
type Event struct {
	Key       string // 配置 key
	Value     any    // 新值
	OldValue  any    // 旧值
	Source    string // "file" | "env"
	Timestamp time.Time
}
