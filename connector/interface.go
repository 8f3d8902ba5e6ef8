// Package connector 为 tenantdb 提供统一的连接管理能力。
//
// 核心特性：
//   - 统一抽象：通过 Connector 接口提供一致的连接管理 API
//   - 类型安全：通过 TypedConnector[T] 泛型接口确保编译时类型检查
//   - 延迟连接：NewXXX() 创建连接器但不建立连接，Connect() 时才连接
//   - 幂等连接：Connect() / Close() 可安全重复调用
//
// 数据库连接器直接以 DSN 创建：分片子系统合成好最终连接串后，
// 由调用方（请求作用域的 DB 工厂）据此打开对应租户的物理库。
//
// 资源所有权：
//
//	Connector 拥有底层连接的生命周期，应通过 defer 确保 Close() 被调用。
//	组件（cache、dlock、shardstore）仅借用 Connector，不应调用 Close()。
package connector

import (
	"context"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Connector 定义所有连接器的通用行为
//
// 接口方法均为并发安全，可从多个协程同时调用。
type Connector interface {
	// Connect 建立连接，幂等，阻塞直到成功或失败
	Connect(ctx context.Context) error

	// Close 关闭连接并释放资源，幂等
	Close() error

	// HealthCheck 发送测试请求验证连接可用性，并更新健康状态缓存
	HealthCheck(ctx context.Context) error

	// IsHealthy 返回最后一次 HealthCheck 的结果，无阻塞
	IsHealthy() bool

	// Name 返回连接实例名称，用于日志与指标
	Name() string
}

// TypedConnector 提供类型安全的客户端访问
//
// 类型参数 T 是客户端类型，如 *redis.Client、*gorm.DB。
type TypedConnector[T any] interface {
	Connector

	// GetClient 返回底层客户端实例
	//
	// 在 Connect() 之前或 Close() 之后调用可能返回 nil。
	GetClient() T
}

// RedisConnector Redis 连接器接口
//
// 用于缓存型分片目录与 Redis 分布式锁。
type RedisConnector interface {
	TypedConnector[*redis.Client]
}

// DBConnector 关系库连接器接口（GORM）
//
// 同一接口覆盖 mysql / postgres / sqlite 三种方言，
// 方言由创建函数决定。
type DBConnector interface {
	TypedConnector[*gorm.DB]

	// Driver 返回方言短名（"mysql" | "postgres" | "sqlite"）
	Driver() string
}
