package testkit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ceyewan/tenantdb/connector"
)

// NewRedisConfig 返回 Redis 测试配置
// 默认连接 localhost:6379，可通过 TENANTDB_TEST_REDIS_ADDR 环境变量覆盖
func NewRedisConfig() *connector.RedisConfig {
	addr := os.Getenv("TENANTDB_TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	return &connector.RedisConfig{
		Name:         "test-redis",
		Addr:         addr,
		DB:           1, // 使用 DB 1 避免与默认的 DB 0 冲突
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// NewRedisConnector 获取 Redis 连接器
// 生命周期由 t.Cleanup 管理
func NewRedisConnector(t *testing.T) connector.RedisConnector {
	conn, err := connector.NewRedis(NewRedisConfig(), connector.WithLogger(NewLogger()))
	if err != nil {
		t.Fatalf("failed to create redis connector: %v", err)
	}

	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})

	return conn
}
