// Package dbprovider 提供按数据库类型区分的策略能力。
//
// 每种数据库类型对应一个 Provider：负责把分片条目与原始连接串
// 合成为最终连接串，并提供一把跨进程互斥锁（SQL 咨询锁或文件锁），
// 用于序列化对分片目录的并发修改。
//
// 内置类型：mysql、postgres、sqlite-inmemory。宿主可通过
// Registry.Register 注册自定义类型。
//
// 基本使用：
//
//	reg, err := dbprovider.NewRegistry(opts, dbprovider.WithLogger(logger))
//	p, err := reg.Get("mysql")
//	dsn, err := p.FormConnectionString(entry, raw)
//	err = p.RunExclusive(ctx, raw, func(ctx context.Context) error {
//	    // 目录的读-校验-写序列
//	    return nil
//	})
package dbprovider

import (
	"context"

	"github.com/ceyewan/tenantdb/sharding"
)

// Provider 单一数据库类型的策略实现
type Provider interface {
	// Type 返回类型短名，与 sharding.Entry.DatabaseType 对应
	Type() string

	// FormConnectionString 合成最终连接串
	//
	// entry.DatabaseName 为空时原样返回 raw；此时 raw 本身也没有
	// 数据库名则是配置错误。非空时覆盖 raw 中的数据库字段。
	FormConnectionString(entry *sharding.Entry, raw string) (string, error)

	// RunExclusive 持有跨进程互斥锁执行 fn
	//
	// 锁名固定为 sharding.LockName：并发修改目录的进程在同一把
	// 锁上串行，而不是按条目分锁。获取受 LockTimeout 约束，
	// 所有退出路径（包括 fn 返回错误）都会释放锁。
	RunExclusive(ctx context.Context, raw string, fn func(ctx context.Context) error) error
}
