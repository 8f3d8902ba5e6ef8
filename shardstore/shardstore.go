// Package shardstore 提供分片条目目录的统一入口。
//
// 目录记录每个物理数据库的描述（名称、连接名、数据库名、类型），
// 支持两种后端：
//   - 文件型：JSON 设置文件，整个读-校验-写序列持有跨进程锁
//   - 缓存型：每条目一个键，依赖后端单键原子性
//
// 基本使用：
//
//	store, err := shardstore.NewKV(c, opts, registry, tenants,
//	    shardstore.WithLogger(logger))
//
//	st, err := store.AddEntry(ctx, &sharding.Entry{
//	    Name:           "Shard-A",
//	    DatabaseName:   "shard_a",
//	    ConnectionName: "Server2",
//	    DatabaseType:   "mysql",
//	})
//
//	dsn, err := store.FormConnectionString(ctx, "Shard-A")
package shardstore

import (
	"github.com/ceyewan/tenantdb/cache"
	"github.com/ceyewan/tenantdb/dbprovider"
	"github.com/ceyewan/tenantdb/internal/shardstore/core"
	filestore "github.com/ceyewan/tenantdb/internal/shardstore/file"
	kvstore "github.com/ceyewan/tenantdb/internal/shardstore/kv"
	"github.com/ceyewan/tenantdb/shardstore/types"
	"github.com/ceyewan/tenantdb/sharding"
	"github.com/ceyewan/tenantdb/tenant"
)

// 类型别名，调用方只需要依赖本包
type Store = types.Store
type EntryUsage = types.EntryUsage

// NewFile 创建文件型目录存储
//
// path 是 JSON 设置文件路径，文件不存在视为空目录。
func NewFile(path string, opts *sharding.Options, reg *dbprovider.Registry, tenants tenant.Reader, storeOpts ...Option) (Store, error) {
	c, err := newCore(opts, reg, tenants, storeOpts...)
	if err != nil {
		return nil, err
	}
	return filestore.New(path, c)
}

// NewKV 创建缓存型目录存储
func NewKV(ca cache.Cache, opts *sharding.Options, reg *dbprovider.Registry, tenants tenant.Reader, storeOpts ...Option) (Store, error) {
	c, err := newCore(opts, reg, tenants, storeOpts...)
	if err != nil {
		return nil, err
	}
	return kvstore.New(ca, c)
}

func newCore(opts *sharding.Options, reg *dbprovider.Registry, tenants tenant.Reader, storeOpts ...Option) (*core.Core, error) {
	if opts == nil {
		return nil, sharding.ErrOptionsNil
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, ErrRegistryNil
	}
	if tenants == nil {
		return nil, ErrTenantsNil
	}

	opt := applyOptions(storeOpts...)
	return &core.Core{
		Opts:     opts,
		Registry: reg,
		Tenants:  tenants,
		Logger:   opt.logger,
	}, nil
}
