// Package legacy 为尚未迁移到缓存目录的部署保留纯文件目录。
//
// 行为与 shardstore 的文件型实现一致：每次增删改都在跨进程锁内
// 完成整个读-改-写循环，锁挂在主库连接（而不是目标分片的连接）上，
// 因为被争用的是设置文件本身，而主库连接是调用时唯一保证存在的。
//
// 在 CRUD 契约之外额外暴露旧版查询名（Entries、ConnectionNames）。
package legacy

import (
	"context"

	"github.com/ceyewan/tenantdb/dbprovider"
	"github.com/ceyewan/tenantdb/shardstore"
	"github.com/ceyewan/tenantdb/sharding"
	"github.com/ceyewan/tenantdb/tenant"
)

// Catalogue 文件型目录的兼容外壳
type Catalogue struct {
	shardstore.Store
	opts *sharding.Options
}

// New 创建兼容目录
//
// path 是 JSON 设置文件路径，文档结构与新版文件目录完全相同。
func New(path string, opts *sharding.Options, reg *dbprovider.Registry, tenants tenant.Reader, storeOpts ...shardstore.Option) (*Catalogue, error) {
	store, err := shardstore.NewFile(path, opts, reg, tenants, storeOpts...)
	if err != nil {
		return nil, err
	}
	return &Catalogue{Store: store, opts: opts}, nil
}

// Entries 旧版的全量条目查询（GetAllPossibleShardingData 的对应物）
func (c *Catalogue) Entries(ctx context.Context) ([]sharding.Entry, error) {
	return c.GetAllEntries(ctx)
}

// ConnectionNames 旧版的连接名查询（GetConnectionStrings 的对应物）
func (c *Catalogue) ConnectionNames() []string {
	return c.GetConnectionStringNames()
}
