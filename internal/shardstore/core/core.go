// Package core 承载文件型与缓存型分片目录共用的校验与合成逻辑（内部使用）。
package core

import (
	"context"
	"fmt"
	"sort"

	"github.com/ceyewan/tenantdb/clog"
	"github.com/ceyewan/tenantdb/dbprovider"
	"github.com/ceyewan/tenantdb/shardstore/types"
	"github.com/ceyewan/tenantdb/sharding"
	"github.com/ceyewan/tenantdb/status"
	"github.com/ceyewan/tenantdb/tenant"
	"github.com/ceyewan/tenantdb/xerrors"
)

// Core 两种目录实现共享的依赖与规则
type Core struct {
	Opts     *sharding.Options
	Registry *dbprovider.Registry
	Tenants  tenant.Reader
	Logger   clog.Logger
}

// CheckName 名称非空校验
func (c *Core) CheckName(st *status.Status, name string) {
	if name == "" {
		st.AddError("the entry name cannot be empty", "Name")
	}
}

// CheckProtected 混合模式下默认条目名受保护，不可显式增删改
func (c *Core) CheckProtected(st *status.Status, name string) {
	if c.Opts.HybridMode && name == c.Opts.DefaultEntryName {
		st.AddError(
			fmt.Sprintf("the name %q is reserved for the default entry, which is managed implicitly", name),
			"Name",
		)
	}
}

// CheckConnection 校验条目的连接串可以合成
//
// 新增/更新时类型与连接名来自用户输入，失败按校验错误归因到
// 具体字段，而不是按配置错误抛出。
func (c *Core) CheckConnection(st *status.Status, entry *sharding.Entry) {
	p, err := c.Registry.Get(entry.DatabaseType)
	if err != nil {
		st.AddError(fmt.Sprintf("unknown database type %q", entry.DatabaseType), "DatabaseType")
		return
	}

	raw, ok := c.Opts.ConnectionStrings[entry.ConnectionName]
	if !ok {
		st.AddError(
			fmt.Sprintf("could not find a connection string named %q", entry.ConnectionName),
			"ConnectionName",
		)
		return
	}

	if _, err := p.FormConnectionString(entry, raw); err != nil {
		st.AddError(
			fmt.Sprintf("could not form a connection string for this entry: %v", err),
			"ConnectionName", "DatabaseName",
		)
	}
}

// CheckTenantUsage 删除前的引用完整性校验，返回引用数量
func (c *Core) CheckTenantUsage(ctx context.Context, st *status.Status, name string) (int, error) {
	tenants, err := c.Tenants.ListByEntryName(ctx, name)
	if err != nil {
		return 0, xerrors.WithCode(
			xerrors.Wrap(err, "shardstore: listing referencing tenants"),
			sharding.CodeTransient,
		)
	}
	if n := len(tenants); n > 0 {
		st.AddError(
			fmt.Sprintf("the entry %q is already used by %d tenant(s), so it cannot be removed", name, n),
			"Name",
		)
		return n, nil
	}
	return 0, nil
}

// FormConnectionString 合成最终连接串（快速失败路径）
//
// 调用方理应已校验过条目存在；原始连接串缺失按 CONFIG 编码错误处理。
func (c *Core) FormConnectionString(entry *sharding.Entry) (string, error) {
	p, err := c.Registry.Get(entry.DatabaseType)
	if err != nil {
		return "", err
	}

	raw, err := c.Opts.ConnectionString(entry.ConnectionName)
	if err != nil {
		return "", err
	}

	return p.FormConnectionString(entry, raw)
}

// TenantUsage 为每个条目（含零租户条目）汇总引用情况
func (c *Core) TenantUsage(ctx context.Context, entries []sharding.Entry) ([]types.EntryUsage, error) {
	all, err := c.Tenants.GetAll(ctx)
	if err != nil {
		return nil, xerrors.WithCode(
			xerrors.Wrap(err, "shardstore: listing tenants"),
			sharding.CodeTransient,
		)
	}

	byEntry := make(map[string][]tenant.Tenant)
	for _, t := range all {
		byEntry[t.DatabaseInfoName] = append(byEntry[t.DatabaseInfoName], t)
	}

	out := make([]types.EntryUsage, 0, len(entries))
	for _, e := range entries {
		u := types.EntryUsage{Name: e.Name}
		refs := byEntry[e.Name]
		for _, t := range refs {
			u.TenantNames = append(u.TenantNames, t.Name)
		}
		sort.Strings(u.TenantNames)

		switch {
		case c.Opts.HybridMode && e.Name == c.Opts.DefaultEntryName:
			// 默认共享库天然承载多租户共享数据和系统记录
			u.HasOwnDb = boolPtr(false)
		case len(refs) > 0:
			u.HasOwnDb = boolPtr(refs[0].HasOwnDb)
		}
		out = append(out, u)
	}
	return out, nil
}

func boolPtr(b bool) *bool { return &b }
