// Package types 定义分片目录存储的共享类型（供内部实现与外部调用方使用）。
package types

import (
	"context"

	"github.com/ceyewan/tenantdb/sharding"
	"github.com/ceyewan/tenantdb/status"
)

// EntryUsage 单个分片条目的租户占用情况
type EntryUsage struct {
	// Name 条目名称
	Name string `json:"name"`

	// HasOwnDb 派生标志：默认共享库恒为 false；否则取第一个
	// 引用租户的 HasOwnDb；nil 表示尚无租户引用
	HasOwnDb *bool `json:"has_own_db"`

	// TenantNames 引用该条目的租户全名
	TenantNames []string `json:"tenant_names"`
}

// Store 分片条目目录的核心契约
//
// 增删改返回的 *status.Status 承载校验错误与成功消息；
// error 返回值留给配置错误（CONFIG 编码，部署损坏应当快速失败）
// 与瞬时 I/O 错误（TRANSIENT 编码，调用方可重试）。
// 校验失败不产生任何变更。
type Store interface {
	// GetAllEntries 列出全部条目
	//
	// 混合模式下空目录会合成一条默认条目返回（缓存型实现会
	// 顺带持久化）；非混合模式下空目录返回空列表。
	GetAllEntries(ctx context.Context) ([]sharding.Entry, error)

	// GetEntry 按名称查询；未找到返回 sharding.ErrEntryNotFound
	//
	// 仅当名称等于配置的默认条目名时适用默认条目合成回退。
	GetEntry(ctx context.Context, name string) (*sharding.Entry, error)

	// AddEntry 新增条目
	//
	// 校验：名称非空、不重名、不占用受保护的默认名（混合模式）、
	// 连接串可合成。混合模式下首次显式新增前会先物化隐式默认条目。
	AddEntry(ctx context.Context, entry *sharding.Entry) (*status.Status, error)

	// UpdateEntry 覆盖已存在的条目，校验规则与 AddEntry 一致
	// （重名检查换成存在性检查）
	UpdateEntry(ctx context.Context, entry *sharding.Entry) (*status.Status, error)

	// RemoveEntry 删除条目
	//
	// 仍被租户引用的条目不可删除，错误消息包含引用数量。
	RemoveEntry(ctx context.Context, name string) (*status.Status, error)

	// GetConnectionStringNames 返回可用的原始连接串名称
	//
	// 非混合模式下默认连接名被排除（专属于隐式默认条目）。
	GetConnectionStringNames() []string

	// GetEntriesWithTenantUsage 返回每个条目（含零租户条目）的占用情况
	GetEntriesWithTenantUsage(ctx context.Context) ([]EntryUsage, error)

	// FormConnectionString 合成指定条目的最终连接串
	//
	// 条目或原始连接串缺失视为调用方未先校验存在性，返回
	// CONFIG 编码错误。
	FormConnectionString(ctx context.Context, name string) (string, error)

	// PossibleDatabaseTypes 返回全部已注册的数据库类型短名
	PossibleDatabaseTypes() []string
}
