// Package tenant 定义本核心所消费的租户能力。
//
// 租户表本身由外部的租户管理服务拥有，这里只声明分片核心需要的
// 读写契约：按条目名称统计引用、查询 DatabaseInfoName/HasOwnDb 配对、
// 创建与删除租户。包内提供两个实现：
//   - GORM 存储（mysql/postgres/sqlite），用于和主库同进程部署
//   - 内存存储，用于测试与单进程示例
//
// 租户表的并发一致性由其所属存储自行保证，本核心不额外加锁。
package tenant

import (
	"context"
	"strings"
)

// Tenant 租户记录（本核心视角下的最小投影）
type Tenant struct {
	ID uint `gorm:"primarykey" json:"id"`

	// Name 租户全名；层级租户形如 "Company|West"
	Name string `gorm:"uniqueIndex;size:200" json:"name"`

	// ParentID 父租户 ID，0 表示顶层租户
	ParentID uint `gorm:"index" json:"parent_id"`

	// DatabaseInfoName 引用的分片条目名称（sharding.Entry.Name）
	DatabaseInfoName string `gorm:"index;size:200" json:"database_info_name"`

	// HasOwnDb 为 true 表示该租户独占其数据库
	HasOwnDb bool `json:"has_own_db"`
}

// IsChild 报告是否为层级子租户
func (t *Tenant) IsChild() bool {
	return t.ParentID != 0
}

// ChildName 构造层级子租户的全名
func ChildName(parentName, name string) string {
	if parentName == "" {
		return name
	}
	return parentName + "|" + name
}

// ShortName 返回层级全名的最后一段
func ShortName(fullName string) string {
	if i := strings.LastIndex(fullName, "|"); i >= 0 {
		return fullName[i+1:]
	}
	return fullName
}

// Reader 租户查询能力
type Reader interface {
	// GetAll 列出全部租户
	GetAll(ctx context.Context) ([]Tenant, error)

	// GetByID 按 ID 查询；未找到返回 ErrNotFound
	GetByID(ctx context.Context, id uint) (*Tenant, error)

	// GetByName 按全名查询；未找到返回 ErrNotFound
	GetByName(ctx context.Context, name string) (*Tenant, error)

	// ListByEntryName 列出引用指定分片条目的租户
	ListByEntryName(ctx context.Context, entryName string) ([]Tenant, error)
}

// Admin 租户管理能力（查询 + 创建/删除）
type Admin interface {
	Reader

	// Create 创建租户；名称冲突返回 ErrDuplicateName
	Create(ctx context.Context, t *Tenant) error

	// Delete 按 ID 删除；未找到返回 ErrNotFound
	Delete(ctx context.Context, id uint) error
}
