// Package sharding 定义租户分库的核心模型与部署配置。
//
// 一个分片条目（Entry）描述一个可供租户使用的物理数据库：
// 原始连接串名称、可选的数据库名覆盖、数据库类型。
// 租户记录通过 DatabaseInfoName 外键引用条目名称。
//
// 部署配置（Options）是纯数据：默认条目是配置的计算结果
// （Options.DefaultEntry），按需惰性合成，绝不缓存为进程级可变状态，
// 以避免测试与多实例之间互相泄漏。
package sharding

import (
	"time"

	"github.com/ceyewan/tenantdb/xerrors"
)

const (
	// DefaultConnectionName 配置中默认原始连接串的名称
	DefaultConnectionName = "DefaultConnection"

	// DefaultEntryName 混合模式下隐式默认条目的名称
	DefaultEntryName = "Default Database"

	// CacheKeyPrefix 缓存后端中每个条目的 Key 前缀，
	// 完整 Key 为 CacheKeyPrefix + Entry.Name。外部契约，不可变更。
	CacheKeyPrefix = "ShardingEntry-"

	// FileDocumentKey JSON 设置文件的顶层字段名。外部契约，不可变更。
	FileDocumentKey = "ShardingDatabases"

	// LockName 目录变更使用的全局锁名
	//
	// 所有进程对分片目录的修改序列化在这一个锁上，
	// 而不是按条目加锁。
	LockName = "tenantdb-sharding-entries"
)

// Entry 一个分片条目（数据库描述符）
//
// 字段名是外部契约的一部分：JSON 设置文件可被运维直接编辑。
type Entry struct {
	// Name 条目名称，目录内唯一，被租户的 DatabaseInfoName 引用
	Name string `json:"Name"`

	// DatabaseName 数据库名覆盖；为空时沿用原始连接串中的数据库名
	DatabaseName string `json:"DatabaseName"`

	// ConnectionName 原始连接串在配置中的名称
	ConnectionName string `json:"ConnectionName"`

	// DatabaseType 数据库类型短名，用于选择 dbprovider 策略
	DatabaseType string `json:"DatabaseType"`
}

// Options 分片子系统的部署配置
type Options struct {
	// HybridMode 为 true 时允许共享库与独立库并存，
	// 目录为空时会惰性合成默认条目；为 false 时（sharding-only）
	// 空目录就是稳态，不维护默认条目。
	HybridMode bool `json:"hybrid_mode" yaml:"hybrid_mode" mapstructure:"hybrid_mode"`

	// DefaultEntryName 默认条目名称，混合模式下受保护（不可显式增删改）
	DefaultEntryName string `json:"default_entry_name" yaml:"default_entry_name" mapstructure:"default_entry_name"`

	// DefaultConnectionName 默认条目使用的原始连接串名称
	DefaultConnectionName string `json:"default_connection_name" yaml:"default_connection_name" mapstructure:"default_connection_name"`

	// DefaultDatabaseType 默认条目和自动建库时的数据库类型
	DefaultDatabaseType string `json:"default_database_type" yaml:"default_database_type" mapstructure:"default_database_type"`

	// ConnectionStrings 原始连接串表：名称 -> 含服务器与凭据的连接串
	//
	// 进程启动时从配置加载，本核心只读不写，可安全并发共享。
	ConnectionStrings map[string]string `json:"connection_strings" yaml:"connection_strings" mapstructure:"connection_strings"`

	// LockDir 文件锁根目录，使用文件型后端（sqlite 等）时必填
	LockDir string `json:"lock_dir" yaml:"lock_dir" mapstructure:"lock_dir"`

	// LockTimeout 跨进程锁获取超时，超时以错误返回而不是永久阻塞
	LockTimeout time.Duration `json:"lock_timeout" yaml:"lock_timeout" mapstructure:"lock_timeout"`
}

// SetDefaults 填充缺省值
func (o *Options) SetDefaults() {
	if o.DefaultEntryName == "" {
		o.DefaultEntryName = DefaultEntryName
	}
	if o.DefaultConnectionName == "" {
		o.DefaultConnectionName = DefaultConnectionName
	}
	if o.DefaultDatabaseType == "" {
		o.DefaultDatabaseType = "mysql"
	}
	if o.LockTimeout <= 0 {
		o.LockTimeout = time.Minute
	}
}

// Validate 验证配置有效性
func (o *Options) Validate() error {
	if o == nil {
		return ErrOptionsNil
	}
	o.SetDefaults()
	if len(o.ConnectionStrings) == 0 {
		return xerrors.WithCode(xerrors.New("sharding: no connection strings configured"), CodeConfig)
	}
	if o.HybridMode {
		if _, ok := o.ConnectionStrings[o.DefaultConnectionName]; !ok {
			return xerrors.WithCode(
				xerrors.Newf("sharding: hybrid mode requires the %q connection string", o.DefaultConnectionName),
				CodeConfig)
		}
	}
	return nil
}

// DefaultEntry 由配置合成隐式默认条目
//
// 纯函数：每次调用都重新计算，不缓存。
func (o *Options) DefaultEntry() Entry {
	return Entry{
		Name:           o.DefaultEntryName,
		DatabaseName:   "",
		ConnectionName: o.DefaultConnectionName,
		DatabaseType:   o.DefaultDatabaseType,
	}
}

// ConnectionString 按名称查找原始连接串
//
// 名称缺失属于部署错误，返回带 CodeConfig 的错误。
func (o *Options) ConnectionString(name string) (string, error) {
	raw, ok := o.ConnectionStrings[name]
	if !ok {
		return "", xerrors.WithCode(
			xerrors.Newf("sharding: connection string %q not found in configuration", name),
			CodeConfig)
	}
	return raw, nil
}

// ConnectionStringNames 返回全部原始连接串名称
//
// 非混合模式下默认连接串名称被排除：它保留给隐式默认条目。
func (o *Options) ConnectionStringNames() []string {
	names := make([]string, 0, len(o.ConnectionStrings))
	for name := range o.ConnectionStrings {
		if !o.HybridMode && name == o.DefaultConnectionName {
			continue
		}
		names = append(names, name)
	}
	return names
}
