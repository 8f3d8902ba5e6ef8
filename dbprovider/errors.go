package dbprovider

import (
	"github.com/ceyewan/tenantdb/sharding"
	"github.com/ceyewan/tenantdb/xerrors"
)

var (
	// ErrOptionsNil 选项为空
	ErrOptionsNil = xerrors.WithCode(xerrors.New("dbprovider: options is nil"), sharding.CodeConfig)

	// ErrProviderNil 注册的 Provider 为空
	ErrProviderNil = xerrors.WithCode(xerrors.New("dbprovider: provider is nil"), sharding.CodeConfig)

	// ErrNoDatabase 原始连接串没有数据库名且条目未提供覆盖值
	ErrNoDatabase = xerrors.New("dbprovider: no database defined in connection string and no DatabaseName override")

	// ErrLockDirRequired 文件型锁需要 LockDir 配置
	ErrLockDirRequired = xerrors.WithCode(xerrors.New("dbprovider: lock dir is required for file-backed providers"), sharding.CodeConfig)

	// ErrLockTimeout 锁获取超时
	ErrLockTimeout = xerrors.WithCode(xerrors.New("dbprovider: lock acquire timed out"), sharding.CodeTransient)
)
