package cache

import "github.com/ceyewan/tenantdb/xerrors"

var (
	// ErrNotFound 键不存在
	ErrNotFound = xerrors.New("cache: key not found")

	// ErrConfigNil 配置为空
	ErrConfigNil = xerrors.New("cache: config is nil")

	// ErrConnectorNil 连接器为空
	ErrConnectorNil = xerrors.New("cache: connector is nil")
)
