package connector

import "github.com/ceyewan/tenantdb/xerrors"

// 连接器专用的哨兵错误
var (
	ErrConnection  = xerrors.New("connector: connection failed")
	ErrClientNil   = xerrors.New("connector: client not initialized")
	ErrConfig      = xerrors.New("connector: invalid config")
	ErrHealthCheck = xerrors.New("connector: health check failed")
)
