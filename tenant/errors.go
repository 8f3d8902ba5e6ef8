package tenant

import "github.com/ceyewan/tenantdb/xerrors"

var (
	// ErrNotFound 租户不存在
	ErrNotFound = xerrors.New("tenant: not found")

	// ErrDuplicateName 租户名称已存在
	ErrDuplicateName = xerrors.New("tenant: name already exists")
)
