package shardstore

import (
	"github.com/ceyewan/tenantdb/sharding"
	"github.com/ceyewan/tenantdb/xerrors"
)

var (
	// ErrRegistryNil Provider 注册表为空
	ErrRegistryNil = xerrors.WithCode(xerrors.New("shardstore: provider registry is nil"), sharding.CodeConfig)

	// ErrTenantsNil 租户查询能力为空
	ErrTenantsNil = xerrors.WithCode(xerrors.New("shardstore: tenant reader is nil"), sharding.CodeConfig)
)
