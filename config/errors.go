package config

import (
	"github.com/ceyewan/tenantdb/sharding"
	"github.com/ceyewan/tenantdb/xerrors"
)

// ErrEmptyConfig 加载结果为空
var ErrEmptyConfig = xerrors.WithCode(xerrors.New("config: configuration is empty"), sharding.CodeConfig)

// WrapLoadError 包装加载错误，统一按配置错误编码
func WrapLoadError(err error, message string) error {
	if err == nil {
		return nil
	}
	return xerrors.WithCode(
		xerrors.Wrapf(err, "config: failed to load %s", message),
		sharding.CodeConfig,
	)
}
