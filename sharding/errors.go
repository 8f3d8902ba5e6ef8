package sharding

import "github.com/ceyewan/tenantdb/xerrors"

// 错误码，用于区分错误分类（参见 xerrors.WithCode / GetCode）
const (
	// CodeConfig 部署/配置错误，应当 fail fast，不可重试
	CodeConfig = "CONFIG"

	// CodeTransient 瞬时资源错误（锁超时、后端 IO 失败），调用方可重试
	CodeTransient = "TRANSIENT"
)

var (
	// ErrOptionsNil 配置为空
	ErrOptionsNil = xerrors.New("sharding: options is nil")

	// ErrEntryNil 条目为空
	ErrEntryNil = xerrors.New("sharding: entry is nil")

	// ErrEntryNotFound 目录中不存在该条目
	ErrEntryNotFound = xerrors.New("sharding: entry not found")
)
