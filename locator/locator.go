// Package locator 为新租户挑选或创建数据库。
//
// 放置策略是可插拔的：宿主应用可以实现 SignUp 提供区域/版本感知的
// 放置逻辑；默认实现不关心区域与版本，共享租户落在默认条目上，
// 独库租户每次新建一个条目。
package locator

import (
	"context"
	"sync"
	"time"

	"github.com/ceyewan/tenantdb/clog"
	"github.com/ceyewan/tenantdb/shardstore"
	"github.com/ceyewan/tenantdb/sharding"
	"github.com/ceyewan/tenantdb/status"
	"github.com/ceyewan/tenantdb/xerrors"
)

// SignUp 新租户数据库定位能力
//
// 任何实现都必须满足：hasOwnDb 为 false 时返回已存在的共享条目名、
// 绝不新建；为 true 时选择或创建的条目名必须能在目录中查到。
type SignUp interface {
	// FindOrCreateEntry 返回新租户应使用的分片条目名
	//
	// region/version 留给区域/版本感知的实现，默认实现忽略。
	// 校验失败通过 *status.Status 返回，此时条目名为空。
	FindOrCreateEntry(ctx context.Context, hasOwnDb bool, region, version string) (string, *status.Status, error)

	// RemoveLastEntrySetup 撤销紧邻的上一次 FindOrCreateEntry 的创建动作
	//
	// 只撤销最近一次创建，不是通用回滚；不支持与同一实例上的
	// FindOrCreateEntry 并发调用。
	RemoveLastEntrySetup(ctx context.Context) error
}

// Config 默认定位器配置
type Config struct {
	// ConnectionName 新建条目使用的原始连接名（默认取 Options 的默认连接名）
	ConnectionName string `json:"connection_name" yaml:"connection_name" mapstructure:"connection_name"`

	// DatabaseType 新建条目的数据库类型（默认取 Options 的默认类型）
	DatabaseType string `json:"database_type" yaml:"database_type" mapstructure:"database_type"`
}

type defaultLocator struct {
	store  shardstore.Store
	opts   *sharding.Options
	cfg    Config
	logger clog.Logger

	mu          sync.Mutex
	lastCreated string
}

// New 创建默认定位器
func New(store shardstore.Store, opts *sharding.Options, cfg Config, locOpts ...Option) (SignUp, error) {
	if store == nil {
		return nil, xerrors.WithCode(xerrors.New("locator: store is nil"), sharding.CodeConfig)
	}
	if opts == nil {
		return nil, sharding.ErrOptionsNil
	}
	opts.SetDefaults()

	if cfg.ConnectionName == "" {
		cfg.ConnectionName = opts.DefaultConnectionName
	}
	if cfg.DatabaseType == "" {
		cfg.DatabaseType = opts.DefaultDatabaseType
	}

	opt := applyOptions(locOpts...)
	return &defaultLocator{
		store:  store,
		opts:   opts,
		cfg:    cfg,
		logger: opt.logger,
	}, nil
}

func (l *defaultLocator) FindOrCreateEntry(ctx context.Context, hasOwnDb bool, region, version string) (string, *status.Status, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastCreated = ""

	if !hasOwnDb {
		// 共享租户只能落在默认条目上，绝不新建
		if !l.opts.HybridMode {
			return "", nil, xerrors.WithCode(
				xerrors.New("locator: a shared tenant requires hybrid mode"),
				sharding.CodeConfig,
			)
		}
		return l.opts.DefaultEntryName, status.New(), nil
	}

	now := time.Now()
	entry := &sharding.Entry{
		Name:           sharding.NewEntryName(now),
		DatabaseName:   sharding.NewDatabaseName(now),
		ConnectionName: l.cfg.ConnectionName,
		DatabaseType:   l.cfg.DatabaseType,
	}

	st, err := l.store.AddEntry(ctx, entry)
	if err != nil {
		return "", st, err
	}
	if st.HasErrors() {
		return "", st, nil
	}

	l.lastCreated = entry.Name
	l.logger.Info("created database entry for new tenant",
		clog.String("entry", entry.Name),
		clog.String("connection", entry.ConnectionName))
	return entry.Name, st, nil
}

func (l *defaultLocator) RemoveLastEntrySetup(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.lastCreated == "" {
		return nil
	}

	st, err := l.store.RemoveEntry(ctx, l.lastCreated)
	if err != nil {
		return err
	}
	if st.HasErrors() {
		return xerrors.Wrapf(st.ErrOrNil(), "locator: removing entry %q", l.lastCreated)
	}

	l.logger.Info("removed database entry after failed tenant setup",
		clog.String("entry", l.lastCreated))
	l.lastCreated = ""
	return nil
}
