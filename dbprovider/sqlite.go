package dbprovider

import (
	"context"
	"time"

	"github.com/ceyewan/tenantdb/clog"
	"github.com/ceyewan/tenantdb/dlock"
	"github.com/ceyewan/tenantdb/sharding"
)

// sqliteInMemoryDSN 固定的进程内共享内存库连接串
//
// cache=shared 使同进程内的多个连接看到同一个库；跨进程没有
// 持久性保证，调用方不应假设实例之间的数据共享。
const sqliteInMemoryDSN = "file::memory:?cache=shared"

type sqliteProvider struct {
	lockDir     string
	lockTimeout time.Duration
	logger      clog.Logger
}

func newSQLiteProvider(lockDir string, lockTimeout time.Duration, logger clog.Logger) *sqliteProvider {
	return &sqliteProvider{
		lockDir:     lockDir,
		lockTimeout: lockTimeout,
		logger:      logger,
	}
}

func (p *sqliteProvider) Type() string { return "sqlite-inmemory" }

// FormConnectionString 内存库忽略输入，始终返回固定连接串
func (p *sqliteProvider) FormConnectionString(entry *sharding.Entry, raw string) (string, error) {
	return sqliteInMemoryDSN, nil
}

func (p *sqliteProvider) RunExclusive(ctx context.Context, raw string, fn func(ctx context.Context) error) error {
	// 内存库没有可用的咨询锁，互斥落到共享目录的文件锁上；
	// 目录未配置说明部署不完整，不能静默跳过互斥
	if p.lockDir == "" {
		return ErrLockDirRequired
	}

	locker, err := dlock.NewFile(p.lockDir, &dlock.Config{
		AcquireTimeout: p.lockTimeout,
	}, dlock.WithLogger(p.logger))
	if err != nil {
		return err
	}
	defer locker.Close()

	if err := locker.Lock(ctx, sharding.LockName); err != nil {
		return err
	}
	defer func() {
		// 即使 ctx 已取消也要释放锁
		_ = locker.Unlock(context.WithoutCancel(ctx), sharding.LockName)
	}()

	return fn(ctx)
}
