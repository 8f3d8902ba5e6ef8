package dbprovider

import (
	"context"
	"database/sql"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/ceyewan/tenantdb/connector"
	"github.com/ceyewan/tenantdb/sharding"
	"github.com/ceyewan/tenantdb/xerrors"
)

type mysqlProvider struct {
	lockTimeout time.Duration
}

func newMySQLProvider(lockTimeout time.Duration) *mysqlProvider {
	return &mysqlProvider{lockTimeout: lockTimeout}
}

func (p *mysqlProvider) Type() string { return "mysql" }

func (p *mysqlProvider) FormConnectionString(entry *sharding.Entry, raw string) (string, error) {
	cfg, err := mysqldriver.ParseDSN(raw)
	if err != nil {
		return "", xerrors.Wrap(err, "dbprovider: parsing mysql dsn")
	}

	if entry.DatabaseName == "" {
		if cfg.DBName == "" {
			return "", ErrNoDatabase
		}
		return raw, nil
	}

	cfg.DBName = entry.DatabaseName
	return cfg.FormatDSN(), nil
}

// lockWaitSeconds 把等待上限换算成 GET_LOCK 的秒数参数
//
// GET_LOCK 把 0 当作"不等待"，亚秒级的超时向上取整到 1 秒，
// 保证配置的等待语义不会退化成立即失败。
func lockWaitSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

func (p *mysqlProvider) RunExclusive(ctx context.Context, raw string, fn func(ctx context.Context) error) error {
	conn, err := connector.NewMySQL(raw)
	if err != nil {
		return err
	}
	if err := conn.Connect(ctx); err != nil {
		return err
	}
	defer conn.Close()

	// GET_LOCK 是会话级锁，加锁、业务、释放必须落在同一连接上
	return conn.GetClient().WithContext(ctx).Connection(func(tx *gorm.DB) error {
		var got sql.NullInt64
		row := tx.Raw("SELECT GET_LOCK(?, ?)", sharding.LockName, lockWaitSeconds(p.lockTimeout)).Row()
		if err := row.Scan(&got); err != nil {
			return xerrors.Wrap(err, "dbprovider: acquiring mysql lock")
		}
		if !got.Valid || got.Int64 != 1 {
			return ErrLockTimeout
		}
		defer tx.Exec("SELECT RELEASE_LOCK(?)", sharding.LockName)

		return fn(ctx)
	})
}
