package dbprovider

import (
	"context"
	"hash/fnv"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/ceyewan/tenantdb/connector"
	"github.com/ceyewan/tenantdb/sharding"
	"github.com/ceyewan/tenantdb/xerrors"
)

type postgresProvider struct {
	lockTimeout time.Duration
}

func newPostgresProvider(lockTimeout time.Duration) *postgresProvider {
	return &postgresProvider{lockTimeout: lockTimeout}
}

func (p *postgresProvider) Type() string { return "postgres" }

func (p *postgresProvider) FormConnectionString(entry *sharding.Entry, raw string) (string, error) {
	if _, err := pgconn.ParseConfig(raw); err != nil {
		return "", xerrors.Wrap(err, "dbprovider: parsing postgres dsn")
	}

	if entry.DatabaseName == "" {
		// pgconn 会用用户名等缺省值填充 Database 字段，
		// 判断连接串本身有没有写数据库名要看原文
		if postgresDatabase(raw) == "" {
			return "", ErrNoDatabase
		}
		return raw, nil
	}

	if isPostgresURL(raw) {
		u, err := url.Parse(raw)
		if err != nil {
			return "", xerrors.Wrap(err, "dbprovider: parsing postgres url")
		}
		u.Path = "/" + entry.DatabaseName
		return u.String(), nil
	}

	fields := strings.Fields(raw)
	replaced := false
	for i, f := range fields {
		if strings.HasPrefix(f, "dbname=") {
			fields[i] = "dbname=" + entry.DatabaseName
			replaced = true
		}
	}
	if !replaced {
		fields = append(fields, "dbname="+entry.DatabaseName)
	}
	return strings.Join(fields, " "), nil
}

func isPostgresURL(raw string) bool {
	return strings.HasPrefix(raw, "postgres://") || strings.HasPrefix(raw, "postgresql://")
}

// postgresDatabase 返回连接串原文中写明的数据库名，没有则返回空串
func postgresDatabase(raw string) string {
	if isPostgresURL(raw) {
		u, err := url.Parse(raw)
		if err != nil {
			return ""
		}
		return strings.TrimPrefix(u.Path, "/")
	}
	for _, f := range strings.Fields(raw) {
		if v, ok := strings.CutPrefix(f, "dbname="); ok {
			return v
		}
	}
	return ""
}

// advisoryKey 把锁名映射为 pg_advisory_lock 需要的 64 位键
func advisoryKey(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return int64(h.Sum64())
}

func (p *postgresProvider) RunExclusive(ctx context.Context, raw string, fn func(ctx context.Context) error) error {
	conn, err := connector.NewPostgres(raw)
	if err != nil {
		return err
	}
	if err := conn.Connect(ctx); err != nil {
		return err
	}
	defer conn.Close()

	// 咨询锁绑定会话，加锁、业务、释放必须落在同一连接上
	return conn.GetClient().WithContext(ctx).Connection(func(tx *gorm.DB) error {
		key := advisoryKey(sharding.LockName)

		lockCtx, cancel := context.WithTimeout(ctx, p.lockTimeout)
		defer cancel()
		if err := tx.WithContext(lockCtx).Exec("SELECT pg_advisory_lock(?)", key).Error; err != nil {
			return xerrors.Wrap(err, "dbprovider: acquiring postgres advisory lock")
		}
		defer tx.Exec("SELECT pg_advisory_unlock(?)", key)

		return fn(ctx)
	})
}
