package connector

import (
	"context"
	"sync"
	"sync/atomic"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ceyewan/tenantdb/clog"
	"github.com/ceyewan/tenantdb/xerrors"
)

type dbConnector struct {
	cfg     *DBConfig
	db      *gorm.DB
	logger  clog.Logger
	healthy atomic.Bool
	mu      sync.RWMutex
}

// NewDB 按 DSN 创建关系库连接器
//
// 实际连接在调用 Connect() 时建立。
func NewDB(cfg *DBConfig, opts ...Option) (DBConnector, error) {
	if cfg == nil {
		return nil, xerrors.Wrap(ErrConfig, "db config is nil")
	}
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Wrap(err, "invalid db config")
	}

	opt := &options{}
	for _, o := range opts {
		o(opt)
	}
	opt.applyDefaults()

	return &dbConnector{
		cfg:    cfg,
		logger: opt.logger.With(clog.String("connector", cfg.Driver), clog.String("name", cfg.Name)),
	}, nil
}

// NewMySQL 创建 MySQL 连接器
func NewMySQL(dsn string, opts ...Option) (DBConnector, error) {
	return NewDB(&DBConfig{Driver: "mysql", DSN: dsn}, opts...)
}

// NewPostgres 创建 PostgreSQL 连接器
func NewPostgres(dsn string, opts ...Option) (DBConnector, error) {
	return NewDB(&DBConfig{Driver: "postgres", DSN: dsn}, opts...)
}

// NewSQLite 创建 SQLite 连接器
//
// dsn 为文件路径或 "file::memory:?cache=shared" 形式的内存库。
func NewSQLite(dsn string, opts ...Option) (DBConnector, error) {
	return NewDB(&DBConfig{Driver: "sqlite", DSN: dsn}, opts...)
}

func (c *dbConnector) dialector() gorm.Dialector {
	switch c.cfg.Driver {
	case "postgres":
		return postgres.Open(c.cfg.DSN)
	case "sqlite":
		return sqlite.Open(c.cfg.DSN)
	default:
		return mysql.Open(c.cfg.DSN)
	}
}

// Connect 建立连接
func (c *dbConnector) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// 幂等：已连接则直接返回
	if c.db != nil {
		return nil
	}

	db, err := gorm.Open(c.dialector(), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		c.logger.Error("failed to open database", clog.Error(err))
		return xerrors.Wrapf(ErrConnection, "%s connector[%s]: %v", c.cfg.Driver, c.cfg.Name, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return xerrors.Wrapf(ErrConnection, "%s connector[%s]: failed to get db instance: %v", c.cfg.Driver, c.cfg.Name, err)
	}

	sqlDB.SetMaxIdleConns(c.cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(c.cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(c.cfg.ConnMaxLifetime)

	if err := sqlDB.PingContext(ctx); err != nil {
		c.logger.Error("failed to ping database", clog.Error(err))
		return xerrors.Wrapf(ErrConnection, "%s connector[%s]: ping failed: %v", c.cfg.Driver, c.cfg.Name, err)
	}

	c.db = db
	c.healthy.Store(true)
	c.logger.Info("connected to database", clog.String("driver", c.cfg.Driver))
	return nil
}

// Close 关闭连接
func (c *dbConnector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.healthy.Store(false)
	if c.db == nil {
		return nil
	}

	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		c.logger.Error("failed to close database connection", clog.Error(err))
		return err
	}

	c.db = nil
	return nil
}

// HealthCheck 检查连接健康状态
func (c *dbConnector) HealthCheck(ctx context.Context) error {
	c.mu.RLock()
	db := c.db
	c.mu.RUnlock()

	if db == nil {
		c.healthy.Store(false)
		return xerrors.Wrapf(ErrClientNil, "%s connector[%s]", c.cfg.Driver, c.cfg.Name)
	}

	sqlDB, err := db.DB()
	if err != nil {
		c.healthy.Store(false)
		return xerrors.Wrapf(ErrHealthCheck, "%s connector[%s]: %v", c.cfg.Driver, c.cfg.Name, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		c.healthy.Store(false)
		c.logger.Warn("database health check failed", clog.Error(err))
		return xerrors.Wrapf(ErrHealthCheck, "%s connector[%s]: %v", c.cfg.Driver, c.cfg.Name, err)
	}

	c.healthy.Store(true)
	return nil
}

// IsHealthy 返回缓存的健康状态
func (c *dbConnector) IsHealthy() bool {
	return c.healthy.Load()
}

// Name 返回连接器名称
func (c *dbConnector) Name() string {
	return c.cfg.Name
}

// Driver 返回方言短名
func (c *dbConnector) Driver() string {
	return c.cfg.Driver
}

// GetClient 返回底层 GORM 实例
func (c *dbConnector) GetClient() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}
