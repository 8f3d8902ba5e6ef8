package tenant

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ceyewan/tenantdb/clog"
	"github.com/ceyewan/tenantdb/xerrors"
)

// GormStore 基于 GORM 的租户存储
//
// 挂在主库连接上（与分片目录同库），适配 mysql/postgres/sqlite。
type GormStore struct {
	db     *gorm.DB
	logger clog.Logger
}

// NewGormStore 创建 GORM 租户存储
//
// db 通常来自 connector.MySQLConnector 等的 GetClient()。
func NewGormStore(db *gorm.DB, opts ...Option) (*GormStore, error) {
	if db == nil {
		return nil, xerrors.New("tenant: gorm db is nil")
	}

	opt := applyOptions(opts...)
	return &GormStore{
		db:     db,
		logger: opt.logger,
	}, nil
}

// AutoMigrate 建表（幂等）
func (s *GormStore) AutoMigrate() error {
	return s.db.AutoMigrate(&Tenant{})
}

func (s *GormStore) GetAll(ctx context.Context) ([]Tenant, error) {
	var out []Tenant
	if err := s.db.WithContext(ctx).Find(&out).Error; err != nil {
		return nil, xerrors.Wrap(err, "tenant: listing tenants")
	}
	return out, nil
}

func (s *GormStore) GetByID(ctx context.Context, id uint) (*Tenant, error) {
	var t Tenant
	err := s.db.WithContext(ctx).First(&t, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, xerrors.Wrapf(err, "tenant: loading tenant %d", id)
	}
	return &t, nil
}

func (s *GormStore) GetByName(ctx context.Context, name string) (*Tenant, error) {
	var t Tenant
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, xerrors.Wrapf(err, "tenant: loading tenant %q", name)
	}
	return &t, nil
}

func (s *GormStore) ListByEntryName(ctx context.Context, entryName string) ([]Tenant, error) {
	var out []Tenant
	err := s.db.WithContext(ctx).Where("database_info_name = ?", entryName).Find(&out).Error
	if err != nil {
		return nil, xerrors.Wrapf(err, "tenant: listing tenants for entry %q", entryName)
	}
	return out, nil
}

func (s *GormStore) Create(ctx context.Context, t *Tenant) error {
	// 名称唯一索引之外再做一次显式检查，把冲突映射为 ErrDuplicateName
	if _, err := s.GetByName(ctx, t.Name); err == nil {
		return ErrDuplicateName
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return xerrors.Wrapf(err, "tenant: creating tenant %q", t.Name)
	}

	s.logger.InfoContext(ctx, "tenant created",
		clog.String("name", t.Name),
		clog.String("entry", t.DatabaseInfoName),
		clog.Bool("has_own_db", t.HasOwnDb))
	return nil
}

func (s *GormStore) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&Tenant{}, id)
	if result.Error != nil {
		return xerrors.Wrapf(result.Error, "tenant: deleting tenant %d", id)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.InfoContext(ctx, "tenant deleted", clog.Int64("id", int64(id)))
	return nil
}
