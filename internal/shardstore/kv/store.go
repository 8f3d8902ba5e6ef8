// Package kv 实现缓存型分片目录（内部使用）。
//
// 每个条目独立存储在 "ShardingEntry-" + 名称 的键下，依赖后端的
// 单键原子性：稳态增删改不需要跨进程锁，唯一的竞态是混合模式下
// 隐式默认条目的一次性物化，用 SetNX 解决。
//
// 跨键没有事务语义：枚举全部条目与并发新增同时发生时，新条目
// 可见与否均属正常，调用方必须容忍两种结果。
package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/ceyewan/tenantdb/cache"
	"github.com/ceyewan/tenantdb/internal/shardstore/core"
	"github.com/ceyewan/tenantdb/shardstore/types"
	"github.com/ceyewan/tenantdb/sharding"
	"github.com/ceyewan/tenantdb/status"
	"github.com/ceyewan/tenantdb/xerrors"
)

type Store struct {
	cache cache.Cache
	core  *core.Core
}

// New 创建缓存型目录存储
func New(c cache.Cache, co *core.Core) (*Store, error) {
	if c == nil {
		return nil, xerrors.WithCode(
			xerrors.New("shardstore: cache is required"),
			sharding.CodeConfig,
		)
	}
	return &Store{cache: c, core: co}, nil
}

func key(name string) string {
	return sharding.CacheKeyPrefix + name
}

func transient(err error, op string) error {
	return xerrors.WithCode(
		xerrors.Wrapf(err, "shardstore: %s", op),
		sharding.CodeTransient,
	)
}

// materializeDefault 用 SetNX 物化隐式默认条目
//
// 并发调用方在同一个键上竞争，只有一个写入成功，其余读到已有值；
// 任何情况下目录里都只会有一条默认条目。
func (s *Store) materializeDefault(ctx context.Context) (sharding.Entry, error) {
	def := s.core.Opts.DefaultEntry()
	ok, err := s.cache.SetNX(ctx, key(def.Name), def, 0)
	if err != nil {
		return sharding.Entry{}, transient(err, "materializing default entry")
	}
	if !ok {
		var existing sharding.Entry
		if err := s.cache.Get(ctx, key(def.Name), &existing); err == nil {
			return existing, nil
		}
	}
	return def, nil
}

func (s *Store) GetAllEntries(ctx context.Context) ([]sharding.Entry, error) {
	keys, err := s.cache.KeysByPrefix(ctx, sharding.CacheKeyPrefix)
	if err != nil {
		return nil, transient(err, "listing entry keys")
	}

	if len(keys) == 0 && s.core.Opts.HybridMode {
		def, err := s.materializeDefault(ctx)
		if err != nil {
			return nil, err
		}
		return []sharding.Entry{def}, nil
	}

	entries := make([]sharding.Entry, 0, len(keys))
	for _, k := range keys {
		var e sharding.Entry
		err := s.cache.Get(ctx, k, &e)
		if errors.Is(err, cache.ErrNotFound) {
			// 枚举与并发删除之间没有快照语义，键消失了就跳过
			continue
		}
		if err != nil {
			return nil, transient(err, "reading entry")
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *Store) GetEntry(ctx context.Context, name string) (*sharding.Entry, error) {
	var e sharding.Entry
	err := s.cache.Get(ctx, key(name), &e)
	if err == nil {
		return &e, nil
	}
	if !errors.Is(err, cache.ErrNotFound) {
		return nil, transient(err, "reading entry")
	}

	if s.core.Opts.HybridMode && name == s.core.Opts.DefaultEntryName {
		def, err := s.materializeDefault(ctx)
		if err != nil {
			return nil, err
		}
		return &def, nil
	}
	return nil, sharding.ErrEntryNotFound
}

func (s *Store) AddEntry(ctx context.Context, entry *sharding.Entry) (*status.Status, error) {
	st := status.New()
	if entry == nil {
		return nil, sharding.ErrEntryNil
	}
	s.core.CheckName(st, entry.Name)
	s.core.CheckProtected(st, entry.Name)
	if st.HasErrors() {
		return st, nil
	}
	s.core.CheckConnection(st, entry)
	if st.HasErrors() {
		return st, nil
	}

	if s.core.Opts.HybridMode {
		keys, err := s.cache.KeysByPrefix(ctx, sharding.CacheKeyPrefix)
		if err != nil {
			return st, transient(err, "listing entry keys")
		}
		if len(keys) == 0 {
			// 首次显式新增前先物化隐式默认条目，避免被静默丢掉
			if _, err := s.materializeDefault(ctx); err != nil {
				return st, err
			}
		}
	}

	// SetNX 同时充当重名检查与写入，单键原子，无需跨进程锁
	ok, err := s.cache.SetNX(ctx, key(entry.Name), entry, 0)
	if err != nil {
		return st, transient(err, "writing entry")
	}
	if !ok {
		st.AddError(fmt.Sprintf("the entry name %q is already used", entry.Name), "Name")
		return st, nil
	}

	st.SetMessage(fmt.Sprintf("successfully added the entry %q to the sharding cache", entry.Name))
	return st, nil
}

func (s *Store) UpdateEntry(ctx context.Context, entry *sharding.Entry) (*status.Status, error) {
	st := status.New()
	if entry == nil {
		return nil, sharding.ErrEntryNil
	}
	s.core.CheckName(st, entry.Name)
	s.core.CheckProtected(st, entry.Name)
	if st.HasErrors() {
		return st, nil
	}
	s.core.CheckConnection(st, entry)
	if st.HasErrors() {
		return st, nil
	}

	has, err := s.cache.Has(ctx, key(entry.Name))
	if err != nil {
		return st, transient(err, "checking entry")
	}
	if !has {
		st.AddError(fmt.Sprintf("could not find the entry %q", entry.Name), "Name")
		return st, nil
	}

	if err := s.cache.Set(ctx, key(entry.Name), entry, 0); err != nil {
		return st, transient(err, "writing entry")
	}

	st.SetMessage(fmt.Sprintf("successfully updated the entry %q in the sharding cache", entry.Name))
	return st, nil
}

func (s *Store) RemoveEntry(ctx context.Context, name string) (*status.Status, error) {
	st := status.New()
	s.core.CheckName(st, name)
	s.core.CheckProtected(st, name)
	if st.HasErrors() {
		return st, nil
	}

	has, err := s.cache.Has(ctx, key(name))
	if err != nil {
		return st, transient(err, "checking entry")
	}
	if !has {
		st.AddError(fmt.Sprintf("could not find the entry %q", name), "Name")
		return st, nil
	}

	if _, err := s.core.CheckTenantUsage(ctx, st, name); err != nil {
		return st, err
	}
	if st.HasErrors() {
		return st, nil
	}

	if err := s.cache.Delete(ctx, key(name)); err != nil {
		return st, transient(err, "deleting entry")
	}

	st.SetMessage(fmt.Sprintf("successfully removed the entry %q from the sharding cache", name))
	return st, nil
}

func (s *Store) GetConnectionStringNames() []string {
	return s.core.Opts.ConnectionStringNames()
}

func (s *Store) GetEntriesWithTenantUsage(ctx context.Context) ([]types.EntryUsage, error) {
	entries, err := s.GetAllEntries(ctx)
	if err != nil {
		return nil, err
	}
	return s.core.TenantUsage(ctx, entries)
}

func (s *Store) FormConnectionString(ctx context.Context, name string) (string, error) {
	entry, err := s.GetEntry(ctx, name)
	if err != nil {
		if errors.Is(err, sharding.ErrEntryNotFound) {
			return "", xerrors.WithCode(
				xerrors.Wrapf(err, "shardstore: forming connection string for %q", name),
				sharding.CodeConfig,
			)
		}
		return "", err
	}
	return s.core.FormConnectionString(entry)
}

func (s *Store) PossibleDatabaseTypes() []string {
	return s.core.Registry.Types()
}
