// Package file 实现 JSON 文件型分片目录（内部使用）。
//
// 文件顶层文档形如 {"ShardingDatabases": [...]}，字段名是外部契约，
// 运维可以直接手工编辑。整个读-校验-写序列持有跨进程锁执行，
// 避免并发进程交错读到写了一半的文件。
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ceyewan/tenantdb/dbprovider"
	"github.com/ceyewan/tenantdb/internal/shardstore/core"
	"github.com/ceyewan/tenantdb/shardstore/types"
	"github.com/ceyewan/tenantdb/sharding"
	"github.com/ceyewan/tenantdb/status"
	"github.com/ceyewan/tenantdb/xerrors"
)

// document 文件顶层结构，字段名是用户可编辑的外部契约
type document struct {
	ShardingDatabases []sharding.Entry `json:"ShardingDatabases"`
}

type Store struct {
	path string
	core *core.Core

	// 锁挂在默认连接对应的库（或文件锁目录）上：目录文件本身
	// 才是被争用的资源，默认连接是调用时唯一保证存在的连接
	lockProvider dbprovider.Provider
	lockRaw      string
}

// New 创建文件型目录存储
func New(path string, c *core.Core) (*Store, error) {
	if path == "" {
		return nil, xerrors.WithCode(
			xerrors.New("shardstore: settings file path is required"),
			sharding.CodeConfig,
		)
	}

	p, err := c.Registry.Get(c.Opts.DefaultDatabaseType)
	if err != nil {
		return nil, err
	}

	// 锁挂在默认连接的库上，缺了连接串每次写入都会失败，
	// 这属于部署配置问题，必须在构造期暴露；内存库的互斥
	// 走锁文件目录，不需要连接串
	lockRaw, err := c.Opts.ConnectionString(c.Opts.DefaultConnectionName)
	if err != nil && c.Opts.DefaultDatabaseType != "sqlite-inmemory" {
		return nil, err
	}

	return &Store{
		path:         path,
		core:         c,
		lockProvider: p,
		lockRaw:      lockRaw,
	}, nil
}

func (s *Store) read() ([]sharding.Entry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, xerrors.WithCode(
			xerrors.Wrapf(err, "shardstore: reading settings file %q", s.path),
			sharding.CodeTransient,
		)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		// 文件是手工可编辑的，解析失败说明文件被改坏了
		return nil, xerrors.WithCode(
			xerrors.Wrapf(err, "shardstore: parsing settings file %q", s.path),
			sharding.CodeConfig,
		)
	}
	return doc.ShardingDatabases, nil
}

func (s *Store) write(entries []sharding.Entry) error {
	data, err := json.MarshalIndent(document{ShardingDatabases: entries}, "", "  ")
	if err != nil {
		return xerrors.Wrap(err, "shardstore: marshaling settings document")
	}

	// 先写临时文件再改名，读者永远不会看到半截文件
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return xerrors.WithCode(
			xerrors.Wrapf(err, "shardstore: writing settings file %q", s.path),
			sharding.CodeTransient,
		)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return xerrors.WithCode(
			xerrors.Wrapf(err, "shardstore: replacing settings file %q", s.path),
			sharding.CodeTransient,
		)
	}
	return nil
}

func (s *Store) runExclusive(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.lockProvider.RunExclusive(ctx, s.lockRaw, fn)
}

func (s *Store) GetAllEntries(ctx context.Context) ([]sharding.Entry, error) {
	entries, err := s.read()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 && s.core.Opts.HybridMode {
		// 文件变体只合成返回、不落盘；首次显式新增时才物化
		return []sharding.Entry{s.core.Opts.DefaultEntry()}, nil
	}
	return entries, nil
}

func (s *Store) GetEntry(ctx context.Context, name string) (*sharding.Entry, error) {
	entries, err := s.read()
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].Name == name {
			e := entries[i]
			return &e, nil
		}
	}
	if s.core.Opts.HybridMode && name == s.core.Opts.DefaultEntryName {
		def := s.core.Opts.DefaultEntry()
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

	err := s.runExclusive(ctx, func(ctx context.Context) error {
		entries, err := s.read()
		if err != nil {
			return err
		}
		if len(entries) == 0 && s.core.Opts.HybridMode {
			// 首次显式新增前把隐式默认条目落盘，避免被静默丢掉
			entries = append(entries, s.core.Opts.DefaultEntry())
		}
		for i := range entries {
			if entries[i].Name == entry.Name {
				st.AddError(fmt.Sprintf("the entry name %q is already used", entry.Name), "Name")
				return nil
			}
		}
		entries = append(entries, *entry)
		return s.write(entries)
	})
	if err != nil {
		return st, err
	}
	if st.HasErrors() {
		return st, nil
	}

	st.SetMessage(fmt.Sprintf("successfully added the entry %q to the sharding settings file", entry.Name))
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

	err := s.runExclusive(ctx, func(ctx context.Context) error {
		entries, err := s.read()
		if err != nil {
			return err
		}
		idx := -1
		for i := range entries {
			if entries[i].Name == entry.Name {
				idx = i
				break
			}
		}
		if idx < 0 {
			st.AddError(fmt.Sprintf("could not find the entry %q", entry.Name), "Name")
			return nil
		}
		entries[idx] = *entry
		return s.write(entries)
	})
	if err != nil {
		return st, err
	}
	if st.HasErrors() {
		return st, nil
	}

	st.SetMessage(fmt.Sprintf("successfully updated the entry %q in the sharding settings file", entry.Name))
	return st, nil
}

func (s *Store) RemoveEntry(ctx context.Context, name string) (*status.Status, error) {
	st := status.New()
	s.core.CheckName(st, name)
	s.core.CheckProtected(st, name)
	if st.HasErrors() {
		return st, nil
	}

	err := s.runExclusive(ctx, func(ctx context.Context) error {
		entries, err := s.read()
		if err != nil {
			return err
		}
		idx := -1
		for i := range entries {
			if entries[i].Name == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			st.AddError(fmt.Sprintf("could not find the entry %q", name), "Name")
			return nil
		}

		// 占用检查必须在锁内做，封堵检查与写入之间插入新租户的窗口
		if _, err := s.core.CheckTenantUsage(ctx, st, name); err != nil {
			return err
		}
		if st.HasErrors() {
			return nil
		}

		entries = append(entries[:idx], entries[idx+1:]...)
		return s.write(entries)
	})
	if err != nil {
		return st, err
	}
	if st.HasErrors() {
		return st, nil
	}

	st.SetMessage(fmt.Sprintf("successfully removed the entry %q from the sharding settings file", name))
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
