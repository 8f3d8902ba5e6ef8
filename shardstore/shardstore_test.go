package shardstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/tenantdb/cache"
	"github.com/ceyewan/tenantdb/dbprovider"
	"github.com/ceyewan/tenantdb/shardstore"
	"github.com/ceyewan/tenantdb/sharding"
	"github.com/ceyewan/tenantdb/status"
	"github.com/ceyewan/tenantdb/tenant"
	"github.com/ceyewan/tenantdb/testkit"
	"github.com/ceyewan/tenantdb/xerrors"
)

func testOptions(t *testing.T, hybrid bool) *sharding.Options {
	t.Helper()
	return &sharding.Options{
		HybridMode:          hybrid,
		DefaultDatabaseType: "sqlite-inmemory",
		ConnectionStrings: map[string]string{
			"DefaultConnection": "user:pass@tcp(localhost:3306)/main",
			"Server2":           "user:pass@tcp(shard2.example.com:3306)/main",
		},
		LockDir: t.TempDir(),
	}
}

type fixture struct {
	store   shardstore.Store
	tenants *tenant.Memory
	opts    *sharding.Options
}

// 两种后端跑同一组契约测试
func withStores(t *testing.T, hybrid bool, fn func(t *testing.T, f *fixture)) {
	t.Helper()

	build := map[string]func(t *testing.T, opts *sharding.Options, reg *dbprovider.Registry, tenants tenant.Reader) (shardstore.Store, error){
		"file": func(t *testing.T, opts *sharding.Options, reg *dbprovider.Registry, tenants tenant.Reader) (shardstore.Store, error) {
			path := filepath.Join(t.TempDir(), "shardingsettings.json")
			return shardstore.NewFile(path, opts, reg, tenants, shardstore.WithLogger(testkit.NewLogger()))
		},
		"kv": func(t *testing.T, opts *sharding.Options, reg *dbprovider.Registry, tenants tenant.Reader) (shardstore.Store, error) {
			c, err := cache.NewStandalone(&cache.Config{})
			require.NoError(t, err)
			t.Cleanup(func() { _ = c.Close() })
			return shardstore.NewKV(c, opts, reg, tenants, shardstore.WithLogger(testkit.NewLogger()))
		},
	}

	for name, mk := range build {
		t.Run(name, func(t *testing.T) {
			opts := testOptions(t, hybrid)
			reg, err := dbprovider.NewRegistry(opts, dbprovider.WithLogger(testkit.NewLogger()))
			require.NoError(t, err)

			tenants := tenant.NewMemory()
			store, err := mk(t, opts, reg, tenants)
			require.NoError(t, err)

			fn(t, &fixture{store: store, tenants: tenants, opts: opts})
		})
	}
}

func mustValid(t *testing.T, st *status.Status, err error) {
	t.Helper()
	require.NoError(t, err)
	require.True(t, st.IsValid(), "unexpected errors: %v", st.Errors())
}

func shardA() *sharding.Entry {
	return &sharding.Entry{
		Name:           "Shard-A",
		DatabaseName:   "shard_a",
		ConnectionName: "Server2",
		DatabaseType:   "mysql",
	}
}

func TestNewFileRequiresDefaultConnection(t *testing.T) {
	// 锁挂在默认连接的库上；纯分片部署配了库型默认类型
	// 却缺默认连接串时，构造期就要失败，而不是首次写入才报错
	opts := &sharding.Options{
		DefaultDatabaseType: "mysql",
		ConnectionStrings: map[string]string{
			"Server2": "user:pass@tcp(shard2.example.com:3306)/main",
		},
	}
	reg, err := dbprovider.NewRegistry(opts, dbprovider.WithLogger(testkit.NewLogger()))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "shardingsettings.json")
	_, err = shardstore.NewFile(path, opts, reg, tenant.NewMemory())
	require.Error(t, err)
	assert.Equal(t, sharding.CodeConfig, xerrors.GetCode(err))

	// 内存库的互斥走锁文件目录，不需要默认连接串
	opts = &sharding.Options{
		DefaultDatabaseType: "sqlite-inmemory",
		ConnectionStrings: map[string]string{
			"Server2": "user:pass@tcp(shard2.example.com:3306)/main",
		},
		LockDir: t.TempDir(),
	}
	reg, err = dbprovider.NewRegistry(opts, dbprovider.WithLogger(testkit.NewLogger()))
	require.NoError(t, err)

	store, err := shardstore.NewFile(path, opts, reg, tenant.NewMemory())
	require.NoError(t, err)

	st, err := store.AddEntry(context.Background(), shardA())
	mustValid(t, st, err)
}

func TestAddGetRoundTrip(t *testing.T) {
	withStores(t, false, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		want := shardA()

		st, err := f.store.AddEntry(ctx, want)
		mustValid(t, st, err)
		assert.Contains(t, st.Message(), "Shard-A")

		got, err := f.store.GetEntry(ctx, "Shard-A")
		require.NoError(t, err)
		assert.Equal(t, *want, *got)

		updated := shardA()
		updated.DatabaseName = "shard_a_v2"
		st, err = f.store.UpdateEntry(ctx, updated)
		mustValid(t, st, err)

		got, err = f.store.GetEntry(ctx, "Shard-A")
		require.NoError(t, err)
		assert.Equal(t, "shard_a_v2", got.DatabaseName)
	})
}

func TestAddDuplicateName(t *testing.T) {
	withStores(t, false, func(t *testing.T, f *fixture) {
		ctx := context.Background()

		st, err := f.store.AddEntry(ctx, shardA())
		mustValid(t, st, err)

		dup := shardA()
		dup.DatabaseName = "other"
		st, err = f.store.AddEntry(ctx, dup)
		require.NoError(t, err)
		require.True(t, st.HasErrors())

		// 目录未被改动
		got, err := f.store.GetEntry(ctx, "Shard-A")
		require.NoError(t, err)
		assert.Equal(t, "shard_a", got.DatabaseName)

		all, err := f.store.GetAllEntries(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}

func TestAddValidation(t *testing.T) {
	withStores(t, false, func(t *testing.T, f *fixture) {
		ctx := context.Background()

		st, err := f.store.AddEntry(ctx, &sharding.Entry{ConnectionName: "Server2", DatabaseType: "mysql"})
		require.NoError(t, err)
		assert.True(t, st.HasErrors(), "empty name must fail")

		e := shardA()
		e.DatabaseType = "oracle"
		st, err = f.store.AddEntry(ctx, e)
		require.NoError(t, err)
		assert.True(t, st.HasErrors(), "unknown database type must fail")

		e = shardA()
		e.ConnectionName = "NoSuchConnection"
		st, err = f.store.AddEntry(ctx, e)
		require.NoError(t, err)
		assert.True(t, st.HasErrors(), "unknown connection name must fail")

		all, err := f.store.GetAllEntries(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}

func TestUpdateMissingEntry(t *testing.T) {
	withStores(t, false, func(t *testing.T, f *fixture) {
		st, err := f.store.UpdateEntry(context.Background(), shardA())
		require.NoError(t, err)
		assert.True(t, st.HasErrors())
	})
}

func TestProtectedDefaultName(t *testing.T) {
	withStores(t, true, func(t *testing.T, f *fixture) {
		ctx := context.Background()

		e := shardA()
		e.Name = f.opts.DefaultEntryName

		st, err := f.store.AddEntry(ctx, e)
		require.NoError(t, err)
		assert.True(t, st.HasErrors())

		st, err = f.store.UpdateEntry(ctx, e)
		require.NoError(t, err)
		assert.True(t, st.HasErrors())

		st, err = f.store.RemoveEntry(ctx, f.opts.DefaultEntryName)
		require.NoError(t, err)
		assert.True(t, st.HasErrors())
	})
}

func TestRemoveReferentialProtection(t *testing.T) {
	withStores(t, false, func(t *testing.T, f *fixture) {
		ctx := context.Background()

		st, err := f.store.AddEntry(ctx, shardA())
		mustValid(t, st, err)

		require.NoError(t, f.tenants.Create(ctx, &tenant.Tenant{
			Name: "Acme", DatabaseInfoName: "Shard-A", HasOwnDb: true,
		}))

		st, err = f.store.RemoveEntry(ctx, "Shard-A")
		require.NoError(t, err)
		require.True(t, st.HasErrors())
		assert.Contains(t, st.Errors()[0].Message, "1 tenant")

		// 条目仍在
		_, err = f.store.GetEntry(ctx, "Shard-A")
		require.NoError(t, err)

		// 引用消失后可以删除
		tn, err := f.tenants.GetByName(ctx, "Acme")
		require.NoError(t, err)
		require.NoError(t, f.tenants.Delete(ctx, tn.ID))

		st, err = f.store.RemoveEntry(ctx, "Shard-A")
		mustValid(t, st, err)

		_, err = f.store.GetEntry(ctx, "Shard-A")
		assert.ErrorIs(t, err, sharding.ErrEntryNotFound)
	})
}

func TestRemoveMissingEntry(t *testing.T) {
	withStores(t, false, func(t *testing.T, f *fixture) {
		st, err := f.store.RemoveEntry(context.Background(), "NoSuchEntry")
		require.NoError(t, err)
		assert.True(t, st.HasErrors())
	})
}

func TestHybridDefaultSynthesis(t *testing.T) {
	withStores(t, true, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		def := f.opts.DefaultEntry()

		// 空目录反复枚举，始终恰好一条默认条目
		for i := 0; i < 3; i++ {
			all, err := f.store.GetAllEntries(ctx)
			require.NoError(t, err)
			require.Len(t, all, 1)
			assert.Equal(t, def, all[0])
		}

		got, err := f.store.GetEntry(ctx, def.Name)
		require.NoError(t, err)
		assert.Equal(t, def, *got)
	})
}

func TestShardingOnlyEmptyCatalogue(t *testing.T) {
	withStores(t, false, func(t *testing.T, f *fixture) {
		all, err := f.store.GetAllEntries(context.Background())
		require.NoError(t, err)
		assert.Empty(t, all)

		_, err = f.store.GetEntry(context.Background(), f.opts.DefaultEntryName)
		assert.ErrorIs(t, err, sharding.ErrEntryNotFound)
	})
}

func TestFirstAddMaterializesDefault(t *testing.T) {
	withStores(t, true, func(t *testing.T, f *fixture) {
		ctx := context.Background()

		st, err := f.store.AddEntry(ctx, shardA())
		mustValid(t, st, err)

		all, err := f.store.GetAllEntries(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)

		names := []string{all[0].Name, all[1].Name}
		assert.ElementsMatch(t, []string{f.opts.DefaultEntryName, "Shard-A"}, names)
	})
}

func TestConnectionStringNames(t *testing.T) {
	withStores(t, true, func(t *testing.T, f *fixture) {
		assert.ElementsMatch(t, []string{"DefaultConnection", "Server2"}, f.store.GetConnectionStringNames())
	})
	withStores(t, false, func(t *testing.T, f *fixture) {
		// 非混合模式下默认连接名被排除
		assert.ElementsMatch(t, []string{"Server2"}, f.store.GetConnectionStringNames())
	})
}

func TestFormConnectionString(t *testing.T) {
	withStores(t, false, func(t *testing.T, f *fixture) {
		ctx := context.Background()

		st, err := f.store.AddEntry(ctx, shardA())
		mustValid(t, st, err)

		dsn, err := f.store.FormConnectionString(ctx, "Shard-A")
		require.NoError(t, err)
		assert.Contains(t, dsn, "/shard_a")
		assert.Contains(t, dsn, "shard2.example.com:3306")

		_, err = f.store.FormConnectionString(ctx, "NoSuchEntry")
		require.Error(t, err)
		assert.Equal(t, sharding.CodeConfig, xerrors.GetCode(err))
	})
}

func TestPossibleDatabaseTypes(t *testing.T) {
	withStores(t, false, func(t *testing.T, f *fixture) {
		assert.Equal(t, []string{"mysql", "postgres", "sqlite-inmemory"}, f.store.PossibleDatabaseTypes())
	})
}

func TestEntriesWithTenantUsage(t *testing.T) {
	withStores(t, true, func(t *testing.T, f *fixture) {
		ctx := context.Background()

		st, err := f.store.AddEntry(ctx, shardA())
		mustValid(t, st, err)

		empty := shardA()
		empty.Name = "Shard-B"
		st, err = f.store.AddEntry(ctx, empty)
		mustValid(t, st, err)

		require.NoError(t, f.tenants.Create(ctx, &tenant.Tenant{
			Name: "Acme", DatabaseInfoName: "Shard-A", HasOwnDb: true,
		}))
		require.NoError(t, f.tenants.Create(ctx, &tenant.Tenant{
			Name: "Beta", DatabaseInfoName: f.opts.DefaultEntryName, HasOwnDb: false,
		}))

		usage, err := f.store.GetEntriesWithTenantUsage(ctx)
		require.NoError(t, err)
		require.Len(t, usage, 3)

		byName := make(map[string]shardstore.EntryUsage)
		for _, u := range usage {
			byName[u.Name] = u
		}

		def := byName[f.opts.DefaultEntryName]
		require.NotNil(t, def.HasOwnDb)
		assert.False(t, *def.HasOwnDb, "default shared entry is never exclusively owned")
		assert.Equal(t, []string{"Beta"}, def.TenantNames)

		a := byName["Shard-A"]
		require.NotNil(t, a.HasOwnDb)
		assert.True(t, *a.HasOwnDb)
		assert.Equal(t, []string{"Acme"}, a.TenantNames)

		b := byName["Shard-B"]
		assert.Nil(t, b.HasOwnDb, "entry with no referencing tenant has no derived flag")
		assert.Empty(t, b.TenantNames)
	})
}
