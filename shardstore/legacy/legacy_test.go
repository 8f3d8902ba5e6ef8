package legacy_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/tenantdb/dbprovider"
	"github.com/ceyewan/tenantdb/shardstore"
	"github.com/ceyewan/tenantdb/shardstore/legacy"
	"github.com/ceyewan/tenantdb/sharding"
	"github.com/ceyewan/tenantdb/tenant"
	"github.com/ceyewan/tenantdb/testkit"
)

func newCatalogue(t *testing.T) (*legacy.Catalogue, string, *tenant.Memory) {
	t.Helper()

	opts := &sharding.Options{
		HybridMode:          true,
		DefaultDatabaseType: "sqlite-inmemory",
		ConnectionStrings: map[string]string{
			"DefaultConnection": "user:pass@tcp(localhost:3306)/main",
			"Server2":           "user:pass@tcp(shard2.example.com:3306)/main",
		},
		LockDir: t.TempDir(),
	}
	reg, err := dbprovider.NewRegistry(opts, dbprovider.WithLogger(testkit.NewLogger()))
	require.NoError(t, err)

	tenants := tenant.NewMemory()
	path := filepath.Join(t.TempDir(), "shardingsettings.json")
	cat, err := legacy.New(path, opts, reg, tenants, shardstore.WithLogger(testkit.NewLogger()))
	require.NoError(t, err)
	return cat, path, tenants
}

func TestLegacyRoundTrip(t *testing.T) {
	cat, _, _ := newCatalogue(t)
	ctx := context.Background()

	st, err := cat.AddEntry(ctx, &sharding.Entry{
		Name:           "Shard-A",
		DatabaseName:   "shard_a",
		ConnectionName: "Server2",
		DatabaseType:   "mysql",
	})
	require.NoError(t, err)
	require.True(t, st.IsValid(), "unexpected errors: %v", st.Errors())

	entries, err := cat.Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2) // 首次新增物化了默认条目

	assert.ElementsMatch(t, []string{"DefaultConnection", "Server2"}, cat.ConnectionNames())
}

func TestLegacyFileDocumentShape(t *testing.T) {
	cat, path, _ := newCatalogue(t)
	ctx := context.Background()

	st, err := cat.AddEntry(ctx, &sharding.Entry{
		Name:           "Shard-A",
		DatabaseName:   "shard_a",
		ConnectionName: "Server2",
		DatabaseType:   "mysql",
	})
	require.NoError(t, err)
	require.True(t, st.IsValid())

	// 文件格式是外部契约：顶层 key 与条目字段名都不能变
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string][]map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	entries, ok := doc[sharding.FileDocumentKey]
	require.True(t, ok, "top-level document key must be %q", sharding.FileDocumentKey)
	require.Len(t, entries, 2)

	for _, e := range entries {
		assert.Contains(t, e, "Name")
		assert.Contains(t, e, "ConnectionName")
		assert.Contains(t, e, "DatabaseType")
	}
}

func TestLegacyRemoveRecheckUnderLock(t *testing.T) {
	cat, _, tenants := newCatalogue(t)
	ctx := context.Background()

	st, err := cat.AddEntry(ctx, &sharding.Entry{
		Name:           "Shard-A",
		DatabaseName:   "shard_a",
		ConnectionName: "Server2",
		DatabaseType:   "mysql",
	})
	require.NoError(t, err)
	require.True(t, st.IsValid())

	require.NoError(t, tenants.Create(ctx, &tenant.Tenant{
		Name: "Acme", DatabaseInfoName: "Shard-A", HasOwnDb: true,
	}))

	st, err = cat.RemoveEntry(ctx, "Shard-A")
	require.NoError(t, err)
	assert.True(t, st.HasErrors())

	_, err = cat.GetEntry(ctx, "Shard-A")
	assert.NoError(t, err)
}
