package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/tenantdb/config"
	"github.com/ceyewan/tenantdb/testkit"
)

const testYAML = `
sharding:
  hybrid_mode: true
  default_database_type: mysql
  lock_timeout: 30s
  connection_strings:
    DefaultConnection: user:pass@tcp(localhost:3306)/main
    Server2: user:pass@tcp(shard2.example.com:3306)/main
`

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "tenantdb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return dir
}

func newLoader(t *testing.T, dir string) config.Loader {
	t.Helper()
	l, err := config.New(&config.Config{Paths: []string{dir}}, config.WithLogger(testkit.NewLogger()))
	require.NoError(t, err)
	require.NoError(t, l.Load(context.Background()))
	return l
}

func TestLoadAndGet(t *testing.T) {
	dir := writeConfigFile(t, testYAML)
	l := newLoader(t, dir)

	assert.Equal(t, true, l.Get("sharding.hybrid_mode"))
	assert.Equal(t, "mysql", l.Get("sharding.default_database_type"))
}

func TestLoadShardingSection(t *testing.T) {
	dir := writeConfigFile(t, testYAML)
	l := newLoader(t, dir)

	opts, err := config.LoadSharding(l)
	require.NoError(t, err)

	assert.True(t, opts.HybridMode)
	assert.Equal(t, "mysql", opts.DefaultDatabaseType)
	assert.Equal(t, 30*time.Second, opts.LockTimeout)
	assert.Equal(t, "user:pass@tcp(shard2.example.com:3306)/main", opts.ConnectionStrings["Server2"])

	// 缺省值已填充
	assert.Equal(t, "Default Database", opts.DefaultEntryName)
	assert.Equal(t, "DefaultConnection", opts.DefaultConnectionName)
}

func TestLoadShardingPreservesConnectionNameCase(t *testing.T) {
	dir := writeConfigFile(t, testYAML)
	l := newLoader(t, dir)

	opts, err := config.LoadSharding(l)
	require.NoError(t, err)

	// 连接串名是大小写敏感的外部契约，不能被转成小写
	assert.Contains(t, opts.ConnectionStrings, "DefaultConnection")
	assert.Contains(t, opts.ConnectionStrings, "Server2")
	assert.NotContains(t, opts.ConnectionStrings, "defaultconnection")
	assert.NotContains(t, opts.ConnectionStrings, "server2")

	dsn, err := opts.ConnectionString("Server2")
	require.NoError(t, err)
	assert.Equal(t, "user:pass@tcp(shard2.example.com:3306)/main", dsn)
}

func TestStringMap(t *testing.T) {
	dir := writeConfigFile(t, testYAML)
	l := newLoader(t, dir)

	m, err := l.StringMap("sharding.connection_strings")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"DefaultConnection": "user:pass@tcp(localhost:3306)/main",
		"Server2":           "user:pass@tcp(shard2.example.com:3306)/main",
	}, m)

	// 不是映射的 key 返回 nil
	m, err = l.StringMap("sharding.default_database_type")
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = l.StringMap("no.such.key")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestLoadShardingInvalid(t *testing.T) {
	// 混合模式缺默认连接串，校验必须失败
	dir := writeConfigFile(t, `
sharding:
  hybrid_mode: true
  connection_strings:
    Server2: user:pass@tcp(shard2.example.com:3306)/main
`)
	l := newLoader(t, dir)

	_, err := config.LoadSharding(l)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	l, err := config.New(&config.Config{Paths: []string{t.TempDir()}}, config.WithLogger(testkit.NewLogger()))
	require.NoError(t, err)

	err = l.Load(context.Background())
	assert.ErrorIs(t, err, config.ErrEmptyConfig)
}

func TestEnvOverride(t *testing.T) {
	dir := writeConfigFile(t, testYAML)
	t.Setenv("TENANTDB_SHARDING_DEFAULT_DATABASE_TYPE", "postgres")

	l := newLoader(t, dir)
	assert.Equal(t, "postgres", l.Get("sharding.default_database_type"))
}

func TestWatchConfigChange(t *testing.T) {
	dir := writeConfigFile(t, testYAML)
	l := newLoader(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := l.Watch(ctx, "sharding.default_database_type")
	require.NoError(t, err)

	updated := `
sharding:
  hybrid_mode: true
  default_database_type: postgres
  connection_strings:
    DefaultConnection: user:pass@tcp(localhost:3306)/main
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tenantdb.yaml"), []byte(updated), 0o644))

	select {
	case event := <-ch:
		assert.Equal(t, "sharding.default_database_type", event.Key)
		assert.Equal(t, "postgres", event.Value)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config change event")
	}
}
