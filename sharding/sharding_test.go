package sharding

import (
	"sort"
	"testing"

	"github.com/ceyewan/tenantdb/xerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions(hybrid bool) *Options {
	o := &Options{
		HybridMode: hybrid,
		ConnectionStrings: map[string]string{
			"DefaultConnection": "user:pass@tcp(localhost:3306)/appdb",
			"Server2":           "user:pass@tcp(server2:3306)/",
		},
	}
	o.SetDefaults()
	return o
}

func TestSetDefaults(t *testing.T) {
	o := &Options{}
	o.SetDefaults()
	assert.Equal(t, DefaultEntryName, o.DefaultEntryName)
	assert.Equal(t, DefaultConnectionName, o.DefaultConnectionName)
	assert.Equal(t, "mysql", o.DefaultDatabaseType)
	assert.Positive(t, o.LockTimeout)
}

func TestValidate(t *testing.T) {
	o := testOptions(true)
	require.NoError(t, o.Validate())

	empty := &Options{}
	empty.SetDefaults()
	err := empty.Validate()
	require.Error(t, err)
	assert.Equal(t, CodeConfig, xerrors.GetCode(err))

	// 混合模式要求默认连接串存在
	noDefault := testOptions(true)
	delete(noDefault.ConnectionStrings, "DefaultConnection")
	err = noDefault.Validate()
	require.Error(t, err)
	assert.Equal(t, CodeConfig, xerrors.GetCode(err))

	// sharding-only 模式不要求默认连接串
	shardingOnly := testOptions(false)
	delete(shardingOnly.ConnectionStrings, "DefaultConnection")
	require.NoError(t, shardingOnly.Validate())
}

func TestDefaultEntryIsPure(t *testing.T) {
	o := testOptions(true)
	first := o.DefaultEntry()
	second := o.DefaultEntry()
	assert.Equal(t, first, second)
	assert.Equal(t, DefaultEntryName, first.Name)
	assert.Equal(t, DefaultConnectionName, first.ConnectionName)
	assert.Empty(t, first.DatabaseName)
}

func TestConnectionString(t *testing.T) {
	o := testOptions(true)

	raw, err := o.ConnectionString("Server2")
	require.NoError(t, err)
	assert.Equal(t, "user:pass@tcp(server2:3306)/", raw)

	_, err = o.ConnectionString("missing")
	require.Error(t, err)
	assert.Equal(t, CodeConfig, xerrors.GetCode(err))
}

func TestConnectionStringNames(t *testing.T) {
	hybrid := testOptions(true)
	names := hybrid.ConnectionStringNames()
	sort.Strings(names)
	assert.Equal(t, []string{"DefaultConnection", "Server2"}, names)

	shardingOnly := testOptions(false)
	names = shardingOnly.ConnectionStringNames()
	assert.Equal(t, []string{"Server2"}, names)
}
