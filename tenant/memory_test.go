package tenant

import (
	"context"
	"testing"

	"github.com/ceyewan/tenantdb/xerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCreateAndGet(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	acme := &Tenant{Name: "Acme", DatabaseInfoName: "Default Database"}
	require.NoError(t, store.Create(ctx, acme))
	assert.NotZero(t, acme.ID)

	got, err := store.GetByID(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)

	byName, err := store.GetByName(ctx, "Acme")
	require.NoError(t, err)
	assert.Equal(t, acme.ID, byName.ID)

	_, err = store.GetByName(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryDuplicateName(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &Tenant{Name: "Acme"}))
	err := store.Create(ctx, &Tenant{Name: "Acme"})
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestMemoryListByEntryName(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &Tenant{Name: "A", DatabaseInfoName: "Shard-A"}))
	require.NoError(t, store.Create(ctx, &Tenant{Name: "B", DatabaseInfoName: "Shard-A"}))
	require.NoError(t, store.Create(ctx, &Tenant{Name: "C", DatabaseInfoName: "Shard-B"}))

	tenants, err := store.ListByEntryName(ctx, "Shard-A")
	require.NoError(t, err)
	assert.Len(t, tenants, 2)

	tenants, err = store.ListByEntryName(ctx, "Shard-Z")
	require.NoError(t, err)
	assert.Empty(t, tenants)
}

func TestMemoryCreateHook(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	boom := xerrors.New("storage offline")
	store.CreateHook = func(*Tenant) error { return boom }

	err := store.Create(ctx, &Tenant{Name: "Acme"})
	assert.ErrorIs(t, err, boom)

	all, _ := store.GetAll(ctx)
	assert.Empty(t, all, "failed create must not leave partial state")
}

func TestMemoryDelete(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	acme := &Tenant{Name: "Acme"}
	require.NoError(t, store.Create(ctx, acme))
	require.NoError(t, store.Delete(ctx, acme.ID))
	assert.ErrorIs(t, store.Delete(ctx, acme.ID), ErrNotFound)
}

func TestChildNames(t *testing.T) {
	assert.Equal(t, "Company|West", ChildName("Company", "West"))
	assert.Equal(t, "West", ChildName("", "West"))
	assert.Equal(t, "West", ShortName("Company|West"))
	assert.Equal(t, "Company", ShortName("Company"))

	child := &Tenant{ParentID: 7}
	assert.True(t, child.IsChild())
	assert.False(t, (&Tenant{}).IsChild())
}
