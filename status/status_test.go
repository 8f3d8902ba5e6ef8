package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsValid(t *testing.T) {
	st := New()
	assert.True(t, st.IsValid())
	assert.False(t, st.HasErrors())
	require.NoError(t, st.ErrOrNil())
}

func TestAddErrorWithField(t *testing.T) {
	st := New().AddError("the Name field is required", "Name")
	require.True(t, st.HasErrors())
	require.Len(t, st.Errors(), 1)
	assert.Equal(t, "Name", st.Errors()[0].Field)
	assert.Equal(t, "Name: the Name field is required", st.Errors()[0].Error())
}

func TestMessageSwitchesOnErrors(t *testing.T) {
	st := New().SetMessage("Successfully added the sharding entry Shard-A")
	assert.Equal(t, "Successfully added the sharding entry Shard-A", st.Message())

	st.AddError("duplicate name", "Name")
	st.AddError("unknown connection")
	assert.Equal(t, "Name: duplicate name; unknown connection", st.Message())
}

func TestCombine(t *testing.T) {
	first := New().AddError("first problem")
	second := New().AddError("second problem").SetMessage("done")

	first.Combine(second)
	require.Len(t, first.Errors(), 2)

	first.Combine(nil) // no-op
	require.Len(t, first.Errors(), 2)
}

func TestErrOrNil(t *testing.T) {
	st := New().AddError("bad input", "ConnectionName")
	err := st.ErrOrNil()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ConnectionName")
}
