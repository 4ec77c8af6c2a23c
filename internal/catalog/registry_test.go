package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/goap/internal/catalog"
)

func TestRegistry_Register_And_Lookup(t *testing.T) {
	reg := catalog.NewRegistry()
	d, err := reg.Register(minimal(), nil, "zone")
	require.NoError(t, err)
	assert.Len(t, d.Actions, 1)
	assert.Equal(t, "zone", d.ZoneID)

	got, ok := reg.Lookup("test")
	require.True(t, ok)
	assert.Same(t, d, got)
	assert.Equal(t, []string{"test"}, reg.IDs())
}

func TestRegistry_Register_CollisionError(t *testing.T) {
	reg := catalog.NewRegistry()
	_, err := reg.Register(minimal(), nil, "zone")
	require.NoError(t, err)
	_, err = reg.Register(minimal(), nil, "zone")
	assert.Error(t, err)
}

func TestRegistry_Register_InvalidCatalog(t *testing.T) {
	reg := catalog.NewRegistry()
	c := minimal()
	c.ID = ""
	_, err := reg.Register(c, nil, "zone")
	assert.Error(t, err)
	assert.Empty(t, reg.IDs())
}

func TestRegistry_Lookup_NotFound(t *testing.T) {
	_, ok := catalog.NewRegistry().Lookup("missing")
	assert.False(t, ok)
}
