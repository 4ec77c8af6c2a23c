package catalog_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/goap/internal/catalog"
	"github.com/cory-johannsen/goap/internal/goap"
)

func TestNewSchema_Rejects(t *testing.T) {
	_, err := catalog.NewSchema([]string{"a", "a"})
	assert.Error(t, err, "duplicate")
	_, err = catalog.NewSchema([]string{"a", ""})
	assert.Error(t, err, "empty")

	tooMany := make([]string, goap.MaxPredicates+1)
	for i := range tooMany {
		tooMany[i] = fmt.Sprintf("p%d", i)
	}
	_, err = catalog.NewSchema(tooMany)
	assert.Error(t, err, "too many")
	_, err = catalog.NewSchema(tooMany[:goap.MaxPredicates])
	assert.NoError(t, err)
}

func TestSchema_BitsSkipWildcard(t *testing.T) {
	s, err := catalog.NewSchema([]string{"a", "b"})
	require.NoError(t, err)
	a, ok := s.Bit("a")
	require.True(t, ok)
	assert.Equal(t, goap.WorldState(1<<1), a)
	assert.False(t, s.Domain().HasAny(goap.None))
	assert.Equal(t, goap.WorldState(0b110), s.Domain())
	_, ok = s.Bit("c")
	assert.False(t, ok)
}

func TestSchema_MaskNamesDescribe(t *testing.T) {
	s, err := catalog.NewSchema([]string{"has_axe", "has_wood", "has_rock"})
	require.NoError(t, err)
	m, err := s.Mask("has_rock", "has_axe")
	require.NoError(t, err)
	assert.Equal(t, []string{"has_axe", "has_rock"}, s.Names(m))
	assert.Equal(t, "{has_axe, has_rock}", s.Describe(m))
	assert.Equal(t, "{}", s.Describe(0))
	assert.Equal(t, map[string]bool{"has_axe": true, "has_wood": false, "has_rock": true}, s.Facts(m))
	assert.Equal(t, 3, s.Width())

	_, err = s.Mask("has_axe", "nope")
	assert.ErrorContains(t, err, `"nope"`)
}

func TestProperty_Schema_MaskNamesRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		width := rapid.IntRange(1, goap.MaxPredicates).Draw(rt, "width")
		names := make([]string, width)
		for i := range names {
			names[i] = fmt.Sprintf("p%d", i)
		}
		s, err := catalog.NewSchema(names)
		if err != nil {
			rt.Fatalf("NewSchema: %v", err)
		}
		state := goap.WorldState(rapid.Uint64().Draw(rt, "state")) & s.Domain()
		back, err := s.Mask(s.Names(state)...)
		if err != nil {
			rt.Fatalf("Mask: %v", err)
		}
		if back != state {
			rt.Fatalf("round trip %v -> %v", state, back)
		}
	})
}
