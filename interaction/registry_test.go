package interaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyRegistry(t *testing.T) {
	registry := EmptyRegistry()

	assert.Equal(t, 0, registry.Len())
	assert.Empty(t, registry.Names())

	handler, ok := registry.Get("anything")
	assert.False(t, ok)
	assert.Nil(t, handler)
}

func TestRegistry_Get(t *testing.T) {
	registry := newRegistry(map[string]Handler{
		"bake": testHandler("bake"),
		"mix":  testHandler("mix"),
	})

	handler, ok := registry.Get("mix")
	require.True(t, ok)
	assert.Equal(t, "mix", handler.Name())

	_, ok = registry.Get("frost")
	assert.False(t, ok)
}

func TestRegistry_NamesSorted(t *testing.T) {
	registry := newRegistry(map[string]Handler{
		"mix":   testHandler("mix"),
		"bake":  testHandler("bake"),
		"frost": testHandler("frost"),
	})

	assert.Equal(t, []string{"bake", "frost", "mix"}, registry.Names())
}

func TestRegistry_NamesReturnsCopy(t *testing.T) {
	registry := newRegistry(map[string]Handler{
		"bake": testHandler("bake"),
		"mix":  testHandler("mix"),
	})

	names := registry.Names()
	names[0] = "mutated"

	assert.Equal(t, []string{"bake", "mix"}, registry.Names())
}
