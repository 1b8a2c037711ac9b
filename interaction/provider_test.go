package interaction

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/hagay3/baker/errors"
)

func TestNewTableProvider(t *testing.T) {
	provider := NewTableProvider()

	require.NotNil(t, provider)
	assert.Empty(t, provider.Identifiers())
}

func TestTableProvider_Register(t *testing.T) {
	provider := NewTableProvider()

	err := provider.Register("orders.handlers", staticFactory("bake"))
	require.NoError(t, err)

	factory, err := provider.Resolve("orders.handlers")
	require.NoError(t, err)

	handlers, err := factory(context.Background())
	require.NoError(t, err)
	require.Len(t, handlers, 1)
	assert.Equal(t, "bake", handlers[0].Name())
}

func TestTableProvider_RegisterValidation(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		factory    Factory
	}{
		{name: "empty identifier", identifier: "", factory: staticFactory("bake")},
		{name: "nil factory", identifier: "orders.handlers", factory: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := NewTableProvider()

			err := provider.Register(tt.identifier, tt.factory)

			require.Error(t, err)
			assert.True(t, pkgerrors.IsInvalid(err))
		})
	}
}

func TestTableProvider_RegisterDuplicate(t *testing.T) {
	provider := NewTableProvider()
	require.NoError(t, provider.Register("orders.handlers", staticFactory("bake")))

	err := provider.Register("orders.handlers", staticFactory("frost"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestTableProvider_ResolveUnknown(t *testing.T) {
	provider := NewTableProvider()

	factory, err := provider.Resolve("missing.config")

	require.Error(t, err)
	assert.Nil(t, factory)
	assert.ErrorIs(t, err, pkgerrors.ErrUnknownConfiguration)
}

func TestTableProvider_Identifiers(t *testing.T) {
	provider := NewTableProvider()
	require.NoError(t, provider.Register("charlie", staticFactory("c")))
	require.NoError(t, provider.Register("alpha", staticFactory("a")))
	require.NoError(t, provider.Register("bravo", staticFactory("b")))

	assert.Equal(t, []string{"alpha", "bravo", "charlie"}, provider.Identifiers())
}

func TestTableProvider_ConcurrentAccess(t *testing.T) {
	provider := NewTableProvider()

	const workers = 10
	const perWorker = 10

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := range perWorker {
				identifier := fmt.Sprintf("config-%d-%d", worker, i)
				if err := provider.Register(identifier, staticFactory("h")); err != nil {
					t.Errorf("register %s: %v", identifier, err)
				}
				if _, err := provider.Resolve(identifier); err != nil {
					t.Errorf("resolve %s: %v", identifier, err)
				}
				provider.Identifiers()
			}
		}(w)
	}
	wg.Wait()

	assert.Len(t, provider.Identifiers(), workers*perWorker)
}
