package interaction

import (
	"maps"
	"slices"
)

// Registry is the immutable handler catalog assembled by Discover. Once
// built it never changes, so lookups need no locking. An empty registry is
// valid: Get always misses and Names returns nothing.
type Registry struct {
	handlers map[string]Handler
	names    []string
}

func newRegistry(handlers map[string]Handler) *Registry {
	return &Registry{
		handlers: handlers,
		names:    slices.Sorted(maps.Keys(handlers)),
	}
}

// EmptyRegistry returns a registry containing no handlers.
func EmptyRegistry() *Registry {
	return newRegistry(map[string]Handler{})
}

// Get returns the handler registered under name.
func (r *Registry) Get(name string) (Handler, bool) {
	handler, ok := r.handlers[name]
	return handler, ok
}

// Names returns all handler names in sorted order. The returned slice is a
// copy; callers may modify it freely.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int {
	return len(r.handlers)
}
