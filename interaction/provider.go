package interaction

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/hagay3/baker/errors"
)

// Factory builds the handler set for one configuration identifier. Factories
// run once during discovery; the handlers they return live for the rest of
// the process.
type Factory func(ctx context.Context) ([]Handler, error)

// Provider resolves configuration identifiers to handler factories. The
// static table is the default strategy; alternative implementations may load
// handlers from plugin catalogs or remote registries.
type Provider interface {
	// Resolve returns the factory registered for identifier, or an error
	// wrapping errors.ErrUnknownConfiguration when nothing is registered.
	Resolve(identifier string) (Factory, error)
}

// TableProvider is a static registration table mapping configuration
// identifiers to factories. Safe for concurrent use.
type TableProvider struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewTableProvider creates an empty registration table.
func NewTableProvider() *TableProvider {
	return &TableProvider{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory under the given configuration identifier.
// Returns an error if the identifier is empty, the factory is nil, or the
// identifier is already taken.
func (p *TableProvider) Register(identifier string, factory Factory) error {
	if identifier == "" {
		return errors.WrapInvalid(
			errors.ErrInvalidConfig, "TableProvider", "Register", "identifier validation")
	}
	if factory == nil {
		return errors.WrapInvalid(
			errors.ErrInvalidConfig, "TableProvider", "Register", "factory validation")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.factories[identifier]; exists {
		msg := fmt.Errorf("configuration '%s' is already registered", identifier)
		return errors.WrapInvalid(msg, "TableProvider", "Register", "duplicate configuration check")
	}

	p.factories[identifier] = factory

	return nil
}

// Resolve returns the factory registered for identifier.
func (p *TableProvider) Resolve(identifier string) (Factory, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	factory, exists := p.factories[identifier]
	if !exists {
		return nil, fmt.Errorf("%w: '%s'", errors.ErrUnknownConfiguration, identifier)
	}

	return factory, nil
}

// Identifiers returns all registered configuration identifiers, sorted.
func (p *TableProvider) Identifiers() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	identifiers := make([]string, 0, len(p.factories))
	for identifier := range p.factories {
		identifiers = append(identifiers, identifier)
	}
	slices.Sort(identifiers)

	return identifiers
}
