package interaction

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hagay3/baker/errors"
)

// DiscoveryError reports a configuration identifier that could not be
// resolved or instantiated. The identifier is carried so the failure can be
// traced to one line of configuration.
type DiscoveryError struct {
	Identifier string
	Cause      error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("interaction discovery failed for '%s': %v", e.Identifier, e.Cause)
}

func (e *DiscoveryError) Unwrap() error { return e.Cause }

// DuplicateHandlerError reports a handler name produced by two
// configurations. First and Second are the colliding identifiers; they are
// equal when one configuration produced the name twice.
type DuplicateHandlerError struct {
	Name   string
	First  string
	Second string
}

func (e *DuplicateHandlerError) Error() string {
	return fmt.Sprintf("duplicate interaction handler '%s': produced by both '%s' and '%s'",
		e.Name, e.First, e.Second)
}

func (e *DuplicateHandlerError) Unwrap() error { return errors.ErrDuplicateHandler }

// Discover resolves each configuration identifier in order and flattens the
// resulting handlers into one immutable Registry. Handler names must be
// unique across all identifiers, not just within one. On any failure nothing
// is published: the returned registry is nil and no handler from the failed
// run is observable anywhere.
//
// An empty identifier list is valid and yields an empty registry; it is
// logged as a warning because a service with no interactions is usually a
// configuration mistake.
func Discover(
	ctx context.Context,
	identifiers []string,
	provider Provider,
	logger *slog.Logger,
) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if len(identifiers) == 0 {
		logger.Warn("No interaction configurations declared, registry will be empty")
		return EmptyRegistry(), nil
	}

	if provider == nil {
		return nil, errors.WrapFatal(
			errors.ErrInvalidConfig, "Discovery", "Discover", "provider validation")
	}

	handlers := make(map[string]Handler)
	owners := make(map[string]string)

	for _, identifier := range identifiers {
		factory, err := provider.Resolve(identifier)
		if err != nil {
			return nil, &DiscoveryError{Identifier: identifier, Cause: err}
		}

		produced, err := factory(ctx)
		if err != nil {
			return nil, &DiscoveryError{Identifier: identifier, Cause: err}
		}

		for _, handler := range produced {
			if handler == nil {
				return nil, &DiscoveryError{
					Identifier: identifier,
					Cause:      fmt.Errorf("factory returned a nil handler"),
				}
			}

			name := handler.Name()
			if name == "" {
				return nil, &DiscoveryError{
					Identifier: identifier,
					Cause:      fmt.Errorf("factory returned a handler with an empty name"),
				}
			}

			if first, taken := owners[name]; taken {
				return nil, &DuplicateHandlerError{Name: name, First: first, Second: identifier}
			}

			handlers[name] = handler
			owners[name] = identifier
		}

		logger.Info("Resolved interaction configuration",
			"identifier", identifier,
			"handlers", len(produced))
	}

	return newRegistry(handlers), nil
}
