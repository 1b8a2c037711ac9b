// Package errors provides standardized error handling patterns for baker.
//
// # Overview
//
// The errors package implements a three-class error classification system
// for the bootstrap chain and the services it acquires: Transient (temporary,
// retryable), Invalid (bad input, non-retryable), and Fatal (unrecoverable,
// abort bootstrap).
//
// Every failure the orchestrator reports is fatal to bootstrap as a whole;
// classification matters below the orchestrator, where the NATS client and
// the cluster membership layer decide whether an operation is worth retrying
// before they give up and surface a fatal error.
//
// # Error Wrapping Pattern
//
// All error wrapping follows the standardized format:
//
//	"component.method: action failed: %w"
//
// Three wrapper functions provide classification-aware wrapping:
//
//	errors.WrapTransient(err, "Component", "Method", "action")  // For retryable errors
//	errors.WrapInvalid(err, "Component", "Method", "action")    // For validation errors
//	errors.WrapFatal(err, "Component", "Method", "action")      // For unrecoverable errors
//
// The generic Wrap() function adds context without setting a class:
//
//	errors.Wrap(err, "Component", "Method", "action")
//
// # Standard Error Variables
//
// Pre-defined error variables cover the common conditions of this system:
//
//   - Service lifecycle: ErrAlreadyStarted, ErrNotStarted, ErrAlreadyStopped
//   - Connection issues: ErrConnectionLost, ErrConnectionTimeout, ErrNoConnection
//   - Configuration: ErrInvalidConfig, ErrMissingConfig, ErrConfigNotFound
//   - Discovery: ErrUnknownConfiguration, ErrDuplicateHandler
//   - Recipes: ErrRecipeInvalid, ErrDuplicateRecipe
//   - Cluster: ErrMembershipTimeout
//
// Use these variables instead of creating custom error messages so that
// errors.Is checks work across package boundaries.
//
// # Integration with errors.As/Is
//
// All error types support standard library error inspection:
//
//	var ce *errors.ClassifiedError
//	if errors.As(err, &ce) {
//	    log.Printf("Component: %s, Class: %s", ce.Component, ce.Class)
//	}
//
//	if errors.Is(err, errors.ErrConnectionTimeout) {
//	    // Handle timeout specifically
//	}
//
// Context errors (context.DeadlineExceeded, context.Canceled) are classified
// as Transient, so context-based timeouts and network timeouts are handled
// uniformly by retrying layers.
package errors
