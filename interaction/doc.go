// Package interaction provides handler discovery for the bakery engine,
// turning configuration identifiers into an immutable registry of named
// handlers that recipes dispatch to.
//
// # Overview
//
// An interaction handler is a named unit of work with a declared input and
// output signature. Handlers arrive in groups: each configuration identifier
// names one group, and a Factory builds that group's handlers during
// startup. Discover resolves every identifier, flattens the results and
// rejects name collisions across the whole set, then publishes the catalog
// as a Registry that never changes afterwards.
//
// # Registration Pattern
//
// The package uses EXPLICIT registration rather than init() self-registration:
//
//  1. Each handler group exposes a Factory
//  2. Factories are registered in a TableProvider under their identifier
//  3. main explicitly calls RegisterBuiltins plus any custom registrations
//  4. Discover resolves the identifiers the configuration declares
//
// This keeps tests isolated (each test builds its own table) and makes the
// set of available handlers visible in one place.
//
// # Failure Semantics
//
// Discovery is all-or-nothing. An unresolvable identifier or a failing
// factory yields a DiscoveryError; two configurations producing the same
// handler name yield a DuplicateHandlerError naming both sources. In every
// failure case the registry is not published at all: callers never observe a
// partial handler set.
//
// An empty identifier list is not a failure. It produces an empty registry
// and a warning, since a process with no interactions usually points at a
// configuration mistake.
package interaction
