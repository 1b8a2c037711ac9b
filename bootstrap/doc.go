// Package bootstrap sequences service startup and shutdown.
//
// The Composer acquires stages strictly in the order they were added.
// When a stage fails to start, the stages already acquired are released
// in reverse order and the failure propagates with the stage name
// attached; the stages after the failing one are never touched.
// Shutdown releases every acquired stage in reverse order and treats
// release errors as log-only.
//
// The package also owns the process readiness flag, which flips to
// true once the full sequence is up and stays true for the remainder
// of the process lifetime.
package bootstrap
