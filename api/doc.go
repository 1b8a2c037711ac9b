// Package api exposes the engine's read-only HTTP surface: the
// installed recipes, the discovered interaction handlers, and the
// liveness and readiness probes. Anything beyond listing belongs to
// the engine, not this boundary.
package api
