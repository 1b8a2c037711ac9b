// Package baker is the bootstrap orchestrator for a bakery node: one
// process that acquires its services in a fixed order on the way up and
// releases them in exact reverse order on the way down.
//
// # Startup Contract
//
// A node is ready only when every stage below has been acquired. The
// first stage failure releases the already-acquired prefix in reverse
// and the process exits non-zero with the failing stage named.
//
//	┌──────────────────────────────────────────────┐
//	│              bootstrap.Composer              │   ordered acquisition,
//	│        (Up, Down, Run, Readiness)            │   reverse release
//	└───────────────────┬──────────────────────────┘
//	                    ↓ stages, in order
//	┌────────────┐ ┌───────────────┐ ┌──────────────┐ ┌────────────┐ ┌────────────────┐
//	│ event-sink │→│ recipe-loader │→│ cluster-gate │→│ api-server │→│ metrics-server │
//	└────────────┘ └───────────────┘ └──────────────┘ └────────────┘ └────────────────┘
//
// Stage responsibilities:
//
//   - event-sink: connects the configured event transport (NATS subject,
//     outbound websocket, or a counting no-op) and attaches it to the engine.
//   - recipe-loader: reads recipe documents from the recipes directory,
//     validates them and installs them into the engine.
//   - cluster-gate: blocks until cluster membership is confirmed by the
//     configured provider (static for a single node, NATS KV for a cluster).
//   - api-server: binds the read-only HTTP surface (recipes, interactions,
//     health, readiness).
//   - metrics-server: binds the Prometheus scrape endpoint. Every metrics
//     provider registers before this stage starts, so the first scrape
//     already sees the full catalog.
//
// Shutdown runs the same list backwards. A stage that fails to release is
// logged and skipped; teardown never aborts partway.
//
// Readiness flips to true once, after the last stage, and is never reset.
// The API server's /ready endpoint reports it as READY or NOT READY.
//
// # Packages
//
// Orchestration:
//   - bootstrap: stage composer, readiness flag, failure type
//   - service: lifecycle contract (Start, Stop, Status, Health)
//   - cluster: membership gate and providers
//
// Node state:
//   - engine: recipe store and event fan-out behind the Engine interface
//   - interaction: handler discovery from configuration identifiers
//   - recipe: recipe documents, schema validation, directory loader
//   - sink: event sink providers (nats, websocket, none)
//
// Boundaries:
//   - api: read-only HTTP surface over the engine
//   - metric: Prometheus registry, pull samplers, scrape server
//   - config: settings file loading and validation
//
// Infrastructure:
//   - errors: classified errors (transient, invalid, fatal)
//   - health: health status snapshots
//   - natsclient: managed NATS connection and KV store
//   - pkg/retry: backoff policies
//   - pkg/timestamp: wire timestamps (Unix milliseconds)
//
// # Binary
//
// Build and run a node:
//
//	go build -o bin/bakeryd ./cmd/bakeryd
//
//	# settings read from /opt/docker/conf or $BAKERY_CONFIG_DIR
//	./bin/bakeryd
//
//	# check a settings file without starting anything
//	./bin/bakeryd --validate
//
// Exit status is non-zero whenever bootstrap fails; the failing stage and
// cause are logged before exit.
package baker
