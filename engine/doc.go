// Package engine defines the execution-engine boundary the bootstrap
// sequence talks to: recipe installation, sink attachment and event
// emission. Local is the in-process implementation; it stores recipes and
// fans events out to attached sinks, leaving execution semantics to the
// engine behind the boundary.
package engine
