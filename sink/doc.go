// Package sink provides the outbound event stream providers the engine
// fans events out to.
//
// New selects the provider from the event-sink configuration section:
// "nats" publishes each event as a JSON message on one subject,
// "websocket" frames events into typed envelopes on one outbound
// connection, and "none" drops events for transport-free development
// runs. A positive rate-limit wraps the selected provider with a pacer.
//
// Construction connects eagerly. A sink that cannot reach its peer is a
// bootstrap failure, not a degraded mode.
package sink
