// Package cluster suspends bootstrap until this node's cluster membership
// is active.
//
// The Gate is a one-shot barrier: it starts waiting, fires exactly once and
// never reverses. Signaling an already-fired gate is a no-op, so membership
// providers may report member-up as often as they like. Await has no
// built-in timeout; with the default configuration a node whose cluster
// never forms blocks in bootstrap until the process is told to shut down.
//
// A Provider decides what membership means. StaticProvider fires member-up
// immediately and serves single-node deployments. NATSProvider registers the
// node in a shared JetStream KV bucket and fires once its own entry reads
// back, so every node in the bucket can see who is present.
//
// Service ties a provider and gate together as the "cluster-gate" bootstrap
// stage: Start joins and suspends on the gate, Stop withdraws membership.
package cluster
