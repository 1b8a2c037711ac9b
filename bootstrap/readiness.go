package bootstrap

import "sync/atomic"

// Readiness is the flag behind the readiness probe. It flips to true
// exactly once, after every bootstrap stage has been acquired, and is
// never reset: a process that begins shutting down keeps reporting
// ready until it exits, so probes distinguish "never came up" from
// "going down".
type Readiness struct {
	ready atomic.Bool
}

// NewReadiness returns a flag in the not-ready state.
func NewReadiness() *Readiness {
	return &Readiness{}
}

// Ready reports whether the bootstrap sequence completed.
func (r *Readiness) Ready() bool {
	return r.ready.Load()
}

// set flips the flag. Only the composer calls this, once, after the
// final stage starts.
func (r *Readiness) set() {
	r.ready.Store(true)
}
