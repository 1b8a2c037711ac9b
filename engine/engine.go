package engine

import (
	"context"
	"time"

	"github.com/hagay3/baker/interaction"
	"github.com/hagay3/baker/recipe"
)

// Event is one occurrence emitted by a recipe through the engine.
type Event struct {
	ID        string         `json:"id"`
	Recipe    string         `json:"recipe"`
	Name      string         `json:"name"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// EventSink consumes engine events. Implementations must tolerate
// concurrent Publish calls.
type EventSink interface {
	// Publish delivers one event. An error fails the emit.
	Publish(ctx context.Context, event Event) error

	// Close releases the sink. Publish after Close returns an error.
	Close(timeout time.Duration) error
}

// Engine is the execution-engine boundary the bootstrap sequence hands
// recipes and sinks to. How recipes actually run is the engine's business;
// bootstrap only installs, attaches and lists.
type Engine interface {
	// AddRecipe installs a recipe. Duplicate ids are rejected.
	AddRecipe(ctx context.Context, r recipe.Recipe) error

	// Recipes lists the installed recipes sorted by id.
	Recipes() []recipe.Recipe

	// AttachSink registers a sink to receive every subsequent event.
	AttachSink(sink EventSink)

	// EmitEvent publishes an event to all attached sinks.
	EmitEvent(ctx context.Context, event Event) error

	// Interactions returns the handler registry the engine dispatches to.
	Interactions() *interaction.Registry
}
