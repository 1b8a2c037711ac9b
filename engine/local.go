package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hagay3/baker/errors"
	"github.com/hagay3/baker/interaction"
	"github.com/hagay3/baker/metric"
	"github.com/hagay3/baker/recipe"
)

// Local is an in-process Engine. It stores recipes and fans events out to
// the attached sinks; recipe execution itself lives outside this process.
type Local struct {
	interactions *interaction.Registry
	logger       *slog.Logger
	metrics      *metric.Metrics

	mu      sync.RWMutex
	recipes map[string]recipe.Recipe
	sinks   []EventSink
}

// LocalOption configures a Local engine.
type LocalOption func(*Local)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) LocalOption {
	return func(e *Local) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics publishes recipe and event counters.
func WithMetrics(metrics *metric.Metrics) LocalOption {
	return func(e *Local) {
		e.metrics = metrics
	}
}

// NewLocal creates an engine dispatching to the given handler registry.
// A nil registry is treated as empty.
func NewLocal(registry *interaction.Registry, opts ...LocalOption) *Local {
	if registry == nil {
		registry = interaction.EmptyRegistry()
	}

	e := &Local{
		interactions: registry,
		logger:       slog.Default(),
		recipes:      make(map[string]recipe.Recipe),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("service", "engine")

	if e.metrics != nil {
		e.metrics.RecordInteractions(registry.Len())
	}

	return e
}

// AddRecipe installs a recipe, rejecting empty and duplicate ids.
func (e *Local) AddRecipe(_ context.Context, r recipe.Recipe) error {
	if r.ID == "" {
		return errors.WrapInvalid(
			errors.ErrRecipeInvalid, "LocalEngine", "AddRecipe", "recipe id validation")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.recipes[r.ID]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("%w: '%s'", errors.ErrDuplicateRecipe, r.ID),
			"LocalEngine", "AddRecipe", "duplicate recipe check")
	}

	e.recipes[r.ID] = r

	if e.metrics != nil {
		e.metrics.RecordRecipes(len(e.recipes))
	}

	e.logger.Info("Recipe installed",
		"id", r.ID,
		"name", r.Name,
		"version", r.Version,
		"interactions", strings.Join(r.Interactions, ","))

	return nil
}

// Recipes lists the installed recipes sorted by id.
func (e *Local) Recipes() []recipe.Recipe {
	e.mu.RLock()
	defer e.mu.RUnlock()

	list := make([]recipe.Recipe, 0, len(e.recipes))
	for _, r := range e.recipes {
		list = append(list, r)
	}
	slices.SortFunc(list, func(a, b recipe.Recipe) int {
		return strings.Compare(a.ID, b.ID)
	})

	return list
}

// AttachSink registers a sink. Every event emitted afterwards is published
// to it alongside previously attached sinks.
func (e *Local) AttachSink(sink EventSink) {
	if sink == nil {
		return
	}

	e.mu.Lock()
	e.sinks = append(e.sinks, sink)
	count := len(e.sinks)
	e.mu.Unlock()

	e.logger.Info("Event sink attached", "sinks", count)
}

// EmitEvent publishes the event to all attached sinks. A missing id or
// timestamp is filled in. With no sinks attached the event is dropped.
func (e *Local) EmitEvent(ctx context.Context, event Event) error {
	if event.Name == "" {
		return errors.WrapInvalid(
			fmt.Errorf("event requires a name"), "LocalEngine", "EmitEvent", "event validation")
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	e.mu.RLock()
	sinks := slices.Clone(e.sinks)
	e.mu.RUnlock()

	if len(sinks) == 0 {
		e.logger.Debug("Event dropped, no sink attached", "event", event.Name)
		return nil
	}

	for _, sink := range sinks {
		if err := sink.Publish(ctx, event); err != nil {
			return errors.WrapTransient(err, "LocalEngine", "EmitEvent", "sink publish")
		}
	}

	if e.metrics != nil {
		e.metrics.RecordEventEmitted(event.Recipe)
	}

	e.logger.Debug("Event emitted",
		"id", event.ID,
		"recipe", event.Recipe,
		"event", event.Name)

	return nil
}

// Interactions returns the handler registry.
func (e *Local) Interactions() *interaction.Registry {
	return e.interactions
}

// RegisterMetrics installs the engine's pull sampler. The sampler reads
// the store at scrape time, so reported counts cannot drift from the
// actual state the way push gauges can.
func (e *Local) RegisterMetrics(registrar metric.MetricsRegistrar) error {
	return registrar.RegisterSampler("engine", "state", e.sampleState)
}

func (e *Local) sampleState() []metric.Sample {
	e.mu.RLock()
	recipes := len(e.recipes)
	sinks := len(e.sinks)
	e.mu.RUnlock()

	return []metric.Sample{
		{
			Name:  "bakery_engine_live_recipes",
			Help:  "Recipes installed, read at scrape time",
			Value: float64(recipes),
		},
		{
			Name:  "bakery_engine_attached_sinks",
			Help:  "Event sinks attached, read at scrape time",
			Value: float64(sinks),
		},
	}
}
