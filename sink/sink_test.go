package sink

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hagay3/baker/config"
	"github.com/hagay3/baker/engine"
	pkgerrors "github.com/hagay3/baker/errors"
	"github.com/hagay3/baker/metric"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEvent(name string) engine.Event {
	return engine.Event{
		ID:        "evt-1",
		Recipe:    "sourdough",
		Name:      name,
		Timestamp: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		Payload:   map[string]any{"loaves": float64(12)},
	}
}

func TestNew_NoneProvider(t *testing.T) {
	s, err := New(context.Background(), config.EventSink{Provider: config.SinkProviderNone},
		time.Second, WithLogger(testLogger()), WithMetrics(metric.NewMetrics()))

	require.NoError(t, err)
	require.NotNil(t, s)

	assert.NoError(t, s.Publish(context.Background(), testEvent("baked")))
	assert.NoError(t, s.Close(time.Second))
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(context.Background(), config.EventSink{Provider: "carrier-pigeon"},
		time.Second, WithLogger(testLogger()))

	require.Error(t, err)
	assert.True(t, pkgerrors.IsInvalid(err))
	assert.Contains(t, err.Error(), "carrier-pigeon")
}

func TestNew_WebSocketDialFailure(t *testing.T) {
	_, err := New(context.Background(), config.EventSink{
		Provider: config.SinkProviderWebSocket,
		URL:      "ws://127.0.0.1:1/events",
	}, 500*time.Millisecond, WithLogger(testLogger()))

	require.Error(t, err)
	assert.True(t, pkgerrors.IsTransient(err))
}

func TestNew_NATSConnectFailure(t *testing.T) {
	_, err := New(context.Background(), config.EventSink{
		Provider: config.SinkProviderNATS,
		URL:      "nats://127.0.0.1:1",
		Subject:  "bakery.events",
	}, 500*time.Millisecond, WithLogger(testLogger()))

	require.Error(t, err)
}

func TestNoopSink_PublishAfterClose(t *testing.T) {
	s := newNoop(testLogger(), nil)

	require.NoError(t, s.Publish(context.Background(), testEvent("baked")))
	require.NoError(t, s.Close(time.Second))

	err := s.Publish(context.Background(), testEvent("burnt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrSinkClosed)
}

func TestNoopSink_CloseIdempotent(t *testing.T) {
	s := newNoop(testLogger(), nil)

	require.NoError(t, s.Close(time.Second))
	require.NoError(t, s.Close(time.Second))
}

func TestLimitedSink_PacesPublishes(t *testing.T) {
	s := newLimited(newNoop(testLogger(), nil), 100)

	start := time.Now()
	for range 15 {
		require.NoError(t, s.Publish(context.Background(), testEvent("baked")))
	}
	elapsed := time.Since(start)

	// 100/s with burst 10 leaves five paced publishes at 10ms apiece.
	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
}

func TestLimitedSink_WaitCancelled(t *testing.T) {
	s := newLimited(newNoop(testLogger(), nil), 1)

	require.NoError(t, s.Publish(context.Background(), testEvent("baked")))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := s.Publish(ctx, testEvent("burnt"))
	require.Error(t, err)
}

func TestLimitedSink_CloseDelegates(t *testing.T) {
	inner := newNoop(testLogger(), nil)
	s := newLimited(inner, 10)

	require.NoError(t, s.Close(time.Second))
	assert.True(t, inner.closed.Load())
}
