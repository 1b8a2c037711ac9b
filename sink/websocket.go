package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/hagay3/baker/config"
	"github.com/hagay3/baker/engine"
	"github.com/hagay3/baker/errors"
	"github.com/hagay3/baker/metric"
	"github.com/hagay3/baker/pkg/timestamp"
)

const (
	wsSendBuffer   = 100
	wsWriteTimeout = 10 * time.Second
	wsPongWait     = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsCloseGrace   = time.Second
)

// envelope frames every outgoing websocket message with type
// discrimination and a correlation id.
type envelope struct {
	Type      string          `json:"type"`
	ID        string          `json:"id"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// wsSink delivers events over one outbound websocket connection. A single
// write pump owns the connection for writes; gorilla connections do not
// tolerate concurrent writers.
type wsSink struct {
	conn    *websocket.Conn
	url     string
	logger  *slog.Logger
	metrics *metric.Metrics

	send       chan []byte
	shutdown   chan struct{}
	readerDone chan struct{}
	pumpCtx    context.Context
	group      *errgroup.Group

	closed    atomic.Bool
	counter   atomic.Uint64
	closeOnce sync.Once
}

func newWebSocket(
	ctx context.Context,
	cfg config.EventSink,
	connectTimeout time.Duration,
	logger *slog.Logger,
	metrics *metric.Metrics,
) (*wsSink, error) {
	dialer := websocket.Dialer{HandshakeTimeout: connectTimeout}

	conn, resp, err := dialer.DialContext(ctx, cfg.URL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, errors.WrapTransient(
			fmt.Errorf("dial '%s': %w", cfg.URL, err), "WebSocketSink", "New", "connect")
	}

	s := &wsSink{
		conn:       conn,
		url:        cfg.URL,
		logger:     logger,
		metrics:    metrics,
		send:       make(chan []byte, wsSendBuffer),
		shutdown:   make(chan struct{}),
		readerDone: make(chan struct{}),
	}

	// The pumps outlive the bootstrap context; the sink's own shutdown
	// channel and connection teardown bound their lifetime.
	group, pumpCtx := errgroup.WithContext(context.Background())
	s.group = group
	s.pumpCtx = pumpCtx

	group.Go(func() error {
		err := s.writePump(pumpCtx)
		if err != nil {
			s.closeConn()
		}
		return err
	})
	group.Go(func() error {
		defer close(s.readerDone)
		return s.readPump()
	})

	if metrics != nil {
		metrics.RecordSinkStatus(true)
	}
	logger.Info("Event sink connected", "provider", config.SinkProviderWebSocket, "url", cfg.URL)

	return s, nil
}

func (s *wsSink) Publish(ctx context.Context, event engine.Event) error {
	if s.closed.Load() {
		return errors.WrapInvalid(errors.ErrSinkClosed, "WebSocketSink", "Publish", "state check")
	}
	if s.pumpCtx.Err() != nil {
		if s.metrics != nil {
			s.metrics.RecordSinkError(config.SinkProviderWebSocket, "connection_lost")
		}
		return errors.WrapTransient(
			fmt.Errorf("%w: '%s'", errors.ErrConnectionLost, s.url),
			"WebSocketSink", "Publish", "connection check")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordSinkError(config.SinkProviderWebSocket, "encode")
		}
		return errors.WrapInvalid(err, "WebSocketSink", "Publish", "event encode")
	}

	now := timestamp.Now()
	data, err := json.Marshal(envelope{
		Type:      "event",
		ID:        fmt.Sprintf("evt-%d-%d", now, s.counter.Add(1)),
		Timestamp: now,
		Payload:   payload,
	})
	if err != nil {
		return errors.WrapInvalid(err, "WebSocketSink", "Publish", "envelope encode")
	}

	select {
	case s.send <- data:
		if s.metrics != nil {
			s.metrics.RecordSinkPublished(config.SinkProviderWebSocket)
		}
		return nil
	case <-s.pumpCtx.Done():
		if s.metrics != nil {
			s.metrics.RecordSinkError(config.SinkProviderWebSocket, "connection_lost")
		}
		return errors.WrapTransient(
			fmt.Errorf("%w: '%s'", errors.ErrConnectionLost, s.url),
			"WebSocketSink", "Publish", "enqueue")
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "WebSocketSink", "Publish", "enqueue")
	}
}

func (s *wsSink) Close(timeout time.Duration) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	close(s.shutdown)

	if s.metrics != nil {
		s.metrics.RecordSinkStatus(false)
	}

	// Give the peer one grace period to echo the close frame, then force
	// the reader off the connection.
	select {
	case <-s.readerDone:
	case <-time.After(wsCloseGrace):
	}
	s.closeConn()

	done := make(chan error, 1)
	go func() { done <- s.group.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			return errors.WrapTransient(err, "WebSocketSink", "Close", "pump shutdown")
		}
	case <-time.After(timeout):
		return errors.WrapTransient(
			fmt.Errorf("pumps still running after %s", timeout),
			"WebSocketSink", "Close", "shutdown wait")
	}

	s.logger.Info("Event sink closed", "provider", config.SinkProviderWebSocket)

	return nil
}

// writePump is the connection's only writer. It drains the send queue,
// keeps the connection alive with pings and emits the close frame on
// shutdown.
func (s *wsSink) writePump(ctx context.Context) error {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case data := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return fmt.Errorf("write: %w", err)
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
		case <-s.shutdown:
			_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			_ = s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// readPump consumes control frames so pongs and close frames are
// processed. A close initiated by the peer fails the pump group, which
// surfaces on the next Publish.
func (s *wsSink) readPump() error {
	_ = s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			select {
			case <-s.shutdown:
				return nil
			default:
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return fmt.Errorf("connection closed by peer: %w", err)
			}
			return fmt.Errorf("read: %w", err)
		}
	}
}

func (s *wsSink) closeConn() {
	s.closeOnce.Do(func() {
		if err := s.conn.Close(); err != nil {
			s.logger.Debug("Websocket close", "error", err)
		}
	})
}
