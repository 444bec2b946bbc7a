package agent

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/amanp27/voice-assistant/internal/logging"
)

const feedConnectTimeout = 15 * time.Second

// Feed consumes the runtime's websocket event stream and applies each event
// through the recorder.
type Feed struct {
	url      string
	recorder *Recorder
	log      *logging.Logger
}

// NewFeed creates a feed reading from the websocket URL.
func NewFeed(url string, rec *Recorder) *Feed {
	return &Feed{url: url, recorder: rec, log: logging.New("feed")}
}

// Run dials the feed and processes events until the context is cancelled or
// the connection closes. Malformed frames are logged and skipped; store
// failures abort the run.
func (f *Feed) Run(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: feedConnectTimeout}
	conn, _, err := dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return fmt.Errorf("dial feed %s: %w", f.url, err)
	}
	defer conn.Close()

	// Unblock ReadMessage when the context is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	f.log.Info("connected", map[string]any{"url": f.url})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				f.log.Info("feed_closed", nil)
				return nil
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return fmt.Errorf("feed timeout: %w", err)
			}
			return fmt.Errorf("read feed: %w", err)
		}

		e, err := Decode(data)
		if err != nil {
			f.log.Warn("bad_frame", map[string]any{"error": err.Error()})
			continue
		}
		if err := f.recorder.Handle(ctx, e); err != nil {
			return fmt.Errorf("handle %s: %w", e.Type, err)
		}
	}
}

// WebsocketPublisher publishes data-channel payloads over an outbound
// websocket connection.
type WebsocketPublisher struct {
	url string

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWebsocketPublisher creates a publisher that dials url lazily on first
// publish and redials after a failure.
func NewWebsocketPublisher(url string) *WebsocketPublisher {
	return &WebsocketPublisher{url: url}
}

// Publish sends one payload as a text frame.
func (p *WebsocketPublisher) Publish(ctx context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		dialer := websocket.Dialer{HandshakeTimeout: feedConnectTimeout}
		conn, _, err := dialer.DialContext(ctx, p.url, nil)
		if err != nil {
			return fmt.Errorf("dial broadcast %s: %w", p.url, err)
		}
		p.conn = conn
	}

	if deadline, ok := ctx.Deadline(); ok {
		p.conn.SetWriteDeadline(deadline)
	}
	if err := p.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		p.conn.Close()
		p.conn = nil
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Close tears down the outbound connection.
func (p *WebsocketPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}
