package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-sync/internal/core"
	"github.com/vovakirdan/wirechat-sync/internal/proto"
)

// Conn is a core.EventChannel over a WebSocket connection to the relay.
// Inbound events are dispatched by Run on a single goroutine, in order.
type Conn struct {
	conn *websocket.Conn
	log  *zerolog.Logger

	mu       sync.RWMutex
	handlers map[string][]core.Handler
}

var _ core.EventChannel = (*Conn)(nil)

// Dial connects to the relay at url.
func Dial(ctx context.Context, url string, logger *zerolog.Logger) (*Conn, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return New(conn, logger), nil
}

// New wraps an established connection.
func New(conn *websocket.Conn, logger *zerolog.Logger) *Conn {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Conn{
		conn:     conn,
		log:      logger,
		handlers: make(map[string][]core.Handler),
	}
}

// On registers h for event. Several handlers may share an event.
func (c *Conn) On(event string, h core.Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = append(c.handlers[event], h)
}

// Emit sends event with payload wrapped in a proto.Envelope.
func (c *Conn) Emit(ctx context.Context, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event, err)
	}
	if err := wsjson.Write(ctx, c.conn, proto.Envelope{Event: event, Data: data}); err != nil {
		return fmt.Errorf("write %s: %w", event, err)
	}
	return nil
}

// Run reads frames until ctx is cancelled or the connection closes.
// A normal closure returns nil.
func (c *Conn) Run(ctx context.Context) error {
	for {
		typ, frame, err := c.conn.Read(ctx)
		if err != nil {
			return closeError(err)
		}
		if typ != websocket.MessageText {
			c.log.Debug().Msg("ignoring binary frame")
			continue
		}

		var env proto.Envelope
		if err := json.Unmarshal(frame, &env); err != nil || env.Event == "" {
			c.log.Debug().Err(err).Msg("ignoring malformed frame")
			continue
		}
		c.dispatch(ctx, env)
	}
}

func (c *Conn) dispatch(ctx context.Context, env proto.Envelope) {
	c.mu.RLock()
	handlers := c.handlers[env.Event]
	c.mu.RUnlock()

	if len(handlers) == 0 {
		c.log.Debug().Str("event", env.Event).Msg("no handler for event")
		return
	}
	for _, h := range handlers {
		h(ctx, env.Data)
	}
}

// Close closes the connection with a normal closure status.
func (c *Conn) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "bye")
}

func closeError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return nil
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return nil
	}
	return err
}
