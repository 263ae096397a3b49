package core

import (
	"context"
	"encoding/json"
)

// Handler receives the raw payload of an inbound event.
type Handler func(ctx context.Context, data json.RawMessage)

// EventChannel is the bidirectional event transport to the relay.
// Implementations deliver inbound events to handlers registered with On,
// one at a time and in arrival order.
type EventChannel interface {
	Emit(ctx context.Context, event string, payload any) error
	On(event string, h Handler)
}
