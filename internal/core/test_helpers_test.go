package core

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/wirechat-sync/internal/proto"
)

type emitted struct {
	Event   string
	Payload any
}

// fakeChannel records emits and lets tests inject inbound events.
type fakeChannel struct {
	mu       sync.Mutex
	emits    []emitted
	handlers map[string]Handler
	err      error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{handlers: make(map[string]Handler)}
}

func (f *fakeChannel) Emit(_ context.Context, event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emits = append(f.emits, emitted{Event: event, Payload: payload})
	return f.err
}

func (f *fakeChannel) On(event string, h Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[event] = h
}

func (f *fakeChannel) deliver(t *testing.T, event string, payload any) {
	t.Helper()

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal %s payload: %v", event, err)
	}
	f.deliverRaw(t, event, raw)
}

func (f *fakeChannel) deliverRaw(t *testing.T, event string, raw json.RawMessage) {
	t.Helper()

	f.mu.Lock()
	h, ok := f.handlers[event]
	f.mu.Unlock()
	if !ok {
		t.Fatalf("no handler registered for %s", event)
	}
	h(context.Background(), raw)
}

// events returns the emitted events with the given name.
func (f *fakeChannel) events(event string) []emitted {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []emitted
	for _, e := range f.emits {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

// typingSignals returns the isTyping values emitted, in order.
func (f *fakeChannel) typingSignals() []bool {
	var out []bool
	for _, e := range f.events(proto.EventTyping) {
		out = append(out, e.Payload.(proto.TypingData).IsTyping)
	}
	return out
}

// waitForTyping polls until n typing signals were emitted.
func waitForTyping(t *testing.T, ch *fakeChannel, n int) []bool {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := ch.typingSignals(); len(got) >= n {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d typing signals, got %v", n, ch.typingSignals())
	return nil
}
