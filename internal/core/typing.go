package core

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultTypingTimeout is the inactivity period after which a stop signal is sent.
const DefaultTypingTimeout = 2 * time.Second

// TypingEmitter publishes the local user's typing state towards peer.
type TypingEmitter func(peer string, typing bool)

// TypingTracker debounces outgoing typing signals per peer and keeps the
// last typing state reported by each remote peer.
type TypingTracker struct {
	// emitMu orders each timer change with its signal, so the last signal
	// sent for a peer always matches whether a timer is pending.
	emitMu sync.Mutex

	mu      sync.Mutex
	clock   clock.Clock
	timeout time.Duration
	emit    TypingEmitter
	timers  map[string]*clock.Timer
	remote  map[string]bool
}

// NewTypingTracker builds a tracker. A nil clock uses wall time and a
// non-positive timeout falls back to DefaultTypingTimeout.
func NewTypingTracker(emit TypingEmitter, clk clock.Clock, timeout time.Duration) *TypingTracker {
	if clk == nil {
		clk = clock.New()
	}
	if timeout <= 0 {
		timeout = DefaultTypingTimeout
	}
	if emit == nil {
		emit = func(string, bool) {}
	}
	return &TypingTracker{
		clock:   clk,
		timeout: timeout,
		emit:    emit,
		timers:  make(map[string]*clock.Timer),
		remote:  make(map[string]bool),
	}
}

// OnLocalKeystroke reacts to the local input for peer changing to textLength
// characters. Non-empty input advertises typing and restarts the peer's
// debounce timer; empty input stops typing at once.
func (t *TypingTracker) OnLocalKeystroke(peer string, textLength int) {
	if peer == "" {
		return
	}
	if textLength <= 0 {
		t.Stop(peer)
		return
	}

	t.emitMu.Lock()
	defer t.emitMu.Unlock()

	t.mu.Lock()
	if prev, ok := t.timers[peer]; ok {
		prev.Stop()
	}
	var timer *clock.Timer
	timer = t.clock.AfterFunc(t.timeout, func() {
		t.expire(peer, timer)
	})
	t.timers[peer] = timer
	t.mu.Unlock()

	t.emit(peer, true)
}

// Stop cancels any pending timer for peer and emits typing=false.
func (t *TypingTracker) Stop(peer string) {
	if peer == "" {
		return
	}
	t.emitMu.Lock()
	defer t.emitMu.Unlock()

	t.mu.Lock()
	if prev, ok := t.timers[peer]; ok {
		prev.Stop()
		delete(t.timers, peer)
	}
	t.mu.Unlock()

	t.emit(peer, false)
}

func (t *TypingTracker) expire(peer string, timer *clock.Timer) {
	t.emitMu.Lock()
	defer t.emitMu.Unlock()

	t.mu.Lock()
	// A newer keystroke replaced this timer; only the latest may fire.
	if t.timers[peer] != timer {
		t.mu.Unlock()
		return
	}
	delete(t.timers, peer)
	t.mu.Unlock()

	t.emit(peer, false)
}

// Pending reports whether a stop signal is scheduled for peer.
func (t *TypingTracker) Pending(peer string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.timers[peer]
	return ok
}

// OnRemoteTyping records what peer reported about its own typing state.
// No timer is involved; the remote side clears its own signal.
func (t *TypingTracker) OnRemoteTyping(peer string, isTyping bool) {
	if peer == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if isTyping {
		t.remote[peer] = true
		return
	}
	delete(t.remote, peer)
}

// IsTyping reports whether peer is known to be typing.
func (t *TypingTracker) IsTyping(peer string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remote[peer]
}

// Snapshot returns a copy of the remote typing map.
func (t *TypingTracker) Snapshot() map[string]bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]bool, len(t.remote))
	for peer, typing := range t.remote {
		out[peer] = typing
	}
	return out
}

// Close cancels all pending stop signals without emitting them.
func (t *TypingTracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for peer, timer := range t.timers {
		timer.Stop()
		delete(t.timers, peer)
	}
}
