package core

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

type typingLog struct {
	mu      sync.Mutex
	signals []string
}

func (l *typingLog) emit(peer string, typing bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	state := "stop"
	if typing {
		state = "start"
	}
	l.signals = append(l.signals, peer+":"+state)
}

func (l *typingLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.signals))
	copy(out, l.signals)
	return out
}

func (l *typingLog) waitFor(t *testing.T, n int) []string {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := l.snapshot(); len(got) >= n {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d signals, got %v", n, l.snapshot())
	return nil
}

func equalSignals(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestTypingSingleKeystrokeExpires(t *testing.T) {
	mock := clock.NewMock()
	log := &typingLog{}
	tr := NewTypingTracker(log.emit, mock, 0)

	tr.OnLocalKeystroke("bob", 3)
	if !tr.Pending("bob") {
		t.Fatalf("expected pending stop signal")
	}

	mock.Add(1999 * time.Millisecond)
	if got := log.snapshot(); !equalSignals(got, []string{"bob:start"}) {
		t.Fatalf("unexpected signals before timeout: %v", got)
	}

	mock.Add(time.Millisecond)
	got := log.waitFor(t, 2)
	if !equalSignals(got, []string{"bob:start", "bob:stop"}) {
		t.Fatalf("unexpected signals: %v", got)
	}

	mock.Add(10 * time.Second)
	time.Sleep(20 * time.Millisecond)
	if got := log.snapshot(); len(got) != 2 {
		t.Fatalf("expected exactly one stop, got %v", got)
	}
	if tr.Pending("bob") {
		t.Fatalf("timer should be cleared after firing")
	}
}

func TestTypingDebounceTimedFromLastKeystroke(t *testing.T) {
	mock := clock.NewMock()
	log := &typingLog{}
	tr := NewTypingTracker(log.emit, mock, 2*time.Second)

	tr.OnLocalKeystroke("bob", 1)
	mock.Add(500 * time.Millisecond)
	tr.OnLocalKeystroke("bob", 2)
	mock.Add(500 * time.Millisecond)
	tr.OnLocalKeystroke("bob", 3)

	// 2.999s after the first keystroke but only 1.999s after the last.
	mock.Add(1999 * time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	for _, s := range log.snapshot() {
		if s == "bob:stop" {
			t.Fatalf("stop emitted before the last keystroke timed out: %v", log.snapshot())
		}
	}

	mock.Add(time.Millisecond)
	got := log.waitFor(t, 4)
	if !equalSignals(got, []string{"bob:start", "bob:start", "bob:start", "bob:stop"}) {
		t.Fatalf("unexpected signals: %v", got)
	}

	mock.Add(5 * time.Second)
	time.Sleep(20 * time.Millisecond)
	if got := log.snapshot(); len(got) != 4 {
		t.Fatalf("expected a single stop signal, got %v", got)
	}
}

func TestTypingEmptyInputStopsImmediately(t *testing.T) {
	mock := clock.NewMock()
	log := &typingLog{}
	tr := NewTypingTracker(log.emit, mock, 0)

	tr.OnLocalKeystroke("bob", 4)
	tr.OnLocalKeystroke("bob", 0)

	if got := log.snapshot(); !equalSignals(got, []string{"bob:start", "bob:stop"}) {
		t.Fatalf("unexpected signals: %v", got)
	}
	if tr.Pending("bob") {
		t.Fatalf("timer should be cancelled by empty input")
	}

	mock.Add(5 * time.Second)
	time.Sleep(20 * time.Millisecond)
	if got := log.snapshot(); len(got) != 2 {
		t.Fatalf("cancelled timer fired: %v", got)
	}
}

func TestTypingTimersArePerPeer(t *testing.T) {
	mock := clock.NewMock()
	log := &typingLog{}
	tr := NewTypingTracker(log.emit, mock, 2*time.Second)

	tr.OnLocalKeystroke("bob", 1)
	mock.Add(time.Second)
	tr.OnLocalKeystroke("carol", 1)

	mock.Add(time.Second)
	got := log.waitFor(t, 3)
	if !equalSignals(got, []string{"bob:start", "carol:start", "bob:stop"}) {
		t.Fatalf("unexpected signals: %v", got)
	}
	if !tr.Pending("carol") {
		t.Fatalf("carol's timer must survive bob's expiry")
	}

	mock.Add(time.Second)
	got = log.waitFor(t, 4)
	if got[3] != "carol:stop" {
		t.Fatalf("unexpected signals: %v", got)
	}
}

func TestTypingRemoteStateHasNoExpiry(t *testing.T) {
	mock := clock.NewMock()
	tr := NewTypingTracker(nil, mock, 0)

	tr.OnRemoteTyping("bob", true)
	mock.Add(time.Hour)
	if !tr.IsTyping("bob") {
		t.Fatalf("remote typing state should persist until contradicted")
	}

	tr.OnRemoteTyping("bob", false)
	if tr.IsTyping("bob") {
		t.Fatalf("expected bob to stop typing")
	}
	if _, ok := tr.Snapshot()["bob"]; ok {
		t.Fatalf("false entries should be removed from the snapshot")
	}
}

func TestTypingCloseCancelsWithoutEmitting(t *testing.T) {
	mock := clock.NewMock()
	log := &typingLog{}
	tr := NewTypingTracker(log.emit, mock, 0)

	tr.OnLocalKeystroke("bob", 1)
	tr.Close()
	mock.Add(5 * time.Second)
	time.Sleep(20 * time.Millisecond)

	if got := log.snapshot(); !equalSignals(got, []string{"bob:start"}) {
		t.Fatalf("unexpected signals after close: %v", got)
	}
}

func TestTypingLastSignalMatchesPendingTimer(t *testing.T) {
	for i := range 200 {
		log := &typingLog{}
		tr := NewTypingTracker(log.emit, clock.NewMock(), 0)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			tr.OnLocalKeystroke("bob", 3)
		}()
		go func() {
			defer wg.Done()
			tr.Stop("bob")
		}()
		wg.Wait()

		got := log.snapshot()
		if len(got) != 2 {
			t.Fatalf("iteration %d: expected two signals, got %v", i, got)
		}
		want := "bob:stop"
		if tr.Pending("bob") {
			want = "bob:start"
		}
		if got[1] != want {
			t.Fatalf("iteration %d: last signal %q with pending=%v", i, got[1], tr.Pending("bob"))
		}
		tr.Close()
	}
}
