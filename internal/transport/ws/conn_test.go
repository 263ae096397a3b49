package ws

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/wirechat-sync/internal/core"
	"github.com/vovakirdan/wirechat-sync/internal/proto"
)

// startRelay serves a WebSocket endpoint driven by script.
func startRelay(t *testing.T, script func(ctx context.Context, conn *websocket.Conn)) string {
	t.Helper()

	ts := httptest.NewServer(stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Errorf("accept: %v", err)
			return
		}
		defer conn.Close(websocket.StatusInternalError, "script ended")
		script(r.Context(), conn)
	}))
	t.Cleanup(ts.Close)

	return strings.Replace(ts.URL, "http", "ws", 1)
}

func writeEnvelope(ctx context.Context, t *testing.T, conn *websocket.Conn, event string, payload any) {
	t.Helper()

	data, err := json.Marshal(payload)
	if err != nil {
		t.Errorf("marshal: %v", err)
		return
	}
	if err := wsjson.Write(ctx, conn, proto.Envelope{Event: event, Data: data}); err != nil {
		t.Errorf("write %s: %v", event, err)
	}
}

func dialTest(t *testing.T, url string) (*Conn, context.Context) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	c, err := Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, ctx
}

func TestEmitWritesEnvelope(t *testing.T) {
	received := make(chan proto.Envelope, 1)
	url := startRelay(t, func(ctx context.Context, conn *websocket.Conn) {
		var env proto.Envelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			t.Errorf("relay read: %v", err)
			return
		}
		received <- env
		conn.Close(websocket.StatusNormalClosure, "done")
	})

	c, ctx := dialTest(t, url)
	go func() { _ = c.Run(ctx) }()

	if err := c.Emit(ctx, proto.EventSendMessage, proto.SendMessageData{Sender: "alice", Receiver: "bob", Message: "hi"}); err != nil {
		t.Fatalf("emit: %v", err)
	}

	select {
	case env := <-received:
		if env.Event != proto.EventSendMessage {
			t.Fatalf("unexpected event %q", env.Event)
		}
		var data proto.SendMessageData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			t.Fatalf("unmarshal data: %v", err)
		}
		if data.Sender != "alice" || data.Receiver != "bob" || data.Message != "hi" {
			t.Fatalf("unexpected payload: %+v", data)
		}
	case <-ctx.Done():
		t.Fatalf("relay did not receive the event")
	}
}

func TestRunDispatchesInOrderAndSkipsMalformed(t *testing.T) {
	url := startRelay(t, func(ctx context.Context, conn *websocket.Conn) {
		_ = conn.Write(ctx, websocket.MessageText, []byte("not json"))
		_ = conn.Write(ctx, websocket.MessageText, []byte(`{"data":{}}`))
		for _, text := range []string{"one", "two", "three"} {
			writeEnvelope(ctx, t, conn, proto.EventReceiveMessage, proto.MessageRecord{ID: text, Sender: "bob", Receiver: "alice", Message: text})
		}
		writeEnvelope(ctx, t, conn, "unknown_event", map[string]string{"x": "y"})
		conn.Close(websocket.StatusNormalClosure, "done")
	})

	c, ctx := dialTest(t, url)

	var mu sync.Mutex
	var got []string
	c.On(proto.EventReceiveMessage, func(_ context.Context, data json.RawMessage) {
		var rec proto.MessageRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			t.Errorf("unmarshal: %v", err)
			return
		}
		mu.Lock()
		got = append(got, rec.ID)
		mu.Unlock()
	})

	if err := c.Run(ctx); err != nil {
		t.Fatalf("run returned error on normal closure: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if strings.Join(got, ",") != "one,two,three" {
		t.Fatalf("unexpected dispatch order: %v", got)
	}
}

func TestMultipleHandlersShareEvent(t *testing.T) {
	url := startRelay(t, func(ctx context.Context, conn *websocket.Conn) {
		writeEnvelope(ctx, t, conn, proto.EventTypingStatus, proto.TypingData{Sender: "bob", IsTyping: true})
		conn.Close(websocket.StatusNormalClosure, "done")
	})

	c, ctx := dialTest(t, url)
	calls := 0
	for range 2 {
		c.On(proto.EventTypingStatus, func(context.Context, json.RawMessage) { calls++ })
	}
	if err := c.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected both handlers to run, got %d", calls)
	}
}

func TestStoreReconcilesOverWebSocket(t *testing.T) {
	url := startRelay(t, func(ctx context.Context, conn *websocket.Conn) {
		for {
			var env proto.Envelope
			if err := wsjson.Read(ctx, conn, &env); err != nil {
				return
			}
			if env.Event != proto.EventSendMessage {
				continue
			}
			var send proto.SendMessageData
			if err := json.Unmarshal(env.Data, &send); err != nil {
				t.Errorf("relay unmarshal: %v", err)
				return
			}
			writeEnvelope(ctx, t, conn, proto.EventSendConfirmation, proto.MessageRecord{
				ID:        "m1",
				Sender:    send.Sender,
				Receiver:  send.Receiver,
				Message:   send.Message,
				Status:    "sent",
				CreatedAt: time.Now().UTC(),
			})
			writeEnvelope(ctx, t, conn, proto.EventStatusBulk, proto.StatusBulkData{Sender: "bob", Status: "seen"})
		}
	})

	c, ctx := dialTest(t, url)
	st := core.NewConversationStore("alice", c)
	st.Attach(c)
	defer st.Close()
	go func() { _ = c.Run(ctx) }()

	st.SetActivePeer("bob")
	if _, err := st.SendMessage(ctx, "hi"); err != nil {
		t.Fatalf("send: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		msgs := st.Messages()
		if len(msgs) == 1 && msgs[0].ID == "m1" && msgs[0].Status == core.StatusSeen {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("message not reconciled: %+v", st.Messages())
}
