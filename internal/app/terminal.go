package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/vovakirdan/wirechat-sync/internal/core"
)

// Terminal is a line-oriented chat front end for a Session.
//
//	/peers        list known users
//	/peer NAME    open the conversation with NAME
//	anything else is sent to the open conversation
type Terminal struct {
	session *Session
	out     io.Writer

	shown  []core.Message
	typing map[string]bool
}

// NewTerminal builds a terminal writing to out.
func NewTerminal(session *Session, out io.Writer) *Terminal {
	return &Terminal{session: session, out: out, typing: map[string]bool{}}
}

// Run processes input lines until in is exhausted or ctx is cancelled.
func (t *Terminal) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.session.Changes():
			t.render()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			t.handleLine(ctx, line)
		}
	}
}

func (t *Terminal) handleLine(ctx context.Context, line string) {
	text := strings.TrimSpace(line)
	switch {
	case text == "":
		t.session.Keystroke(0)
	case text == "/peers":
		peers, err := t.session.Peers(ctx)
		if err != nil {
			fmt.Fprintf(t.out, "! %v\n", err)
			return
		}
		fmt.Fprintf(t.out, "peers: %s\n", strings.Join(peers, ", "))
	case strings.HasPrefix(text, "/peer "):
		t.Open(ctx, strings.TrimSpace(strings.TrimPrefix(text, "/peer ")))
	default:
		t.session.Keystroke(len(line))
		if _, err := t.session.Send(ctx, line); err != nil {
			fmt.Fprintf(t.out, "! %v\n", err)
		}
	}
}

// Open switches the conversation to peer.
func (t *Terminal) Open(ctx context.Context, peer string) {
	if err := t.session.SelectPeer(ctx, peer); err != nil {
		fmt.Fprintf(t.out, "! %v\n", err)
		return
	}
	t.shown = nil
	fmt.Fprintf(t.out, "-- chatting with %s --\n", peer)
}

// render prints messages that are new or whose id or status changed,
// and typing transitions of the open conversation's peer.
func (t *Terminal) render() {
	msgs := t.session.Messages()
	if len(msgs) < len(t.shown) {
		t.shown = nil
	}
	for i, m := range msgs {
		if i < len(t.shown) && t.shown[i].ID == m.ID && t.shown[i].Status == m.Status {
			continue
		}
		fmt.Fprintln(t.out, formatMessage(m, t.session.store.Self()))
	}
	t.shown = msgs

	peer := t.session.ActivePeer()
	typing := t.session.Typing()
	if peer != "" && typing[peer] && !t.typing[peer] {
		fmt.Fprintf(t.out, "%s is typing...\n", peer)
	}
	t.typing = typing
}

func formatMessage(m core.Message, self string) string {
	line := fmt.Sprintf("%s %s: %s", m.CreatedAt.Format("15:04"), m.Sender, m.Text)
	if m.Sender != self {
		return line
	}
	return line + " " + statusMark(m.Status)
}

func statusMark(s core.Status) string {
	switch s {
	case core.StatusSent:
		return "✔"
	case core.StatusDelivered:
		return "✔✔"
	case core.StatusSeen:
		return "✔✔ (seen)"
	default:
		return "…"
	}
}
