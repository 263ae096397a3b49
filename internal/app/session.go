package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-sync/internal/core"
)

// Directory is the REST side of the relay: history and known users.
type Directory interface {
	History(ctx context.Context, sender, receiver string) ([]core.Message, error)
	Users(ctx context.Context, currentUser string) ([]string, error)
}

// Session drives one user's conversations: it combines the store with the
// relay's REST directory for peer selection.
type Session struct {
	store *core.ConversationStore
	dir   Directory
	log   *zerolog.Logger
}

// NewSession builds a session around store.
func NewSession(store *core.ConversationStore, dir Directory, logger *zerolog.Logger) *Session {
	return &Session{store: store, dir: dir, log: logger}
}

// Start announces the user to the relay.
func (s *Session) Start(ctx context.Context) error {
	if err := s.store.Join(ctx); err != nil {
		return fmt.Errorf("join: %w", err)
	}
	s.log.Info().Str("user", s.store.Self()).Msg("joined relay")
	return nil
}

// Peers lists the users the local user can talk to.
func (s *Session) Peers(ctx context.Context) ([]string, error) {
	return s.dir.Users(ctx, s.store.Self())
}

// SelectPeer opens the conversation with peer: it loads the history,
// makes peer active and acknowledges its messages as delivered and seen.
// On fetch failure the current conversation is left untouched.
func (s *Session) SelectPeer(ctx context.Context, peer string) error {
	if peer == "" {
		return core.ErrNoActivePeer
	}
	history, err := s.dir.History(ctx, s.store.Self(), peer)
	if err != nil {
		return err
	}

	s.store.LoadHistory(history)
	s.store.SetActivePeer(peer)
	s.store.MarkDelivered(ctx, peer)
	s.store.OnPeerActivated(ctx, peer)

	s.log.Debug().Str("peer", peer).Int("messages", len(history)).Msg("conversation opened")
	return nil
}

// Send submits text to the active peer.
func (s *Session) Send(ctx context.Context, text string) (core.Message, error) {
	return s.store.SendMessage(ctx, text)
}

// Keystroke reports the current input length for the active peer.
func (s *Session) Keystroke(length int) {
	s.store.Keystroke(length)
}

// ActivePeer returns the open conversation partner.
func (s *Session) ActivePeer() string {
	return s.store.ActivePeer()
}

// Messages returns the current message sequence.
func (s *Session) Messages() []core.Message {
	return s.store.Messages()
}

// Typing returns the peers currently typing.
func (s *Session) Typing() map[string]bool {
	return s.store.Typing()
}

// Changes forwards the store's change notifications.
func (s *Session) Changes() <-chan struct{} {
	return s.store.Changes()
}
