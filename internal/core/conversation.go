package core

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-sync/internal/proto"
	"github.com/vovakirdan/wirechat-sync/internal/utils"
)

const defaultEmitTimeout = 5 * time.Second

// ConversationStore owns the message sequence of the active conversation
// and is the only place it is mutated. Every exported method runs as one
// atomic unit; emits to the channel happen after the state change.
type ConversationStore struct {
	self string
	ch   EventChannel
	log  *zerolog.Logger

	clock       clock.Clock
	emitTimeout time.Duration
	typing      *TypingTracker

	mu       sync.Mutex
	peer     string
	messages []Message
	changes  chan struct{}
}

// Option configures a ConversationStore.
type Option func(*storeOptions)

type storeOptions struct {
	logger        *zerolog.Logger
	clock         clock.Clock
	typingTimeout time.Duration
	emitTimeout   time.Duration
}

// WithLogger sets the logger used for dropped events and emit failures.
func WithLogger(l *zerolog.Logger) Option {
	return func(o *storeOptions) { o.logger = l }
}

// WithClock sets the time source for timestamps and typing timers.
func WithClock(c clock.Clock) Option {
	return func(o *storeOptions) { o.clock = c }
}

// WithTypingTimeout overrides the typing inactivity period.
func WithTypingTimeout(d time.Duration) Option {
	return func(o *storeOptions) { o.typingTimeout = d }
}

// WithEmitTimeout bounds emits that are not tied to a caller context,
// such as the delayed typing stop signal.
func WithEmitTimeout(d time.Duration) Option {
	return func(o *storeOptions) { o.emitTimeout = d }
}

// NewConversationStore creates a store for the local user self that emits on ch.
func NewConversationStore(self string, ch EventChannel, opts ...Option) *ConversationStore {
	o := storeOptions{
		clock:         clock.New(),
		typingTimeout: DefaultTypingTimeout,
		emitTimeout:   defaultEmitTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		nop := zerolog.Nop()
		o.logger = &nop
	}
	logger := o.logger.With().Str("component", "conversation").Str("user", self).Logger()

	s := &ConversationStore{
		self:        self,
		ch:          ch,
		log:         &logger,
		clock:       o.clock,
		emitTimeout: o.emitTimeout,
		changes:     make(chan struct{}, 1),
	}
	s.typing = NewTypingTracker(s.emitTyping, o.clock, o.typingTimeout)
	return s
}

// Self returns the local user.
func (s *ConversationStore) Self() string {
	return s.self
}

// Join announces the local user on the channel.
func (s *ConversationStore) Join(ctx context.Context) error {
	return s.ch.Emit(ctx, proto.EventJoin, proto.JoinData{User: s.self})
}

// SetActivePeer selects the conversation partner for subsequent sends.
func (s *ConversationStore) SetActivePeer(peer string) {
	s.mu.Lock()
	s.peer = peer
	s.mu.Unlock()
	s.notify()
}

// ActivePeer returns the current conversation partner, or "".
func (s *ConversationStore) ActivePeer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peer
}

// LoadHistory replaces the whole sequence. Pending temporary messages of
// the previous conversation are abandoned.
func (s *ConversationStore) LoadHistory(messages []Message) {
	seq := make([]Message, len(messages))
	copy(seq, messages)

	s.mu.Lock()
	s.messages = seq
	s.mu.Unlock()
	s.notify()
}

// SendMessage optimistically appends a message to the active peer and
// submits it to the relay. Without an active peer or with blank text it
// changes nothing and returns ErrNoActivePeer or ErrEmptyMessage.
func (s *ConversationStore) SendMessage(ctx context.Context, text string) (Message, error) {
	s.mu.Lock()
	peer := s.peer
	if peer == "" {
		s.mu.Unlock()
		return Message{}, ErrNoActivePeer
	}
	if strings.TrimSpace(text) == "" {
		s.mu.Unlock()
		return Message{}, ErrEmptyMessage
	}
	msg := Message{
		ID:        utils.NewTempID(),
		Sender:    s.self,
		Receiver:  peer,
		Text:      text,
		Status:    StatusSending,
		CreatedAt: s.clock.Now(),
		Temp:      true,
	}
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	s.notify()

	s.emit(ctx, proto.EventSendMessage, proto.SendMessageData{
		Sender:   msg.Sender,
		Receiver: msg.Receiver,
		Message:  msg.Text,
	})
	s.typing.Stop(peer)
	return msg, nil
}

// Keystroke reports the length of the local input for the active peer.
func (s *ConversationStore) Keystroke(textLength int) {
	peer := s.ActivePeer()
	if peer == "" {
		return
	}
	s.typing.OnLocalKeystroke(peer, textLength)
}

// OnReceiveMessage appends an inbound message and acknowledges delivery
// when the local user is the receiver. A repeated canonical id is ignored.
func (s *ConversationStore) OnReceiveMessage(ctx context.Context, msg Message) {
	msg.Temp = false

	s.mu.Lock()
	if msg.ID != "" && s.indexOf(msg.ID) >= 0 {
		s.mu.Unlock()
		s.log.Debug().Str("message_id", msg.ID).Msg("duplicate inbound message dropped")
		return
	}
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	s.notify()

	if msg.Receiver == s.self {
		s.emit(ctx, proto.EventMarkDelivered, proto.MarkData{
			Sender:   msg.Sender,
			Receiver: s.self,
		})
	}
}

// OnSendConfirmation swaps the matching optimistic entry for its canonical
// record. Confirmations with no pending match, or for a canonical id that
// is already present, are no-ops.
func (s *ConversationStore) OnSendConfirmation(confirmed Message) bool {
	s.mu.Lock()
	if confirmed.ID != "" && s.indexOf(confirmed.ID) >= 0 {
		s.mu.Unlock()
		s.log.Debug().Str("message_id", confirmed.ID).Msg("duplicate confirmation dropped")
		return false
	}
	idx, ok := Reconcile(s.messages, confirmed)
	s.mu.Unlock()

	if !ok {
		s.log.Debug().Str("message_id", confirmed.ID).Msg("confirmation without pending message")
		return false
	}
	s.log.Debug().Str("message_id", confirmed.ID).Int("index", idx).Msg("message reconciled")
	s.notify()
	return true
}

// OnStatusUpdate upgrades the status of the local user's message id.
func (s *ConversationStore) OnStatusUpdate(id string, status Status) bool {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 || s.messages[idx].Sender != s.self || !ShouldUpgrade(s.messages[idx].Status, status) {
		s.mu.Unlock()
		return false
	}
	s.messages[idx].Status = status
	s.mu.Unlock()
	s.notify()
	return true
}

// OnBulkStatusUpdate upgrades every message the local user sent to peer.
// It returns how many messages changed.
func (s *ConversationStore) OnBulkStatusUpdate(peer string, status Status) int {
	s.mu.Lock()
	changed := 0
	for i := range s.messages {
		m := &s.messages[i]
		if m.Sender != s.self || m.Receiver != peer {
			continue
		}
		if ShouldUpgrade(m.Status, status) {
			m.Status = status
			changed++
		}
	}
	s.mu.Unlock()

	if changed > 0 {
		s.notify()
	}
	return changed
}

// OnPeerActivated tells the relay the conversation with peer is open.
// Repeating it is harmless.
func (s *ConversationStore) OnPeerActivated(ctx context.Context, peer string) {
	if peer == "" {
		return
	}
	s.emit(ctx, proto.EventMarkSeen, proto.MarkData{
		Sender:   peer,
		Receiver: s.self,
	})
}

// MarkDelivered acknowledges every message received from peer.
func (s *ConversationStore) MarkDelivered(ctx context.Context, peer string) {
	if peer == "" {
		return
	}
	s.emit(ctx, proto.EventMarkDelivered, proto.MarkData{
		Sender:   peer,
		Receiver: s.self,
	})
}

// OnRemoteTyping records a typing signal from peer.
func (s *ConversationStore) OnRemoteTyping(peer string, isTyping bool) {
	s.typing.OnRemoteTyping(peer, isTyping)
	s.notify()
}

// Messages returns a copy of the current sequence.
func (s *ConversationStore) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Typing returns which peers are currently known to be typing.
func (s *ConversationStore) Typing() map[string]bool {
	return s.typing.Snapshot()
}

// Changes signals after any state change. Bursts are coalesced.
func (s *ConversationStore) Changes() <-chan struct{} {
	return s.changes
}

// Close cancels pending typing timers.
func (s *ConversationStore) Close() {
	s.typing.Close()
}

func (s *ConversationStore) indexOf(id string) int {
	for i := range s.messages {
		if s.messages[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *ConversationStore) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

func (s *ConversationStore) emit(ctx context.Context, event string, payload any) {
	if err := s.ch.Emit(ctx, event, payload); err != nil {
		s.log.Warn().Err(err).Str("event", event).Msg("emit failed")
	}
}

func (s *ConversationStore) emitTyping(peer string, typing bool) {
	ctx, cancel := context.WithTimeout(context.Background(), s.emitTimeout)
	defer cancel()
	s.emit(ctx, proto.EventTyping, proto.TypingData{
		Sender:   s.self,
		Receiver: peer,
		IsTyping: typing,
	})
}
