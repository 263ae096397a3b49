package core

import (
	"context"
	"encoding/json"

	"github.com/vovakirdan/wirechat-sync/internal/proto"
	"github.com/vovakirdan/wirechat-sync/internal/utils"
)

// Attach subscribes the store to the inbound events it handles. Payloads
// that fail to decode or validate are logged and dropped.
func (s *ConversationStore) Attach(ch EventChannel) {
	ch.On(proto.EventReceiveMessage, s.handleReceive)
	ch.On(proto.EventSendConfirmation, s.handleConfirmation)
	ch.On(proto.EventMessageStatus, s.handleStatus)
	ch.On(proto.EventStatusBulk, s.handleStatusBulk)
	ch.On(proto.EventTypingStatus, s.handleTyping)
}

func (s *ConversationStore) handleReceive(ctx context.Context, data json.RawMessage) {
	msg, ok := s.decodeRecord(proto.EventReceiveMessage, data)
	if !ok {
		return
	}
	s.OnReceiveMessage(ctx, msg)
}

func (s *ConversationStore) handleConfirmation(_ context.Context, data json.RawMessage) {
	msg, ok := s.decodeRecord(proto.EventSendConfirmation, data)
	if !ok {
		return
	}
	s.OnSendConfirmation(msg)
}

// decodeRecord parses a relay message record. Records carrying a local
// temporary id are rejected; only canonical ids may enter the sequence.
func (s *ConversationStore) decodeRecord(event string, data json.RawMessage) (Message, bool) {
	rec, perr := proto.DecodeMessageRecord(data)
	if perr != nil {
		s.drop(event, perr)
		return Message{}, false
	}
	if utils.IsTempID(rec.ID) {
		s.drop(event, coreError(ErrCodeBadPayload, "temporary id "+rec.ID))
		return Message{}, false
	}
	return MessageFromRecord(rec), true
}

func (s *ConversationStore) handleStatus(_ context.Context, data json.RawMessage) {
	upd, perr := proto.DecodeStatus(data)
	if perr != nil {
		s.drop(proto.EventMessageStatus, perr)
		return
	}
	status := Status(upd.Status)
	if !status.Valid() {
		s.drop(proto.EventMessageStatus, coreError(ErrCodeUnknownStatus, upd.Status))
		return
	}
	s.OnStatusUpdate(upd.MessageID, status)
}

func (s *ConversationStore) handleStatusBulk(_ context.Context, data json.RawMessage) {
	upd, perr := proto.DecodeStatusBulk(data)
	if perr != nil {
		s.drop(proto.EventStatusBulk, perr)
		return
	}
	status := Status(upd.Status)
	if !status.Valid() {
		s.drop(proto.EventStatusBulk, coreError(ErrCodeUnknownStatus, upd.Status))
		return
	}
	s.OnBulkStatusUpdate(s.bulkPeer(upd), status)
}

// bulkPeer resolves which conversation partner a batched upgrade is about.
// The relay names either the local user as sender together with the
// receiver, or only the peer that acknowledged the messages.
func (s *ConversationStore) bulkPeer(upd proto.StatusBulkData) string {
	if upd.Sender != "" && upd.Sender != s.self {
		return upd.Sender
	}
	if upd.Receiver != "" && upd.Receiver != s.self {
		return upd.Receiver
	}
	return s.ActivePeer()
}

func (s *ConversationStore) handleTyping(_ context.Context, data json.RawMessage) {
	sig, perr := proto.DecodeTyping(data)
	if perr != nil {
		s.drop(proto.EventTypingStatus, perr)
		return
	}
	if sig.Receiver != "" && sig.Receiver != s.self {
		return
	}
	s.OnRemoteTyping(sig.Sender, sig.IsTyping)
}

func (s *ConversationStore) drop(event string, cause error) {
	err := badPayload(event, cause)
	s.log.Debug().Err(err).Str("code", err.Code).Str("event", event).Msg("inbound event dropped")
}

// MessageFromRecord converts a relay record into a canonical message.
func MessageFromRecord(rec proto.MessageRecord) Message {
	return Message{
		ID:        rec.ID,
		Sender:    rec.Sender,
		Receiver:  rec.Receiver,
		Text:      rec.Message,
		Status:    Status(rec.Status),
		CreatedAt: rec.CreatedAt,
	}
}
