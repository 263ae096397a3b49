package proto

import (
	"encoding/json"
	"time"
)

// Envelope is the wire frame for every event on the relay channel.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

const (
	EventJoin             = "join"
	EventSendMessage      = "send_message"
	EventReceiveMessage   = "receive_message"
	EventSendConfirmation = "message_sent_confirmation"
	EventMarkDelivered    = "mark_delivered"
	EventMarkSeen         = "mark_seen"
	EventMessageStatus    = "message_status"
	EventStatusBulk       = "message_status_bulk"
	EventTyping           = "typing"
	EventTypingStatus     = "typing_status"
)

// JoinData announces presence of a user.
type JoinData struct {
	User string `json:"user"`
}

// SendMessageData submits a new message. The relay assigns the id.
type SendMessageData struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Message  string `json:"message"`
}

// MessageRecord is a full message as stored by the relay.
// It is the payload of receive_message and message_sent_confirmation.
type MessageRecord struct {
	ID        string    `json:"_id"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Message   string    `json:"message"`
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// MarkData is used by mark_delivered and mark_seen.
// Sender is the peer whose messages are being acknowledged.
type MarkData struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
}

// StatusData upgrades a single message.
type StatusData struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
}

// StatusBulkData upgrades every message between a pair of users.
type StatusBulkData struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver,omitempty"`
	Status   string `json:"status"`
}

// TypingData carries a typing signal in either direction.
type TypingData struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	IsTyping bool   `json:"isTyping"`
}

// ListResponse is the REST envelope used by the history and user endpoints.
type ListResponse[T any] struct {
	Data []T `json:"data"`
}

// User is an entry of the user list endpoint.
type User struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
}

// Error describes a protocol-level problem with a payload.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Msg
}
