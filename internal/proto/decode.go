package proto

import (
	"encoding/json"
	"strings"
)

const (
	ErrCodeMalformed    = "malformed_payload"
	ErrCodeMissingField = "missing_field"
)

func missing(field string) *Error {
	return &Error{Code: ErrCodeMissingField, Msg: field + " is required"}
}

// decode unmarshals raw into v. Unknown fields are tolerated.
func decode(raw json.RawMessage, v any) *Error {
	if len(raw) == 0 || string(raw) == "null" {
		return &Error{Code: ErrCodeMalformed, Msg: "empty payload"}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &Error{Code: ErrCodeMalformed, Msg: err.Error()}
	}
	return nil
}

// DecodeMessageRecord parses a message record and checks the fields the
// client relies on.
func DecodeMessageRecord(raw json.RawMessage) (MessageRecord, *Error) {
	var rec MessageRecord
	if err := decode(raw, &rec); err != nil {
		return rec, err
	}
	switch {
	case strings.TrimSpace(rec.ID) == "":
		return rec, missing("_id")
	case rec.Sender == "":
		return rec, missing("sender")
	case rec.Receiver == "":
		return rec, missing("receiver")
	}
	return rec, nil
}

// DecodeStatus parses a single-message status upgrade.
func DecodeStatus(raw json.RawMessage) (StatusData, *Error) {
	var data StatusData
	if err := decode(raw, &data); err != nil {
		return data, err
	}
	if data.MessageID == "" {
		return data, missing("messageId")
	}
	if data.Status == "" {
		return data, missing("status")
	}
	return data, nil
}

// DecodeStatusBulk parses a batched status upgrade.
func DecodeStatusBulk(raw json.RawMessage) (StatusBulkData, *Error) {
	var data StatusBulkData
	if err := decode(raw, &data); err != nil {
		return data, err
	}
	if data.Sender == "" && data.Receiver == "" {
		return data, missing("sender")
	}
	if data.Status == "" {
		return data, missing("status")
	}
	return data, nil
}

// DecodeTyping parses an inbound typing signal.
func DecodeTyping(raw json.RawMessage) (TypingData, *Error) {
	var data TypingData
	if err := decode(raw, &data); err != nil {
		return data, err
	}
	if data.Sender == "" {
		return data, missing("sender")
	}
	return data, nil
}
