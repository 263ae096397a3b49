package core

import (
	"errors"
	"fmt"
)

// Error codes for domain errors.
const (
	ErrCodeBadPayload    = "bad_payload"
	ErrCodeNoActivePeer  = "no_active_peer"
	ErrCodeEmptyMessage  = "empty_message"
	ErrCodeUnknownStatus = "unknown_status"
)

var (
	ErrNoActivePeer = errors.New("no active peer")
	ErrEmptyMessage = errors.New("empty message")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

func badPayload(event string, cause error) *CoreError {
	return coreError(ErrCodeBadPayload, fmt.Sprintf("%s: %v", event, cause))
}

// Code returns the domain error code of err, or "" if it has none.
func Code(err error) string {
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce.Code
	}
	switch {
	case errors.Is(err, ErrNoActivePeer):
		return ErrCodeNoActivePeer
	case errors.Is(err, ErrEmptyMessage):
		return ErrCodeEmptyMessage
	}
	return ""
}
