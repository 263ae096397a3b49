package utils

import (
	"strings"

	"github.com/google/uuid"
)

// TempIDPrefix marks identifiers generated locally for optimistic messages.
const TempIDPrefix = "tmp-"

// NewTempID returns a session-unique temporary message id.
func NewTempID() string {
	return TempIDPrefix + uuid.NewString()
}

// IsTempID reports whether id was produced by NewTempID.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}
