package core

// Status is the delivery state of a message sent by the local user.
type Status string

const (
	StatusSending   Status = "sending"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusSeen      Status = "seen"
)

// Rank orders statuses. Unknown values rank as sending.
func Rank(s Status) int {
	switch s {
	case StatusSent:
		return 1
	case StatusDelivered:
		return 2
	case StatusSeen:
		return 3
	default:
		return 0
	}
}

// ShouldUpgrade reports whether incoming may replace current.
// Equal or lower ranks are rejected so a status never regresses.
func ShouldUpgrade(current, incoming Status) bool {
	return Rank(incoming) > Rank(current)
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusSending, StatusSent, StatusDelivered, StatusSeen:
		return true
	}
	return false
}
