package core

import "time"

// Message is the client-side view of a one-to-one chat message.
type Message struct {
	ID        string
	Sender    string
	Receiver  string
	Text      string
	Status    Status
	CreatedAt time.Time
	// Temp is set while ID is a locally generated placeholder.
	Temp bool
}

// sameContent reports whether m carries the same logical send as other.
func (m Message) sameContent(other Message) bool {
	return m.Sender == other.Sender && m.Receiver == other.Receiver && m.Text == other.Text
}
