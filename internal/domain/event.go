package domain

import "time"

// RelType classifies how a message relates to earlier messages.
type RelType string

const (
	// RelNone marks a top-level room message.
	RelNone RelType = ""
	// RelThread marks a message posted into a thread.
	RelThread RelType = "thread"
)

// Event is one message as read from the transport. Thread history is an
// ordered slice of these, oldest first.
type Event struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"roomId"`
	Sender    string    `json:"sender"`
	Body      string    `json:"body"`
	Mentions  []string  `json:"mentions,omitempty"`
	RelType   RelType   `json:"relType,omitempty"`
	ThreadID  string    `json:"threadId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// InThread reports whether the event belongs to a thread.
func (e Event) InThread() bool {
	return e.RelType == RelThread && e.ThreadID != ""
}
