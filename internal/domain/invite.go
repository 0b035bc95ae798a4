package domain

import "time"

// Invite is a time-bounded grant letting an agent act in a room (or a
// single thread) it is not natively configured for. LastActivity only
// ever moves forward; expiry is computed at read time, never stored.
type Invite struct {
	ID            string        `json:"id"`
	RoomID        string        `json:"roomId"`
	ThreadID      string        `json:"threadId,omitempty"`
	AgentName     string        `json:"agentName"`
	InvitedBy     string        `json:"invitedBy,omitempty"`
	InvitedAt     time.Time     `json:"invitedAt"`
	LastActivity  time.Time     `json:"lastActivity"`
	InactivityTTL time.Duration `json:"inactivityTtl"`
}

// ActiveAt reports whether the invite is still live at the given instant.
func (i Invite) ActiveAt(now time.Time) bool {
	return now.Sub(i.LastActivity) <= i.InactivityTTL
}

// RoomActivity tracks an agent's broader presence in a room, outside any
// single invite: when it last acted and which threads it has touched.
type RoomActivity struct {
	AgentName  string    `json:"agentName"`
	RoomID     string    `json:"roomId"`
	LastActive time.Time `json:"lastActive"`
	ThreadIDs  []string  `json:"threadIds,omitempty"`
}
