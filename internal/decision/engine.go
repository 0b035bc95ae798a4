// Package decision holds the response-decision engine and the team
// formation decider. Every agent session evaluates the same pure
// functions against its own snapshot of shared state; coordination is
// emergent, there is no central arbiter.
package decision

import (
	"slices"

	"github.com/concordchat/concord/internal/domain"
	"github.com/concordchat/concord/internal/roster"
	"github.com/concordchat/concord/internal/thread"
)

// Input is everything one agent needs to decide on one message.
type Input struct {
	AgentName       string
	Mentioned       bool
	InThread        bool
	Invited         bool // active invite for this thread (or its room)
	RoomID          string
	ConfiguredRooms []string
	History         []domain.Event
	Roster          *roster.Roster
}

// Decision is the outcome for one agent on one message.
type Decision struct {
	Respond       bool
	DeferToRouter bool
}

// Decide runs the response decision for a single agent. Rules apply in
// order; invited agents follow the identical rules once the standing
// check passes — invitation gates eligibility, not behavior.
func Decide(in Input) Decision {
	// An explicit mention always wins.
	if in.Mentioned {
		return Decision{Respond: true}
	}

	// Outside a thread, unmentioned agents stay silent.
	if !in.InThread {
		return Decision{}
	}

	// Standing: native room configuration or an active invite.
	if !slices.Contains(in.ConfiguredRooms, in.RoomID) && !in.Invited {
		return Decision{}
	}

	participants := thread.AgentsInThread(in.History, in.Roster)

	// Nobody has claimed the thread: the router decides who should.
	if len(participants) == 0 {
		return Decision{DeferToRouter: true}
	}

	// Continue a conversation this agent already owns.
	if len(participants) == 1 && participants[0] == in.AgentName {
		return Decision{Respond: true}
	}

	// Multiple participants, or a different sole owner.
	return Decision{}
}
