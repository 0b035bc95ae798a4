package decision

import (
	"testing"

	"github.com/concordchat/concord/internal/config"
	"github.com/concordchat/concord/internal/domain"
	"github.com/concordchat/concord/internal/roster"
	"github.com/stretchr/testify/assert"
)

const room = "!lobby:example.org"

func testRoster() *roster.Roster {
	return roster.New(&config.Config{
		Homeserver: config.HomeserverConfig{Domain: "example.org"},
		Router:     config.RouterConfig{Name: "router"},
		Agents: []config.AgentEntry{
			{Name: "phone", Rooms: []string{room}},
			{Name: "email", Rooms: []string{room}},
			{Name: "calendar", Rooms: []string{room}},
		},
	})
}

func from(sender string) domain.Event {
	return domain.Event{Sender: sender}
}

func TestDecide_MentionAlwaysWins(t *testing.T) {
	r := testRoster()

	// Mentioned agents respond even with no standing and no thread.
	d := Decide(Input{
		AgentName: "phone",
		Mentioned: true,
		InThread:  false,
		RoomID:    room,
		Roster:    r,
	})
	assert.Equal(t, Decision{Respond: true}, d)
}

func TestDecide_NotInThreadStaysSilent(t *testing.T) {
	r := testRoster()

	d := Decide(Input{
		AgentName:       "phone",
		InThread:        false,
		RoomID:          room,
		ConfiguredRooms: []string{room},
		Roster:          r,
	})
	assert.Equal(t, Decision{}, d)
}

func TestDecide_NoStandingStaysSilent(t *testing.T) {
	r := testRoster()

	// Neither configured for the room nor invited to the thread.
	d := Decide(Input{
		AgentName:       "phone",
		InThread:        true,
		RoomID:          "!other:example.org",
		ConfiguredRooms: []string{room},
		Invited:         false,
		History:         nil,
		Roster:          r,
	})
	assert.Equal(t, Decision{}, d)
}

func TestDecide_EmptyThreadDefersToRouter(t *testing.T) {
	r := testRoster()

	history := []domain.Event{from("@alice:example.org")}

	// Every configured-but-not-mentioned agent defers to the router.
	for _, agent := range []string{"phone", "email", "calendar"} {
		d := Decide(Input{
			AgentName:       agent,
			InThread:        true,
			RoomID:          room,
			ConfiguredRooms: []string{room},
			History:         history,
			Roster:          r,
		})
		assert.Equal(t, Decision{DeferToRouter: true}, d, agent)
	}
}

func TestDecide_RouterMessagesDontClaimThread(t *testing.T) {
	r := testRoster()

	// A thread containing only router and human messages is unclaimed.
	history := []domain.Event{
		from("@alice:example.org"),
		from("@router:example.org"),
	}

	d := Decide(Input{
		AgentName:       "phone",
		InThread:        true,
		RoomID:          room,
		ConfiguredRooms: []string{room},
		History:         history,
		Roster:          r,
	})
	assert.Equal(t, Decision{DeferToRouter: true}, d)
}

func TestDecide_SoleOwnerContinues(t *testing.T) {
	r := testRoster()

	history := []domain.Event{
		from("@alice:example.org"),
		from("@phone:example.org"),
		from("@alice:example.org"),
	}

	in := Input{
		InThread:        true,
		RoomID:          room,
		ConfiguredRooms: []string{room},
		History:         history,
		Roster:          r,
	}

	in.AgentName = "phone"
	assert.Equal(t, Decision{Respond: true}, Decide(in))

	in.AgentName = "email"
	assert.Equal(t, Decision{}, Decide(in))
}

func TestDecide_MultipleParticipantsAllSilent(t *testing.T) {
	r := testRoster()

	history := []domain.Event{
		from("@phone:example.org"),
		from("@email:example.org"),
	}

	for _, agent := range []string{"phone", "email", "calendar"} {
		d := Decide(Input{
			AgentName:       agent,
			InThread:        true,
			RoomID:          room,
			ConfiguredRooms: []string{room},
			History:         history,
			Roster:          r,
		})
		assert.Equal(t, Decision{}, d, agent)
	}
}

func TestDecide_InvitedAgentFollowsSameRules(t *testing.T) {
	r := testRoster()
	other := "!other:example.org"

	// Non-thread message: silent regardless of invite.
	d := Decide(Input{
		AgentName:       "phone",
		InThread:        false,
		RoomID:          other,
		ConfiguredRooms: nil,
		Invited:         true,
		Roster:          r,
	})
	assert.Equal(t, Decision{}, d)

	// Invited into an unclaimed thread: defer to router, exactly like a
	// native agent would. This is the documented race fix — the invited
	// agent's claim is local and immediate once the thread is empty of
	// other agents.
	d = Decide(Input{
		AgentName:       "phone",
		InThread:        true,
		RoomID:          other,
		ConfiguredRooms: nil,
		Invited:         true,
		History:         []domain.Event{from("@alice:example.org")},
		Roster:          r,
	})
	assert.Equal(t, Decision{DeferToRouter: true}, d)

	// Invited agent owning the thread continues it.
	d = Decide(Input{
		AgentName:       "phone",
		InThread:        true,
		RoomID:          other,
		ConfiguredRooms: nil,
		Invited:         true,
		History:         []domain.Event{from("@phone:example.org")},
		Roster:          r,
	})
	assert.Equal(t, Decision{Respond: true}, d)
}
