package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/concordchat/concord/internal/config"
	"github.com/concordchat/concord/internal/domain"
	"github.com/concordchat/concord/internal/invite"
	"github.com/concordchat/concord/internal/logging"
	"github.com/concordchat/concord/internal/roster"
	"github.com/concordchat/concord/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	lobby = "!lobby:example.org"
	mail  = "!mail:example.org"
	stray = "!stray:example.org"
)

// mockTransport is a test double for transport.Transport.
type mockTransport struct {
	joined  map[string][]string // user id → rooms
	kickErr map[string]error    // room id → forced error
	kicked  []string            // "room/user"
}

func (m *mockTransport) ThreadHistory(_ context.Context, _, _ string) ([]domain.Event, error) {
	return nil, nil
}

func (m *mockTransport) RoomMembers(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}

func (m *mockTransport) JoinedRooms(_ context.Context, userID string) ([]string, error) {
	rooms, ok := m.joined[userID]
	if !ok {
		return nil, errors.New("unknown user")
	}
	return rooms, nil
}

func (m *mockTransport) Kick(_ context.Context, roomID, userID, _ string) error {
	if err := m.kickErr[roomID]; err != nil {
		return err
	}
	m.kicked = append(m.kicked, roomID+"/"+userID)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Homeserver: config.HomeserverConfig{Domain: "example.org"},
		Router:     config.RouterConfig{Name: "router"},
		Agents: []config.AgentEntry{
			{Name: "phone", Rooms: []string{lobby}},
			{Name: "email", Rooms: []string{mail}},
		},
	}
}

func testSetup(t *testing.T, tp *mockTransport) (*Reconciler, *invite.Manager) {
	t.Helper()
	log := logging.New(nil, "silent")
	db, err := store.Open(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	invites := invite.New(store.NewInviteStore(db), nil, log)
	rosterFn := func() *roster.Roster { return roster.New(testConfig()) }
	return New(tp, invites, rosterFn, log), invites
}

func TestRun_RevokesUnexpectedRooms(t *testing.T) {
	tp := &mockTransport{joined: map[string][]string{
		"@phone:example.org":  {lobby, stray},
		"@email:example.org":  {mail},
		"@router:example.org": {lobby, mail},
	}}
	r, _ := testSetup(t, tp)

	report := r.Run(context.Background())

	assert.Equal(t, []Revocation{{AgentName: "phone", RoomID: stray}}, report.Revoked)
	assert.Empty(t, report.Errors)
	assert.Equal(t, []string{stray + "/@phone:example.org"}, tp.kicked)
}

func TestRun_InvitedAgentIsProtected(t *testing.T) {
	tp := &mockTransport{joined: map[string][]string{
		"@phone:example.org":  {lobby, stray},
		"@email:example.org":  {mail},
		"@router:example.org": {},
	}}
	r, invites := testSetup(t, tp)

	_, err := invites.AddInvite(stray, "phone", "@boss:example.org", "", time.Hour)
	require.NoError(t, err)

	report := r.Run(context.Background())
	assert.Empty(t, report.Revoked)
	assert.Empty(t, tp.kicked)
}

func TestRun_ExpiredInviteNoLongerProtects(t *testing.T) {
	tp := &mockTransport{joined: map[string][]string{
		"@phone:example.org":  {stray},
		"@email:example.org":  {},
		"@router:example.org": {},
	}}

	log := logging.New(nil, "silent")
	db, err := store.Open(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	invites := invite.New(store.NewInviteStore(db), func() time.Time { return now }, log)
	_, err = invites.AddInvite(stray, "phone", "", "", 10*time.Minute)
	require.NoError(t, err)

	r := New(tp, invites, func() *roster.Roster { return roster.New(testConfig()) }, log)

	// Invite still live: protected.
	report := r.Run(context.Background())
	assert.Empty(t, report.Revoked)

	// Invite lapsed: revoked on the next pass.
	now = now.Add(time.Hour)
	report = r.Run(context.Background())
	assert.Equal(t, []Revocation{{AgentName: "phone", RoomID: stray}}, report.Revoked)
}

func TestRun_RouterKeepsAllConfiguredRooms(t *testing.T) {
	tp := &mockTransport{joined: map[string][]string{
		"@phone:example.org":  {lobby},
		"@email:example.org":  {mail},
		"@router:example.org": {lobby, mail, stray},
	}}
	r, _ := testSetup(t, tp)

	report := r.Run(context.Background())

	// The router stays in every room any agent lists, and only loses
	// rooms nobody is configured for.
	assert.Equal(t, []Revocation{{AgentName: "router", RoomID: stray}}, report.Revoked)
}

func TestRun_ContinuesPastErrors(t *testing.T) {
	tp := &mockTransport{
		joined: map[string][]string{
			// phone's joined-rooms read fails entirely (no entry).
			"@email:example.org":  {mail, stray, "!stray2:example.org"},
			"@router:example.org": {},
		},
		kickErr: map[string]error{stray: errors.New("M_FORBIDDEN")},
	}
	r, _ := testSetup(t, tp)

	report := r.Run(context.Background())

	// phone's read error and the failed kick are both recorded, and the
	// second stray room is still revoked.
	require.Len(t, report.Errors, 2)
	assert.Equal(t, "phone", report.Errors[0].AgentName)
	assert.Equal(t, stray, report.Errors[1].RoomID)
	assert.Equal(t, []Revocation{{AgentName: "email", RoomID: "!stray2:example.org"}}, report.Revoked)
}
