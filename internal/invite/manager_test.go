package invite

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/concordchat/concord/internal/config"
	"github.com/concordchat/concord/internal/logging"
	"github.com/concordchat/concord/internal/roster"
	"github.com/concordchat/concord/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	room   = "!lobby:example.org"
	thread = "$root1"
)

// fakeClock is a manually advanced clock shared by manager tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testRoster() *roster.Roster {
	return roster.New(&config.Config{
		Homeserver: config.HomeserverConfig{Domain: "example.org"},
		Router:     config.RouterConfig{Name: "router"},
		Agents: []config.AgentEntry{
			{Name: "phone"},
			{Name: "email"},
		},
	})
}

func testManager(t *testing.T) (*Manager, *fakeClock) {
	t.Helper()
	log := logging.New(nil, "silent")
	db, err := store.Open(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clock := newFakeClock()
	return New(store.NewInviteStore(db), clock.Now, log), clock
}

func TestIsInvited_LazyExpiry(t *testing.T) {
	m, clock := testManager(t)

	_, err := m.AddInvite(room, "phone", "@boss:example.org", "", 30*time.Minute)
	require.NoError(t, err)

	// Live immediately after creation.
	assert.True(t, m.IsInvited(room, "phone", ""))

	// Near expiry, activity renews it.
	clock.Advance(29 * time.Minute)
	assert.True(t, m.IsInvited(room, "phone", ""))
	require.NoError(t, m.RecordActivity(room, "phone", ""))

	clock.Advance(29 * time.Minute)
	assert.True(t, m.IsInvited(room, "phone", ""))

	// Past the timeout with no new activity: absent without any sweep.
	clock.Advance(2 * time.Minute)
	assert.False(t, m.IsInvited(room, "phone", ""))
}

func TestIsInvited_RoomInviteCoversThreads(t *testing.T) {
	m, _ := testManager(t)

	_, err := m.AddInvite(room, "phone", "", "", time.Hour)
	require.NoError(t, err)

	assert.True(t, m.IsInvited(room, "phone", thread))
	assert.False(t, m.IsInvited("!other:example.org", "phone", thread))
	assert.False(t, m.IsInvited(room, "email", thread))
}

func TestIsInvited_ThreadScopedInvite(t *testing.T) {
	m, _ := testManager(t)

	_, err := m.AddInvite(room, "phone", "", thread, time.Hour)
	require.NoError(t, err)

	assert.True(t, m.IsInvited(room, "phone", thread))
	// A thread-only invite grants no room-wide or other-thread standing.
	assert.False(t, m.IsInvited(room, "phone", ""))
	assert.False(t, m.IsInvited(room, "phone", "$other"))
}

func TestListInvited_OrderAndExpiry(t *testing.T) {
	m, clock := testManager(t)

	_, err := m.AddInvite(room, "email", "", "", 10*time.Minute)
	require.NoError(t, err)
	_, err = m.AddInvite(room, "phone", "", "", time.Hour)
	require.NoError(t, err)

	assert.Equal(t, []string{"email", "phone"}, m.ListInvited(room))

	// The short invite lapses; the list recomputes on read.
	clock.Advance(30 * time.Minute)
	assert.Equal(t, []string{"phone"}, m.ListInvited(room))
}

func TestRemoveInvite(t *testing.T) {
	m, _ := testManager(t)

	_, err := m.AddInvite(room, "phone", "", "", time.Hour)
	require.NoError(t, err)

	assert.True(t, m.RemoveInvite(room, "phone", ""))
	assert.False(t, m.IsInvited(room, "phone", ""))
	assert.False(t, m.RemoveInvite(room, "phone", ""))
}

func TestListInactive(t *testing.T) {
	m, clock := testManager(t)

	_, err := m.AddInvite(room, "phone", "", "", 10*time.Minute)
	require.NoError(t, err)
	_, err = m.AddInvite(room, "email", "", "", time.Hour)
	require.NoError(t, err)

	assert.Empty(t, m.ListInactive())

	clock.Advance(20 * time.Minute)
	inactive := m.ListInactive()
	require.Len(t, inactive, 1)
	assert.Equal(t, "phone", inactive[0].AgentName)
}

func TestSweepInactive_RemovesAndKicks(t *testing.T) {
	m, clock := testManager(t)
	rst := testRoster()

	_, err := m.AddInvite(room, "phone", "", "", 10*time.Minute)
	require.NoError(t, err)
	clock.Advance(20 * time.Minute)

	var kicked []string
	kick := func(_ context.Context, roomID, userID, reason string) error {
		kicked = append(kicked, roomID+"/"+userID)
		assert.Contains(t, reason, "inactivity")
		return nil
	}

	removed := m.SweepInactive(context.Background(), rst, kick)
	assert.Equal(t, 1, removed)
	assert.Equal(t, []string{room + "/@phone:example.org"}, kicked)

	// Idempotent: a second sweep with no new activity removes nothing.
	kicked = nil
	removed = m.SweepInactive(context.Background(), rst, kick)
	assert.Zero(t, removed)
	assert.Empty(t, kicked)
}

func TestSweepInactive_KickFailureStillRemoves(t *testing.T) {
	m, clock := testManager(t)

	_, err := m.AddInvite(room, "phone", "", "", 10*time.Minute)
	require.NoError(t, err)
	clock.Advance(20 * time.Minute)

	kick := func(_ context.Context, _, _, _ string) error {
		return errors.New("M_FORBIDDEN: not in room")
	}

	removed := m.SweepInactive(context.Background(), testRoster(), kick)
	assert.Equal(t, 1, removed)
	assert.Empty(t, m.ListInactive())
	assert.False(t, m.IsInvited(room, "phone", ""))
}

func TestSweepInactive_ThreadInvitesDontKick(t *testing.T) {
	m, clock := testManager(t)

	_, err := m.AddInvite(room, "phone", "", thread, 10*time.Minute)
	require.NoError(t, err)
	clock.Advance(20 * time.Minute)

	var kicks int
	kick := func(_ context.Context, _, _, _ string) error {
		kicks++
		return nil
	}

	removed := m.SweepInactive(context.Background(), testRoster(), kick)
	assert.Equal(t, 1, removed)
	assert.Zero(t, kicks)
}

func TestSweepInactive_SkipsActiveInvites(t *testing.T) {
	m, clock := testManager(t)

	_, err := m.AddInvite(room, "phone", "", "", time.Hour)
	require.NoError(t, err)
	_, err = m.AddInvite(room, "email", "", "", 5*time.Minute)
	require.NoError(t, err)
	clock.Advance(10 * time.Minute)

	removed := m.SweepInactive(context.Background(), testRoster(), nil)
	assert.Equal(t, 1, removed)
	assert.True(t, m.IsInvited(room, "phone", ""))
	assert.False(t, m.IsInvited(room, "email", ""))
}

func TestRecordActivity_MissingInviteIsNoError(t *testing.T) {
	m, _ := testManager(t)
	assert.NoError(t, m.RecordActivity(room, "phone", thread))
}
