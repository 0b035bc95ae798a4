package activity

import (
	"testing"
	"time"

	"github.com/concordchat/concord/internal/logging"
	"github.com/concordchat/concord/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTracker(t *testing.T) (*Tracker, *time.Time) {
	t.Helper()
	log := logging.New(nil, "silent")
	db, err := store.Open(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	return New(store.NewActivityStore(db), func() time.Time { return now }, log), &now
}

func TestTouchAndLastActive(t *testing.T) {
	tr, now := testTracker(t)

	_, ok := tr.LastActive("phone", "!r:example.org")
	assert.False(t, ok)

	require.NoError(t, tr.Touch("phone", "!r:example.org", ""))
	got, ok := tr.LastActive("phone", "!r:example.org")
	require.True(t, ok)
	assert.True(t, got.Equal(*now))

	first := *now
	*now = now.Add(5 * time.Minute)
	require.NoError(t, tr.Touch("phone", "!r:example.org", "$t1"))
	got, _ = tr.LastActive("phone", "!r:example.org")
	assert.True(t, got.After(first))
}

func TestActiveThreadsAccumulate(t *testing.T) {
	tr, _ := testTracker(t)

	require.NoError(t, tr.Touch("phone", "!r:example.org", "$t1"))
	require.NoError(t, tr.Touch("phone", "!r:example.org", "$t2"))
	require.NoError(t, tr.Touch("phone", "!r:example.org", "$t1"))

	assert.Equal(t, []string{"$t1", "$t2"}, tr.ActiveThreads("phone", "!r:example.org"))
	assert.Empty(t, tr.ActiveThreads("phone", "!other:example.org"))
}

func TestInactiveSince(t *testing.T) {
	tr, now := testTracker(t)

	require.NoError(t, tr.Touch("phone", "!a:example.org", ""))
	*now = now.Add(time.Hour)
	require.NoError(t, tr.Touch("email", "!b:example.org", ""))

	stale := tr.InactiveSince(now.Add(-30 * time.Minute))
	require.Len(t, stale, 1)
	assert.Equal(t, "phone", stale[0].AgentName)

	assert.Empty(t, tr.InactiveSince(now.Add(-2*time.Hour)))
}

func TestForget(t *testing.T) {
	tr, _ := testTracker(t)

	require.NoError(t, tr.Touch("phone", "!a:example.org", "$t1"))
	require.NoError(t, tr.Forget("phone", "!a:example.org"))

	_, ok := tr.LastActive("phone", "!a:example.org")
	assert.False(t, ok)
}
