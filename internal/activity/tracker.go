// Package activity records per-(agent, room) presence timestamps used to
// decide when an out-of-room agent can be dropped entirely.
package activity

import (
	"sync"
	"time"

	"github.com/concordchat/concord/internal/domain"
	"github.com/concordchat/concord/internal/logging"
	"github.com/concordchat/concord/internal/store"
)

// Tracker wraps the activity store with the shared-state mutex and clock.
type Tracker struct {
	mu    sync.Mutex
	store *store.ActivityStore
	now   func() time.Time
	log   *logging.Logger
}

// New creates a tracker. A nil clock uses time.Now.
func New(s *store.ActivityStore, clock func() time.Time, log *logging.Logger) *Tracker {
	if clock == nil {
		clock = time.Now
	}
	return &Tracker{store: s, now: clock, log: log.Sub("activity")}
}

// Touch records that the agent just acted in the room, optionally inside
// a thread. last_active never moves backwards.
func (t *Tracker) Touch(agentName, roomID, threadID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.store.Touch(agentName, roomID, threadID, t.now())
}

// LastActive returns when the agent last acted in the room.
func (t *Tracker) LastActive(agentName, roomID string) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok, err := t.store.Get(agentName, roomID)
	if err != nil || !ok {
		return time.Time{}, false
	}
	return rec.LastActive, true
}

// ActiveThreads returns the threads the agent has touched in the room.
func (t *Tracker) ActiveThreads(agentName, roomID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok, err := t.store.Get(agentName, roomID)
	if err != nil || !ok {
		return nil
	}
	return rec.ThreadIDs
}

// InactiveSince returns every record whose last_active is older than the
// cutoff instant.
func (t *Tracker) InactiveSince(cutoff time.Time) []domain.RoomActivity {
	t.mu.Lock()
	defer t.mu.Unlock()

	all, err := t.store.ListAll()
	if err != nil {
		t.log.Error().Err(err).Msg("listing activity failed")
		return nil
	}

	var stale []domain.RoomActivity
	for _, rec := range all {
		if rec.LastActive.Before(cutoff) {
			stale = append(stale, rec)
		}
	}
	return stale
}

// Forget drops the record for one (agent, room) pair, typically after
// the agent's membership has been revoked.
func (t *Tracker) Forget(agentName, roomID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.store.Delete(agentName, roomID)
}
