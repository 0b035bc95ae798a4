// Package invite manages time-bounded grants letting agents act outside
// their configured rooms.
//
// Expiry is lazy: every read compares wall clock against last_activity
// plus the timeout, so correctness never depends on the sweep having
// run. The sweep only enforces cleanup — storage and actual room
// membership.
package invite

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/concordchat/concord/internal/domain"
	"github.com/concordchat/concord/internal/logging"
	"github.com/concordchat/concord/internal/roster"
	"github.com/concordchat/concord/internal/store"
	"github.com/concordchat/concord/internal/transport"
)

// Manager owns the invitation lifecycle. All read-modify-write cycles on
// the shared store run under one in-process mutex; concurrent external
// writers get last-writer-wins semantics.
type Manager struct {
	mu    sync.Mutex
	store *store.InviteStore
	now   func() time.Time
	log   *logging.Logger
}

// New creates an invitation lifecycle manager. A nil clock uses time.Now.
func New(s *store.InviteStore, clock func() time.Time, log *logging.Logger) *Manager {
	if clock == nil {
		clock = time.Now
	}
	return &Manager{store: s, now: clock, log: log.Sub("invites")}
}

// AddInvite grants an agent standing in a room, or in one thread when
// threadID is non-empty. Re-inviting an existing scope renews it.
func (m *Manager) AddInvite(roomID, agentName, invitedBy, threadID string, timeout time.Duration) (domain.Invite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	inv, err := m.store.Upsert(domain.Invite{
		RoomID:        roomID,
		ThreadID:      threadID,
		AgentName:     agentName,
		InvitedBy:     invitedBy,
		InvitedAt:     now,
		LastActivity:  now,
		InactivityTTL: timeout,
	})
	if err != nil {
		return domain.Invite{}, fmt.Errorf("adding invite: %w", err)
	}

	m.log.Info().
		Str("room", roomID).
		Str("agent", agentName).
		Str("thread", threadID).
		Dur("timeout", timeout).
		Msg("invite added")
	return inv, nil
}

// RecordActivity renews the invite matching the scope. A thread-scoped
// activity also renews a room-level invite for the same agent, since the
// broader grant covers the thread.
func (m *Manager) RecordActivity(roomID, agentName, threadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if threadID != "" {
		if err := m.store.TouchActivity(roomID, threadID, agentName, now); err != nil {
			return err
		}
	}
	return m.store.TouchActivity(roomID, "", agentName, now)
}

// IsInvited reports whether the agent holds a live invite for the room,
// or for the specific thread when threadID is non-empty. A room-level
// invite covers every thread in the room. Expired invites read as absent.
func (m *Manager) IsInvited(roomID, agentName, threadID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if inv, ok, _ := m.store.Get(roomID, "", agentName); ok && inv.ActiveAt(now) {
		return true
	}
	if threadID == "" {
		return false
	}
	inv, ok, _ := m.store.Get(roomID, threadID, agentName)
	return ok && inv.ActiveAt(now)
}

// ListInvited returns the agents holding a live invite in the room, in
// invitation order with duplicates removed.
func (m *Manager) ListInvited(roomID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	invites, err := m.store.ListRoom(roomID)
	if err != nil {
		m.log.Error().Err(err).Str("room", roomID).Msg("listing invites failed")
		return nil
	}

	now := m.now()
	var agents []string
	seen := map[string]bool{}
	for _, inv := range invites {
		if !inv.ActiveAt(now) || seen[inv.AgentName] {
			continue
		}
		seen[inv.AgentName] = true
		agents = append(agents, inv.AgentName)
	}
	return agents
}

// ListRoom returns the live invite records for a room.
func (m *Manager) ListRoom(roomID string) []domain.Invite {
	m.mu.Lock()
	defer m.mu.Unlock()

	invites, err := m.store.ListRoom(roomID)
	if err != nil {
		m.log.Error().Err(err).Str("room", roomID).Msg("listing invites failed")
		return nil
	}

	now := m.now()
	var live []domain.Invite
	for _, inv := range invites {
		if inv.ActiveAt(now) {
			live = append(live, inv)
		}
	}
	return live
}

// ListAll returns every live invite record across all rooms.
func (m *Manager) ListAll() []domain.Invite {
	m.mu.Lock()
	defer m.mu.Unlock()

	invites, err := m.store.ListAll()
	if err != nil {
		m.log.Error().Err(err).Msg("listing invites failed")
		return nil
	}

	now := m.now()
	var live []domain.Invite
	for _, inv := range invites {
		if inv.ActiveAt(now) {
			live = append(live, inv)
		}
	}
	return live
}

// InvitedRooms returns the rooms where the agent holds any live invite.
// Thread-scoped invites count: answering in a thread still requires
// membership in its room.
func (m *Manager) InvitedRooms(agentName string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	invites, err := m.store.ListAll()
	if err != nil {
		m.log.Error().Err(err).Msg("listing invites failed")
		return nil
	}

	now := m.now()
	var rooms []string
	seen := map[string]bool{}
	for _, inv := range invites {
		if inv.AgentName != agentName || !inv.ActiveAt(now) || seen[inv.RoomID] {
			continue
		}
		seen[inv.RoomID] = true
		rooms = append(rooms, inv.RoomID)
	}
	return rooms
}

// RemoveInvite revokes an invite explicitly. Returns true if one existed.
func (m *Manager) RemoveInvite(roomID, agentName, threadID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed, err := m.store.Delete(roomID, threadID, agentName)
	if err != nil {
		m.log.Error().Err(err).Str("room", roomID).Str("agent", agentName).Msg("removing invite failed")
		return false
	}
	if removed {
		m.log.Info().Str("room", roomID).Str("agent", agentName).Str("thread", threadID).Msg("invite removed")
	}
	return removed
}

// ListInactive returns the (room, agent) pairs whose invites have gone
// inactive, without removing anything.
func (m *Manager) ListInactive() []domain.Invite {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listInactiveLocked()
}

func (m *Manager) listInactiveLocked() []domain.Invite {
	invites, err := m.store.ListAll()
	if err != nil {
		m.log.Error().Err(err).Msg("listing invites failed")
		return nil
	}

	now := m.now()
	var inactive []domain.Invite
	for _, inv := range invites {
		if !inv.ActiveAt(now) {
			inactive = append(inactive, inv)
		}
	}
	return inactive
}

// SweepInactive removes every inactive invite and, for room-level
// invites, asks the transport to revoke the agent's room membership. A
// failed kick is logged and tolerated: the invite is removed from the
// store regardless, so a second sweep with no new activity removes
// nothing further.
func (m *Manager) SweepInactive(ctx context.Context, rst *roster.Roster, kick transport.KickFunc) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for _, inv := range m.listInactiveLocked() {
		if _, err := m.store.Delete(inv.RoomID, inv.ThreadID, inv.AgentName); err != nil {
			m.log.Error().Err(err).
				Str("room", inv.RoomID).
				Str("agent", inv.AgentName).
				Msg("sweep: removing invite failed")
			continue
		}
		removed++

		m.log.Info().
			Str("room", inv.RoomID).
			Str("agent", inv.AgentName).
			Str("thread", inv.ThreadID).
			Msg("sweep: inactive invite removed")

		// Thread invites don't carry room membership; nothing to kick.
		if inv.ThreadID != "" || kick == nil {
			continue
		}
		userID, ok := rst.AgentUserID(inv.AgentName)
		if !ok {
			// Agent vanished from config since the invite was created.
			continue
		}
		reason := fmt.Sprintf("invite expired after %s of inactivity", inv.InactivityTTL)
		if err := kick(ctx, inv.RoomID, userID, reason); err != nil {
			m.log.Warn().Err(err).
				Str("room", inv.RoomID).
				Str("agent", inv.AgentName).
				Msg("sweep: kick failed, invite removed anyway")
		}
	}
	return removed
}
