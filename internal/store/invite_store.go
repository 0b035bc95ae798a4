package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/concordchat/concord/internal/domain"
)

// timeLayout is the stored timestamp format. Nanosecond precision keeps
// activity-ordering comparisons exact.
const timeLayout = time.RFC3339Nano

// InviteStore persists invite records. The invitation lifecycle manager
// serializes access; the store itself does plain reads and writes.
type InviteStore struct {
	db *DB
}

// NewInviteStore creates an invite store using the given database.
func NewInviteStore(db *DB) *InviteStore {
	return &InviteStore{db: db}
}

// Upsert inserts an invite or replaces the record for the same
// (room, thread, agent) scope.
func (s *InviteStore) Upsert(inv domain.Invite) (domain.Invite, error) {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}

	_, err := s.db.sql.Exec(
		`INSERT INTO invites (id, room_id, thread_id, agent_name, invited_by, invited_at, last_activity, timeout_seconds)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(room_id, thread_id, agent_name) DO UPDATE SET
		   invited_by = excluded.invited_by,
		   invited_at = excluded.invited_at,
		   last_activity = excluded.last_activity,
		   timeout_seconds = excluded.timeout_seconds`,
		inv.ID, inv.RoomID, inv.ThreadID, inv.AgentName, inv.InvitedBy,
		inv.InvitedAt.Format(timeLayout), inv.LastActivity.Format(timeLayout),
		int64(inv.InactivityTTL/time.Second),
	)
	if err != nil {
		return inv, fmt.Errorf("upserting invite: %w", err)
	}
	return inv, nil
}

// Get returns the invite for an exact (room, thread, agent) scope.
func (s *InviteStore) Get(roomID, threadID, agentName string) (domain.Invite, bool, error) {
	row := s.db.sql.QueryRow(
		`SELECT id, room_id, thread_id, agent_name, invited_by, invited_at, last_activity, timeout_seconds
		 FROM invites WHERE room_id = ? AND thread_id = ? AND agent_name = ?`,
		roomID, threadID, agentName,
	)

	inv, err := scanInvite(row)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return domain.Invite{}, false, nil
	case errors.Is(err, errMalformedRow):
		s.db.log.Warn().Err(err).Msg("skipping malformed invite row")
		return domain.Invite{}, false, nil
	case err != nil:
		return domain.Invite{}, false, fmt.Errorf("reading invite: %w", err)
	}
	return inv, true, nil
}

// ListRoom returns all invites for a room in creation order.
func (s *InviteStore) ListRoom(roomID string) ([]domain.Invite, error) {
	return s.list(`SELECT id, room_id, thread_id, agent_name, invited_by, invited_at, last_activity, timeout_seconds
		 FROM invites WHERE room_id = ? ORDER BY rowid`, roomID)
}

// ListAll returns every stored invite in creation order.
func (s *InviteStore) ListAll() ([]domain.Invite, error) {
	return s.list(`SELECT id, room_id, thread_id, agent_name, invited_by, invited_at, last_activity, timeout_seconds
		 FROM invites ORDER BY rowid`)
}

// Delete removes an invite by scope. Returns true if a row was removed.
func (s *InviteStore) Delete(roomID, threadID, agentName string) (bool, error) {
	res, err := s.db.sql.Exec(
		`DELETE FROM invites WHERE room_id = ? AND thread_id = ? AND agent_name = ?`,
		roomID, threadID, agentName,
	)
	if err != nil {
		return false, fmt.Errorf("deleting invite: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// TouchActivity advances last_activity for a scope, keeping it monotonic
// even if the caller's clock stepped backwards. The comparison happens on
// parsed values: RFC3339Nano trims trailing fractional zeros, so the
// stored strings do not sort lexicographically.
func (s *InviteStore) TouchActivity(roomID, threadID, agentName string, at time.Time) error {
	inv, ok, err := s.Get(roomID, threadID, agentName)
	if err != nil {
		return fmt.Errorf("touching invite activity: %w", err)
	}
	if !ok || !at.After(inv.LastActivity) {
		return nil
	}

	_, err = s.db.sql.Exec(
		`UPDATE invites SET last_activity = ? WHERE id = ?`,
		at.Format(timeLayout), inv.ID,
	)
	if err != nil {
		return fmt.Errorf("touching invite activity: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// errMalformedRow marks a stored row whose timestamps cannot be parsed,
// usually after a hand edit. Reads treat such rows as absent instead of
// failing.
var errMalformedRow = errors.New("malformed row")

// scanInvite reads one invite row. Malformed timestamps surface as
// errMalformedRow so callers can skip the row rather than fail the read.
func scanInvite(row rowScanner) (domain.Invite, error) {
	var inv domain.Invite
	var invitedAt, lastActivity string
	var timeoutSeconds int64

	if err := row.Scan(
		&inv.ID, &inv.RoomID, &inv.ThreadID, &inv.AgentName, &inv.InvitedBy,
		&invitedAt, &lastActivity, &timeoutSeconds,
	); err != nil {
		return domain.Invite{}, err
	}

	var err error
	if inv.InvitedAt, err = time.Parse(timeLayout, invitedAt); err != nil {
		return domain.Invite{}, fmt.Errorf("%w: invited_at: %v", errMalformedRow, err)
	}
	if inv.LastActivity, err = time.Parse(timeLayout, lastActivity); err != nil {
		return domain.Invite{}, fmt.Errorf("%w: last_activity: %v", errMalformedRow, err)
	}
	inv.InactivityTTL = time.Duration(timeoutSeconds) * time.Second
	return inv, nil
}

func (s *InviteStore) list(query string, args ...any) ([]domain.Invite, error) {
	rows, err := s.db.sql.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing invites: %w", err)
	}
	defer rows.Close()

	var invites []domain.Invite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if errors.Is(err, errMalformedRow) {
			s.db.log.Warn().Err(err).Msg("skipping malformed invite row")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("scanning invite: %w", err)
		}
		invites = append(invites, inv)
	}
	return invites, rows.Err()
}
