package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/concordchat/concord/internal/domain"
)

// ActivityStore persists per-(agent, room) last-active timestamps and
// the set of threads the agent has touched in that room.
type ActivityStore struct {
	db *DB
}

// NewActivityStore creates an activity store using the given database.
func NewActivityStore(db *DB) *ActivityStore {
	return &ActivityStore{db: db}
}

// Touch records activity for an agent in a room, optionally within a
// thread. last_active never moves backwards; thread ids accumulate.
func (s *ActivityStore) Touch(agentName, roomID, threadID string, at time.Time) error {
	existing, ok, err := s.Get(agentName, roomID)
	if err != nil {
		return err
	}

	rec := domain.RoomActivity{AgentName: agentName, RoomID: roomID, LastActive: at}
	if ok {
		rec.ThreadIDs = existing.ThreadIDs
		if existing.LastActive.After(at) {
			rec.LastActive = existing.LastActive
		}
	}
	if threadID != "" && !slices.Contains(rec.ThreadIDs, threadID) {
		rec.ThreadIDs = append(rec.ThreadIDs, threadID)
	}

	var threadsJSON sql.NullString
	if len(rec.ThreadIDs) > 0 {
		if data, err := json.Marshal(rec.ThreadIDs); err == nil {
			threadsJSON = sql.NullString{String: string(data), Valid: true}
		}
	}

	_, err = s.db.sql.Exec(
		`INSERT INTO agent_activity (agent_name, room_id, last_active, thread_ids)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(agent_name, room_id) DO UPDATE SET
		   last_active = excluded.last_active,
		   thread_ids = excluded.thread_ids`,
		agentName, roomID, rec.LastActive.Format(timeLayout), threadsJSON,
	)
	if err != nil {
		return fmt.Errorf("touching activity: %w", err)
	}
	return nil
}

// Get returns the activity record for one (agent, room) pair.
func (s *ActivityStore) Get(agentName, roomID string) (domain.RoomActivity, bool, error) {
	row := s.db.sql.QueryRow(
		`SELECT agent_name, room_id, last_active, thread_ids
		 FROM agent_activity WHERE agent_name = ? AND room_id = ?`,
		agentName, roomID,
	)

	rec, err := scanActivity(row)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return domain.RoomActivity{}, false, nil
	case errors.Is(err, errMalformedRow):
		s.db.log.Warn().Err(err).Msg("skipping malformed activity row")
		return domain.RoomActivity{}, false, nil
	case err != nil:
		return domain.RoomActivity{}, false, fmt.Errorf("reading activity: %w", err)
	}
	return rec, true, nil
}

// ListAll returns every activity record.
func (s *ActivityStore) ListAll() ([]domain.RoomActivity, error) {
	rows, err := s.db.sql.Query(
		`SELECT agent_name, room_id, last_active, thread_ids FROM agent_activity ORDER BY rowid`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	defer rows.Close()

	var recs []domain.RoomActivity
	for rows.Next() {
		rec, err := scanActivity(rows)
		if errors.Is(err, errMalformedRow) {
			s.db.log.Warn().Err(err).Msg("skipping malformed activity row")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("scanning activity: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Delete removes the record for one (agent, room) pair.
func (s *ActivityStore) Delete(agentName, roomID string) error {
	_, err := s.db.sql.Exec(
		`DELETE FROM agent_activity WHERE agent_name = ? AND room_id = ?`,
		agentName, roomID,
	)
	return err
}

func scanActivity(row rowScanner) (domain.RoomActivity, error) {
	var rec domain.RoomActivity
	var lastActive string
	var threadsJSON sql.NullString

	if err := row.Scan(&rec.AgentName, &rec.RoomID, &lastActive, &threadsJSON); err != nil {
		return domain.RoomActivity{}, err
	}

	var err error
	if rec.LastActive, err = time.Parse(timeLayout, lastActive); err != nil {
		return domain.RoomActivity{}, fmt.Errorf("%w: last_active: %v", errMalformedRow, err)
	}
	if threadsJSON.Valid && threadsJSON.String != "" {
		_ = json.Unmarshal([]byte(threadsJSON.String), &rec.ThreadIDs)
	}
	return rec, nil
}
