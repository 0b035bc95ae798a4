package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create invites and agent_activity",
		SQL: `
			CREATE TABLE invites (
				id              TEXT PRIMARY KEY,
				room_id         TEXT NOT NULL,
				thread_id       TEXT NOT NULL DEFAULT '',
				agent_name      TEXT NOT NULL,
				invited_by      TEXT NOT NULL DEFAULT '',
				invited_at      TEXT NOT NULL,
				last_activity   TEXT NOT NULL,
				timeout_seconds INTEGER NOT NULL
			);

			CREATE UNIQUE INDEX idx_invites_scope ON invites (room_id, thread_id, agent_name);
			CREATE INDEX idx_invites_room ON invites (room_id);
			CREATE INDEX idx_invites_agent ON invites (agent_name);

			CREATE TABLE agent_activity (
				agent_name  TEXT NOT NULL,
				room_id     TEXT NOT NULL,
				last_active TEXT NOT NULL,
				thread_ids  TEXT,
				PRIMARY KEY (agent_name, room_id)
			);

			CREATE INDEX idx_activity_room ON agent_activity (room_id);
		`,
	},
}
