package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS employees (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL DEFAULT '',
	role        TEXT NOT NULL DEFAULT '',
	email       TEXT NOT NULL DEFAULT '',
	department  TEXT NOT NULL DEFAULT '',
	fetched_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS messages (
	id           TEXT PRIMARY KEY,
	sender_id    TEXT NOT NULL,
	sender_name  TEXT NOT NULL DEFAULT '',
	sender_role  TEXT NOT NULL DEFAULT '',
	recipient_id TEXT NOT NULL,
	content      TEXT NOT NULL DEFAULT '',
	sent_at      INTEGER NOT NULL DEFAULT 0,
	read         INTEGER NOT NULL DEFAULT 0,
	fetched_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(sender_id);
CREATE INDEX IF NOT EXISTS idx_messages_recipient ON messages(recipient_id);
CREATE INDEX IF NOT EXISTS idx_messages_sent_at ON messages(sent_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS kv (
	key         TEXT PRIMARY KEY,
	value       TEXT NOT NULL,
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
	{
		version: 3,
		sql: `
CREATE TABLE IF NOT EXISTS announcements (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL DEFAULT '',
	content     TEXT NOT NULL DEFAULT '',
	author      TEXT NOT NULL DEFAULT '',
	priority    TEXT NOT NULL DEFAULT '',
	created_at  INTEGER NOT NULL DEFAULT 0
);

INSERT INTO schema_version (version) VALUES (3);
`,
	},
}
