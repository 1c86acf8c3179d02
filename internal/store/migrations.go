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

CREATE TABLE IF NOT EXISTS follows (
	subscriber_id INTEGER NOT NULL,
	entity_id     INTEGER NOT NULL,
	display_name  TEXT NOT NULL COLLATE NOCASE,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (subscriber_id, entity_id)
);

CREATE INDEX IF NOT EXISTS idx_follows_entity_id ON follows(entity_id);

CREATE TABLE IF NOT EXISTS sent_notifications (
	subscriber_id INTEGER NOT NULL,
	entity_id     INTEGER NOT NULL,
	event_id      TEXT NOT NULL,
	kind          TEXT NOT NULL CHECK(kind IN ('upcoming', 'completed')),
	sent_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (subscriber_id, entity_id, event_id, kind)
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_follows_subscriber_name
	ON follows(subscriber_id, display_name COLLATE NOCASE);

CREATE INDEX IF NOT EXISTS idx_sent_notifications_pair
	ON sent_notifications(subscriber_id, entity_id);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
