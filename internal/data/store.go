package data

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS gm_link (
	account_id INTEGER PRIMARY KEY,
	discord_user_id INTEGER,
	verified INTEGER NOT NULL DEFAULT 0,
	secret_hash TEXT,
	secret_expires_at INTEGER,
	gm_name TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_gm_link_discord_user
	ON gm_link(discord_user_id) WHERE discord_user_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS inbox (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	discord_user_id INTEGER NOT NULL,
	action TEXT NOT NULL,
	payload TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	processed INTEGER NOT NULL DEFAULT 0,
	processed_at INTEGER,
	status TEXT NOT NULL DEFAULT '',
	result TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_inbox_pending ON inbox(processed, id);

CREATE TABLE IF NOT EXISTS outbox (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	event_type TEXT NOT NULL,
	payload TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	dispatched INTEGER NOT NULL DEFAULT 0,
	dispatched_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox(dispatched, id);

CREATE TABLE IF NOT EXISTS whisper_session (
	player_guid INTEGER PRIMARY KEY,
	discord_user_id INTEGER NOT NULL,
	gm_name TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_whisper_session_gm_name
	ON whisper_session(gm_name COLLATE NOCASE);

CREATE TABLE IF NOT EXISTS audit (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	discord_user_id INTEGER NOT NULL,
	account_id INTEGER NOT NULL,
	action TEXT NOT NULL,
	category TEXT NOT NULL,
	status TEXT NOT NULL,
	detail TEXT NOT NULL,
	payload TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS ticket_room (
	ticket_id INTEGER PRIMARY KEY,
	channel_id INTEGER NOT NULL,
	guild_id INTEGER NOT NULL,
	created_at INTEGER NOT NULL,
	archived_at INTEGER
);
`

// Open opens (creating if needed) the bridge database and bootstraps the
// schema. Single-writer access is expected; busy_timeout covers the two
// polling loops sharing the file.
func Open(dbPath string) (*sql.DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return db, nil
}
