// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/pillow-tui/internal/model"
)

// schema is applied on open. Messages are stored as a JSON blob per
// session; position preserves the user's session ordering across loads.
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	last_message TEXT NOT NULL DEFAULT '',
	updated_at   INTEGER NOT NULL,
	messages     TEXT NOT NULL,
	position     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

const activeSessionKey = "active_session"

// ErrNotFound is returned when a requested session does not exist.
var ErrNotFound = errors.New("session not found")

// Snapshot is the persisted application state.
type Snapshot struct {
	Sessions        []*model.ChatSession
	ActiveSessionID string
}

// DB is the SQLite-backed persistence bridge.
type DB struct {
	db   *sql.DB
	path string
}

// DefaultPath returns the standard database location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".pillow", "pillow.db"), nil
}

// Open opens (or creates) the database at the given path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &DB{db: db, path: path}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// =============================================================================
// SAVE
// =============================================================================

// SaveSessions replaces all persisted sessions in one transaction.
func (d *DB) SaveSessions(sessions []*model.ChatSession) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM sessions"); err != nil {
		return fmt.Errorf("failed to clear sessions: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO sessions (id, title, last_message, updated_at, messages, position)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, sess := range sessions {
		blob, err := json.Marshal(sess.Messages)
		if err != nil {
			return fmt.Errorf("failed to encode messages for %s: %w", sess.ID, err)
		}
		_, err = stmt.Exec(sess.ID, sess.Title, sess.LastMessage, sess.UpdatedAt.UnixMilli(), string(blob), i)
		if err != nil {
			return fmt.Errorf("failed to insert session %s: %w", sess.ID, err)
		}
	}

	return tx.Commit()
}

// SaveActiveSession records which session is active. An empty id clears
// the marker.
func (d *DB) SaveActiveSession(id string) error {
	if id == "" {
		_, err := d.db.Exec("DELETE FROM meta WHERE key = ?", activeSessionKey)
		return err
	}
	_, err := d.db.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, activeSessionKey, id)
	return err
}

// =============================================================================
// LOAD
// =============================================================================

// Load reads the full persisted snapshot. A fresh database yields an
// empty snapshot, not an error. Generating flags do not survive a
// restart; any message persisted mid-stream loads as settled content.
func (d *DB) Load() (*Snapshot, error) {
	rows, err := d.db.Query(`
		SELECT id, title, last_message, updated_at, messages
		FROM sessions ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	snap := &Snapshot{}
	for rows.Next() {
		var (
			sess      model.ChatSession
			updatedAt int64
			blob      string
		)
		if err := rows.Scan(&sess.ID, &sess.Title, &sess.LastMessage, &updatedAt, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sess.UpdatedAt = time.UnixMilli(updatedAt)

		if err := json.Unmarshal([]byte(blob), &sess.Messages); err != nil {
			// Skip sessions with corrupted message blobs.
			continue
		}
		for _, msg := range sess.Messages {
			msg.Generating = false
		}

		snap.Sessions = append(snap.Sessions, &sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sessions: %w", err)
	}

	var active string
	err = d.db.QueryRow("SELECT value FROM meta WHERE key = ?", activeSessionKey).Scan(&active)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to read active session: %w", err)
	}
	snap.ActiveSessionID = active

	return snap, nil
}

// LoadSession reads a single session by id.
func (d *DB) LoadSession(id string) (*model.ChatSession, error) {
	var (
		sess      model.ChatSession
		updatedAt int64
		blob      string
	)
	err := d.db.QueryRow(`
		SELECT id, title, last_message, updated_at, messages
		FROM sessions WHERE id = ?
	`, id).Scan(&sess.ID, &sess.Title, &sess.LastMessage, &updatedAt, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	sess.UpdatedAt = time.UnixMilli(updatedAt)

	if err := json.Unmarshal([]byte(blob), &sess.Messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	for _, msg := range sess.Messages {
		msg.Generating = false
	}
	return &sess, nil
}

// SessionCount returns the number of persisted sessions.
func (d *DB) SessionCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&n)
	return n, err
}
