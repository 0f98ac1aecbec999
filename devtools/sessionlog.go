package devtools

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SessionLog persists every observed Event to a SQLite database: one
// sessions row per process run, identified by a fresh session ID, and one
// events row per Event tagged with that ID, so a later
// cmd/reactor-replay invocation can page back through exactly what a
// session did.
type SessionLog struct {
	db        *sql.DB
	sessionID uuid.UUID
}

// OpenSessionLog opens (creating if absent) the SQLite database at path and
// starts a new session row.
func OpenSessionLog(path string) (*SessionLog, error) {
	db, err := openSchema(path)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	if _, err := db.Exec(`INSERT INTO sessions (id, started_at) VALUES (?, CURRENT_TIMESTAMP)`, id.String()); err != nil {
		db.Close()
		return nil, fmt.Errorf("devtools: insert session: %w", err)
	}

	return &SessionLog{db: db, sessionID: id}, nil
}

// OpenSessionLogReadOnly opens the SQLite database at path for querying
// past sessions without starting a new one, the shape cmd/reactor-replay
// needs: it only ever reads sessions a prior instrumented run already
// wrote.
func OpenSessionLogReadOnly(path string) (*SessionLog, error) {
	db, err := openSchema(path)
	if err != nil {
		return nil, err
	}
	return &SessionLog{db: db}, nil
}

func openSchema(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("devtools: open session log: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("devtools: create schema: %w", err)
	}
	return db, nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	started_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	occurred_at TIMESTAMP NOT NULL,
	kind TEXT NOT NULL,
	payload TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_session ON events (session_id);
`

// SessionID returns the UUID assigned to this run.
func (l *SessionLog) SessionID() uuid.UUID { return l.sessionID }

// Append records ev against the current session.
func (l *SessionLog) Append(ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = l.db.Exec(
		`INSERT INTO events (session_id, occurred_at, kind, payload) VALUES (?, ?, ?, ?)`,
		l.sessionID.String(), ev.Timestamp, string(ev.Kind), string(payload),
	)
	return err
}

// Events returns every event recorded for sessionID, oldest first.
func (l *SessionLog) Events(sessionID string) ([]Event, error) {
	rows, err := l.db.Query(
		`SELECT payload FROM events WHERE session_id = ? ORDER BY id ASC`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var ev Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Sessions returns every known session ID, most recent first.
func (l *SessionLog) Sessions() ([]string, error) {
	rows, err := l.db.Query(`SELECT id FROM sessions ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the underlying database handle.
func (l *SessionLog) Close() error { return l.db.Close() }
