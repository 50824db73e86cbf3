package database

import (
	"database/sql"
	"fmt"
	"time"
)

// SessionRecord holds one conversation's serialized state. The payload is
// owned by the agent; the store treats it as opaque text.
type SessionRecord struct {
	SessionID string
	State     string
	UpdatedAt time.Time
}

// GetSession retrieves a session by id. Returns nil when the session does
// not exist yet.
func (d *DB) GetSession(sessionID string) (*SessionRecord, error) {
	var record SessionRecord

	err := d.QueryRow(`
		SELECT session_id, state, updated_at
		FROM sessions WHERE session_id = ?
	`, sessionID).Scan(&record.SessionID, &record.State, &record.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return &record, nil
}

// SaveSession creates or replaces a session's serialized state
func (d *DB) SaveSession(sessionID, state string) error {
	_, err := d.Exec(`
		INSERT INTO sessions (session_id, state, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(session_id) DO UPDATE SET
			state = excluded.state,
			updated_at = CURRENT_TIMESTAMP
	`, sessionID, state)

	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// DeleteSession removes a session. Deleting a missing session is not an error.
func (d *DB) DeleteSession(sessionID string) error {
	if _, err := d.Exec(`DELETE FROM sessions WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
