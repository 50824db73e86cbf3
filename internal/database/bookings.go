package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Booking is one successfully created calendar event
type Booking struct {
	ID        int64
	SessionID string
	Utterance string
	StartTime time.Time
	EndTime   time.Time
	EventLink string
	CreatedAt time.Time
}

// CreateBooking records a successful booking and returns its id
func (d *DB) CreateBooking(sessionID, utterance string, startTime, endTime time.Time, eventLink string) (int64, error) {
	result, err := d.Exec(`
		INSERT INTO bookings (session_id, utterance, start_time, end_time, event_link)
		VALUES (?, ?, ?, ?, ?)
	`, sessionID, utterance, startTime, endTime, eventLink)
	if err != nil {
		return 0, fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get booking id: %w", err)
	}

	return id, nil
}

// GetBooking retrieves a booking by id. Returns nil when not found.
func (d *DB) GetBooking(id int64) (*Booking, error) {
	var b Booking

	err := d.QueryRow(`
		SELECT id, session_id, utterance, start_time, end_time, event_link, created_at
		FROM bookings WHERE id = ?
	`, id).Scan(&b.ID, &b.SessionID, &b.Utterance, &b.StartTime, &b.EndTime, &b.EventLink, &b.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return &b, nil
}

// ListBookings returns the most recent bookings, newest first
func (d *DB) ListBookings(limit int) ([]Booking, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := d.Query(`
		SELECT id, session_id, utterance, start_time, end_time, event_link, created_at
		FROM bookings ORDER BY created_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.SessionID, &b.Utterance, &b.StartTime, &b.EndTime, &b.EventLink, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}

	return bookings, rows.Err()
}
