package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"studiobook/internal/models"
)

const bookingColumns = `id, name, service, date, time, duration, notes, created_at`

// InsertBooking persists b, assigning its ID and CreatedAt.
func (db *DB) InsertBooking(ctx context.Context, b *models.Booking) (int64, error) {
	if b == nil {
		return 0, fmt.Errorf("insert booking: %w", ErrInvalidBooking)
	}

	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, `
		INSERT INTO bookings (name, service, date, time, duration, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.Name, b.Service, b.Date, b.Time, b.Duration, b.Notes, now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last id: %w", err)
	}

	b.ID = id
	b.CreatedAt = now
	return id, nil
}

// GetBooking returns a booking by ID or sql.ErrNoRows.
func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	row := db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get booking %d: %w", id, err)
	}
	return b, nil
}

// ListBookings returns all bookings ordered by date, then time.
func (db *DB) ListBookings(ctx context.Context) ([]models.Booking, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		ORDER BY date, time, id`)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

// FindByServiceAndDate returns bookings competing for the same service on date.
func (db *DB) FindByServiceAndDate(ctx context.Context, service, date string) ([]models.Booking, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE service = ? AND date = ?
		ORDER BY time, id`,
		service, date,
	)
	if err != nil {
		return nil, fmt.Errorf("find bookings for %s on %s: %w", service, date, err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

// DeleteBooking removes a booking. Deleting a missing ID is not an error.
func (db *DB) DeleteBooking(ctx context.Context, id int64) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete booking %d: %w", id, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	var notes sql.NullString
	if err := row.Scan(
		&b.ID, &b.Name, &b.Service, &b.Date, &b.Time,
		&b.Duration, &notes, &b.CreatedAt,
	); err != nil {
		return nil, err
	}
	if notes.Valid {
		b.Notes = notes.String
	}
	return &b, nil
}

func collectBookings(rows *sql.Rows) ([]models.Booking, error) {
	bookings := make([]models.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}
	return bookings, nil
}
