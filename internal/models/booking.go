package models

import (
	"time"
)

const (
	// DateLayout is the wire format of Booking.Date.
	DateLayout = "2006-01-02"
	// TimeLayout is the wire format of Booking.Time (24-hour clock).
	TimeLayout = "15:04"

	// DefaultDurationMinutes applies when a booking carries no positive duration.
	DefaultDurationMinutes = 60
)

// Booking represents a studio service booking record.
type Booking struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Service   string    `json:"service"`
	Date      string    `json:"date"`     // YYYY-MM-DD
	Time      string    `json:"time"`     // HH:MM
	Duration  int       `json:"duration"` // minutes
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

// BookingInput is the payload accepted when requesting a new booking.
// Duration is optional; nil means "use the default".
type BookingInput struct {
	Name     string `json:"name"`
	Service  string `json:"service"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Duration *int   `json:"duration,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// ParseStart combines a date and a time-of-day into a local instant.
// No timezone offset is applied.
func ParseStart(date, clock string) (time.Time, error) {
	return time.ParseInLocation(DateLayout+"T"+TimeLayout, date+"T"+clock, time.Local)
}

// EffectiveDuration returns the booking length, falling back to the default
// when Duration is missing or not positive.
func (b *Booking) EffectiveDuration() time.Duration {
	if b.Duration <= 0 {
		return DefaultDurationMinutes * time.Minute
	}
	return time.Duration(b.Duration) * time.Minute
}

// Interval returns the [start, end) range occupied by the booking.
func (b *Booking) Interval() (start, end time.Time, err error) {
	start, err = ParseStart(b.Date, b.Time)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.Add(b.EffectiveDuration()), nil
}

// OverlapsWith checks if this booking overlaps with another booking.
// Uses half-open interval [start, end) semantics, so back-to-back bookings
// do not overlap. Bookings whose date or time cannot be parsed never overlap.
func (b *Booking) OverlapsWith(other *Booking) bool {
	thisStart, thisEnd, err := b.Interval()
	if err != nil {
		return false
	}
	otherStart, otherEnd, err := other.Interval()
	if err != nil {
		return false
	}

	return !(!thisEnd.After(otherStart) || !thisStart.Before(otherEnd))
}

// SameSlot reports whether two bookings compete for the same service on the same date.
func (b *Booking) SameSlot(other *Booking) bool {
	return b.Service == other.Service && b.Date == other.Date
}
