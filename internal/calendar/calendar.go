// Package calendar defines the external calendar capability the invitation
// engine consumes, plus its Google Calendar implementation.
package calendar

import (
	"context"
	"fmt"
	"time"
)

// Event carries everything needed to create or replace a calendar entry.
// Recurrence is an RRULE line; empty means a standalone event. Attendee
// lists are always full replacements, never deltas.
type Event struct {
	Summary     string
	Location    string
	Description string
	Start       time.Time
	End         time.Time
	TimeZone    string
	Recurrence  string
	Attendees   []string
}

// Occurrence is one dated instance of a recurring event. Depending on how
// the parent event was created the provider reports either a date-only value
// or a full timestamp; Day normalizes both.
type Occurrence struct {
	ID        string
	Date      string // "2006-01-02" when the instance is all-day
	DateTime  string // RFC3339 otherwise
	Cancelled bool
}

// Day returns the occurrence's calendar date, normalizing the date-only and
// timestamp representations. Comparisons against session dates must go
// through this, never through the raw fields.
func (o Occurrence) Day() (time.Time, error) {
	if o.Date != "" {
		d, err := time.Parse("2006-01-02", o.Date)
		if err != nil {
			return time.Time{}, fmt.Errorf("occurrence %s: bad date %q: %w", o.ID, o.Date, err)
		}
		return d, nil
	}
	ts, err := time.Parse(time.RFC3339, o.DateTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("occurrence %s: bad datetime %q: %w", o.ID, o.DateTime, err)
	}
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC), nil
}

// SameDay reports whether the occurrence falls on the given calendar date.
func (o Occurrence) SameDay(date time.Time) bool {
	d, err := o.Day()
	if err != nil {
		return false
	}
	y1, m1, d1 := d.Date()
	y2, m2, d2 := date.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// Service is the calendar capability. notify controls whether the provider
// emails attendees about the mutation; bookkeeping writes (reconciliation,
// occurrence cancellation before a replacement is announced) pass false.
type Service interface {
	CreateRecurring(ctx context.Context, ev Event, notify bool) (string, error)
	UpdateRecurring(ctx context.Context, eventID string, ev Event, notify bool) (string, error)
	// Delete is idempotent from the caller's point of view: deleting an
	// already-absent event is not an error.
	Delete(ctx context.Context, eventID string) error
	Get(ctx context.Context, eventID string) (*Event, error)
	Occurrences(ctx context.Context, eventID string) ([]Occurrence, error)
	CancelOccurrence(ctx context.Context, occ Occurrence, notify bool) error
	CreateStandalone(ctx context.Context, ev Event, notify bool) (string, error)
}
