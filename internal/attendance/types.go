package attendance

import (
	"time"
)

// DateLayout is the calendar-day form used for declarations and session days.
const DateLayout = "2006-01-02"

// TimeLayout is the time-of-day form stored with a declaration.
const TimeLayout = "15:04:05"

// Staff is a roster entry. The roster itself is owned elsewhere; the ledger only reads it.
type Staff struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Status is a self-reported attendance status.
type Status string

const (
	StatusPresent Status = "Present"
	StatusSick    Status = "Sick"
	StatusLeave   Status = "Leave"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusSick, StatusLeave:
		return true
	default:
		return false
	}
}

// RequiresLocation reports whether a declaration with this status needs location proof.
func (s Status) RequiresLocation() bool {
	return s == StatusPresent
}

// Declaration is one staff member's status for one calendar day.
type Declaration struct {
	ID        string    `json:"id"`
	StaffID   string    `json:"staff_id"`
	Status    Status    `json:"status"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	CreatedAt time.Time `json:"created_at"`
}

// Kind is the type of a session event.
type Kind string

const (
	KindClockIn  Kind = "clock-in"
	KindClockOut Kind = "clock-out"
)

// Valid reports whether k is a known event kind.
func (k Kind) Valid() bool {
	return k == KindClockIn || k == KindClockOut
}

// SessionEvent is a single clock-in or clock-out instant.
type SessionEvent struct {
	ID        string    `json:"id"`
	StaffID   string    `json:"staff_id"`
	Kind      Kind      `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Day       string    `json:"day"`
	CreatedAt time.Time `json:"created_at"`
}

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// DayOf returns the local calendar day containing t.
func DayOf(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}

// DayBounds returns the [start, end) instants of a calendar day in loc.
func DayBounds(day string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(DateLayout, day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidDate
	}
	return start, start.AddDate(0, 0, 1), nil
}

func locationOrLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
