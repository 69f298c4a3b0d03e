package attendance

import (
	"fmt"
	"sort"
	"time"
)

// Punctuality classifies a clock-in against the daily threshold.
type Punctuality string

const (
	PunctualityNone Punctuality = ""
	EarlyArrival    Punctuality = "EarlyArrival"
	OnTime          Punctuality = "OnTime"
	Late            Punctuality = "Late"
)

// ThresholdHour is the local hour a clock-in is measured against.
const ThresholdHour = 7

// WorkTimeSummary is the derived view of one staff day.
type WorkTimeSummary struct {
	StaffID     string         `json:"staff_id"`
	Date        string         `json:"date"`
	ClockIn     *time.Time     `json:"clock_in,omitempty"`
	ClockOut    *time.Time     `json:"clock_out,omitempty"`
	Duration    *time.Duration `json:"duration,omitempty"`
	Punctuality Punctuality    `json:"punctuality,omitempty"`
	InProgress  bool           `json:"in_progress"`
}

// WorkTimeDeriver turns raw session events into per-day summaries.
type WorkTimeDeriver struct {
	loc *time.Location
}

// NewWorkTimeDeriver builds a deriver that groups events by calendar day in loc.
func NewWorkTimeDeriver(loc *time.Location) *WorkTimeDeriver {
	return &WorkTimeDeriver{loc: locationOrLocal(loc)}
}

// Derive summarizes staffID's events, one summary per day that has at least one event,
// sorted by date. Events of other staff are ignored. The result depends only on the
// set of events, never on their order in the slice.
func (d *WorkTimeDeriver) Derive(staffID string, events []SessionEvent) []WorkTimeSummary {
	days := make(map[string][]SessionEvent)
	for _, e := range events {
		if e.StaffID != staffID {
			continue
		}
		day := DayOf(e.Timestamp, d.loc)
		days[day] = append(days[day], e)
	}

	out := make([]WorkTimeSummary, 0, len(days))
	for day, dayEvents := range days {
		if s, ok := d.summarize(staffID, day, dayEvents); ok {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// DeriveAll derives summaries for every staff id present in events.
func (d *WorkTimeDeriver) DeriveAll(events []SessionEvent) []WorkTimeSummary {
	byStaff := make(map[string][]SessionEvent)
	for _, e := range events {
		byStaff[e.StaffID] = append(byStaff[e.StaffID], e)
	}
	ids := make([]string, 0, len(byStaff))
	for id := range byStaff {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []WorkTimeSummary
	for _, id := range ids {
		out = append(out, d.Derive(id, byStaff[id])...)
	}
	return out
}

func (d *WorkTimeDeriver) summarize(staffID, day string, events []SessionEvent) (WorkTimeSummary, bool) {
	sorted := make([]SessionEvent, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Timestamp.Equal(sorted[j].Timestamp) {
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		}
		return sorted[i].ID < sorted[j].ID
	})

	// The ledger stores at most one event of each kind per day. Legacy data that
	// breaks this still resolves deterministically: earliest in, latest out.
	var in, out *SessionEvent
	for i := range sorted {
		e := &sorted[i]
		switch e.Kind {
		case KindClockIn:
			if in == nil {
				in = e
			}
		case KindClockOut:
			out = e
		}
	}
	if in == nil && out == nil {
		return WorkTimeSummary{}, false
	}

	s := WorkTimeSummary{StaffID: staffID, Date: day}
	if in != nil {
		t := in.Timestamp.In(d.loc)
		s.ClockIn = &t
		s.Punctuality = d.classify(t)
	}
	if out != nil {
		t := out.Timestamp.In(d.loc)
		s.ClockOut = &t
	}
	switch {
	case in != nil && out != nil:
		dur := out.Timestamp.Sub(in.Timestamp)
		s.Duration = &dur
	case in != nil:
		s.InProgress = true
	}
	return s, true
}

func (d *WorkTimeDeriver) classify(clockIn time.Time) Punctuality {
	local := clockIn.In(d.loc)
	threshold := time.Date(local.Year(), local.Month(), local.Day(), ThresholdHour, 0, 0, 0, d.loc)
	switch {
	case local.Before(threshold):
		return EarlyArrival
	case local.Hour() == ThresholdHour && local.Minute() == 0 && local.Second() == 0:
		return OnTime
	default:
		return Late
	}
}

// DurationParts splits d into whole hours, minutes and seconds, flooring at each unit.
func DurationParts(d time.Duration) (hours, minutes, seconds int64) {
	total := int64(d / time.Second)
	if d < 0 && d%time.Second != 0 {
		total--
	}
	hours = floorDiv(total, 3600)
	rem := total - hours*3600
	minutes = rem / 60
	seconds = rem % 60
	return hours, minutes, seconds
}

// FormatDuration renders d as "H hours M minutes S seconds".
func FormatDuration(d time.Duration) string {
	h, m, s := DurationParts(d)
	return fmt.Sprintf("%d hours %d minutes %d seconds", h, m, s)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
