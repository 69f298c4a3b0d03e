// Package report renders combined ledger rows into an ordered column model and
// writes them to a row sink.
package report

import (
	"fmt"
	"time"

	"staffledger/internal/attendance"
)

// NotAvailable marks a column whose source side is missing.
const NotAvailable = "N/A"

// InProgress is rendered as total work time while a day has no clock-out yet.
const InProgress = "In Progress"

// Column describes one output column.
type Column struct {
	Key   string
	Title string
	Width float64
}

// Columns is the fixed export layout.
var Columns = []Column{
	{Key: "id", Title: "ID", Width: 25},
	{Key: "staffId", Title: "Staff ID", Width: 25},
	{Key: "name", Title: "Nama", Width: 25},
	{Key: "time", Title: "Time", Width: 15},
	{Key: "status", Title: "Status", Width: 15},
	{Key: "date", Title: "Tanggal", Width: 15},
	{Key: "clockInTime", Title: "Jam Masuk", Width: 15},
	{Key: "clockOutTime", Title: "Jam Pulang", Width: 15},
	{Key: "totalHours", Title: "Total Jam Kerja", Width: 25},
	{Key: "keterangan", Title: "Keterangan", Width: 20},
}

// Sink consumes the header once and then rows in order.
type Sink interface {
	WriteHeader(cols []Column) error
	WriteRow(values []string) error
	Close() error
}

// Render turns one combined row into column values, in Columns order.
func Render(row attendance.ReportRow, loc *time.Location) []string {
	if loc == nil {
		loc = time.Local
	}
	values := []string{
		NotAvailable,
		row.StaffID,
		NotAvailable,
		NotAvailable,
		NotAvailable,
		row.Date,
		NotAvailable,
		NotAvailable,
		NotAvailable,
		NotAvailable,
	}
	if row.HasStaff {
		values[2] = row.StaffName
	}
	if d := row.Declaration; d != nil {
		values[0] = d.ID
		values[3] = d.Time
		values[4] = string(d.Status)
	}
	if s := row.Summary; s != nil {
		if s.ClockIn != nil {
			values[6] = s.ClockIn.In(loc).Format(attendance.TimeLayout)
		}
		if s.ClockOut != nil {
			values[7] = s.ClockOut.In(loc).Format(attendance.TimeLayout)
		}
		switch {
		case s.Duration != nil:
			values[8] = attendance.FormatDuration(*s.Duration)
		case s.InProgress:
			values[8] = InProgress
		}
		values[9] = string(s.Punctuality)
	}
	return values
}

// Write streams rows into sink and closes it.
func Write(sink Sink, rows []attendance.ReportRow, loc *time.Location) error {
	if err := sink.WriteHeader(Columns); err != nil {
		_ = sink.Close()
		return err
	}
	for _, row := range rows {
		if err := sink.WriteRow(Render(row, loc)); err != nil {
			_ = sink.Close()
			return err
		}
	}
	return sink.Close()
}

// FileName names an export after its filter, e.g. "combined-report-2024-03.xlsx".
func FileName(filter attendance.ReportFilter, ext string) string {
	name := "combined-report"
	if filter.StaffID != "" {
		name += "-" + filter.StaffID
	}
	switch {
	case filter.Month > 0 && filter.Year > 0:
		name += fmt.Sprintf("-%04d-%02d", filter.Year, filter.Month)
	case filter.Month > 0:
		name += fmt.Sprintf("-%02d", filter.Month)
	case filter.Year > 0:
		name += fmt.Sprintf("-%04d", filter.Year)
	}
	return name + "." + ext
}
