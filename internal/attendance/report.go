package attendance

import (
	"sort"
	"strings"
	"time"
)

// ReportFilter narrows a report. Zero Month or Year means unset.
type ReportFilter struct {
	StaffID string
	Month   int
	Year    int
}

// Validate checks the numeric ranges of the filter.
func (f ReportFilter) Validate() error {
	if f.Month < 0 || f.Month > 12 {
		return ErrInvalidFilter
	}
	if f.Year < 0 || f.Year > 9999 {
		return ErrInvalidFilter
	}
	return nil
}

// Resolve pins the default year of a month-only filter to the year at now.
func (f ReportFilter) Resolve(now time.Time, loc *time.Location) ReportFilter {
	if f.Month > 0 && f.Year == 0 {
		f.Year = now.In(locationOrLocal(loc)).Year()
	}
	return f
}

// Window resolves the filter to a [from, to) range of instants in loc. A month
// without a year uses the current year at now. ok is false when no date filter applies.
func (f ReportFilter) Window(now time.Time, loc *time.Location) (from, to time.Time, ok bool) {
	loc = locationOrLocal(loc)
	f = f.Resolve(now, loc)
	switch {
	case f.Month > 0:
		from = time.Date(f.Year, time.Month(f.Month), 1, 0, 0, 0, 0, loc)
		return from, from.AddDate(0, 1, 0), true
	case f.Year > 0:
		from = time.Date(f.Year, time.January, 1, 0, 0, 0, 0, loc)
		return from, from.AddDate(1, 0, 0), true
	default:
		return time.Time{}, time.Time{}, false
	}
}

// DateRange resolves the filter to inclusive YYYY-MM-DD bounds.
func (f ReportFilter) DateRange(now time.Time, loc *time.Location) (first, last string, ok bool) {
	from, to, ok := f.Window(now, loc)
	if !ok {
		return "", "", false
	}
	return from.Format(DateLayout), to.AddDate(0, 0, -1).Format(DateLayout), true
}

// ReportRow joins a declaration and a work-time summary for one (staff, date).
// A nil side is not available.
type ReportRow struct {
	StaffID     string
	StaffName   string
	HasStaff    bool
	Date        string
	Declaration *Declaration
	Summary     *WorkTimeSummary
}

// ReportAggregator joins declarations with derived summaries.
type ReportAggregator struct {
	clock Clock
	loc   *time.Location
}

// NewReportAggregator builds an aggregator. The clock supplies the default year.
func NewReportAggregator(clock Clock, loc *time.Location) *ReportAggregator {
	if clock == nil {
		clock = realClock{}
	}
	return &ReportAggregator{clock: clock, loc: locationOrLocal(loc)}
}

type joinKey struct {
	staffID string
	date    string
}

// Aggregate filters the inputs, joins them on (staff, date) one-to-one and sorts
// the rows by staff id, date and declaration id.
func (a *ReportAggregator) Aggregate(staff []Staff, declarations []Declaration, summaries []WorkTimeSummary, filter ReportFilter) ([]ReportRow, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	staffID := strings.TrimSpace(filter.StaffID)
	first, last, dated := filter.DateRange(a.clock.Now(), a.loc)
	keep := func(id, date string) bool {
		if staffID != "" && id != staffID {
			return false
		}
		if dated && (date < first || date > last) {
			return false
		}
		return true
	}

	names := make(map[string]string, len(staff))
	for _, s := range staff {
		if staffID != "" && s.ID != staffID {
			continue
		}
		names[s.ID] = s.Name
	}

	byKey := make(map[joinKey]*WorkTimeSummary, len(summaries))
	for i := range summaries {
		s := summaries[i]
		if !keep(s.StaffID, s.Date) {
			continue
		}
		k := joinKey{s.StaffID, s.Date}
		if _, dup := byKey[k]; dup {
			continue
		}
		byKey[k] = &s
	}

	decls := make([]Declaration, 0, len(declarations))
	for _, d := range declarations {
		if keep(d.StaffID, d.Date) {
			decls = append(decls, d)
		}
	}
	sort.Slice(decls, func(i, j int) bool { return decls[i].ID < decls[j].ID })

	rows := make([]ReportRow, 0, len(decls)+len(byKey))
	matched := make(map[joinKey]bool, len(byKey))
	for i := range decls {
		d := decls[i]
		k := joinKey{d.StaffID, d.Date}
		row := a.newRow(names, d.StaffID, d.Date)
		row.Declaration = &d
		if s, ok := byKey[k]; ok && !matched[k] {
			row.Summary = s
			matched[k] = true
		}
		rows = append(rows, row)
	}
	for k, s := range byKey {
		if matched[k] {
			continue
		}
		row := a.newRow(names, k.staffID, k.date)
		row.Summary = s
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].StaffID != rows[j].StaffID {
			return rows[i].StaffID < rows[j].StaffID
		}
		if rows[i].Date != rows[j].Date {
			return rows[i].Date < rows[j].Date
		}
		return rows[i].declarationID() < rows[j].declarationID()
	})
	return rows, nil
}

func (a *ReportAggregator) newRow(names map[string]string, staffID, date string) ReportRow {
	name, ok := names[staffID]
	return ReportRow{StaffID: staffID, StaffName: name, HasStaff: ok, Date: date}
}

func (r ReportRow) declarationID() string {
	if r.Declaration == nil {
		return ""
	}
	return r.Declaration.ID
}
