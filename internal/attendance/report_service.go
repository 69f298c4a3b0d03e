package attendance

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
)

// ReportService loads ledger data and produces combined report rows.
type ReportService struct {
	staff        StaffStore
	declarations DeclarationStore
	sessions     SessionStore
	deriver      *WorkTimeDeriver
	aggregator   *ReportAggregator
	clock        Clock
	loc          *time.Location
}

// NewReportService wires the report pipeline.
func NewReportService(staff StaffStore, declarations DeclarationStore, sessions SessionStore, clock Clock, loc *time.Location) *ReportService {
	if clock == nil {
		clock = realClock{}
	}
	loc = locationOrLocal(loc)
	return &ReportService{
		staff:        staff,
		declarations: declarations,
		sessions:     sessions,
		deriver:      NewWorkTimeDeriver(loc),
		aggregator:   NewReportAggregator(clock, loc),
		clock:        clock,
		loc:          loc,
	}
}

// Generate runs the three reads concurrently, derives work time and joins the result.
// The reads are not a snapshot; a row whose other side has not landed yet is reported
// with that side unavailable.
func (s *ReportService) Generate(ctx context.Context, filter ReportFilter) ([]ReportRow, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	// One clock reading serves both the storage window and the join filter.
	now := s.clock.Now()
	filter = filter.Resolve(now, s.loc)
	declFilter := DeclarationFilter{StaffID: filter.StaffID}
	sessFilter := SessionFilter{StaffID: filter.StaffID}
	if from, to, ok := filter.Window(now, s.loc); ok {
		declFilter.From = from.Format(DateLayout)
		declFilter.To = to.AddDate(0, 0, -1).Format(DateLayout)
		sessFilter.From = from
		sessFilter.To = to
	}

	var (
		staff        []Staff
		declarations []Declaration
		events       []SessionEvent
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		staff, err = s.staff.ListStaff(gctx, StaffFilter{ID: filter.StaffID})
		return storageErr("list staff", err)
	})
	g.Go(func() error {
		var err error
		declarations, err = s.declarations.QueryDeclarations(gctx, declFilter)
		return storageErr("query declarations", err)
	})
	g.Go(func() error {
		var err error
		events, err = s.sessions.QuerySessions(gctx, sessFilter)
		return storageErr("query sessions", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return s.aggregator.Aggregate(staff, declarations, s.deriver.DeriveAll(events), filter)
}

// WorkTime derives the summaries of one staff member over all stored events.
func (s *ReportService) WorkTime(ctx context.Context, staffID string) ([]WorkTimeSummary, error) {
	if staffID == "" {
		return nil, ErrInvalidStaffID
	}
	if _, err := s.staff.GetStaff(ctx, staffID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, storageErr("get staff", err)
	}
	events, err := s.sessions.ListSessionsForStaff(ctx, staffID)
	if err != nil {
		return nil, storageErr("list sessions", err)
	}
	return s.deriver.Derive(staffID, events), nil
}

// Location returns the calendar-day location of the service.
func (s *ReportService) Location() *time.Location {
	return s.loc
}
