package attendance

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DeclarationLedger enforces one declaration per staff per calendar day.
type DeclarationLedger struct {
	staff DeclarationStaff
	store DeclarationStore
	clock Clock
	loc   *time.Location
}

// DeclarationStaff is the roster view the ledger needs.
type DeclarationStaff interface {
	GetStaff(ctx context.Context, id string) (Staff, error)
}

// NewDeclarationLedger builds a ledger. A nil clock uses wall time; a nil location uses time.Local.
func NewDeclarationLedger(staff DeclarationStaff, store DeclarationStore, clock Clock, loc *time.Location) *DeclarationLedger {
	if clock == nil {
		clock = realClock{}
	}
	return &DeclarationLedger{staff: staff, store: store, clock: clock, loc: locationOrLocal(loc)}
}

// SubmitInput is a declaration request. Empty Date and Time default to now in the ledger's location.
type SubmitInput struct {
	StaffID string
	Status  Status
	Date    string
	Time    string
}

// Submit records a declaration, failing with ErrDuplicateSubmission when one exists for the day.
func (l *DeclarationLedger) Submit(ctx context.Context, in SubmitInput) (Declaration, error) {
	staffID := strings.TrimSpace(in.StaffID)
	if staffID == "" {
		return Declaration{}, ErrInvalidStaffID
	}
	if !in.Status.Valid() {
		return Declaration{}, ErrInvalidStatus
	}

	now := l.clock.Now().In(l.loc)
	date := strings.TrimSpace(in.Date)
	if date == "" {
		date = now.Format(DateLayout)
	} else if _, err := time.Parse(DateLayout, date); err != nil {
		return Declaration{}, ErrInvalidDate
	}
	tod := strings.TrimSpace(in.Time)
	if tod == "" {
		tod = now.Format(TimeLayout)
	} else if _, err := time.Parse(TimeLayout, tod); err != nil {
		return Declaration{}, ErrInvalidTime
	}

	if _, err := l.staff.GetStaff(ctx, staffID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Declaration{}, err
		}
		return Declaration{}, storageErr("get staff", err)
	}

	d := Declaration{
		ID:        uuid.NewString(),
		StaffID:   staffID,
		Status:    in.Status,
		Date:      date,
		Time:      tod,
		CreatedAt: now,
	}
	saved, inserted, err := l.store.InsertDeclarationIfAbsent(ctx, d)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicateSubmission) {
			return Declaration{}, err
		}
		return Declaration{}, storageErr("insert declaration", err)
	}
	if !inserted {
		return Declaration{}, ErrDuplicateSubmission
	}
	return saved, nil
}

// Query returns declarations matching filter in no particular order.
func (l *DeclarationLedger) Query(ctx context.Context, filter DeclarationFilter) ([]Declaration, error) {
	for _, bound := range []string{filter.From, filter.To} {
		if bound == "" {
			continue
		}
		if _, err := time.Parse(DateLayout, bound); err != nil {
			return nil, ErrInvalidDate
		}
	}
	out, err := l.store.QueryDeclarations(ctx, filter)
	if err != nil {
		return nil, storageErr("query declarations", err)
	}
	return out, nil
}
