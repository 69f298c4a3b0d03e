package attendance

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionState is the clock state of one staff member for one calendar day.
type SessionState int

const (
	NoSession SessionState = iota
	ClockedIn
	Completed
)

func (s SessionState) String() string {
	switch s {
	case ClockedIn:
		return "clocked-in"
	case Completed:
		return "completed"
	default:
		return "no-session"
	}
}

// DeriveState folds a day's stored events into its state. Order does not matter.
func DeriveState(events []SessionEvent) SessionState {
	var in, out bool
	for _, e := range events {
		switch e.Kind {
		case KindClockIn:
			in = true
		case KindClockOut:
			out = true
		}
	}
	switch {
	case out:
		return Completed
	case in:
		return ClockedIn
	default:
		return NoSession
	}
}

// Accept validates kind against the state and returns the next state.
func (s SessionState) Accept(kind Kind) (SessionState, error) {
	switch s {
	case NoSession:
		if kind == KindClockIn {
			return ClockedIn, nil
		}
		return s, &SequenceViolation{Reason: ReasonNotYetIn}
	case ClockedIn:
		if kind == KindClockOut {
			return Completed, nil
		}
		return s, &SequenceViolation{Reason: ReasonAlreadyIn}
	default:
		return s, &SequenceViolation{Reason: ReasonAlreadyOut}
	}
}

// SessionLedger enforces the per-staff, per-day clock-in/clock-out sequence.
type SessionLedger struct {
	staff DeclarationStaff
	store SessionStore
	tx    TransactionManager
	loc   *time.Location
}

// NewSessionLedger builds a ledger. A nil tx runs without a transaction, which is only safe in tests.
func NewSessionLedger(staff DeclarationStaff, store SessionStore, tx TransactionManager, loc *time.Location) *SessionLedger {
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &SessionLedger{staff: staff, store: store, tx: tx, loc: locationOrLocal(loc)}
}

// RecordEvent validates and stores one clock event at ts.
func (l *SessionLedger) RecordEvent(ctx context.Context, staffID string, kind Kind, ts time.Time) (SessionEvent, error) {
	staffID = strings.TrimSpace(staffID)
	if staffID == "" {
		return SessionEvent{}, ErrInvalidStaffID
	}
	if !kind.Valid() {
		return SessionEvent{}, ErrInvalidKind
	}
	if ts.IsZero() {
		return SessionEvent{}, ErrInvalidDate
	}

	if _, err := l.staff.GetStaff(ctx, staffID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return SessionEvent{}, err
		}
		return SessionEvent{}, storageErr("get staff", err)
	}

	day := DayOf(ts, l.loc)
	var recorded SessionEvent
	err := l.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := l.store.LockSessionDay(txCtx, staffID, day); err != nil {
			return storageErr("lock session day", err)
		}
		existing, err := l.store.ListSessionDay(txCtx, staffID, day)
		if err != nil {
			return storageErr("list session day", err)
		}
		if _, err := DeriveState(existing).Accept(kind); err != nil {
			return err
		}
		if kind == KindClockOut && beforeClockIn(existing, ts) {
			return &SequenceViolation{Reason: ReasonNotYetIn}
		}

		saved, err := l.store.InsertSessionEvent(txCtx, SessionEvent{
			ID:        uuid.NewString(),
			StaffID:   staffID,
			Kind:      kind,
			Timestamp: ts,
			Day:       day,
		})
		if err != nil {
			if errors.Is(err, ErrSequenceViolation) || errors.Is(err, ErrNotFound) {
				return err
			}
			return storageErr("insert session event", err)
		}
		recorded = saved
		return nil
	})
	if err != nil {
		var sv *SequenceViolation
		if errors.As(err, &sv) || errors.Is(err, ErrNotFound) {
			return SessionEvent{}, err
		}
		return SessionEvent{}, storageErr("record session event", err)
	}
	return recorded, nil
}

// ListForStaff returns every stored event for staffID, unordered.
func (l *SessionLedger) ListForStaff(ctx context.Context, staffID string) ([]SessionEvent, error) {
	staffID = strings.TrimSpace(staffID)
	if staffID == "" {
		return nil, ErrInvalidStaffID
	}
	if _, err := l.staff.GetStaff(ctx, staffID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, storageErr("get staff", err)
	}
	events, err := l.store.ListSessionsForStaff(ctx, staffID)
	if err != nil {
		return nil, storageErr("list sessions", err)
	}
	return events, nil
}

func beforeClockIn(events []SessionEvent, ts time.Time) bool {
	for _, e := range events {
		if e.Kind == KindClockIn && ts.Before(e.Timestamp) {
			return true
		}
	}
	return false
}
