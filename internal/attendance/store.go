package attendance

import (
	"context"
	"time"
)

// StaffStore reads the roster.
type StaffStore interface {
	ListStaff(ctx context.Context, filter StaffFilter) ([]Staff, error)
	GetStaff(ctx context.Context, id string) (Staff, error)
}

// StaffFilter narrows a roster listing. Empty means everyone.
type StaffFilter struct {
	ID string
}

// DeclarationStore persists declarations.
type DeclarationStore interface {
	// InsertDeclarationIfAbsent inserts d unless a declaration already exists for
	// (d.StaffID, d.Date). The check and the insert are one atomic statement.
	// It reports false when an existing row won.
	InsertDeclarationIfAbsent(ctx context.Context, d Declaration) (Declaration, bool, error)
	QueryDeclarations(ctx context.Context, filter DeclarationFilter) ([]Declaration, error)
}

// DeclarationFilter narrows a declaration query. Dates are inclusive YYYY-MM-DD bounds.
type DeclarationFilter struct {
	StaffID string
	From    string
	To      string
}

// SessionStore persists session events.
type SessionStore interface {
	// LockSessionDay serializes writers for one staff day until the surrounding
	// transaction ends.
	LockSessionDay(ctx context.Context, staffID, day string) error
	ListSessionDay(ctx context.Context, staffID, day string) ([]SessionEvent, error)
	InsertSessionEvent(ctx context.Context, e SessionEvent) (SessionEvent, error)
	ListSessionsForStaff(ctx context.Context, staffID string) ([]SessionEvent, error)
	QuerySessions(ctx context.Context, filter SessionFilter) ([]SessionEvent, error)
}

// SessionFilter narrows a session query to [From, To). Zero bounds are open.
type SessionFilter struct {
	StaffID string
	From    time.Time
	To      time.Time
}

// TransactionManager runs fn inside a storage transaction.
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}
