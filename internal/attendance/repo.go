package attendance

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"staffledger/internal/store"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

const (
	listStaffSQL = `SELECT id, name, created_at FROM staff`

	getStaffSQL = `SELECT id, name, created_at FROM staff WHERE id = $1`

	insertStaffSQL = `
		INSERT INTO staff (id, name, created_at)
		VALUES ($1, $2, $3)
	`

	insertDeclarationSQL = `
		INSERT INTO declarations (id, staff_id, status, declared_date, time_of_day, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (staff_id, declared_date) DO NOTHING
		RETURNING created_at
	`

	selectDeclarationsSQL = `SELECT id, staff_id, status, declared_date, time_of_day, created_at FROM declarations`

	lockSessionDaySQL = `SELECT pg_advisory_xact_lock(hashtext($1))`

	selectSessionsSQL = `SELECT id, staff_id, kind, occurred_at, work_day, created_at FROM session_events`

	insertSessionSQL = `
		INSERT INTO session_events (id, staff_id, kind, occurred_at, work_day)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
)

// Repository persists the ledger in Postgres. It implements StaffStore,
// DeclarationStore and SessionStore, joining any transaction found in the context.
type Repository struct {
	db store.Queryer
}

// NewRepository creates a repo.
func NewRepository(db store.Queryer) *Repository {
	return &Repository{db: db}
}

func (r *Repository) q(ctx context.Context) store.Queryer {
	return store.QueryerFromContext(ctx, r.db)
}

// ListStaff returns the roster ordered by name.
func (r *Repository) ListStaff(ctx context.Context, filter StaffFilter) ([]Staff, error) {
	query := listStaffSQL
	var args []any
	if filter.ID != "" {
		query += " WHERE id = $1"
		args = append(args, filter.ID)
	}
	query += " ORDER BY name, id"

	rows, err := r.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Staff
	for rows.Next() {
		var s Staff
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetStaff returns one roster entry or ErrNotFound.
func (r *Repository) GetStaff(ctx context.Context, id string) (Staff, error) {
	var s Staff
	err := r.q(ctx).QueryRow(ctx, getStaffSQL, id).Scan(&s.ID, &s.Name, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Staff{}, ErrNotFound
	}
	if err != nil {
		return Staff{}, err
	}
	return s, nil
}

// CreateStaff adds a roster entry. Used by operator tooling only.
func (r *Repository) CreateStaff(ctx context.Context, name string) (Staff, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Staff{}, errors.New("attendance: staff name required")
	}
	s := Staff{ID: uuid.NewString(), Name: name, CreatedAt: time.Now().UTC()}
	if _, err := r.q(ctx).Exec(ctx, insertStaffSQL, s.ID, s.Name, s.CreatedAt); err != nil {
		return Staff{}, err
	}
	return s, nil
}

// InsertDeclarationIfAbsent relies on the (staff_id, declared_date) unique key so
// concurrent submissions cannot both insert.
func (r *Repository) InsertDeclarationIfAbsent(ctx context.Context, d Declaration) (Declaration, bool, error) {
	row := r.q(ctx).QueryRow(ctx, insertDeclarationSQL,
		d.ID, d.StaffID, string(d.Status), d.Date, d.Time, d.CreatedAt)
	if err := row.Scan(&d.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Declaration{}, false, nil
		}
		return Declaration{}, false, translateDeclarationPgError(err)
	}
	return d, true, nil
}

// QueryDeclarations returns declarations matching filter.
func (r *Repository) QueryDeclarations(ctx context.Context, filter DeclarationFilter) ([]Declaration, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.StaffID != "" {
		args = append(args, filter.StaffID)
		clauses = append(clauses, "staff_id = $"+strconv.Itoa(len(args)))
	}
	if filter.From != "" {
		args = append(args, filter.From)
		clauses = append(clauses, "declared_date >= $"+strconv.Itoa(len(args)))
	}
	if filter.To != "" {
		args = append(args, filter.To)
		clauses = append(clauses, "declared_date <= $"+strconv.Itoa(len(args)))
	}
	query := selectDeclarationsSQL
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	rows, err := r.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Declaration
	for rows.Next() {
		var (
			d      Declaration
			status string
		)
		if err := rows.Scan(&d.ID, &d.StaffID, &status, &d.Date, &d.Time, &d.CreatedAt); err != nil {
			return nil, err
		}
		d.Status = Status(status)
		out = append(out, d)
	}
	return out, rows.Err()
}

// LockSessionDay takes a transaction-scoped advisory lock for (staff, day).
func (r *Repository) LockSessionDay(ctx context.Context, staffID, day string) error {
	_, err := r.q(ctx).Exec(ctx, lockSessionDaySQL, staffID+"|"+day)
	return err
}

// ListSessionDay returns the events stored for one staff day.
func (r *Repository) ListSessionDay(ctx context.Context, staffID, day string) ([]SessionEvent, error) {
	return r.querySessions(ctx, selectSessionsSQL+" WHERE staff_id = $1 AND work_day = $2", staffID, day)
}

// InsertSessionEvent stores e. A duplicate (staff, day, kind) maps to a sequence violation.
func (r *Repository) InsertSessionEvent(ctx context.Context, e SessionEvent) (SessionEvent, error) {
	row := r.q(ctx).QueryRow(ctx, insertSessionSQL, e.ID, e.StaffID, string(e.Kind), e.Timestamp, e.Day)
	if err := row.Scan(&e.CreatedAt); err != nil {
		return SessionEvent{}, translateSessionPgError(err, e.Kind)
	}
	return e, nil
}

// ListSessionsForStaff returns every event of one staff member.
func (r *Repository) ListSessionsForStaff(ctx context.Context, staffID string) ([]SessionEvent, error) {
	return r.querySessions(ctx, selectSessionsSQL+" WHERE staff_id = $1", staffID)
}

// QuerySessions returns events in the filter's time window.
func (r *Repository) QuerySessions(ctx context.Context, filter SessionFilter) ([]SessionEvent, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.StaffID != "" {
		args = append(args, filter.StaffID)
		clauses = append(clauses, "staff_id = $"+strconv.Itoa(len(args)))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		clauses = append(clauses, "occurred_at >= $"+strconv.Itoa(len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		clauses = append(clauses, "occurred_at < $"+strconv.Itoa(len(args)))
	}
	query := selectSessionsSQL
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	return r.querySessions(ctx, query, args...)
}

func (r *Repository) querySessions(ctx context.Context, query string, args ...any) ([]SessionEvent, error) {
	rows, err := r.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionEvent
	for rows.Next() {
		var (
			e    SessionEvent
			kind string
		)
		if err := rows.Scan(&e.ID, &e.StaffID, &kind, &e.Timestamp, &e.Day, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Kind = Kind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}

func translateDeclarationPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrDuplicateSubmission
		case pgForeignKeyViolation:
			return ErrNotFound
		}
	}
	return err
}

func translateSessionPgError(err error, kind Kind) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			if kind == KindClockIn {
				return &SequenceViolation{Reason: ReasonAlreadyIn}
			}
			return &SequenceViolation{Reason: ReasonAlreadyOut}
		case pgForeignKeyViolation:
			return ErrNotFound
		}
	}
	return err
}
