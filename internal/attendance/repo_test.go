package attendance

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewRepository(mock), mock
}

func TestRepository_InsertDeclarationIfAbsent(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2024, 3, 4, 1, 0, 0, 0, time.UTC)
	d := decl("d1", "s1", "2024-03-04", StatusPresent)

	mock.ExpectQuery(regexp.QuoteMeta(insertDeclarationSQL)).
		WithArgs("d1", "s1", "Present", "2024-03-04", "07:30:00", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(created))
	mock.ExpectQuery(regexp.QuoteMeta(insertDeclarationSQL)).
		WithArgs("d1", "s1", "Present", "2024-03-04", "07:30:00", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}))

	saved, inserted, err := repo.InsertDeclarationIfAbsent(context.Background(), d)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, created, saved.CreatedAt)

	_, inserted, err = repo.InsertDeclarationIfAbsent(context.Background(), d)
	require.NoError(t, err)
	assert.False(t, inserted)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_InsertDeclarationForeignKey(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(insertDeclarationSQL)).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgForeignKeyViolation})

	_, _, err := repo.InsertDeclarationIfAbsent(context.Background(), decl("d1", "ghost", "2024-03-04", StatusSick))
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_QueryDeclarationsBuildsFilter(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Now().UTC()
	query := selectDeclarationsSQL + " WHERE staff_id = $1 AND declared_date >= $2 AND declared_date <= $3"

	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("s1", "2024-03-01", "2024-03-31").
		WillReturnRows(pgxmock.NewRows([]string{"id", "staff_id", "status", "declared_date", "time_of_day", "created_at"}).
			AddRow("d1", "s1", "Sick", "2024-03-05", "08:00:00", created))

	got, err := repo.QueryDeclarations(context.Background(), DeclarationFilter{StaffID: "s1", From: "2024-03-01", To: "2024-03-31"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, StatusSick, got[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetStaffNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(getStaffSQL)).
		WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "created_at"}))

	_, err := repo.GetStaff(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_SessionDay(t *testing.T) {
	repo, mock := newMockRepo(t)
	ts := at("2024-03-04", "08:00:00")

	mock.ExpectExec(regexp.QuoteMeta(lockSessionDaySQL)).
		WithArgs("s1|2024-03-04").
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(regexp.QuoteMeta(selectSessionsSQL+" WHERE staff_id = $1 AND work_day = $2")).
		WithArgs("s1", "2024-03-04").
		WillReturnRows(pgxmock.NewRows([]string{"id", "staff_id", "kind", "occurred_at", "work_day", "created_at"}).
			AddRow("e1", "s1", "clock-in", ts, "2024-03-04", ts))

	ctx := context.Background()
	require.NoError(t, repo.LockSessionDay(ctx, "s1", "2024-03-04"))
	events, err := repo.ListSessionDay(ctx, "s1", "2024-03-04")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, KindClockIn, events[0].Kind)
	assert.Equal(t, ClockedIn, DeriveState(events))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_InsertSessionEventUniqueViolation(t *testing.T) {
	repo, mock := newMockRepo(t)
	ts := at("2024-03-04", "17:00:00")

	mock.ExpectQuery(regexp.QuoteMeta(insertSessionSQL)).
		WithArgs("e2", "s1", "clock-out", ts, "2024-03-04").
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})

	_, err := repo.InsertSessionEvent(context.Background(), SessionEvent{
		ID: "e2", StaffID: "s1", Kind: KindClockOut, Timestamp: ts, Day: "2024-03-04",
	})
	reason, ok := Reason(err)
	require.True(t, ok)
	assert.Equal(t, ReasonAlreadyOut, reason)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_QuerySessionsWindow(t *testing.T) {
	repo, mock := newMockRepo(t)
	from := at("2024-03-01", "00:00:00")
	to := at("2024-04-01", "00:00:00")

	mock.ExpectQuery(regexp.QuoteMeta(selectSessionsSQL+" WHERE occurred_at >= $1 AND occurred_at < $2")).
		WithArgs(from, to).
		WillReturnError(errors.New("conn reset"))

	_, err := repo.QuerySessions(context.Background(), SessionFilter{From: from, To: to})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslatePgErrors(t *testing.T) {
	assert.ErrorIs(t, translateDeclarationPgError(&pgconn.PgError{Code: pgUniqueViolation}), ErrDuplicateSubmission)
	assert.ErrorIs(t, translateSessionPgError(&pgconn.PgError{Code: pgForeignKeyViolation}, KindClockIn), ErrNotFound)

	reason, _ := Reason(translateSessionPgError(&pgconn.PgError{Code: pgUniqueViolation}, KindClockIn))
	assert.Equal(t, ReasonAlreadyIn, reason)

	other := errors.New("other")
	assert.Same(t, other, translateDeclarationPgError(other))
}
