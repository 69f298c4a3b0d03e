package api

import (
	"context"
	"sync"

	"staffledger/internal/attendance"
	"staffledger/internal/board"
	"staffledger/internal/queue"
)

type memStore struct {
	mu     sync.Mutex
	staff  map[string]attendance.Staff
	decls  []attendance.Declaration
	events []attendance.SessionEvent
	err    error
}

func newMemStore(ids ...string) *memStore {
	m := &memStore{staff: make(map[string]attendance.Staff)}
	for _, id := range ids {
		m.staff[id] = attendance.Staff{ID: id, Name: "Name " + id}
	}
	return m
}

func (m *memStore) ListStaff(_ context.Context, f attendance.StaffFilter) ([]attendance.Staff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []attendance.Staff
	for _, s := range m.staff {
		if f.ID == "" || f.ID == s.ID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) GetStaff(_ context.Context, id string) (attendance.Staff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return attendance.Staff{}, m.err
	}
	s, ok := m.staff[id]
	if !ok {
		return attendance.Staff{}, attendance.ErrNotFound
	}
	return s, nil
}

func (m *memStore) InsertDeclarationIfAbsent(_ context.Context, d attendance.Declaration) (attendance.Declaration, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.decls {
		if e.StaffID == d.StaffID && e.Date == d.Date {
			return attendance.Declaration{}, false, nil
		}
	}
	m.decls = append(m.decls, d)
	return d, true, nil
}

func (m *memStore) QueryDeclarations(_ context.Context, f attendance.DeclarationFilter) ([]attendance.Declaration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []attendance.Declaration
	for _, d := range m.decls {
		if (f.StaffID == "" || d.StaffID == f.StaffID) && (f.From == "" || d.Date >= f.From) && (f.To == "" || d.Date <= f.To) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memStore) LockSessionDay(context.Context, string, string) error { return nil }

func (m *memStore) ListSessionDay(_ context.Context, staffID, day string) ([]attendance.SessionEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []attendance.SessionEvent
	for _, e := range m.events {
		if e.StaffID == staffID && e.Day == day {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) InsertSessionEvent(_ context.Context, e attendance.SessionEvent) (attendance.SessionEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return e, nil
}

func (m *memStore) ListSessionsForStaff(ctx context.Context, staffID string) ([]attendance.SessionEvent, error) {
	return m.QuerySessions(ctx, attendance.SessionFilter{StaffID: staffID})
}

func (m *memStore) QuerySessions(_ context.Context, f attendance.SessionFilter) ([]attendance.SessionEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []attendance.SessionEvent
	for _, e := range m.events {
		if f.StaffID != "" && e.StaffID != f.StaffID {
			continue
		}
		if (!f.From.IsZero() && e.Timestamp.Before(f.From)) || (!f.To.IsZero() && !e.Timestamp.Before(f.To)) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

type recordingQueue struct {
	mu   sync.Mutex
	sent []queue.Notification
}

func (q *recordingQueue) Publish(_ context.Context, n queue.Notification) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.sent = append(q.sent, n)
	return nil
}

func (q *recordingQueue) Consume(context.Context) (<-chan queue.Notification, error) {
	return nil, nil
}

type staticBoard []board.Entry

func (b staticBoard) Get(context.Context, string) ([]board.Entry, error) {
	return append([]board.Entry(nil), b...), nil
}

// stalledQueue never accepts a notification until the publish context ends.
type stalledQueue struct{}

func (stalledQueue) Publish(ctx context.Context, _ queue.Notification) error {
	<-ctx.Done()
	return ctx.Err()
}

func (stalledQueue) Consume(context.Context) (<-chan queue.Notification, error) {
	return nil, nil
}
