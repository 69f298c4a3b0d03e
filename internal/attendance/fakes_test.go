package attendance

import (
	"context"
	"errors"
	"sync"
	"time"
)

var wib = time.FixedZone("WIB", 7*60*60)

type fakeClock struct{ now time.Time }

func (c fakeClock) Now() time.Time { return c.now }

// tickingClock returns its readings in order and then repeats the last one.
type tickingClock struct {
	mu       sync.Mutex
	readings []time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.readings[0]
	if len(c.readings) > 1 {
		c.readings = c.readings[1:]
	}
	return now
}

// memStore is an in-memory StaffStore, DeclarationStore and SessionStore.
type memStore struct {
	mu     sync.Mutex
	staff  map[string]Staff
	decls  []Declaration
	events []SessionEvent

	failWith error
}

func newMemStore(staff ...Staff) *memStore {
	s := &memStore{staff: make(map[string]Staff)}
	for _, st := range staff {
		s.staff[st.ID] = st
	}
	return s
}

func (m *memStore) fail() error {
	return m.failWith
}

func (m *memStore) ListStaff(_ context.Context, filter StaffFilter) ([]Staff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return nil, err
	}
	var out []Staff
	for _, s := range m.staff {
		if filter.ID == "" || filter.ID == s.ID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) GetStaff(_ context.Context, id string) (Staff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return Staff{}, err
	}
	s, ok := m.staff[id]
	if !ok {
		return Staff{}, ErrNotFound
	}
	return s, nil
}

func (m *memStore) InsertDeclarationIfAbsent(_ context.Context, d Declaration) (Declaration, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.decls {
		if existing.StaffID == d.StaffID && existing.Date == d.Date {
			return Declaration{}, false, nil
		}
	}
	m.decls = append(m.decls, d)
	return d, true, nil
}

func (m *memStore) QueryDeclarations(_ context.Context, filter DeclarationFilter) ([]Declaration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Declaration
	for _, d := range m.decls {
		if filter.StaffID != "" && d.StaffID != filter.StaffID {
			continue
		}
		if filter.From != "" && d.Date < filter.From {
			continue
		}
		if filter.To != "" && d.Date > filter.To {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (m *memStore) LockSessionDay(context.Context, string, string) error {
	return nil
}

func (m *memStore) ListSessionDay(_ context.Context, staffID, day string) ([]SessionEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []SessionEvent
	for _, e := range m.events {
		if e.StaffID == staffID && e.Day == day {
			out = append(out, e)
		}
	}
	return out, nil
}

// InsertSessionEvent enforces the (staff, day, kind) unique key like the table does.
func (m *memStore) InsertSessionEvent(_ context.Context, e SessionEvent) (SessionEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.events {
		if existing.StaffID == e.StaffID && existing.Day == e.Day && existing.Kind == e.Kind {
			if e.Kind == KindClockIn {
				return SessionEvent{}, &SequenceViolation{Reason: ReasonAlreadyIn}
			}
			return SessionEvent{}, &SequenceViolation{Reason: ReasonAlreadyOut}
		}
	}
	e.CreatedAt = e.Timestamp
	m.events = append(m.events, e)
	return e, nil
}

func (m *memStore) ListSessionsForStaff(_ context.Context, staffID string) ([]SessionEvent, error) {
	return m.QuerySessions(context.Background(), SessionFilter{StaffID: staffID})
}

func (m *memStore) QuerySessions(_ context.Context, filter SessionFilter) ([]SessionEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return nil, err
	}
	var out []SessionEvent
	for _, e := range m.events {
		if filter.StaffID != "" && e.StaffID != filter.StaffID {
			continue
		}
		if !filter.From.IsZero() && e.Timestamp.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !e.Timestamp.Before(filter.To) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// serialTx runs read-write functions one at a time, standing in for the advisory lock.
type serialTx struct {
	mu sync.Mutex
}

func (t *serialTx) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (t *serialTx) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}

// brokenSessions fails every session call.
type brokenSessions struct {
	*memStore
}

var errBroken = errors.New("connection refused")

func (brokenSessions) ListSessionDay(context.Context, string, string) ([]SessionEvent, error) {
	return nil, errBroken
}

func at(day string, clock string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04:05", day+" "+clock, wib)
	if err != nil {
		panic(err)
	}
	return t
}
