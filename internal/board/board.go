// Package board keeps a per-day presence view in redis, fed by ledger notifications.
// It is derived data; the ledger in Postgres stays authoritative.
package board

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"staffledger/internal/queue"
)

// TTL is how long a day's board is kept.
const TTL = 72 * time.Hour

// Entry is one staff member's line on the board.
type Entry struct {
	StaffID  string `json:"staff_id"`
	Status   string `json:"status,omitempty"`
	ClockIn  string `json:"clock_in,omitempty"`
	ClockOut string `json:"clock_out,omitempty"`
}

// Board reads and writes the daily presence hashes.
type Board struct {
	client *redis.Client
	prefix string
	loc    *time.Location
}

// New builds a board. Times are shown in loc.
func New(client *redis.Client, loc *time.Location) *Board {
	if loc == nil {
		loc = time.Local
	}
	return &Board{client: client, prefix: "staffledger:board:", loc: loc}
}

func (b *Board) key(day string) string {
	return b.prefix + day
}

// Apply records n on its day's board.
func (b *Board) Apply(ctx context.Context, n queue.Notification) error {
	var field, value string
	switch n.Type {
	case queue.TypeDeclaration:
		field, value = n.StaffID+":status", n.Status
	case queue.TypeSession:
		field, value = n.StaffID+":"+n.Kind, n.At.In(b.loc).Format("15:04:05")
	default:
		return fmt.Errorf("board: unknown notification type %q", n.Type)
	}
	key := b.key(n.Day)
	pipe := b.client.TxPipeline()
	pipe.HSet(ctx, key, field, value)
	pipe.Expire(ctx, key, TTL)
	_, err := pipe.Exec(ctx)
	return err
}

// Get returns the board of day sorted by staff id.
func (b *Board) Get(ctx context.Context, day string) ([]Entry, error) {
	fields, err := b.client.HGetAll(ctx, b.key(day)).Result()
	if err != nil {
		return nil, err
	}
	return Entries(fields), nil
}

// Entries folds raw hash fields ("<staff>:<attr>") into entries.
func Entries(fields map[string]string) []Entry {
	byStaff := make(map[string]*Entry)
	for field, value := range fields {
		staffID, attr, ok := cut(field)
		if !ok {
			continue
		}
		e, exists := byStaff[staffID]
		if !exists {
			e = &Entry{StaffID: staffID}
			byStaff[staffID] = e
		}
		switch attr {
		case "status":
			e.Status = value
		case "clock-in":
			e.ClockIn = value
		case "clock-out":
			e.ClockOut = value
		}
	}
	out := make([]Entry, 0, len(byStaff))
	for _, e := range byStaff {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StaffID < out[j].StaffID })
	return out
}

// cut splits field at its last colon.
func cut(field string) (string, string, bool) {
	i := strings.LastIndex(field, ":")
	if i <= 0 {
		return "", "", false
	}
	return field[:i], field[i+1:], true
}
