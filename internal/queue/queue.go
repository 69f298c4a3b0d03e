package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Notification types.
const (
	TypeDeclaration = "declaration"
	TypeSession     = "session"
)

// DefaultKey is the redis list holding ledger notifications.
const DefaultKey = "staffledger:notifications"

// Notification announces a committed ledger write. Status is set for declarations,
// Kind for session events.
type Notification struct {
	Type    string    `json:"type"`
	StaffID string    `json:"staff_id"`
	Day     string    `json:"day"`
	Status  string    `json:"status,omitempty"`
	Kind    string    `json:"kind,omitempty"`
	At      time.Time `json:"at"`
}

// Queue is the abstraction over different backends.
type Queue interface {
	Publish(ctx context.Context, n Notification) error
	Consume(ctx context.Context) (<-chan Notification, error)
}

// ErrFull is returned by InMemory.Publish when the buffer has no room.
var ErrFull = errors.New("queue: buffer full")

// InMemory is a channel-backed queue for dev and tests. It only works within one process.
type InMemory struct {
	ch chan Notification
}

// NewInMemory creates a bounded in-memory queue.
func NewInMemory(size int) *InMemory {
	return &InMemory{ch: make(chan Notification, size)}
}

// Publish enqueues n without waiting. A full buffer drops n and returns ErrFull.
func (q *InMemory) Publish(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case q.ch <- n:
		return nil
	default:
		return ErrFull
	}
}

// Consume returns a channel that is closed when ctx ends.
func (q *InMemory) Consume(ctx context.Context) (<-chan Notification, error) {
	out := make(chan Notification)
	go func() {
		defer close(out)
		for {
			select {
			case n := <-q.ch:
				select {
				case out <- n:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// RedisQueue is a redis list used with LPUSH/BRPOP.
type RedisQueue struct {
	client *redis.Client
	key    string
	log    *slog.Logger
}

// NewRedisQueue builds a queue on key, or DefaultKey when empty.
func NewRedisQueue(client *redis.Client, key string, log *slog.Logger) *RedisQueue {
	if key == "" {
		key = DefaultKey
	}
	if log == nil {
		log = slog.Default()
	}
	return &RedisQueue{client: client, key: key, log: log}
}

// Publish enqueues n as JSON.
func (q *RedisQueue) Publish(ctx context.Context, n Notification) error {
	raw, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, raw).Err()
}

// Consume streams notifications using BRPOP. Malformed entries are logged and dropped.
func (q *RedisQueue) Consume(ctx context.Context) (<-chan Notification, error) {
	out := make(chan Notification)
	go func() {
		defer close(out)
		for {
			res, err := q.client.BRPop(ctx, 5*time.Second, q.key).Result()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if !errors.Is(err, redis.Nil) {
					q.log.Warn("queue pop failed", "key", q.key, "error", err)
					select {
					case <-time.After(time.Second):
					case <-ctx.Done():
						return
					}
				}
				continue
			}
			if len(res) != 2 {
				continue
			}
			n, err := Decode([]byte(res[1]))
			if err != nil {
				q.log.Warn("dropping malformed notification", "error", err)
				continue
			}
			select {
			case out <- n:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Decode parses a JSON notification.
func Decode(raw []byte) (Notification, error) {
	var n Notification
	if err := json.Unmarshal(raw, &n); err != nil {
		return Notification{}, err
	}
	if n.Type == "" || n.StaffID == "" || n.Day == "" {
		return Notification{}, errors.New("queue: notification missing type, staff or day")
	}
	return n, nil
}
