package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemory_PublishConsume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	n := Notification{Type: TypeSession, StaffID: "s1", Day: "2024-03-04", Kind: "clock-in", At: time.Now()}
	require.NoError(t, q.Publish(ctx, n))

	ch, err := q.Consume(ctx)
	require.NoError(t, err)
	select {
	case got := <-ch:
		assert.Equal(t, n.StaffID, got.StaffID)
		assert.Equal(t, n.Kind, got.Kind)
	case <-time.After(time.Second):
		t.Fatal("notification not delivered")
	}

	cancel()
	select {
	case _, open := <-ch:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("consumer channel not closed")
	}
}

func TestInMemory_PublishRespectsContext(t *testing.T) {
	q := NewInMemory(4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, q.Publish(ctx, Notification{}), context.Canceled)
}

func TestInMemory_PublishDropsWhenFull(t *testing.T) {
	q := NewInMemory(1)
	ctx := context.Background()
	require.NoError(t, q.Publish(ctx, Notification{Type: TypeDeclaration, StaffID: "s1"}))

	done := make(chan error, 1)
	go func() { done <- q.Publish(ctx, Notification{Type: TypeDeclaration, StaffID: "s2"}) }()
	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrFull)
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full buffer")
	}
}

func TestDecode(t *testing.T) {
	n, err := Decode([]byte(`{"type":"declaration","staff_id":"s1","day":"2024-03-04","status":"Sick","at":"2024-03-04T01:00:00Z"}`))
	require.NoError(t, err)
	assert.Equal(t, TypeDeclaration, n.Type)
	assert.Equal(t, "Sick", n.Status)

	_, err = Decode([]byte(`s1|checkin`))
	require.Error(t, err)
	_, err = Decode([]byte(`{"type":"session"}`))
	require.Error(t, err)
}
