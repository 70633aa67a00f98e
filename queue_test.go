package logpi

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestChunkQueueEnqueueAndClose(t *testing.T) {
	ctx := context.Background()
	q := NewChunkQueue(2)
	require.NoError(t, q.Enqueue(ctx, &Chunk{ID: 1}))
	require.NoError(t, q.Enqueue(ctx, &Chunk{ID: 2}))
	q.Close()

	var ids []int
	for c := range q.Chan() {
		ids = append(ids, c.ID)
	}
	require.Equal(t, []int{1, 2}, ids)
}

func TestOpQueueClosesWhenLastProducerLeaves(t *testing.T) {
	q := NewOpQueue(4)
	q.AddProducer()
	q.AddProducer()

	require.NoError(t, q.Enqueue(context.Background(), opBatch{{Key: "a"}}))
	q.RemoveProducer() // one producer remains, queue must stay open

	select {
	case _, ok := <-q.Chan():
		require.True(t, ok)
	case <-time.After(50 * time.Millisecond):
	}

	q.RemoveProducer() // last producer leaves, queue closes

	drained := false
	timeout := time.After(time.Second)
	for !drained {
		select {
		case _, ok := <-q.Chan():
			if !ok {
				drained = true
			}
		case <-timeout:
			t.Fatal("op queue never closed")
		}
	}
}

func TestOpQueueSingleProducerClosesImmediatelyAfterRemove(t *testing.T) {
	q := NewOpQueue(1)
	q.AddProducer()
	q.RemoveProducer()

	_, ok := <-q.Chan()
	require.False(t, ok)
}

func TestChunkQueueEnqueueReturnsOnCancellation(t *testing.T) {
	q := NewChunkQueue(1)
	require.NoError(t, q.Enqueue(context.Background(), &Chunk{ID: 1})) // fill the one slot

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := q.Enqueue(ctx, &Chunk{ID: 2}) // queue is full, would block forever
	require.ErrorIs(t, err, context.Canceled)
}

func TestOpQueueEnqueueReturnsOnCancellation(t *testing.T) {
	q := NewOpQueue(1)
	require.NoError(t, q.Enqueue(context.Background(), opBatch{{Key: "a"}}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := q.Enqueue(ctx, opBatch{{Key: "b"}})
	require.ErrorIs(t, err, context.Canceled)
}
