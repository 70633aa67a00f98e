package logpi

import (
	"context"
	"sync/atomic"
)

// ChunkQueue is the bounded, single-producer/multi-consumer queue between
// the Reader and the worker pool (§4.6). It's modeled directly as a
// buffered Go channel: enqueue blocks when full, dequeue blocks when empty,
// and Close causes subsequent dequeues to drain then report "closed" via the
// normal two-value channel receive.
type ChunkQueue struct {
	ch chan *Chunk
}

// NewChunkQueue creates a chunk queue with the given capacity.
func NewChunkQueue(capacity int) *ChunkQueue {
	return &ChunkQueue{ch: make(chan *Chunk, capacity)}
}

// Enqueue adds a chunk, blocking if the queue is full until there's room or
// ctx is cancelled (§5, §7: the quit flag is polled at queue operations).
func (q *ChunkQueue) Enqueue(ctx context.Context, c *Chunk) error {
	select {
	case q.ch <- c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close signals no more chunks will be produced. Only the Reader calls this.
func (q *ChunkQueue) Close() { close(q.ch) }

// Chan exposes the receive side for worker range loops.
func (q *ChunkQueue) Chan() <-chan *Chunk { return q.ch }

// opEntry is one pending new-key insertion a worker couldn't resolve with a
// read-only lookup (§4.2 step 3c).
type opEntry struct {
	Key      string
	Type     AddressType
	Loc      Location
	WorkerID int
}

// opBatch is a small group of pending inserts flushed together
// (PendingBatchSize at a time) to minimize collision windows on popular new
// keys appearing in several workers' buffers at once.
type opBatch []opEntry

// OpQueue is the bounded, multi-producer/single-consumer queue carrying
// pending insertions from workers to the Indexer (§4.6). Unlike the chunk
// queue, closure isn't driven by a single owner: it's driven by an explicit
// producer count, a first-class piece of queue state (§9) rather than an
// ad-hoc counter a caller has to remember to check. The queue closes itself,
// waking the Indexer's range loop, exactly when the last producer leaves.
type OpQueue struct {
	ch        chan opBatch
	producers int32
}

// NewOpQueue creates an op queue with the given capacity.
func NewOpQueue(capacity int) *OpQueue {
	return &OpQueue{ch: make(chan opBatch, capacity)}
}

// AddProducer registers one more active worker as a producer. Call this
// before a worker begins submitting ops.
func (q *OpQueue) AddProducer() { atomic.AddInt32(&q.producers, 1) }

// RemoveProducer decrements the producer count; when it reaches zero the
// queue is closed, which drains the Indexer's range loop after any entries
// already buffered are consumed.
func (q *OpQueue) RemoveProducer() {
	if atomic.AddInt32(&q.producers, -1) == 0 {
		close(q.ch)
	}
}

// Enqueue adds a batch, blocking if the queue is full until there's room or
// ctx is cancelled (§5, §7).
func (q *OpQueue) Enqueue(ctx context.Context, b opBatch) error {
	select {
	case q.ch <- b:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Chan exposes the receive side for the Indexer's range loop.
func (q *OpQueue) Chan() <-chan opBatch { return q.ch }
