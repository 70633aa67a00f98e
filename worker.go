package logpi

import (
	"bytes"
	"context"
)

// Worker is one member of the worker pool (§4.2). Each worker owns an
// exclusive slot index into every AddressEntry it touches, so it never needs
// to coordinate with its siblings beyond the two shared queues.
type Worker struct {
	id      int
	cfg     *Config
	index   *HashIndex
	chunks  *ChunkQueue
	ops     *OpQueue
	pending opBatch
}

// NewWorker creates worker id against the shared index and queues.
func NewWorker(id int, cfg *Config, index *HashIndex, chunks *ChunkQueue, ops *OpQueue) *Worker {
	return &Worker{id: id, cfg: cfg, index: index, chunks: chunks, ops: ops}
}

// Run drains the chunk queue until it closes, extracting addresses from
// every line of every chunk and resolving each against the shared index
// (§4.2 steps 1-3). It registers and deregisters itself as an OpQueue
// producer so the queue's self-closing producer count (§9) stays accurate.
// ctx is polled at every queue operation and between lines (§5, §7); on
// cancellation Run stops short and returns ctx.Err() without flushing
// whatever is still pending.
func (w *Worker) Run(ctx context.Context) error {
	w.ops.AddProducer()
	defer w.ops.RemoveProducer()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunk, ok := <-w.chunks.Chan():
			if !ok {
				return w.flushPending(ctx)
			}
			if err := w.processChunk(ctx, chunk); err != nil {
				return err
			}
		}
	}
}

func (w *Worker) processChunk(ctx context.Context, chunk *Chunk) error {
	line := chunk.StartLine
	buf := chunk.Buffer
	for len(buf) > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		nl := bytes.IndexByte(buf, '\n')
		var cur []byte
		if nl >= 0 {
			cur = buf[:nl]
			buf = buf[nl+1:]
		} else {
			cur = buf
			buf = nil
		}
		cur = bytes.TrimSuffix(cur, []byte("\r"))
		if len(cur) > MaxOverlongLine {
			Log.WithField("line", line).Warn("truncating overlong line")
			cur = cur[:MaxOverlongLine]
		}
		if err := w.processLine(ctx, line, cur); err != nil {
			return err
		}
		line++
	}
	return nil
}

func (w *Worker) processLine(ctx context.Context, lineNo uint64, line []byte) error {
	for _, ext := range ExtractAddresses(line, w.cfg.Greedy) {
		loc := Location{Line: lineNo, Field: ext.Field}
		if entry, ok := w.index.Lookup(ext.Key); ok {
			entry.Append(w.id, loc)
			continue
		}
		w.pending = append(w.pending, opEntry{
			Key:      ext.Key,
			Type:     ext.Type,
			Loc:      loc,
			WorkerID: w.id,
		})
		if len(w.pending) >= PendingBatchSize {
			if err := w.flushPending(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Worker) flushPending(ctx context.Context) error {
	if len(w.pending) == 0 {
		return nil
	}
	batch := w.pending
	w.pending = nil
	return w.ops.Enqueue(ctx, batch)
}
