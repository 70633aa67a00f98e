package logpi

import "context"

// Indexer is the single goroutine that owns write access to the shared
// HashIndex (§4.3). It is the only thing that ever inserts a new key; workers
// only ever read. Running it on one goroutine means inserts never race each
// other; the write lock InsertUnique takes only keeps worker lookups from
// reading a bucket chain while an insert changes it.
type Indexer struct {
	cfg   *Config
	index *HashIndex
	ops   *OpQueue

	sinceResizeCheck int
}

// NewIndexer creates an Indexer over index, draining ops.
func NewIndexer(cfg *Config, index *HashIndex, ops *OpQueue) *Indexer {
	return &Indexer{cfg: cfg, index: index, ops: ops}
}

// Run drains the op queue until every producer has left and it closes
// (§9's "zero producers plus an empty queue signals drain and exit"),
// applying each pending insertion and periodically checking for resize.
// ctx is polled at every queue operation (§5, §7); on cancellation Run
// returns ctx.Err() without waiting for the queue to drain.
func (ix *Indexer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case batch, ok := <-ix.ops.Chan():
			if !ok {
				return nil
			}
			for _, op := range batch {
				if err := ix.apply(op); err != nil {
					return err
				}
			}
		}
	}
}

func (ix *Indexer) apply(op opEntry) error {
	entry, created, err := ix.index.InsertUnique(op.Key, op.Type)
	if err != nil {
		return err
	}
	entry.Append(op.WorkerID, op.Loc)
	if !created {
		return nil
	}

	ix.sinceResizeCheck++
	if ix.sinceResizeCheck >= ix.cfg.ResizeCheckInterval {
		ix.sinceResizeCheck = 0
		if err := ix.index.ResizeIfOverfull(); err != nil {
			return err
		}
	}
	return nil
}
