package logpi

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Pipeline wires Reader, worker pool, Indexer and Emitter together for one
// source file (§4, §5). It replaces the teacher's WaitGroup-plus-mutex error
// tracking (chop.go) with golang.org/x/sync/errgroup: the first stage error
// cancels the group and every other stage's error is discarded in favor of
// it, same outcome with less bookkeeping.
type Pipeline struct {
	cfg  *Config
	path string
}

// NewPipeline creates a Pipeline for one source path.
func NewPipeline(cfg *Config, path string) *Pipeline {
	return &Pipeline{cfg: cfg, path: path}
}

// Result summarizes a finished run, for the CLI to report or test against.
type Result struct {
	Lines   uint64
	Entries uint64
}

// Run executes the full Reader -> workers -> Indexer -> Emitter pipeline
// (§4) and writes the result to sink. Serial mode (cfg.Serial) runs exactly
// one worker, which is still correct — only the parallelism changes — so it
// exists to make the spec's "parallel output matches serial output"
// invariant trivially checkable instead of as a materially different code
// path.
//
// ctx carries the process-wide quit flag (§5, §7): Reader, every Worker and
// the Indexer poll it at queue operations and between lines, so cancelling
// ctx unwinds the whole pipeline instead of letting it run to completion.
// A cancellation surfaces as ctx.Err() from eg.Wait() below, and the index
// built so far is discarded rather than emitted, since it's incomplete.
func (p *Pipeline) Run(ctx context.Context, sink Sink) (Result, error) {
	workers := p.cfg.Workers
	if p.cfg.Serial {
		workers = 1
	}

	chunkQueue := NewChunkQueue(p.cfg.ChunkQueueCap)
	opQueue := NewOpQueue(p.cfg.OpQueueCap)
	index := NewHashIndex(workers, p.cfg.ResizeLoadFactor, p.cfg.MaxEntries)

	var progress uint64
	reader := NewReader(p.cfg, p.path, chunkQueue, &progress)
	indexer := NewIndexer(p.cfg, index, opQueue)
	reporter := NewReporter(p.cfg.ReportInterval, NewProgressBar(false, p.path))

	eg, ctx := errgroup.WithContext(ctx)
	var totalLines uint64

	eg.Go(func() error {
		n, err := reader.Run(ctx)
		totalLines = n
		return err
	})

	for i := 0; i < workers; i++ {
		w := NewWorker(i, p.cfg, index, chunkQueue, opQueue)
		eg.Go(func() error {
			return w.Run(ctx)
		})
	}

	eg.Go(func() error {
		return indexer.Run(ctx)
	})

	done := make(chan struct{})
	go p.reportLoop(reporter, &progress, index, done)

	if err := eg.Wait(); err != nil {
		close(done)
		return Result{}, err
	}
	close(done)

	reporter.Finish(totalLines, index.Count())

	em := NewEmitter(index)
	if err := sink.Write(em); err != nil {
		return Result{}, err
	}

	return Result{Lines: totalLines, Entries: index.Count()}, nil
}

// reportLoop drives the Reporter at a fixed cadence until done is closed;
// the reporter itself throttles actual log lines to cfg.ReportInterval, this
// loop just needs to sample more often than that to stay responsive to the
// limiter.
func (p *Pipeline) reportLoop(r *Reporter, progress *uint64, index *HashIndex, done chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			r.Tick(atomic.LoadUint64(progress), index.Count())
		}
	}
}
