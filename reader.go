package logpi

import (
	"bufio"
	"context"
	"io"
	"os"
	"sync/atomic"
)

// Reader is the pipeline's sole producer of Chunks (§4.1). It reads a single
// source sequentially in Config.ChunkSize buffers, never seeking, always
// carrying a trailing partial line forward into the next buffer so that every
// Chunk handed to the worker pool is newline-aligned.
type Reader struct {
	cfg      *Config
	path     string // "-" for stdin
	queue    *ChunkQueue
	progress *uint64 // optional, atomically updated line count for the reporter
}

// NewReader creates a Reader for one source path. path == "-" reads stdin.
// progress, if non-nil, is atomically updated with the cumulative line count
// as chunks are produced, so a Reporter can observe live throughput.
func NewReader(cfg *Config, path string, queue *ChunkQueue, progress *uint64) *Reader {
	return &Reader{cfg: cfg, path: path, queue: queue, progress: progress}
}

// Run reads the source to completion, enqueuing Chunks, and closes the queue
// when done. It returns the total number of lines read, for the reporter.
// ctx is polled before every read and at every enqueue (§5, §7): cancelling
// it stops the Reader and, via the deferred Close below, drains and closes
// the chunk queue so the worker pool unwinds too.
func (r *Reader) Run(ctx context.Context) (uint64, error) {
	var f *os.File
	if r.path == "-" {
		f = os.Stdin
	} else {
		var err error
		f, err = os.Open(r.path)
		if err != nil {
			return 0, InputError{Path: r.path, Err: err}
		}
		defer f.Close()
	}

	src, err := openReader(r.path, bufio.NewReaderSize(f, 1<<20))
	if err != nil {
		return 0, InputError{Path: r.path, Err: err}
	}

	defer r.queue.Close()

	buf := make([]byte, r.cfg.ChunkSize)
	var carry []byte
	var lineNo uint64
	var chunkID int

	for {
		select {
		case <-ctx.Done():
			return lineNo, ctx.Err()
		default:
		}

		n, readErr := io.ReadFull(src, buf)
		if n > 0 {
			chunk := make([]byte, len(carry)+n)
			copy(chunk, carry)
			copy(chunk[len(carry):], buf[:n])
			carry = nil

			aligned, rest := splitOnLastNewline(chunk, readErr != nil)
			startLine := lineNo + 1
			lines := countLines(aligned)
			if len(aligned) > 0 {
				if err := r.queue.Enqueue(ctx, &Chunk{
					ID:           chunkID,
					Buffer:       aligned,
					StartLine:    startLine,
					LinesInChunk: lines,
				}); err != nil {
					return lineNo, err
				}
				chunkID++
				lineNo += uint64(lines)
				if r.progress != nil {
					atomic.StoreUint64(r.progress, lineNo)
				}
			}
			carry = rest
		}
		if readErr != nil {
			if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
				break
			}
			return lineNo, InputError{Path: r.path, Err: readErr}
		}
	}

	if len(carry) > 0 {
		lineNo++
		if err := r.queue.Enqueue(ctx, &Chunk{
			ID:           chunkID,
			Buffer:       carry,
			StartLine:    lineNo,
			LinesInChunk: 1,
		}); err != nil {
			return lineNo, err
		}
		if r.progress != nil {
			atomic.StoreUint64(r.progress, lineNo)
		}
	}
	return lineNo, nil
}

// splitOnLastNewline splits buf at its last newline: the returned "aligned"
// portion ends in a newline (or, when final is true, is the whole buffer),
// and "rest" is the trailing partial line carried into the next read.
func splitOnLastNewline(buf []byte, final bool) (aligned, rest []byte) {
	if final {
		return buf, nil
	}
	for i := len(buf) - 1; i >= 0; i-- {
		if buf[i] == '\n' {
			return buf[:i+1], append([]byte(nil), buf[i+1:]...)
		}
	}
	// No newline at all in a full chunk buffer: a line longer than one read.
	// Carry all of it forward so the next read completes it; at EOF the
	// final branch above delivers whatever is left. The worker truncates
	// lines past MaxOverlongLine.
	return nil, buf
}

func countLines(buf []byte) int {
	n := 0
	for _, b := range buf {
		if b == '\n' {
			n++
		}
	}
	if len(buf) > 0 && buf[len(buf)-1] != '\n' {
		n++ // unterminated final line (end of file)
	}
	return n
}
