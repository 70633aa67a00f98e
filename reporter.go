package logpi

import (
	"time"

	"golang.org/x/time/rate"
)

// Reporter periodically logs ingest throughput and drives an optional
// progress bar (§5, §6 --report-interval/--progress). Grounded on the
// teacher's rate-limited store wrapper: same golang.org/x/time/rate.Limiter
// used to throttle a hot path down to a fixed cadence, here throttling log
// emission instead of store I/O.
type Reporter struct {
	limiter   *rate.Limiter
	bar       ProgressBar
	start     time.Time
	lastLines uint64
	lastAt    time.Time
}

// NewReporter builds a Reporter that logs at most once per interval seconds.
func NewReporter(interval int, bar ProgressBar) *Reporter {
	if interval <= 0 {
		interval = DefaultReportInterval
	}
	return &Reporter{
		limiter: rate.NewLimiter(rate.Every(time.Duration(interval)*time.Second), 1),
		bar:     bar,
		start:   now(),
		lastAt:  now(),
	}
}

// Tick is called frequently (Pipeline.Run's report loop calls it once a
// second) with the cumulative line
// count and unique-entry count observed so far. Actual logging is throttled
// to the configured interval via the rate limiter; calls between ticks are
// cheap no-ops.
func (r *Reporter) Tick(lines, entries uint64) {
	r.bar.Set(int(lines))
	if !r.limiter.Allow() {
		return
	}
	elapsed := now().Sub(r.lastAt).Seconds()
	var linesPerSec float64
	if elapsed > 0 {
		linesPerSec = float64(lines-r.lastLines) / elapsed
	}
	Log.WithFields(map[string]interface{}{
		"lines":         lines,
		"entries":       entries,
		"lines_per_sec": linesPerSec,
	}).Info("ingest progress")
	r.lastLines = lines
	r.lastAt = now()
}

// Finish logs a final summary and stops the progress bar.
func (r *Reporter) Finish(lines, entries uint64) {
	r.bar.Finish()
	Log.WithFields(map[string]interface{}{
		"lines":   lines,
		"entries": entries,
		"elapsed": now().Sub(r.start).String(),
	}).Info("ingest complete")
}
