package logpi

import (
	"os"
	"time"

	pb "gopkg.in/cheggaaa/pb.v1"
)

// NewProgressBar builds a lines-processed bar, or a NullProgressBar when
// enabled is false. Unlike the teacher's terminal-detecting version, the
// decision here is an explicit argument. Pipeline.Run always passes false,
// so the CLI's --progress flag has no effect.
func NewProgressBar(enabled bool, prefix string) ProgressBar {
	if !enabled {
		return NullProgressBar{}
	}
	bar := pb.New(0).Prefix(prefix)
	bar.ShowCounters = true
	bar.Output = os.Stderr
	bar.SetRefreshRate(500 * time.Millisecond)
	return DefaultProgressBar{bar}
}

// DefaultProgressBar wraps https://github.com/cheggaaa/pb and implements ProgressBar.
type DefaultProgressBar struct {
	*pb.ProgressBar
}

// SetTotal sets the upper bounds for the progress bar.
func (p DefaultProgressBar) SetTotal(total int) {
	p.ProgressBar.SetTotal(total)
}

// Start displaying the progress bar.
func (p DefaultProgressBar) Start() {
	p.ProgressBar.Start()
}

// Set the current value.
func (p DefaultProgressBar) Set(current int) {
	p.ProgressBar.Set(current)
}
