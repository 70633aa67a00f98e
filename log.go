package logpi

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var defaultLogOutput io.Writer = os.Stderr

// Log is the package-wide structured logger. Silent by default; the CLI
// raises its level and output according to --debug-level (0..9, §6).
var Log = logrus.New()

func init() {
	Log.SetOutput(io.Discard)
}

// SetDebugLevel maps the CLI's 0..9 debug-level knob onto logrus levels.
// It has no effect on pipeline semantics, only on observability output.
func SetDebugLevel(level int) {
	switch {
	case level <= 0:
		Log.SetOutput(io.Discard)
	case level < 3:
		Log.SetOutput(defaultLogOutput)
		Log.SetLevel(logrus.WarnLevel)
	case level < 6:
		Log.SetOutput(defaultLogOutput)
		Log.SetLevel(logrus.InfoLevel)
	case level < 9:
		Log.SetOutput(defaultLogOutput)
		Log.SetLevel(logrus.DebugLevel)
	default:
		Log.SetOutput(defaultLogOutput)
		Log.SetLevel(logrus.TraceLevel)
	}
}
