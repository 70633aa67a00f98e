package logpi

import (
	"runtime"

	"github.com/go-ini/ini"
	"github.com/pkg/errors"
)

// SinkKind selects where the Emitter writes the finished index (§4.4, §6).
type SinkKind int

const (
	// SinkLocalFile writes <source>.lpi next to the source (the default).
	SinkLocalFile SinkKind = iota
	// SinkStream writes to a single shared stream (e.g. stdout).
	SinkStream
	// SinkS3 writes the index as an object in S3-compatible storage.
	SinkS3
)

// Config is the pipeline's immutable, read-only-after-construction snapshot
// (§5, §9: "config as an immutable snapshot constructed at startup" replaces
// the original's global mutable config singleton). Built once by DefaultConfig/LoadConfigFile
// and then passed by pointer to every stage — nothing mutates it afterward.
type Config struct {
	ChunkSize            int64
	Workers              int
	ChunkQueueCap         int
	OpQueueCap            int
	ResizeCheckInterval   int
	ResizeLoadFactor      float64
	MaxEntries            uint64
	ReportInterval        int // seconds

	DebugLevel int
	Greedy     bool
	WriteAuto  bool
	Serial     bool

	Sink   SinkKind
	S3URI  string // s3+http(s)://host/bucket/key, used when Sink == SinkS3
}

// DefaultConfig returns the spec's stated defaults (§4, §6).
func DefaultConfig() *Config {
	return &Config{
		ChunkSize:           DefaultChunkSize,
		Workers:             defaultWorkerCount(),
		ChunkQueueCap:       DefaultChunkQueueCap,
		OpQueueCap:          DefaultOpQueueCap,
		ResizeCheckInterval: ResizeCheckInterval,
		ResizeLoadFactor:    ResizeLoadFactor,
		MaxEntries:          MaxEntries,
		ReportInterval:      DefaultReportInterval,
		WriteAuto:           true,
		Sink:                SinkLocalFile,
	}
}

// defaultWorkerCount derives the worker count from available hardware
// parallelism, floored at MinWorkers (§4.2).
func defaultWorkerCount() int {
	n := runtime.NumCPU()
	if n < MinWorkers {
		return MinWorkers
	}
	return n
}

// LoadConfigFile overlays tunable defaults from an optional ini-format
// config file (chunk size, worker count, queue capacities, resize
// threshold) onto a base Config. A missing path is not an error — the
// config file is entirely optional; CLI flags alone are sufficient.
func LoadConfigFile(path string, base *Config) (*Config, error) {
	if path == "" {
		return base, nil
	}
	f, err := ini.Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "loading config file %s", path)
	}
	cfg := *base
	sec := f.Section("logpi")
	cfg.ChunkSize = sec.Key("chunk_size").MustInt64(cfg.ChunkSize)
	cfg.Workers = sec.Key("workers").MustInt(cfg.Workers)
	cfg.ChunkQueueCap = sec.Key("chunk_queue_cap").MustInt(cfg.ChunkQueueCap)
	cfg.OpQueueCap = sec.Key("op_queue_cap").MustInt(cfg.OpQueueCap)
	cfg.ResizeCheckInterval = sec.Key("resize_check_interval").MustInt(cfg.ResizeCheckInterval)
	cfg.ResizeLoadFactor = sec.Key("resize_load_factor").MustFloat64(cfg.ResizeLoadFactor)
	cfg.ReportInterval = sec.Key("report_interval").MustInt(cfg.ReportInterval)
	if cfg.Workers < MinWorkers {
		cfg.Workers = MinWorkers
	}
	return &cfg, nil
}
