package main

import "github.com/rdilley/logpi"

// cmdConfigOptions carries CLI flag values that override whatever was loaded
// from --config. Mirrors the teacher's cmdStoreOptions.MergedWith pattern:
// start from the file-loaded config, then let explicitly-set flags win.
type cmdConfigOptions struct {
	chunkSize     int64
	workers       int
	serial        bool
	greedy        bool
	writeAuto     bool
	debugLevel    int
	sink          string
	reportInterval int
	progress      bool
}

// mergedWith applies command-line flag values on top of a base Config
// (typically the result of LoadConfigFile) and returns the final snapshot
// the pipeline runs with.
func (o cmdConfigOptions) mergedWith(base *logpi.Config) *logpi.Config {
	cfg := *base
	if o.chunkSize > 0 {
		cfg.ChunkSize = o.chunkSize
	}
	if o.workers > 0 {
		cfg.Workers = o.workers
	}
	cfg.Serial = o.serial
	cfg.Greedy = o.greedy
	cfg.WriteAuto = o.writeAuto
	cfg.DebugLevel = o.debugLevel
	if o.reportInterval > 0 {
		cfg.ReportInterval = o.reportInterval
	}
	switch {
	case o.sink == "" || o.sink == "file":
		cfg.Sink = logpi.SinkLocalFile
	case o.sink == "-" || o.sink == "stdout":
		cfg.Sink = logpi.SinkStream
	default:
		cfg.Sink = logpi.SinkS3
		cfg.S3URI = o.sink
	}
	return &cfg
}
