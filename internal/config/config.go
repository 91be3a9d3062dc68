// Package config creates the logger and diagnostic sink of an assembler run.
package config

import (
	"github.com/retroenv/agcasm/internal/diag"
	"github.com/retroenv/agcasm/internal/options"
	"github.com/retroenv/retrogolib/log"
)

// CreateLogger creates a logger for the debug and quiet flags. Debug takes
// precedence, quiet mode only logs errors.
func CreateLogger(flags options.Flags) *log.Logger {
	cfg := log.DefaultConfig()
	switch {
	case flags.Debug:
		cfg.Level = log.DebugLevel
	case flags.Quiet:
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

// CreateSink returns the sink that assembler diagnostics are reported to.
// The collector receives every diagnostic regardless of the log level, it
// can be nil.
func CreateSink(logger *log.Logger, collector *diag.Collector) diag.Sink {
	sink := diag.NewLogSink(logger)
	if collector == nil {
		return sink
	}
	return diag.Tee(sink, collector)
}
