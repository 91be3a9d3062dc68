// Package diag collects the diagnostics that are produced while assembling.
package diag

import (
	"fmt"

	"github.com/retroenv/retrogolib/log"
)

// Severity of a diagnostic.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Diagnostic is a message that is attached to a source line.
type Diagnostic struct {
	Severity Severity
	File     string
	Line     int
	Message  string
}

func (d Diagnostic) String() string {
	if d.File == "" {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s:%d: %s: %s", d.File, d.Line, d.Severity, d.Message)
}

// Sink receives diagnostics.
type Sink interface {
	Report(d Diagnostic)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(d Diagnostic)

// Report calls f(d).
func (f SinkFunc) Report(d Diagnostic) {
	f(d)
}

// Collector is a sink that stores all diagnostics in the order they were
// reported.
type Collector struct {
	items []Diagnostic
}

// Report stores the diagnostic.
func (c *Collector) Report(d Diagnostic) {
	c.items = append(c.items, d)
}

// Diagnostics returns all stored diagnostics.
func (c *Collector) Diagnostics() []Diagnostic {
	return c.items
}

// Count returns the number of stored diagnostics of the given severity.
func (c *Collector) Count(severity Severity) int {
	var n int
	for _, d := range c.items {
		if d.Severity == severity {
			n++
		}
	}
	return n
}

// LogSink writes diagnostics to a logger.
type LogSink struct {
	logger *log.Logger
}

// NewLogSink returns a sink that writes to the given logger.
func NewLogSink(logger *log.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Report logs the diagnostic with its source position as fields.
func (s *LogSink) Report(d Diagnostic) {
	file := log.String("file", d.File)
	line := log.Int("line", d.Line)

	switch d.Severity {
	case Error:
		s.logger.Error(d.Message, file, line)
	case Warning:
		s.logger.Warn(d.Message, file, line)
	default:
		s.logger.Info(d.Message, file, line)
	}
}

// Tee returns a sink that forwards every diagnostic to all given sinks.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(d Diagnostic) {
		for _, sink := range sinks {
			sink.Report(d)
		}
	})
}
