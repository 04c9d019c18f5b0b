// Package logger collects the diagnostics a pass produces and forwards
// debug traces to a structured logger.
package logger

import (
	"fmt"
	"io"
	"log/slog"
)

// LogWriter accumulates errors and warnings for the host. The zero value is
// ready to use and traces nowhere; attach a slog logger to see pass
// internals.
type LogWriter struct {
	errors   []error
	warnings []error
	messages []string
	tracer   *slog.Logger
}

func NewLogWriter(tracer *slog.Logger) *LogWriter {
	return &LogWriter{tracer: tracer}
}

// Err records the given errors and reports whether any error has been
// recorded so far.
func (l *LogWriter) Err(errs ...error) bool {
	for _, e := range errs {
		if e != nil {
			l.errors = append(l.errors, e)
		}
	}
	return len(l.errors) > 0
}

func (l *LogWriter) Warn(errs ...error) {
	for _, e := range errs {
		if e != nil {
			l.warnings = append(l.warnings, e)
		}
	}
}

func (l *LogWriter) Info(msg string) {
	l.messages = append(l.messages, msg)
}

func (l *LogWriter) HasErrors() bool {
	return len(l.errors) > 0
}

func (l *LogWriter) Errors() []error {
	return l.errors
}

func (l *LogWriter) Warnings() []error {
	return l.warnings
}

func (l *LogWriter) Messages() []string {
	return l.messages
}

// Trace emits a structured debug record when a tracer is attached. Safe on a
// nil receiver.
func (l *LogWriter) Trace(msg string, args ...any) {
	if l == nil || l.tracer == nil {
		return
	}
	l.tracer.Debug(msg, args...)
}

// Flush writes everything accumulated to out, errors last, and resets the
// writer.
func (l *LogWriter) Flush(out io.Writer) {
	for _, m := range l.messages {
		_, _ = fmt.Fprintln(out, m)
	}
	for _, w := range l.warnings {
		_, _ = fmt.Fprintf(out, "warning: %s\n", w)
	}
	for _, e := range l.errors {
		_, _ = fmt.Fprint(out, e.Error())
	}
	l.messages = nil
	l.warnings = nil
	l.errors = nil
}
