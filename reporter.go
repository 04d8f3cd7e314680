// reporter.go: Dual-sink procedure reporting with error accounting
//
// The Reporter owns the two user-facing sinks of a run: the console, which
// receives short scannable tokens, and the persistent procedure log, which
// receives the full diagnostic of every non-successful procedure. It also
// keeps the process-wide error counter used for the final summary.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package eventshandler

import (
	"fmt"
	"io"
	"time"

	"github.com/agilira/go-timecache"
)

// LogTimeFormat is the timestamp layout of persistent log lines.
const LogTimeFormat = "2006-01-02 15:04:05"

// Reporter writes console output and persistent log lines.
//
// Console writes are raw: callers supply their own newlines so a procedure
// line can be opened with its prefix and closed later with the outcome token.
// Persistent lines are formatted as "[<timestamp>] [\"<handler>\"] <message>\n".
type Reporter struct {
	console io.Writer
	log     io.Writer
	logPath string
	clock   func() time.Time

	current string
	errors  int
	err     error
}

// NewReporter creates a reporter over the given sinks. logPath is only used
// in the summary message. Nil writers discard their output.
func NewReporter(console, log io.Writer, logPath string) *Reporter {
	if console == nil {
		console = io.Discard
	}
	if log == nil {
		log = io.Discard
	}
	return &Reporter{
		console: console,
		log:     log,
		logPath: logPath,
		clock:   timecache.CachedTime,
	}
}

// Console writes a raw message to the console sink.
func (r *Reporter) Console(format string, args ...any) {
	r.write(r.console, fmt.Sprintf(format, args...))
}

// Persist appends one line to the persistent log, attributed to the handler
// currently being processed.
func (r *Reporter) Persist(message string) {
	line := fmt.Sprintf("[%s] [%q] %s\n", r.clock().Format(LogTimeFormat), r.current, message)
	r.write(r.log, line)
}

// SetCurrent records the handler used for log line attribution.
func (r *Reporter) SetCurrent(handler string) {
	r.current = handler
}

// Current returns the handler currently attributed in log lines.
func (r *Reporter) Current() string {
	return r.current
}

// CountError increments the error counter. The counter never decreases.
func (r *Reporter) CountError() {
	r.errors++
}

// Errors returns the number of failed procedures so far.
func (r *Reporter) Errors() int {
	return r.errors
}

// LogPath returns the persistent log location shown in the summary.
func (r *Reporter) LogPath() string {
	return r.logPath
}

// Err returns the first write error encountered on either sink.
func (r *Reporter) Err() error {
	return r.err
}

// Summary writes the failure summary to the console when at least one
// procedure failed and returns the message, or "" when nothing failed.
func (r *Reporter) Summary() string {
	if r.errors == 0 {
		return ""
	}
	msg := fmt.Sprintf("%d procedure(s) failed. For more info check the log '%s'\n\n", r.errors, r.logPath)
	r.write(r.console, msg)
	return msg
}

func (r *Reporter) write(w io.Writer, s string) {
	if _, err := io.WriteString(w, s); err != nil && r.err == nil {
		r.err = err
	}
}
