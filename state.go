// state.go: per-run bookkeeping shared by the dispatcher and the plugin
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package eventshandler

import (
	"github.com/google/uuid"
)

// RunState is the state of one host run: the reporter holding the error
// counter and the current handler, and the retry queue.
//
// A RunState is created once per Activate and finalized by OnRunComplete.
// It is not safe for concurrent use.
type RunState struct {
	// ID identifies the run in structured logs.
	ID string

	reporter *Reporter
	queue    *RetryQueue
}

// NewRunState creates the state of a new run reporting through reporter.
func NewRunState(reporter *Reporter) *RunState {
	if reporter == nil {
		reporter = NewReporter(nil, nil, "")
	}
	return &RunState{
		ID:       uuid.NewString(),
		reporter: reporter,
		queue:    NewRetryQueue(),
	}
}

// Reporter returns the run's reporter.
func (s *RunState) Reporter() *Reporter { return s.reporter }

// Queue returns the run's retry queue.
func (s *RunState) Queue() *RetryQueue { return s.queue }

// Errors returns the number of failed procedures so far.
func (s *RunState) Errors() int { return s.reporter.Errors() }

// Current returns the handler currently being processed.
func (s *RunState) Current() string { return s.reporter.Current() }
