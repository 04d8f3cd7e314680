// reporter_test.go: console and persistent log output
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package eventshandler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReporter_ConsoleIsRaw(t *testing.T) {
	s := &sinks{}
	rep := newTestReporter(s, "app.log")

	rep.Console("   %-10s", "Acme")
	rep.Console("OK\n")

	assert.Equal(t, "   Acme      OK\n", s.console.String())
	assert.Empty(t, s.log.String())
}

func TestReporter_PersistAttributesCurrentHandler(t *testing.T) {
	s := &sinks{}
	rep := newTestReporter(s, "app.log")

	rep.SetCurrent(`Acme\Db`)
	rep.Persist("connection refused")

	assert.Equal(t, `[2025-03-14 09:26:53] ["Acme\\Db"] connection refused`+"\n", s.log.String())
	assert.Equal(t, `Acme\Db`, rep.Current())
	assert.Empty(t, s.console.String())
}

func TestReporter_Summary(t *testing.T) {
	t.Run("NoErrors", func(t *testing.T) {
		s := &sinks{}
		rep := newTestReporter(s, "app.log")

		assert.Empty(t, rep.Summary())
		assert.Empty(t, s.console.String())
	})

	t.Run("WithErrors", func(t *testing.T) {
		s := &sinks{}
		rep := newTestReporter(s, "./composer-events.log")
		rep.CountError()
		rep.CountError()

		want := "2 procedure(s) failed. For more info check the log './composer-events.log'\n\n"
		assert.Equal(t, want, rep.Summary())
		assert.Equal(t, want, s.console.String())
		assert.Equal(t, 2, rep.Errors())
	})
}

func TestReporter_NilWritersDiscard(t *testing.T) {
	rep := NewReporter(nil, nil, "")
	rep.Console("hello")
	rep.Persist("dropped")
	assert.NoError(t, rep.Err())
}

func TestReporter_KeepsFirstWriteError(t *testing.T) {
	rep := NewReporter(nil, failingWriter{}, "app.log")

	rep.Persist("one")
	rep.Persist("two")

	require.Error(t, rep.Err())
	assert.Equal(t, "disk full", rep.Err().Error())
}
