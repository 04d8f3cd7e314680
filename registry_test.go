// registry_test.go: handler registration and lookup
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

func TestRegistry_RegisterAndLookup(t *testing.T) {
	logger := NewTestLogger()
	r := NewRegistry(logger)

	require.NoError(t, r.Register("Acme\\B", scripted(nil, nil)))
	require.NoError(t, r.Register("Acme\\A", scripted(nil, nil)))

	factory, ok := r.Lookup("Acme\\A")
	require.True(t, ok)
	assert.NotNil(t, factory)
	assert.True(t, r.Has("Acme\\B"))
	assert.False(t, r.Has("acme\\a"))
	assert.Equal(t, []string{"Acme\\A", "Acme\\B"}, r.Names())
	assert.True(t, logger.HasMessage("DEBUG", "Handler registered"))
}

func TestRegistry_RejectsInvalidRegistrations(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register("Acme\\A", scripted(nil, nil)))

	tests := []struct {
		name    string
		handler string
		factory Factory
	}{
		{"empty name", "", scripted(nil, nil)},
		{"blank name", "   ", scripted(nil, nil)},
		{"nil factory", "Acme\\B", nil},
		{"duplicate", "Acme\\A", scripted(nil, nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Register(tt.handler, tt.factory)
			require.Error(t, err)
			assert.True(t, hasCode(err, ErrCodeInvalidRegistration))
		})
	}
}

func TestRegistry_NamesAreVerbatim(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(" Acme\\Padded", scripted(nil, nil)))

	assert.True(t, r.Has(" Acme\\Padded"))
	assert.False(t, r.Has("Acme\\Padded"))
}

func TestRegistry_MustRegisterPanicsOnDuplicate(t *testing.T) {
	r := NewRegistry(nil)
	r.MustRegister("Acme\\A", scripted(nil, nil))

	assert.Panics(t, func() {
		r.MustRegister("Acme\\A", scripted(nil, nil))
	})
}

func TestRegisterHandler_Typed(t *testing.T) {
	r := NewRegistry(nil)

	err := RegisterHandler(r, "Acme\\Typed", func(c Composer) *minimalHandler {
		return &minimalHandler{BaseHandler: NewBaseHandler(c)}
	})
	require.NoError(t, err)

	factory, ok := r.Lookup("Acme\\Typed")
	require.True(t, ok)
	_, isHandler := factory(nil).(EventsHandler)
	assert.True(t, isHandler)

	var nilCtor func(Composer) *minimalHandler
	assert.Error(t, RegisterHandler(r, "Acme\\Nil", nilCtor))
}

func TestDefaultRegistry_IsShared(t *testing.T) {
	assert.Same(t, DefaultRegistry(), DefaultRegistry())
}
