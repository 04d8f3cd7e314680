// registry.go: handler registry keyed by declared identifier
//
// Packages declare handlers by fully-qualified name in their manifest. The
// registry maps each name to the factory that builds the handler, which is
// how a declared name becomes an executable unit.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package eventshandler

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory builds a handler for the given package-manager context.
//
// The result is checked against EventsHandler at dispatch time: a factory
// returning anything that does not embed BaseHandler yields a contract
// violation for that identifier, not a registration error.
type Factory func(composer Composer) any

// Registry holds the handler factories available to the dispatcher.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	logger    Logger
}

var defaultRegistry = NewRegistry(nil)

// DefaultRegistry returns the process-wide registry. Packages providing
// handlers usually register into it from an init function.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// NewRegistry creates an empty registry.
func NewRegistry(logger any) *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		logger:    NewLogger(logger),
	}
}

// Register adds a factory under name. Names must be non-blank and unique
// within the registry; they are matched against declarations verbatim.
func (r *Registry) Register(name string, factory Factory) error {
	if strings.TrimSpace(name) == "" {
		return NewInvalidRegistrationError(name, "handler name cannot be empty")
	}
	if factory == nil {
		return NewInvalidRegistrationError(name, "factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return NewInvalidRegistrationError(name, fmt.Sprintf("handler '%s' already registered", name))
	}
	r.factories[name] = factory
	r.logger.Debug("Handler registered", "handler", name)
	return nil
}

// MustRegister is like Register but panics on error. Intended for init functions.
func (r *Registry) MustRegister(name string, factory Factory) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

// RegisterHandler registers a typed constructor, so the contract is checked
// by the compiler instead of at dispatch time.
func RegisterHandler[T EventsHandler](r *Registry, name string, ctor func(Composer) T) error {
	if ctor == nil {
		return NewInvalidRegistrationError(name, "constructor cannot be nil")
	}
	return r.Register(name, func(composer Composer) any {
		return ctor(composer)
	})
}

// Lookup returns the factory registered under name.
func (r *Registry) Lookup(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.factories[name]
	return factory, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns the registered identifiers, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
