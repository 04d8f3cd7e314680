// handler.go: handler contract and the embeddable BaseHandler
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package eventshandler

import (
	"context"
	"fmt"
)

// Package is the host's view of an installed package. Only the name and the
// extra metadata are consumed.
type Package interface {
	Name() string
	Extra() map[string]any
}

// Composer is the opaque package-manager context handed to every handler.
// The events handler itself only reads the root package and the local set.
type Composer interface {
	RootPackage() Package
	LocalPackages() []Package
}

// StepFunc is a named unit of work a handler can retry by name.
type StepFunc func(ctx context.Context) error

// EventsHandler is the contract every declared handler must satisfy.
//
// The interface carries an unexported method, so it can only be implemented
// by embedding BaseHandler. BaseHandler provides no-op lifecycle methods:
// a handler overrides only the ones it needs.
//
// Example:
//
//	type DatabaseSetup struct {
//	    eventshandler.BaseHandler
//	}
//
//	func (d *DatabaseSetup) Finalize(ctx context.Context) error {
//	    return d.Retry(ctx, "migrate")
//	}
type EventsHandler interface {
	// Install runs after the package (including the root package) is installed
	Install(ctx context.Context) error

	// Update runs after the package has been updated
	Update(ctx context.Context) error

	// Uninstall runs before the package is removed
	Uninstall(ctx context.Context) error

	// Finalize runs once the host has finished its install, update or create-project command
	Finalize(ctx context.Context) error

	base() *BaseHandler
}

// BaseHandler must be embedded by every handler. Handlers are constructed by
// their factory with NewBaseHandler and returned as pointers.
type BaseHandler struct {
	composer Composer
	self     EventsHandler
	name     string
	steps    map[string]StepFunc
}

// NewBaseHandler returns a BaseHandler holding the package-manager context.
func NewBaseHandler(composer Composer) BaseHandler {
	return BaseHandler{composer: composer}
}

// Composer returns the package-manager context captured at construction.
func (b *BaseHandler) Composer() Composer {
	return b.composer
}

// Name returns the identifier the handler was resolved from. Empty until
// the dispatcher binds the handler.
func (b *BaseHandler) Name() string {
	return b.name
}

// Install implements EventsHandler (no-op)
func (b *BaseHandler) Install(ctx context.Context) error { return nil }

// Update implements EventsHandler (no-op)
func (b *BaseHandler) Update(ctx context.Context) error { return nil }

// Uninstall implements EventsHandler (no-op)
func (b *BaseHandler) Uninstall(ctx context.Context) error { return nil }

// Finalize implements EventsHandler (no-op)
func (b *BaseHandler) Finalize(ctx context.Context) error { return nil }

func (b *BaseHandler) base() *BaseHandler { return b }

// DefineStep registers a named step that Retry can run. Defining a step
// with a lifecycle method name shadows that method for Retry only.
func (b *BaseHandler) DefineStep(name string, fn StepFunc) {
	if b.steps == nil {
		b.steps = make(map[string]StepFunc)
	}
	b.steps[name] = fn
}

// Retry runs the named step or lifecycle method. Any error it returns is
// re-signalled as a retry request, deferring this handler to the retry pass
// at the end of the run. An unknown name is a plain failure.
//
// Retrying the lifecycle method currently executing recurses forever; retry
// a step instead.
func (b *BaseHandler) Retry(ctx context.Context, name string) error {
	fn, ok := b.lookup(name)
	if !ok {
		return NewMethodNotExistError(name, b.handlerName())
	}
	if err := fn(ctx); err != nil {
		return NewRetryRequestedError(err)
	}
	return nil
}

func (b *BaseHandler) lookup(name string) (StepFunc, bool) {
	if fn, ok := b.steps[name]; ok {
		return fn, true
	}
	method, err := ParseLifecycleMethod(name)
	if err != nil || b.self == nil {
		return nil, false
	}
	self := b.self
	return func(ctx context.Context) error {
		return invokeMethod(ctx, self, method)
	}, true
}

func (b *BaseHandler) handlerName() string {
	if b.name != "" {
		return b.name
	}
	if b.self != nil {
		return fmt.Sprintf("%T", b.self)
	}
	return "BaseHandler"
}

// bind attaches the outer handler so Retry dispatches to its overrides.
func bind(h EventsHandler, name string) {
	b := h.base()
	b.self = h
	b.name = name
}

// RetryLater marks err as a retry request. It returns nil for a nil error.
func RetryLater(err error) error {
	if err == nil {
		return nil
	}
	return NewRetryRequestedError(err)
}

func invokeMethod(ctx context.Context, h EventsHandler, method LifecycleMethod) error {
	switch method {
	case MethodInstall:
		return h.Install(ctx)
	case MethodUpdate:
		return h.Update(ctx)
	case MethodUninstall:
		return h.Uninstall(ctx)
	case MethodFinalize:
		return h.Finalize(ctx)
	default:
		return NewUnknownMethodError(method.String())
	}
}
