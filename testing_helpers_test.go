// testing_helpers_test.go: shared fixtures for the package tests
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package eventshandler

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"
)

// fixedTime is the clock used by reporters under test.
var fixedTime = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

// callLog records handler invocations in order.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (c *callLog) add(call string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
}

func (c *callLog) list() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.calls))
	copy(out, c.calls)
	return out
}

// scriptedHandler records every invocation and delegates to per-method
// behaviour. A nil behaviour falls back to the BaseHandler no-op.
type scriptedHandler struct {
	BaseHandler
	log      *callLog
	behavior map[LifecycleMethod]func(ctx context.Context, h *scriptedHandler) error
}

func (s *scriptedHandler) run(ctx context.Context, method LifecycleMethod) error {
	if s.log != nil {
		s.log.add(s.Name() + ":" + method.String())
	}
	if fn := s.behavior[method]; fn != nil {
		return fn(ctx, s)
	}
	return nil
}

func (s *scriptedHandler) Install(ctx context.Context) error {
	return s.run(ctx, MethodInstall)
}

func (s *scriptedHandler) Update(ctx context.Context) error {
	return s.run(ctx, MethodUpdate)
}

func (s *scriptedHandler) Uninstall(ctx context.Context) error {
	return s.run(ctx, MethodUninstall)
}

func (s *scriptedHandler) Finalize(ctx context.Context) error {
	return s.run(ctx, MethodFinalize)
}

// scripted returns a factory building a scriptedHandler.
func scripted(log *callLog, behavior map[LifecycleMethod]func(ctx context.Context, h *scriptedHandler) error) Factory {
	return func(composer Composer) any {
		return &scriptedHandler{
			BaseHandler: NewBaseHandler(composer),
			log:         log,
			behavior:    behavior,
		}
	}
}

// succeedAfter returns a step failing the first n calls.
func succeedAfter(n int) StepFunc {
	var mu sync.Mutex
	calls := 0
	return func(ctx context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls <= n {
			return errors.New("resource not ready")
		}
		return nil
	}
}

// alwaysRetry is a behaviour requesting a retry on every call.
func alwaysRetry(ctx context.Context, h *scriptedHandler) error {
	return RetryLater(errors.New("still busy"))
}

// failWith is a behaviour failing with msg.
func failWith(msg string) func(ctx context.Context, h *scriptedHandler) error {
	return func(ctx context.Context, h *scriptedHandler) error {
		return errors.New(msg)
	}
}

// impostor has the lifecycle methods but does not embed BaseHandler.
type impostor struct {
	log *callLog
}

func (i *impostor) Install(ctx context.Context) error {
	i.log.add("impostor:install")
	return nil
}

// sinks captures the two reporter outputs.
type sinks struct {
	console bytes.Buffer
	log     bytes.Buffer
}

func newTestReporter(s *sinks, logPath string) *Reporter {
	rep := NewReporter(&s.console, &s.log, logPath)
	rep.clock = func() time.Time { return fixedTime }
	return rep
}

func newTestComposer(root Package, local ...Package) *StaticComposer {
	if root == nil {
		root = NewPackage("acme/root", nil)
	}
	return &StaticComposer{Root: root, Local: local}
}

func declaring(name string, handlers ...string) *Manifest {
	return NewPackage(name, map[string]any{KeyHandlers: handlers})
}

// failingWriter fails every write.
type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}
