// Package eventshandler lets packages attach setup procedures to the
// lifecycle of a dependency installation.
//
// A package declares handler names in the "composer-events-handler" entry
// of its manifest extras. When the host installs, updates or removes the
// package, or finishes an install, update or create-project command, the
// plugin resolves every declared name through a Registry and runs the
// matching lifecycle method. Failures never abort the host: each one is
// counted, reported on the console with a short token and written with its
// full diagnostic to a persistent log.
//
// Key Features:
//   - Handlers embed BaseHandler and override only the methods they need
//   - Declaration order is execution order; duplicates run independently
//   - A handler may defer itself once per method with Retry or RetryLater
//   - Panics in handlers are contained and reported as failures
//   - Pluggable structured logging and Prometheus metrics
//   - Manifest and lock file loading in JSON or YAML
//
// Basic Usage:
//
//	type CacheWarmup struct {
//		eventshandler.BaseHandler
//	}
//
//	func (c *CacheWarmup) Finalize(ctx context.Context) error {
//		return c.Retry(ctx, "warm")
//	}
//
//	func init() {
//		eventshandler.DefaultRegistry().MustRegister("Acme\\CacheWarmup", func(composer eventshandler.Composer) any {
//			h := &CacheWarmup{BaseHandler: eventshandler.NewBaseHandler(composer)}
//			h.DefineStep("warm", h.warm)
//			return h
//		})
//	}
//
// Host Integration:
//
//	plugin := eventshandler.New(nil, eventshandler.WithLogger(logger))
//	if err := plugin.Activate(composer); err != nil {
//		return err
//	}
//	defer plugin.Close()
//
//	_ = plugin.OnEvent(ctx, eventshandler.Event{Name: eventshandler.EventPostPackageInstall, Package: pkg})
//	_ = plugin.OnEvent(ctx, eventshandler.Event{Name: eventshandler.EventPostInstallCmd})
//	if summary := plugin.OnRunComplete(ctx); summary.Failed() {
//		os.Exit(1)
//	}
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package eventshandler
