// plugin.go: host-facing plugin binding events to handler procedures
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package eventshandler

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Option configures a Plugin.
type Option func(*Plugin)

// WithLogger sets the structured diagnostics logger. Accepts a Logger or nil.
func WithLogger(logger any) Option {
	return func(p *Plugin) {
		p.logger = NewLogger(logger)
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(metrics MetricsCollector) Option {
	return func(p *Plugin) {
		if metrics != nil {
			p.metrics = metrics
		}
	}
}

// WithConsole sets the console sink. Defaults to os.Stdout.
func WithConsole(w io.Writer) Option {
	return func(p *Plugin) {
		p.console = w
	}
}

// WithLogWriter replaces the persistent log file with w. The resolved log
// path is still reported in the summary.
func WithLogWriter(w io.Writer) Option {
	return func(p *Plugin) {
		p.logWriter = w
	}
}

// WithConfig sets the plugin configuration.
func WithConfig(config Config) Option {
	return func(p *Plugin) {
		p.config = config
	}
}

// Summary is the result of a run.
type Summary struct {
	RunID   string
	Errors  int
	LogPath string

	// Message is the summary written to the console, empty when no
	// procedure failed.
	Message string

	// Err is the first write error of the console or log sink.
	Err error
}

// Failed reports whether at least one procedure failed.
func (s Summary) Failed() bool {
	return s.Errors > 0
}

// Plugin receives host lifecycle events and runs the procedures declared
// by the affected packages.
//
// Typical host integration:
//
//	plugin := eventshandler.New(eventshandler.DefaultRegistry())
//	if err := plugin.Activate(composer); err != nil {
//	    return err
//	}
//	defer plugin.Close()
//
//	plugin.OnEvent(ctx, eventshandler.Event{Name: eventshandler.EventPostPackageInstall, Package: pkg})
//	plugin.OnEvent(ctx, eventshandler.Event{Name: eventshandler.EventPostInstallCmd})
//	summary := plugin.OnRunComplete(ctx)
type Plugin struct {
	registry  *Registry
	config    Config
	logger    Logger
	metrics   MetricsCollector
	console   io.Writer
	logWriter io.Writer

	composer   Composer
	resolved   Config
	file       *logFile
	dispatcher *Dispatcher
	summary    *Summary
}

// New creates a plugin resolving handlers from registry. A nil registry
// uses DefaultRegistry.
func New(registry *Registry, opts ...Option) *Plugin {
	if registry == nil {
		registry = DefaultRegistry()
	}
	p := &Plugin{
		registry: registry,
		config:   DefaultConfig(),
		logger:   NewNoOpLogger(),
		metrics:  NewDefaultMetricsCollector(),
		console:  os.Stdout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Activate starts a run against composer. The log path is resolved from
// the configuration and the root package; activating again starts a new
// run with a fresh error counter and retry queue.
func (p *Plugin) Activate(composer Composer, opts ...Option) error {
	for _, opt := range opts {
		opt(p)
	}
	if composer == nil {
		return NewConfigValidationError("composer cannot be nil", nil)
	}

	resolved, err := p.config.resolve(composer.RootPackage())
	if err != nil {
		return err
	}

	if err := p.closeFile(); err != nil {
		p.logger.Warn("Failed to close previous log file", "error", err)
	}

	sink := p.logWriter
	if sink == nil {
		p.file = newLogFile(resolved.LogPath)
		sink = p.file
	}

	state := NewRunState(NewReporter(p.console, sink, resolved.LogPath))
	p.composer = composer
	p.resolved = resolved
	p.summary = nil
	p.dispatcher = NewDispatcher(DispatcherConfig{
		Registry: p.registry,
		Composer: composer,
		State:    state,
		Logger:   p.logger,
		Metrics:  p.metrics,
	})

	p.logger.Info("Events handler activated",
		"run_id", state.ID,
		"log_path", resolved.LogPath,
		"handlers", len(p.registry.Names()))
	return nil
}

// OnEvent handles one host event. Handler failures never surface here:
// they are counted and reported in the summary. An error is returned only
// for an unknown event, an event without its package, or a missing
// activation.
func (p *Plugin) OnEvent(ctx context.Context, event Event) error {
	if p.dispatcher == nil {
		return NewNotActivatedError()
	}
	binding, ok := eventBindings[event.Name]
	if !ok {
		return NewUnknownEventError(event.Name)
	}

	p.logger.Debug("Handling event",
		"event", event.Name,
		"method", binding.method.String())

	if binding.finalize {
		packages := event.Packages
		if packages == nil {
			packages = p.composer.LocalPackages()
		}
		for _, pkg := range packages {
			p.runPackage(ctx, pkg, binding.method)
		}
		p.dispatcher.DrainRetries(ctx)
		return nil
	}

	pkg := event.Package
	if pkg == nil && event.Name == EventPostRootPackageInstall {
		pkg = p.composer.RootPackage()
	}
	if pkg == nil {
		return NewConfigValidationError(fmt.Sprintf("event %s carries no package", event.Name), nil)
	}
	p.runPackage(ctx, pkg, binding.method)
	return nil
}

func (p *Plugin) runPackage(ctx context.Context, pkg Package, method LifecycleMethod) {
	if pkg == nil {
		return
	}
	ids, declared, err := HandlerIdentifiers(pkg)
	if err != nil {
		p.logger.Warn("Ignoring malformed handler declaration",
			"package", pkg.Name(),
			"error", err.Error())
		return
	}
	if !declared {
		return
	}

	p.dispatcher.State().Reporter().Console("\nRunning %s procedures for package '%s':\n\n", method, pkg.Name())
	p.dispatcher.RunProcedures(ctx, ids, method)
}

// OnRunComplete runs any pending retries and emits the summary. Later
// calls return the same summary without writing it again.
func (p *Plugin) OnRunComplete(ctx context.Context) Summary {
	if p.dispatcher == nil {
		return Summary{}
	}
	if p.summary != nil {
		return *p.summary
	}

	p.dispatcher.DrainRetries(ctx)

	state := p.dispatcher.State()
	rep := state.Reporter()
	summary := Summary{
		RunID:   state.ID,
		Errors:  rep.Errors(),
		LogPath: rep.LogPath(),
		Message: rep.Summary(),
		Err:     rep.Err(),
	}
	if summary.Err != nil {
		p.logger.Error("Report sink write failed",
			"run_id", summary.RunID,
			"error", summary.Err.Error())
	}
	p.logger.Info("Events handler run completed",
		"run_id", summary.RunID,
		"errors", summary.Errors)

	p.summary = &summary
	return summary
}

// State returns the current run state, or nil before Activate.
func (p *Plugin) State() *RunState {
	if p.dispatcher == nil {
		return nil
	}
	return p.dispatcher.State()
}

// Config returns the configuration resolved at activation.
func (p *Plugin) Config() Config {
	return p.resolved
}

// Close releases the persistent log file. Safe to call more than once.
func (p *Plugin) Close() error {
	return p.closeFile()
}

func (p *Plugin) closeFile() error {
	if p.file == nil {
		return nil
	}
	err := p.file.Close()
	p.file = nil
	return err
}
