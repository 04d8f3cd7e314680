// dispatcher.go: resolves declared handlers, runs them and classifies the result
//
// The dispatcher never propagates a handler failure. Every identifier in a
// list is attempted in declaration order; failures are counted and written
// to the persistent log, retry requests are parked in the run's retry queue
// until DrainRetries runs them once more.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package eventshandler

import (
	"context"
	"fmt"
	"reflect"
)

// DispatcherConfig holds the collaborators of a Dispatcher.
type DispatcherConfig struct {
	Registry *Registry
	Composer Composer
	State    *RunState
	Logger   Logger
	Metrics  MetricsCollector
}

// Dispatcher runs lifecycle procedures for lists of handler identifiers.
type Dispatcher struct {
	registry *Registry
	composer Composer
	state    *RunState
	logger   Logger
	metrics  MetricsCollector
}

// NewDispatcher creates a dispatcher. Missing collaborators are replaced by
// the default registry, a fresh run state, a no-op logger and an in-memory
// metrics collector.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Registry == nil {
		cfg.Registry = DefaultRegistry()
	}
	if cfg.State == nil {
		cfg.State = NewRunState(nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = NewNoOpLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NewDefaultMetricsCollector()
	}
	return &Dispatcher{
		registry: cfg.Registry,
		composer: cfg.Composer,
		state:    cfg.State,
		logger:   cfg.Logger.With("run_id", cfg.State.ID),
		metrics:  cfg.Metrics,
	}
}

// State returns the run state the dispatcher reports into.
func (d *Dispatcher) State() *RunState {
	return d.state
}

// RunProcedures invokes method on every identifier of ids, in order, and
// returns one outcome per identifier.
func (d *Dispatcher) RunProcedures(ctx context.Context, ids []string, method LifecycleMethod) []Outcome {
	outcomes := make([]Outcome, 0, len(ids))
	for _, id := range ids {
		outcomes = append(outcomes, d.runOne(ctx, id, method))
	}
	return outcomes
}

// DrainRetries runs every pending retry batch once. Handlers that request
// a retry again are escalated to failures.
func (d *Dispatcher) DrainRetries(ctx context.Context) []Outcome {
	rep := d.state.reporter
	batches := d.state.queue.Drain()
	d.recordPending()
	if len(batches) == 0 {
		return nil
	}

	var outcomes []Outcome
	for _, batch := range batches {
		d.logger.Info("Running retry batch",
			"method", batch.Method.String(),
			"handlers", len(batch.Handlers))
		rep.Console("\nRunning method '%s' of previously failed procedures:\n\n", batch.Method)
		outcomes = append(outcomes, d.RunProcedures(ctx, batch.Handlers, batch.Method)...)
	}
	rep.Console("\n")
	return outcomes
}

func (d *Dispatcher) runOne(ctx context.Context, id string, method LifecycleMethod) Outcome {
	rep := d.state.reporter
	rep.SetCurrent(id)
	rep.Console("   %-60s", id)

	var outcome Outcome
	if factory, ok := d.registry.Lookup(id); ok {
		outcome = d.classify(id, method, d.execute(ctx, factory, id, method))
	} else {
		err := NewHandlerNotFoundError(id)
		outcome = Outcome{Handler: id, Method: method, Kind: OutcomeNotFound, Reason: err.Message, Err: err}
	}

	rep.Console("%s\n", outcome.Kind)
	if outcome.Reason != "" {
		rep.Persist(outcome.Reason)
	}
	if outcome.Failed() {
		rep.CountError()
	}

	d.record(outcome)
	return outcome
}

// execute builds the handler and invokes method on it. Panics raised by the
// factory or the handler come back as errors.
func (d *Dispatcher) execute(ctx context.Context, factory Factory, id string, method LifecycleMethod) error {
	logger := d.logger.With("handler", id, "method", method.String())
	return callSafely(logger, func() error {
		h, ok := factory(d.composer).(EventsHandler)
		if !ok || isNilHandler(h) {
			return NewContractViolationError(id)
		}
		bind(h, id)
		return invokeMethod(ContextWithLogger(ctx, logger), h, method)
	})
}

// isNilHandler reports whether h is nil or a typed nil pointer.
func isNilHandler(h EventsHandler) bool {
	if h == nil {
		return true
	}
	v := reflect.ValueOf(h)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

func (d *Dispatcher) classify(id string, method LifecycleMethod, err error) Outcome {
	outcome := Outcome{Handler: id, Method: method}
	switch {
	case err == nil:
		outcome.Kind = OutcomeSuccess
	case IsRetryRequested(err):
		reason := retryReason(err)
		if d.state.queue.Enqueue(method, id) {
			outcome.Kind = OutcomeRetryable
			outcome.Reason = reason
			outcome.Err = err
		} else {
			exhausted := NewRetryExhaustedError(id, method, reason)
			outcome.Kind = OutcomeFailed
			outcome.Reason = exhausted.Message
			outcome.Err = exhausted
		}
	default:
		failed := NewProcedureFailedError(id, method, err)
		outcome.Kind = OutcomeFailed
		outcome.Reason = failed.Message
		outcome.Err = failed
	}
	return outcome
}

func (d *Dispatcher) record(outcome Outcome) {
	fields := []any{
		"handler", outcome.Handler,
		"method", outcome.Method.String(),
		"outcome", outcome.Kind.label(),
	}
	switch outcome.Kind {
	case OutcomeSuccess:
		d.logger.Debug("Procedure completed", fields...)
	case OutcomeRetryable:
		d.logger.Info("Procedure deferred to retry pass", append(fields, "reason", outcome.Reason)...)
	default:
		d.logger.Warn("Procedure failed", append(fields, "reason", outcome.Reason)...)
	}

	d.metrics.IncrementCounter(MetricProcedures, map[string]string{
		"method":  outcome.Method.String(),
		"outcome": outcome.Kind.label(),
	}, 1)
	d.recordPending()
}

func (d *Dispatcher) recordPending() {
	d.metrics.SetGauge(MetricPendingRetries, nil, float64(d.state.queue.Len()))
}

// String implements fmt.Stringer.
func (d *Dispatcher) String() string {
	return fmt.Sprintf("Dispatcher{run=%s, errors=%d, pending=%d}",
		d.state.ID, d.state.Errors(), d.state.queue.Len())
}
