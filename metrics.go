// metrics.go: outcome metrics with in-memory and Prometheus collectors
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

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names emitted by the dispatcher.
const (
	// MetricProcedures counts handler invocations, labelled by method and outcome.
	MetricProcedures = "procedures_total"

	// MetricPendingRetries is the number of procedures waiting for the retry pass.
	MetricPendingRetries = "pending_retries"
)

// MetricsCollector receives dispatcher metrics.
type MetricsCollector interface {
	// Counter metrics
	IncrementCounter(name string, labels map[string]string, value int64)

	// Gauge metrics
	SetGauge(name string, labels map[string]string, value float64)

	// Get current metrics snapshot
	GetMetrics() map[string]interface{}
}

// DefaultMetricsCollector keeps metrics in memory, keyed by name and sorted labels.
type DefaultMetricsCollector struct {
	metrics map[string]interface{}
	mu      sync.RWMutex
}

// NewDefaultMetricsCollector creates a new default metrics collector
func NewDefaultMetricsCollector() *DefaultMetricsCollector {
	return &DefaultMetricsCollector{
		metrics: make(map[string]interface{}),
	}
}

func (dmc *DefaultMetricsCollector) IncrementCounter(name string, labels map[string]string, value int64) {
	dmc.mu.Lock()
	defer dmc.mu.Unlock()
	key := buildMetricKey(name, labels)
	if counter, ok := dmc.metrics[key].(int64); ok {
		dmc.metrics[key] = counter + value
		return
	}
	dmc.metrics[key] = value
}

func (dmc *DefaultMetricsCollector) SetGauge(name string, labels map[string]string, value float64) {
	dmc.mu.Lock()
	defer dmc.mu.Unlock()
	dmc.metrics[buildMetricKey(name, labels)] = value
}

func (dmc *DefaultMetricsCollector) GetMetrics() map[string]interface{} {
	dmc.mu.RLock()
	defer dmc.mu.RUnlock()
	result := make(map[string]interface{}, len(dmc.metrics))
	for k, v := range dmc.metrics {
		result[k] = v
	}
	return result
}

func buildMetricKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}

	parts := make([]string, 0, len(labels))
	for k, v := range labels {
		parts = append(parts, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(parts)
	return fmt.Sprintf("%s{%s}", name, strings.Join(parts, ","))
}

// PrometheusCollector exports dispatcher metrics through a Prometheus registerer.
//
// Vectors are created on first use; the label names of a metric are fixed by
// its first observation.
type PrometheusCollector struct {
	namespace  string
	registerer prometheus.Registerer

	mu       sync.Mutex
	counters map[string]*prometheus.CounterVec
	gauges   map[string]*prometheus.GaugeVec
	snapshot *DefaultMetricsCollector
}

// NewPrometheusCollector creates a collector registering its vectors on reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusCollector(namespace string, reg prometheus.Registerer) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &PrometheusCollector{
		namespace:  namespace,
		registerer: reg,
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		snapshot:   NewDefaultMetricsCollector(),
	}
}

func (pc *PrometheusCollector) IncrementCounter(name string, labels map[string]string, value int64) {
	pc.mu.Lock()
	vec, ok := pc.counters[name]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: pc.namespace,
			Name:      name,
			Help:      helpFor(name),
		}, labelNames(labels))
		vec = pc.registerCounter(vec)
		pc.counters[name] = vec
	}
	pc.mu.Unlock()

	vec.With(prometheus.Labels(labels)).Add(float64(value))
	pc.snapshot.IncrementCounter(name, labels, value)
}

func (pc *PrometheusCollector) SetGauge(name string, labels map[string]string, value float64) {
	pc.mu.Lock()
	vec, ok := pc.gauges[name]
	if !ok {
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: pc.namespace,
			Name:      name,
			Help:      helpFor(name),
		}, labelNames(labels))
		vec = pc.registerGauge(vec)
		pc.gauges[name] = vec
	}
	pc.mu.Unlock()

	vec.With(prometheus.Labels(labels)).Set(value)
	pc.snapshot.SetGauge(name, labels, value)
}

func (pc *PrometheusCollector) GetMetrics() map[string]interface{} {
	return pc.snapshot.GetMetrics()
}

// registerCounter registers vec, reusing a vector another collector
// already registered under the same descriptor.
func (pc *PrometheusCollector) registerCounter(vec *prometheus.CounterVec) *prometheus.CounterVec {
	if err := pc.registerer.Register(vec); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
	}
	return vec
}

func (pc *PrometheusCollector) registerGauge(vec *prometheus.GaugeVec) *prometheus.GaugeVec {
	if err := pc.registerer.Register(vec); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing
			}
		}
	}
	return vec
}

func labelNames(labels map[string]string) []string {
	names := make([]string, 0, len(labels))
	for k := range labels {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func helpFor(name string) string {
	switch name {
	case MetricProcedures:
		return "Handler procedure invocations by lifecycle method and outcome."
	case MetricPendingRetries:
		return "Procedures waiting for the retry pass."
	default:
		return "Events handler metric " + name + "."
	}
}
