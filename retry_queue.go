// retry_queue.go: deferred retry bookkeeping
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package eventshandler

// RetryEntry is a (method, handler) pair deferred to the retry pass.
type RetryEntry struct {
	Method  LifecycleMethod
	Handler string
}

// RetryBatch is the pending list of one method, in enqueue order.
type RetryBatch struct {
	Method   LifecycleMethod
	Handlers []string
}

// RetryQueue maps lifecycle methods to the handlers that asked to be retried.
//
// A pair is accepted once per process: after it has been enqueued, later
// requests for the same pair are refused even once the pending list has been
// drained. This is what bounds every handler to a single retry per method.
type RetryQueue struct {
	order   []LifecycleMethod
	pending map[LifecycleMethod][]string
	seen    map[RetryEntry]struct{}
}

// NewRetryQueue creates an empty queue.
func NewRetryQueue() *RetryQueue {
	return &RetryQueue{
		pending: make(map[LifecycleMethod][]string),
		seen:    make(map[RetryEntry]struct{}),
	}
}

// Enqueue defers handler for method. It returns false when the pair was
// already enqueued earlier in the process; the caller must then escalate.
func (q *RetryQueue) Enqueue(method LifecycleMethod, handler string) bool {
	entry := RetryEntry{Method: method, Handler: handler}
	if _, dup := q.seen[entry]; dup {
		return false
	}
	q.seen[entry] = struct{}{}

	if _, known := q.pending[method]; !known {
		q.order = append(q.order, method)
	}
	q.pending[method] = append(q.pending[method], handler)
	return true
}

// Pending returns a copy of the handlers waiting for method.
func (q *RetryQueue) Pending(method LifecycleMethod) []string {
	list := q.pending[method]
	if len(list) == 0 {
		return nil
	}
	out := make([]string, len(list))
	copy(out, list)
	return out
}

// Len returns the number of pending entries across all methods.
func (q *RetryQueue) Len() int {
	n := 0
	for _, list := range q.pending {
		n += len(list)
	}
	return n
}

// Drain takes every non-empty pending list, in the order methods were first
// enqueued, and clears it. A second Drain without new entries returns nothing.
func (q *RetryQueue) Drain() []RetryBatch {
	var batches []RetryBatch
	for _, method := range q.order {
		list := q.pending[method]
		if len(list) == 0 {
			continue
		}
		batches = append(batches, RetryBatch{Method: method, Handlers: list})
		q.pending[method] = nil
	}
	return batches
}
