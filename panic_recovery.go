// panic_recovery.go: converts handler panics into procedure failures
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package eventshandler

import (
	"fmt"
	"runtime"
)

// RecoveryHandler defines the signature for panic recovery handlers.
type RecoveryHandler func(recovered interface{}, stack []byte)

// withCustomRecoveryHandler returns a panic recovery function that calls
// handler with the recovered value and the goroutine stack.
func withCustomRecoveryHandler(handler RecoveryHandler) func() {
	return func() {
		if r := recover(); r != nil {
			buf := make([]byte, 64<<10)
			n := runtime.Stack(buf, false)
			handler(r, buf[:n])
		}
	}
}

// callSafely runs fn and turns a panic into an error so one misbehaving
// handler cannot abort the dispatch loop. The stack goes to logger.
func callSafely(logger Logger, fn func() error) (err error) {
	defer withCustomRecoveryHandler(func(recovered interface{}, stack []byte) {
		logger.Error("Panic recovered in handler",
			"panic", recovered,
			"stack", string(stack))
		err = fmt.Errorf("panic: %v", recovered)
	})()
	return fn()
}
