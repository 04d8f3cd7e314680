// lifecycle.go: lifecycle methods and execution outcomes
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package eventshandler

// LifecycleMethod names one of the four procedures a handler may implement.
type LifecycleMethod string

const (
	MethodInstall   LifecycleMethod = "install"
	MethodUpdate    LifecycleMethod = "update"
	MethodUninstall LifecycleMethod = "uninstall"
	MethodFinalize  LifecycleMethod = "finalize"
)

// LifecycleMethods lists the methods in their canonical order.
func LifecycleMethods() []LifecycleMethod {
	return []LifecycleMethod{MethodInstall, MethodUpdate, MethodUninstall, MethodFinalize}
}

// ParseLifecycleMethod converts a method name into a LifecycleMethod.
// Names are case-sensitive.
func ParseLifecycleMethod(name string) (LifecycleMethod, error) {
	switch m := LifecycleMethod(name); m {
	case MethodInstall, MethodUpdate, MethodUninstall, MethodFinalize:
		return m, nil
	default:
		return "", NewUnknownMethodError(name)
	}
}

// String implements fmt.Stringer.
func (m LifecycleMethod) String() string {
	return string(m)
}

// OutcomeKind classifies the result of one handler invocation.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeRetryable
	OutcomeFailed
	OutcomeNotFound
)

// String returns the console token for the outcome.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "OK"
	case OutcomeRetryable:
		return "Retry"
	case OutcomeFailed:
		return "Failed"
	case OutcomeNotFound:
		return "Not Found"
	default:
		return "Unknown"
	}
}

// label is the low-cardinality metric label for the outcome.
func (k OutcomeKind) label() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetryable:
		return "retry"
	case OutcomeFailed:
		return "failed"
	case OutcomeNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Outcome is the classified result of invoking one handler.
type Outcome struct {
	Handler string
	Method  LifecycleMethod
	Kind    OutcomeKind

	// Reason holds the diagnostic written to the persistent log. Empty on success.
	Reason string

	// Err is the classified error, nil on success.
	Err error
}

// Failed reports whether the outcome counts as a procedure error.
func (o Outcome) Failed() bool {
	return o.Kind == OutcomeFailed || o.Kind == OutcomeNotFound
}
