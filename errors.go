// errors.go: structured error definitions for the events handler
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package eventshandler

import (
	stderrors "errors"
	"fmt"

	"github.com/agilira/go-errors"
)

// Error codes for the events handler
const (
	// Procedure errors (1000-1099)
	ErrCodeHandlerNotFound     = "EVENTS_1001"
	ErrCodeContractViolation   = "EVENTS_1002"
	ErrCodeRetryRequested      = "EVENTS_1003"
	ErrCodeRetryExhausted      = "EVENTS_1004"
	ErrCodeProcedureFailed     = "EVENTS_1005"
	ErrCodeMethodNotExist      = "EVENTS_1006"
	ErrCodeInvalidRegistration = "EVENTS_1007"
	ErrCodeUnknownEvent        = "EVENTS_1008"
	ErrCodeUnknownMethod       = "EVENTS_1009"
	ErrCodeNotActivated        = "EVENTS_1010"

	// Configuration errors (1700-1799)
	ErrCodeConfigNotFound        = "CONFIG_1701"
	ErrCodeConfigParseError      = "CONFIG_1702"
	ErrCodeConfigValidationError = "CONFIG_1703"
	ErrCodeLogFileError          = "CONFIG_1706"
)

// Message texts written to the persistent log. They are part of the log
// format consumed by tooling, keep them stable.
const (
	msgHandlerNotFound   = "The class do not exists"
	msgContractViolation = "%s is not an implementation of the 'EventsHandler' class"
	msgRetryExhausted    = "Installation still not works after retry: %s"
	msgMethodNotExist    = "Method %s does not exist in class %s"
)

// Procedure error constructors

func NewHandlerNotFoundError(handler string) *errors.Error {
	return errors.New(ErrCodeHandlerNotFound, msgHandlerNotFound).
		WithUserMessage("The declared handler is not registered").
		WithContext("handler", handler).
		WithSeverity("error")
}

func NewContractViolationError(handler string) *errors.Error {
	return errors.New(ErrCodeContractViolation, fmt.Sprintf(msgContractViolation, handler)).
		WithUserMessage("The declared handler does not embed BaseHandler").
		WithContext("handler", handler).
		WithSeverity("error")
}

// NewRetryRequestedError marks cause as transient. The message is the cause's
// own text so the persistent log shows what actually went wrong.
func NewRetryRequestedError(cause error) *errors.Error {
	if cause == nil {
		cause = stderrors.New("retry requested")
	}
	return errors.Wrap(cause, ErrCodeRetryRequested, reasonOf(cause)).
		WithUserMessage("The procedure will be retried at the end of the run").
		WithSeverity("warning").
		AsRetryable()
}

func NewRetryExhaustedError(handler string, method LifecycleMethod, reason string) *errors.Error {
	return errors.New(ErrCodeRetryExhausted, fmt.Sprintf(msgRetryExhausted, reason)).
		WithUserMessage("The procedure failed again after its retry").
		WithContext("handler", handler).
		WithContext("method", method.String()).
		WithSeverity("error")
}

func NewProcedureFailedError(handler string, method LifecycleMethod, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeProcedureFailed, reasonOf(cause)).
		WithUserMessage("The procedure failed").
		WithContext("handler", handler).
		WithContext("method", method.String()).
		WithSeverity("error")
}

func NewMethodNotExistError(method, handler string) *errors.Error {
	return errors.New(ErrCodeMethodNotExist, fmt.Sprintf(msgMethodNotExist, method, handler)).
		WithUserMessage("Retry was requested for an unknown method").
		WithContext("method", method).
		WithContext("handler", handler).
		WithSeverity("error")
}

func NewInvalidRegistrationError(handler, message string) *errors.Error {
	return errors.New(ErrCodeInvalidRegistration, "Invalid handler registration: "+message).
		WithUserMessage("Handler registration failed").
		WithContext("handler", handler).
		WithSeverity("error")
}

func NewUnknownEventError(event string) *errors.Error {
	return errors.New(ErrCodeUnknownEvent, "Unknown event: "+event).
		WithUserMessage("The event is not subscribed by the events handler").
		WithContext("event", event).
		WithSeverity("warning")
}

func NewUnknownMethodError(method string) *errors.Error {
	return errors.New(ErrCodeUnknownMethod, "Unknown lifecycle method: "+method).
		WithUserMessage("Lifecycle method must be one of install, update, uninstall, finalize").
		WithContext("method", method).
		WithSeverity("error")
}

func NewNotActivatedError() *errors.Error {
	return errors.New(ErrCodeNotActivated, "Plugin not activated").
		WithUserMessage("Activate must be called before dispatching events").
		WithSeverity("error")
}

// Configuration error constructors

func NewConfigNotFoundError(path string) *errors.Error {
	return errors.New(ErrCodeConfigNotFound, "Configuration file not found").
		WithUserMessage("The manifest file could not be found").
		WithContext("config_path", path).
		WithSeverity("error")
}

func NewConfigParseError(path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeConfigParseError, "Configuration parse error").
		WithUserMessage("Failed to parse manifest file").
		WithContext("config_path", path).
		WithSeverity("error")
}

func NewConfigValidationError(message string, cause error) *errors.Error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeConfigValidationError, "Configuration validation error: "+message).
			WithUserMessage("Configuration validation failed").
			WithSeverity("error")
	}
	return errors.New(ErrCodeConfigValidationError, "Configuration validation error: "+message).
		WithUserMessage("Configuration validation failed").
		WithSeverity("error")
}

func NewLogFileError(path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeLogFileError, "Log file error").
		WithUserMessage("The persistent log could not be opened").
		WithContext("log_path", path).
		WithSeverity("error")
}

// findCode returns the first structured error in err's chain carrying code.
func findCode(err error, code errors.ErrorCode) *errors.Error {
	for err != nil {
		var structured *errors.Error
		if !stderrors.As(err, &structured) {
			return nil
		}
		if structured.Code == code {
			return structured
		}
		err = structured.Cause
	}
	return nil
}

// hasCode reports whether err carries the given structured error code.
func hasCode(err error, code errors.ErrorCode) bool {
	return findCode(err, code) != nil
}

// IsRetryRequested reports whether err is the retry signal raised by
// BaseHandler.Retry or RetryLater.
func IsRetryRequested(err error) bool {
	return hasCode(err, ErrCodeRetryRequested)
}

// retryReason returns the message carried by the retry signal inside err.
func retryReason(err error) string {
	if structured := findCode(err, ErrCodeRetryRequested); structured != nil {
		return structured.Message
	}
	return reasonOf(err)
}

// reasonOf returns the bare message of err. Structured errors are reported
// without their code decoration; wrapped errors keep their full text.
func reasonOf(err error) string {
	if structured, ok := err.(*errors.Error); ok {
		return structured.Message
	}
	return err.Error()
}
