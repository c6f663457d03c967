// Package errcode defines layered error codes shared by the auth service.
// Code format: MMBBBB (MM = module code, BBBB = business code).
package errcode

import (
	"fmt"
	"net/http"
)

// LayeredError is an error carrying a stable numeric code, a message key,
// the HTTP status the transport should use and an optional cause.
// The message is what callers may show; the cause never leaves the process.
type LayeredError struct {
	module     string
	code       int
	msgKey     string
	msg        string
	httpStatus int
	data       map[string]interface{}
	cause      error
}

// New creates a layered error. httpStatus defaults to 200.
func New(moduleCode, businessCode int, module, msgKey, msg string, httpStatus ...int) *LayeredError {
	status := http.StatusOK
	if len(httpStatus) > 0 {
		status = httpStatus[0]
	}
	return &LayeredError{
		module:     module,
		code:       moduleCode*10000 + businessCode,
		msgKey:     msgKey,
		msg:        msg,
		httpStatus: status,
		data:       make(map[string]interface{}),
	}
}

func (e *LayeredError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

// Code returns the full MMBBBB code
func (e *LayeredError) Code() int { return e.code }

// Module returns the owning module name
func (e *LayeredError) Module() string { return e.module }

// MsgKey returns the i18n message key
func (e *LayeredError) MsgKey() string { return e.msgKey }

// Message returns the caller-facing message, without the cause
func (e *LayeredError) Message() string { return e.msg }

func (e *LayeredError) HTTPStatus() int { return e.httpStatus }

func (e *LayeredError) Data() map[string]interface{} { return e.data }

func (e *LayeredError) Cause() error { return e.cause }

func (e *LayeredError) Unwrap() error { return e.cause }

// WithMsg returns a copy with a replaced message
func (e *LayeredError) WithMsg(msg string) *LayeredError {
	clone := *e
	clone.msg = msg
	return &clone
}

// WithMsgf returns a copy with a formatted message
func (e *LayeredError) WithMsgf(format string, args ...interface{}) *LayeredError {
	return e.WithMsg(fmt.Sprintf(format, args...))
}

// WithData returns a copy with one more context entry
func (e *LayeredError) WithData(key string, value interface{}) *LayeredError {
	clone := *e
	clone.data = make(map[string]interface{}, len(e.data)+1)
	for k, v := range e.data {
		clone.data[k] = v
	}
	clone.data[key] = value
	return &clone
}

// Wrap returns a copy holding cause. A nil cause returns e unchanged.
func (e *LayeredError) Wrap(cause error) *LayeredError {
	if cause == nil {
		return e
	}
	clone := *e
	clone.cause = cause
	return &clone
}

// Is matches any LayeredError with the same code, so errors.Is works
// against the package-level sentinels regardless of message or cause.
func (e *LayeredError) Is(target error) bool {
	t, ok := target.(*LayeredError)
	if !ok {
		return false
	}
	return e.code == t.code
}

// String renders the full chain for logs
func (e *LayeredError) String() string {
	if e.cause != nil {
		return fmt.Sprintf("LayeredError{code:%d, module:%s, msg:%s, cause:%v}", e.code, e.module, e.msg, e.cause)
	}
	return fmt.Sprintf("LayeredError{code:%d, module:%s, msg:%s}", e.code, e.module, e.msg)
}
