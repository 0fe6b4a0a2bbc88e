package sound

import (
	"errors"
	"fmt"
)

// ErrorCode classifies errors returned by the Service.
type ErrorCode string

// ErrorCode constants for configuration failures.
const (
	CodeRepeatConfig   ErrorCode = "REPEAT_CONFIG"
	CodeHardwareInit   ErrorCode = "HARDWARE_INIT"
	CodeInvalidParams  ErrorCode = "INVALID_PARAMS"
	CodeDeviceNotFound ErrorCode = "DEVICE_NOT_FOUND"
)

// Sentinels for errors.Is checks against a code.
var (
	ErrRepeatConfig   = &Error{Code: CodeRepeatConfig}
	ErrHardwareInit   = &Error{Code: CodeHardwareInit}
	ErrInvalidParams  = &Error{Code: CodeInvalidParams}
	ErrDeviceNotFound = &Error{Code: CodeDeviceNotFound}
)

// Error is a configuration failure reported to the caller.
type Error struct {
	Code     ErrorCode `json:"code"`
	Message  string    `json:"message"`
	DeviceID int32     `json:"device_id"`
	Cause    error     `json:"cause,omitempty"`
}

func newError(code ErrorCode, id int32, message string, cause error) *Error {
	return &Error{Code: code, Message: message, DeviceID: id, Cause: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] device %d: %s: %v", e.Code, e.DeviceID, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] device %d: %s", e.Code, e.DeviceID, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// HasCode checks if the error matches a specific code.
func (e *Error) HasCode(code ErrorCode) bool {
	return e.Code == code
}

// CodeOf returns the code of err, or "" if err is not an *Error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
