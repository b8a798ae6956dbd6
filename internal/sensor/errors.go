package sensor

import (
	"errors"
	"fmt"
)

// SensorError is a service-level error. Device errors from pkg/subdev are
// passed through wrapped, so errors.Is still matches their sentinels.
type SensorError struct {
	Code    string
	Message string
	Cause   error
}

func (e *SensorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *SensorError) Unwrap() error {
	return e.Cause
}

// Error codes.
const (
	ErrCodeSessionNotFound = "SESSION_NOT_FOUND"
	ErrCodeControlNotFound = "CONTROL_NOT_FOUND"
	ErrCodeInvalidParams   = "INVALID_PARAMS"
	ErrCodeDevice          = "DEVICE_ERROR"
)

// NewSensorError creates a service error.
func NewSensorError(code, message string, cause error) *SensorError {
	return &SensorError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ErrorCode returns the code of the first SensorError in err's chain.
func ErrorCode(err error) string {
	var se *SensorError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
