// Package errors provides standardized error handling for batchwatch.
// It implements structured error types with proper wrapping and a transient
// classification used by the watch loop to decide between aborting and
// continuing to the next poll.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/aws/smithy-go"
)

// Sentinel errors for common error conditions
var (
	ErrLogsNotAvailable = errors.New("logs not available")
	ErrInvalidFilter    = errors.New("invalid job filter")
	ErrInvalidConfig    = errors.New("invalid configuration")
)

// QueryError represents a failure while querying the batch service.
type QueryError struct {
	Queue     string
	Operation string
	Err       error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("queue %s: operation %s: %v", e.Queue, e.Operation, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewQueryError wraps an error with queue and operation context.
func NewQueryError(queue, operation string, err error) *QueryError {
	return &QueryError{Queue: queue, Operation: operation, Err: err}
}

// LogError represents a failure while fetching job logs.
type LogError struct {
	Stream string
	Err    error
}

func (e *LogError) Error() string {
	return fmt.Sprintf("log stream %s: %v", e.Stream, e.Err)
}

func (e *LogError) Unwrap() error {
	return e.Err
}

// NewLogError wraps an error with log stream context.
func NewLogError(stream string, err error) *LogError {
	return &LogError{Stream: stream, Err: err}
}

// throttling error codes returned by the AWS APIs this tool calls
var throttleCodes = map[string]bool{
	"ThrottlingException":      true,
	"Throttling":               true,
	"TooManyRequestsException": true,
	"RequestLimitExceeded":     true,
	"RequestThrottled":         true,
}

// IsThrottle reports whether the error is a service throttling response.
func IsThrottle(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return throttleCodes[apiErr.ErrorCode()]
	}
	return false
}

// IsTransient reports whether an error is worth riding out until the next
// poll interval: throttling, network failures, and timeouts. Auth and
// validation errors are not transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if IsThrottle(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorFault() == smithy.FaultServer
	}
	return false
}

// IsNotFound reports whether the error indicates a missing remote resource,
// typically a log stream that the service has not published yet.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrLogsNotAvailable) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "ResourceNotFoundException"
	}
	return false
}
