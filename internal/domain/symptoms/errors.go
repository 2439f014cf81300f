package symptoms

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRequestInvalid marks inbound payloads rejected by the request schema.
	ErrRequestInvalid = errors.New("request validation failed")
	// ErrRemoteInvocation marks failures of the remote call itself.
	ErrRemoteInvocation = errors.New("remote invocation failed")
	// ErrResponseContract marks remote results that do not match the response schema.
	ErrResponseContract = errors.New("remote response violates contract")
)

// Direction tells which contract a ValidationError belongs to
type Direction string

const (
	DirectionRequest  Direction = "request"
	DirectionResponse Direction = "response"
)

// FieldError describes one violated constraint
type FieldError struct {
	Field   string `json:"field"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ValidationError lists every field-level violation found in a payload
type ValidationError struct {
	Direction Direction
	Fields    []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return fmt.Sprintf("%s validation failed: %s", e.Direction, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrRequestInvalid && e.Direction == DirectionRequest
}

// RemoteInvocationError is returned when the remote function could not complete.
// Code follows the callable-function status names (INTERNAL, UNAVAILABLE, ...).
type RemoteInvocationError struct {
	Code    string
	Message string
	Err     error
}

func (e *RemoteInvocationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("remote invocation failed (%s): %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("remote invocation failed (%s): %s", e.Code, e.Message)
}

func (e *RemoteInvocationError) Unwrap() error { return e.Err }

func (e *RemoteInvocationError) Is(target error) bool { return target == ErrRemoteInvocation }

// ResponseContractError wraps a response ValidationError
type ResponseContractError struct {
	Function string
	Err      *ValidationError
}

func (e *ResponseContractError) Error() string {
	return fmt.Sprintf("function %s: %v", e.Function, e.Err)
}

func (e *ResponseContractError) Unwrap() error { return e.Err }

func (e *ResponseContractError) Is(target error) bool { return target == ErrResponseContract }
