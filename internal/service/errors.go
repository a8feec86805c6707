package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrForbidden          = errors.New("operation requires the administrator")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrNoValidRecipients  = errors.New("no valid recipients")
)

// ValidationError rejects a request before any external call is made.
type ValidationError struct {
	Message  string
	Rejected []string
	Details  []string
	Err      error
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Details, "; "))
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// InsufficientCreditError rejects a whole batch the actor cannot pay for.
type InsufficientCreditError struct {
	Required  int
	Available int
}

func (e *InsufficientCreditError) Error() string {
	return fmt.Sprintf("insufficient credits: batch needs %d, %d available", e.Required, e.Available)
}

// ExternalServiceError wraps a failure reported by a third-party API.
// Its text is the upstream message so it can be stored as a log status.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return e.Err.Error()
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// AllocationError rejects a credit update exceeding the purchased pool.
type AllocationError struct {
	Requested int
	Available int
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("allocating %d credits exceeds the %d purchased", e.Requested, e.Available)
}
