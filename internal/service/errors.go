package service

import (
	"errors"
	"fmt"
	"strings"
)

// Caller-facing messages.
const (
	MsgMissingFields = "missing required fields"
	MsgConflict      = "time conflict with another booking for this service"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("booking conflict")
	ErrStore      = errors.New("store failure")
)

// ValidationError reports missing or malformed input fields. Nothing is
// written to the store when it is returned.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ConflictError reports that the requested interval overlaps an existing
// booking for the same service.
type ConflictError struct {
	Service       string
	Date          string
	ConflictingID int64
}

func (e *ConflictError) Error() string {
	return MsgConflict
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// StoreError wraps a persistence or coordination failure. It is not retried.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}
