package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData is returned when an operation has fewer rows than it needs.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrEmptySeries is returned when at least one record is required and none exist.
	ErrEmptySeries = errors.New("empty series")
	// ErrModelNotFound is returned when inference is attempted with no persisted model.
	ErrModelNotFound = errors.New("model not found")
	// ErrMalformedRecord marks a record that was excluded at ingestion.
	ErrMalformedRecord = errors.New("malformed record")
)

// InsufficientDataError reports how many rows an operation had versus how many it needs.
type InsufficientDataError struct {
	Operation string
	Have      int
	Need      int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: insufficient data: have %d rows, need at least %d", e.Operation, e.Have, e.Need)
}

func (e *InsufficientDataError) Unwrap() error { return ErrInsufficientData }

// MalformedRecordError describes why a raw record was excluded.
type MalformedRecordError struct {
	Line   int
	Field  string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed record at line %d: %s: %s", e.Line, e.Field, e.Reason)
	}
	return fmt.Sprintf("malformed record: %s: %s", e.Field, e.Reason)
}

func (e *MalformedRecordError) Unwrap() error { return ErrMalformedRecord }
