package automation

import (
	"errors"
	"fmt"
)

var (
	ErrFormNotReady     = errors.New("form not ready")
	ErrNotFound         = errors.New("element not found")
	ErrIncompleteRecord = errors.New("record is incomplete")
)

// FieldFillError reports that every strategy of a field plan failed.
type FieldFillError struct {
	Field string
	Err   error
}

func (e *FieldFillError) Error() string {
	return fmt.Sprintf("fill %s: %v", e.Field, e.Err)
}

func (e *FieldFillError) Unwrap() error {
	return e.Err
}

type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigate to %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}

// FaultError wraps a panic recovered during a fill.
type FaultError struct {
	Value any
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("unexpected fault: %v", e.Value)
}
