package documents

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound             = errors.New("document not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrRecordBusy           = errors.New("another change to this document is in progress")
	ErrConfirmationRequired = errors.New("delete must be confirmed")
	ErrStore                = errors.New("document store failure")
)

// ValidationError maps rejected input fields to a message per field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("invalid document: %s", strings.Join(names, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
