package schemas

import "fmt"

// -- Error Taxonomy --
//
// ValidationError and a browser-launch RenderError abort the whole call
// with no partial result. Everything else accumulates into the warnings
// and missing arrays of a best-effort successful result.

// ValidationError reports malformed or oversized input. It is fatal: no
// partial output is produced.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Message)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for a field.
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// RenderError reports a browser or page failure. Launch is true when the
// shared browser process itself failed to start, which is fatal for the
// whole conversion; otherwise only the single capture failed.
type RenderError struct {
	Stage  string
	Launch bool
	Err    error
}

func (e *RenderError) Error() string {
	if e.Launch {
		return fmt.Sprintf("render: browser launch failed during %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("render: %s: %v", e.Stage, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
