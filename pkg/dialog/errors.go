package dialog

import "errors"

// ErrUnknownAction is returned when an action outside the action vocabulary reaches
// a step that dispatches on it. It aborts the turn.
var ErrUnknownAction = errors.New("unknown shopping action")

// ErrUnknownStep is returned when a persisted frame points at a step the dialog does not have.
var ErrUnknownStep = errors.New("unknown dialog step")

// ErrMissingRegistry is returned when a dialog is built without its option registry.
var ErrMissingRegistry = errors.New("option registry is required")
