package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNilController is returned when filling without a mounted form.
	ErrNilController = errors.New("tui: controller is required")
	// ErrTooManyAttempts is returned when a field keeps failing validation.
	ErrTooManyAttempts = errors.New("tui: too many invalid attempts")
)
