package flow

import "errors"

var (
	// ErrUnknownTab is returned when a tab identifier is not on the bar.
	ErrUnknownTab = errors.New("unknown tab")
	// ErrUnknownStep is returned when a guided step identifier does not exist.
	ErrUnknownStep = errors.New("unknown step")
	// ErrUnknownGroup is returned when a group identifier does not exist.
	ErrUnknownGroup = errors.New("unknown group")
	// ErrEmptySignal is returned when a signal payload names no destination.
	ErrEmptySignal = errors.New("empty signal")
)
