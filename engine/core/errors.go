package core

import (
	"errors"
)

var (
	// ErrNotInitialized is returned when a subsystem is used before its
	// initialization completed.
	ErrNotInitialized = errors.New("not initialized")
	// ErrAlreadyInitialized is returned when a one-shot initialization
	// runs twice.
	ErrAlreadyInitialized = errors.New("already initialized")
)
