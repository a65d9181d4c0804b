package session

import "errors"

var (
	// ErrUnknownEvent indicates an event kind NewEvent does not know.
	ErrUnknownEvent = errors.New("session: unknown event kind")

	// ErrLoopStopped indicates Send was called after the loop exited.
	ErrLoopStopped = errors.New("session: loop stopped")
)
