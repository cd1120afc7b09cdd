package maelstrom

import (
	"errors"
	"fmt"
)

// Errors returned while reading messages off the wire.
var (
	ErrMalformedMessage   = errors.New("malformed message")
	ErrInvalidMessage     = errors.New("invalid message")
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrNoHandler          = errors.New("no handler for message type")
)

// Errors returned by operations that are not allowed in the node's current state.
var (
	ErrDuplicateHandler   = errors.New("duplicate message handler")
	ErrAlreadyInitialized = errors.New("node already initialized")
	ErrUnknownNode        = errors.New("node id not in cluster membership")
	ErrNotInitialized     = errors.New("node not initialized")
	ErrShutdown           = errors.New("node is shut down")
	ErrAlreadyRunning     = errors.New("node already running")
)

// invariant panics when cond is false. It guards contract breaches that
// protocol traffic cannot produce.
func invariant(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("invariant violated: "+format, args...))
	}
}
