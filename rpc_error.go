package maelstrom

import (
	"errors"
	"fmt"
)

// Error codes carried by "error" replies. Codes below 1000 are defined by
// Maelstrom; nodes may use larger values for their own errors.
const (
	Timeout                = 0
	NodeNotFound           = 1
	NotSupported           = 10
	TemporarilyUnavailable = 11
	MalformedRequest       = 12
	Crash                  = 13
	Abort                  = 14
	KeyDoesNotExist        = 20
	KeyAlreadyExists       = 21
	PreconditionFailed     = 22
	TxnConflict            = 30
)

type errorCodeInfo struct {
	name string
	// definite codes guarantee the request took no effect.
	definite bool
}

var errorCodes = map[int]errorCodeInfo{
	Timeout:                {"Timeout", false},
	NodeNotFound:           {"NodeNotFound", true},
	NotSupported:           {"NotSupported", true},
	TemporarilyUnavailable: {"TemporarilyUnavailable", true},
	MalformedRequest:       {"MalformedRequest", true},
	Crash:                  {"Crash", false},
	Abort:                  {"Abort", true},
	KeyDoesNotExist:        {"KeyDoesNotExist", true},
	KeyAlreadyExists:       {"KeyAlreadyExists", true},
	PreconditionFailed:     {"PreconditionFailed", true},
	TxnConflict:            {"TxnConflict", true},
}

// ErrorCodeText returns the name of code, or "ErrorCode<n>" for codes Maelstrom
// does not define.
func ErrorCodeText(code int) string {
	if info, ok := errorCodes[code]; ok {
		return info.name
	}
	return fmt.Sprintf("ErrorCode<%d>", code)
}

// ErrorCode returns the code of the *RPCError wrapped by err, or -1.
func ErrorCode(err error) int {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr.Code
	}
	return -1
}

// RPCError is returned by handlers to reply with a specific error code, and by
// SyncRPC when the peer replied with one.
type RPCError struct {
	Code int
	Text string
}

func NewRPCError(code int, text string) *RPCError {
	return &RPCError{Code: code, Text: text}
}

// Definite reports whether the failed request is known not to have taken
// effect. Timeout, Crash and codes outside the Maelstrom range are
// indefinite.
func (e *RPCError) Definite() bool {
	return errorCodes[e.Code].definite
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPCError(%s, %q)", ErrorCodeText(e.Code), e.Text)
}
