package maelstrom_test

import (
	"errors"
	"fmt"
	"testing"

	maelstrom "github.com/amberhq/maelstrom-node"
)

func TestErrorCodeText(t *testing.T) {
	for _, tt := range []struct {
		code int
		text string
	}{
		{maelstrom.Timeout, "Timeout"},
		{maelstrom.NodeNotFound, "NodeNotFound"},
		{maelstrom.NotSupported, "NotSupported"},
		{maelstrom.TemporarilyUnavailable, "TemporarilyUnavailable"},
		{maelstrom.MalformedRequest, "MalformedRequest"},
		{maelstrom.Crash, "Crash"},
		{maelstrom.Abort, "Abort"},
		{maelstrom.KeyDoesNotExist, "KeyDoesNotExist"},
		{maelstrom.KeyAlreadyExists, "KeyAlreadyExists"},
		{maelstrom.PreconditionFailed, "PreconditionFailed"},
		{maelstrom.TxnConflict, "TxnConflict"},
		{1000, "ErrorCode<1000>"},
	} {
		if got, want := maelstrom.ErrorCodeText(tt.code), tt.text; got != want {
			t.Errorf("code %d=%s, want %s", tt.code, got, want)
		}
	}
}

func TestRPCError_Error(t *testing.T) {
	if got, want := maelstrom.NewRPCError(maelstrom.Crash, "foo").Error(), `RPCError(Crash, "foo")`; got != want {
		t.Fatalf("error=%s, want %s", got, want)
	}
}

func TestErrorCode(t *testing.T) {
	wrapped := fmt.Errorf("read: %w", maelstrom.NewRPCError(maelstrom.KeyDoesNotExist, "missing"))
	if got, want := maelstrom.ErrorCode(wrapped), maelstrom.KeyDoesNotExist; got != want {
		t.Fatalf("code=%d, want %d", got, want)
	}
	if got, want := maelstrom.ErrorCode(errors.New("boom")), -1; got != want {
		t.Fatalf("code=%d, want %d", got, want)
	}
}

func TestRPCError_Definite(t *testing.T) {
	for _, tt := range []struct {
		code     int
		definite bool
	}{
		{maelstrom.Timeout, false},
		{maelstrom.Crash, false},
		{1000, false},
		{maelstrom.NodeNotFound, true},
		{maelstrom.MalformedRequest, true},
		{maelstrom.Abort, true},
		{maelstrom.PreconditionFailed, true},
		{maelstrom.TxnConflict, true},
	} {
		if got, want := maelstrom.NewRPCError(tt.code, "").Definite(), tt.definite; got != want {
			t.Errorf("code %d definite=%v, want %v", tt.code, got, want)
		}
	}
}
