package maelstrom_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	maelstrom "github.com/amberhq/maelstrom-node"
	"github.com/amberhq/maelstrom-node/snowflake"
)

func TestRegistry_Register(t *testing.T) {
	r := maelstrom.NewRegistry()
	first := func(msg maelstrom.Message) (maelstrom.Message, error) {
		return msg.CreateResponse(), nil
	}
	second := func(msg maelstrom.Message) (maelstrom.Message, error) {
		return maelstrom.Message{}, nil
	}

	require.NoError(t, r.Register(maelstrom.MessageEcho, first))

	err := r.Register(maelstrom.MessageEcho, second)
	require.ErrorIs(t, err, maelstrom.ErrDuplicateHandler)
	assert.EqualError(t, err, `duplicate message handler for "echo" message type`)

	// The first registration wins.
	fn, ok := r.Lookup(maelstrom.MessageEcho)
	require.True(t, ok)
	resp, err := fn(maelstrom.NewMessage(maelstrom.MessageEcho, snowflake.Invalid, snowflake.Invalid, "c1", "n1"))
	require.NoError(t, err)
	assert.Equal(t, maelstrom.MessageEchoOK, resp.Type)
}

func TestRegistry_RegisterInvalidType(t *testing.T) {
	r := maelstrom.NewRegistry()
	err := r.Register(maelstrom.MessageInvalid, func(msg maelstrom.Message) (maelstrom.Message, error) {
		return maelstrom.Message{}, nil
	})
	require.ErrorIs(t, err, maelstrom.ErrUnknownMessageType)
	assert.Empty(t, r.Types())
}

func TestRegistry_RegisterNilPanics(t *testing.T) {
	r := maelstrom.NewRegistry()
	assert.Panics(t, func() { _ = r.Register(maelstrom.MessageEcho, nil) })
}

func TestRegistry_Lookup(t *testing.T) {
	r := maelstrom.NewRegistry()
	_, ok := r.Lookup(maelstrom.MessageGenerate)
	assert.False(t, ok)
}

func TestRegistry_Types(t *testing.T) {
	r := maelstrom.NewRegistry()
	noop := func(msg maelstrom.Message) (maelstrom.Message, error) { return maelstrom.Message{}, nil }
	require.NoError(t, r.Register(maelstrom.MessageGenerate, noop))
	require.NoError(t, r.Register(maelstrom.MessageInit, noop))
	require.NoError(t, r.Register(maelstrom.MessageEcho, noop))

	assert.Equal(t, []maelstrom.MessageType{
		maelstrom.MessageInit,
		maelstrom.MessageEcho,
		maelstrom.MessageGenerate,
	}, r.Types())
}
