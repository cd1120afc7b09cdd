package main

import (
	maelstrom "github.com/amberhq/maelstrom-node"
	"github.com/amberhq/maelstrom-node/snowflake"
)

func registerHandlers(n *maelstrom.Node) {
	n.Handle(maelstrom.MessageEcho, handleEcho)
	n.Handle(maelstrom.MessageGenerate, handleGenerate)
}

// handleEcho returns the request's "echo" field unchanged.
func handleEcho(msg maelstrom.Message) (maelstrom.Message, error) {
	echo, ok := msg.Field("echo")
	if !ok {
		return maelstrom.Message{}, maelstrom.NewRPCError(maelstrom.MalformedRequest, `echo requires an "echo" field`)
	}
	resp := msg.CreateResponse()
	resp.Set("echo", echo)
	return resp, nil
}

// handleGenerate returns a fresh cluster-unique id.
func handleGenerate(msg maelstrom.Message) (maelstrom.Message, error) {
	resp := msg.CreateResponse()
	resp.Set("id", snowflake.Generate().WireValue())
	return resp, nil
}
