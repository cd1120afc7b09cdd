package maelstrom

import (
	"context"
	"encoding/json"
	"fmt"
)

// Types of key/value stores.
const (
	LinKV = "lin-kv"
	SeqKV = "seq-kv"
	LWWKV = "lww-kv"
)

// KV represents a client to the key/value store service.
type KV struct {
	typ  string
	node *Node
}

// NewKV returns a new instance a KV client for a node.
func NewKV(typ string, node *Node) *KV {
	return &KV{
		typ:  typ,
		node: node,
	}
}

// NewLinKV returns a client to the linearizable key/value store.
func NewLinKV(node *Node) *KV { return NewKV(LinKV, node) }

// NewSeqKV returns a client to the sequential key/value store.
func NewSeqKV(node *Node) *KV { return NewKV(SeqKV, node) }

// NewLWWKV returns a client to the last-write-wins key/value store.
func NewLWWKV(node *Node) *KV { return NewKV(LWWKV, node) }

// Read returns the value for a given key in the key/value store.
// Returns an *RPCError error with a KeyDoesNotExist code if the key does not exist.
func (kv *KV) Read(ctx context.Context, key string) (any, error) {
	resp, err := kv.read(ctx, key)
	if err != nil {
		return nil, err
	}
	v, _ := resp.Field("value")

	// Convert numbers to integers since that's what maelstrom workloads use.
	if num, ok := v.(json.Number); ok {
		if i, err := num.Int64(); err == nil {
			return int(i), nil
		}
		return num.Float64()
	}
	return v, nil
}

// ReadInt reads the value of a key in the key/value store as an int.
func (kv *KV) ReadInt(ctx context.Context, key string) (int, error) {
	v, err := kv.Read(ctx, key)
	if err != nil {
		return 0, err
	}
	i, ok := v.(int)
	if !ok {
		return 0, fmt.Errorf("value of %q is %T, not an integer", key, v)
	}
	return i, nil
}

// ReadInto reads the value of a key and unmarshals it into v.
func (kv *KV) ReadInto(ctx context.Context, key string, v any) error {
	resp, err := kv.read(ctx, key)
	if err != nil {
		return err
	}
	if v == nil {
		return nil
	}

	value, _ := resp.Field("value")
	buf, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(buf, v)
}

// Write overwrites the value for a given key in the key/value store.
func (kv *KV) Write(ctx context.Context, key string, value any) error {
	req := NewRequest(MessageWrite)
	req.Set("key", key)
	req.Set("value", value)
	_, err := kv.node.SyncRPC(ctx, kv.typ, req)
	return err
}

// CompareAndSwap updates the value for a key if its current value matches the
// previous value. Creates the key if createIfNotExists is true.
//
// Returns an *RPCError with a code of PreconditionFailed if the previous value
// does not match. Return a code of KeyDoesNotExist if the key did not exist.
func (kv *KV) CompareAndSwap(ctx context.Context, key string, from, to any, createIfNotExists bool) error {
	req := NewRequest(MessageCAS)
	req.Set("key", key)
	req.Set("from", from)
	req.Set("to", to)
	if createIfNotExists {
		req.Set("create_if_not_exists", true)
	}
	_, err := kv.node.SyncRPC(ctx, kv.typ, req)
	return err
}

func (kv *KV) read(ctx context.Context, key string) (Message, error) {
	req := NewRequest(MessageRead)
	req.Set("key", key)
	return kv.node.SyncRPC(ctx, kv.typ, req)
}
