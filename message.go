package maelstrom

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/amberhq/maelstrom-node/snowflake"
)

// Reserved body keys. They are derived from Message.Type, Message.ID and
// Message.ReplyID and cannot be set directly.
const (
	bodyKeyType      = "type"
	bodyKeyMsgID     = "msg_id"
	bodyKeyInReplyTo = "in_reply_to"
)

// Message represents a message sent from Src node to Dest node.
//
// The zero Message has type MessageInvalid and is used by handlers to mean
// "no response".
type Message struct {
	Type    MessageType
	ID      snowflake.ID
	ReplyID snowflake.ID
	Src     string
	Dest    string

	// Body holds every field of the wire body, including handler-specific
	// fields. Handlers must treat the body of a received message as read-only.
	Body map[string]any
}

// NewMessage returns a message with its reserved body fields populated.
func NewMessage(typ MessageType, id, replyID snowflake.ID, src, dest string) Message {
	m := Message{
		Type:    typ,
		ID:      id,
		ReplyID: replyID,
		Src:     src,
		Dest:    dest,
		Body:    make(map[string]any),
	}
	if typ.Valid() {
		m.Body[bodyKeyType] = typ.String()
	}
	if id.Valid() {
		m.Body[bodyKeyMsgID] = id
	}
	if replyID.Valid() {
		m.Body[bodyKeyInReplyTo] = replyID
	}
	return m
}

// NewRequest returns an outbound message of type typ. The node fills in Src,
// Dest and, for RPCs, the msg_id when sending it.
func NewRequest(typ MessageType) Message {
	return NewMessage(typ, snowflake.Invalid, snowflake.Invalid, "", "")
}

// ParseMessage decodes a single wire line into a Message.
//
// Returns an error wrapping ErrMalformedMessage if the line is not JSON,
// ErrInvalidMessage if required fields are missing and ErrUnknownMessageType
// if body.type is not a known type.
func ParseMessage(line []byte) (Message, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Message{}, fmt.Errorf("%w: trailing data after message", ErrMalformedMessage)
	}
	return MessageFromValue(v)
}

// MessageFromValue validates a decoded JSON value and converts it into a
// Message. Every required field is checked so that all problems are reported
// together.
func MessageFromValue(v any) (Message, error) {
	obj, _ := v.(map[string]any)

	var errs []error
	src, ok := obj["src"].(string)
	if !ok {
		errs = append(errs, errors.New(`missing required string field "src"`))
	}
	dest, ok := obj["dest"].(string)
	if !ok {
		errs = append(errs, errors.New(`missing required string field "dest"`))
	}
	var typeName string
	body, ok := obj["body"].(map[string]any)
	if !ok {
		errs = append(errs, errors.New(`field "body" is not an object`))
	} else if typeName, ok = body[bodyKeyType].(string); !ok {
		errs = append(errs, errors.New(`body missing required string field "type"`))
	}
	if len(errs) > 0 {
		return Message{}, fmt.Errorf("%w: %w", ErrInvalidMessage, errors.Join(errs...))
	}

	typ := ParseMessageType(typeName)
	if !typ.Valid() {
		return Message{}, fmt.Errorf("%w %q", ErrUnknownMessageType, typeName)
	}

	// A correlation id that cannot be decoded is treated as absent.
	id, _ := snowflake.Decode(body[bodyKeyMsgID])
	replyID, _ := snowflake.Decode(body[bodyKeyInReplyTo])

	return Message{
		Type:    typ,
		ID:      id,
		ReplyID: replyID,
		Src:     src,
		Dest:    dest,
		Body:    body,
	}, nil
}

// Valid reports whether m is a real message rather than the "no response"
// sentinel.
func (m Message) Valid() bool { return m.Type.Valid() }

// CreateResponse returns the reply to m: the matching response type, Src and
// Dest swapped, a fresh ID and ReplyID set to m.ID. Types without a response
// log a warning and return the zero Message.
func (m Message) CreateResponse() Message {
	var typ MessageType
	switch m.Type {
	case MessageInit:
		typ = MessageInitOK
	case MessageEcho:
		typ = MessageEchoOK
	case MessageGenerate:
		typ = MessageGenerateOK
	case MessageRead:
		typ = MessageReadOK
	case MessageWrite:
		typ = MessageWriteOK
	case MessageCAS:
		typ = MessageCASOK
	case MessageInvalid,
		MessageInitOK,
		MessageEchoOK,
		MessageGenerateOK,
		MessageReadOK,
		MessageWriteOK,
		MessageCASOK,
		MessageError:
		slog.Warn("unimplemented response for message type", "type", m.Type.String())
		return Message{}
	default:
		slog.Warn("unimplemented response for message type", "type", int(m.Type))
		return Message{}
	}
	return NewMessage(typ, snowflake.Generate64(), m.ID, m.Dest, m.Src)
}

// ErrorResponse returns an "error" reply to m carrying err. Errors that are
// not an *RPCError are reported with the Crash code.
func (m Message) ErrorResponse(err error) Message {
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		rpcErr = NewRPCError(Crash, err.Error())
	}
	resp := NewMessage(MessageError, snowflake.Generate64(), m.ID, m.Dest, m.Src)
	resp.Body["code"] = rpcErr.Code
	resp.Body["text"] = rpcErr.Text
	return resp
}

// RPCError returns the error carried by an "error" message, or nil.
func (m Message) RPCError() *RPCError {
	code, ok := m.IntField("code")
	if m.Type != MessageError && !ok {
		return nil
	}
	text, _ := m.StringField("text")
	return NewRPCError(int(code), text)
}

// Set stores a handler-specific body field. Reserved keys ("type", "msg_id",
// "in_reply_to") are owned by the message and must not be set.
func (m *Message) Set(key string, value any) {
	invariant(key != bodyKeyType && key != bodyKeyMsgID && key != bodyKeyInReplyTo,
		"body key %q is reserved", key)
	if m.Body == nil {
		m.Body = make(map[string]any)
	}
	m.Body[key] = value
}

// Field returns the raw body value for key.
func (m Message) Field(key string) (any, bool) {
	v, ok := m.Body[key]
	return v, ok
}

// StringField returns the body field key if it is a string.
func (m Message) StringField(key string) (string, bool) {
	s, ok := m.Body[key].(string)
	return s, ok
}

// StringsField returns the body field key if it is an array of strings.
func (m Message) StringsField(key string) ([]string, bool) {
	switch v := m.Body[key].(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, elem := range v {
			s, ok := elem.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

// IntField returns the body field key if it is an integer.
func (m Message) IntField(key string) (int64, bool) {
	switch v := m.Body[key].(type) {
	case json.Number:
		i, err := v.Int64()
		return i, err == nil
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	default:
		return 0, false
	}
}

// Decode unmarshals the body into v.
func (m Message) Decode(v any) error {
	buf, err := json.Marshal(m.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(buf, v)
}

// wireMessage is the JSON layout of a Message.
type wireMessage struct {
	Src  string         `json:"src"`
	Dest string         `json:"dest"`
	Body map[string]any `json:"body"`
}

// MarshalJSON emits {"src","dest","body"}. msg_id and in_reply_to are only
// present when the corresponding id is valid.
func (m Message) MarshalJSON() ([]byte, error) {
	body := make(map[string]any, len(m.Body)+3)
	for k, v := range m.Body {
		body[k] = v
	}
	delete(body, bodyKeyMsgID)
	delete(body, bodyKeyInReplyTo)
	if m.Type.Valid() {
		body[bodyKeyType] = m.Type.String()
	}
	if m.ID.Valid() {
		body[bodyKeyMsgID] = m.ID
	}
	if m.ReplyID.Valid() {
		body[bodyKeyInReplyTo] = m.ReplyID
	}
	return json.Marshal(wireMessage{Src: m.Src, Dest: m.Dest, Body: body})
}

// LogValue implements slog.LogValuer.
func (m Message) LogValue() slog.Value {
	buf, err := json.Marshal(m)
	if err != nil {
		return slog.StringValue(fmt.Sprintf("<unencodable message: %s>", err))
	}
	return slog.StringValue(string(buf))
}
