package maelstrom

// MessageType identifies the protocol intent of a message.
//
// Adding a type means touching three places: the constants below,
// messageTypeNames and the request/response switch in Message.CreateResponse.
type MessageType int

const (
	MessageInvalid MessageType = iota

	MessageInit
	MessageInitOK

	MessageEcho
	MessageEchoOK

	MessageGenerate
	MessageGenerateOK

	MessageRead
	MessageReadOK

	MessageWrite
	MessageWriteOK

	MessageCAS
	MessageCASOK

	MessageError

	messageTypeCount
)

var messageTypeNames = [messageTypeCount]string{
	MessageInvalid:    "",
	MessageInit:       "init",
	MessageInitOK:     "init_ok",
	MessageEcho:       "echo",
	MessageEchoOK:     "echo_ok",
	MessageGenerate:   "generate",
	MessageGenerateOK: "generate_ok",
	MessageRead:       "read",
	MessageReadOK:     "read_ok",
	MessageWrite:      "write",
	MessageWriteOK:    "write_ok",
	MessageCAS:        "cas",
	MessageCASOK:      "cas_ok",
	MessageError:      "error",
}

var messageTypesByName = func() map[string]MessageType {
	m := make(map[string]MessageType, len(messageTypeNames))
	for typ, name := range messageTypeNames {
		if name != "" {
			m[name] = MessageType(typ)
		}
	}
	return m
}()

// ParseMessageType returns the type for its wire name. Matching is
// case-sensitive; unknown names return MessageInvalid.
func ParseMessageType(s string) MessageType {
	return messageTypesByName[s]
}

// String returns the wire name of typ. MessageInvalid and out-of-range values
// have no name and return "".
func (typ MessageType) String() string {
	if !typ.Valid() {
		return ""
	}
	return messageTypeNames[typ]
}

// Valid reports whether typ is a known, non-invalid type.
func (typ MessageType) Valid() bool {
	return typ > MessageInvalid && typ < messageTypeCount
}

// MessageTypes returns every valid message type in declaration order.
func MessageTypes() []MessageType {
	types := make([]MessageType, 0, messageTypeCount-1)
	for typ := MessageInvalid + 1; typ < messageTypeCount; typ++ {
		types = append(types, typ)
	}
	return types
}
