// Package snowflake generates opaque message identifiers and converts them to
// and from their wire representations.
//
// An ID is 128 bits wide. Short ids only use the low half and travel as plain
// JSON integers; long ids travel as base64url text. The all-zero ID is
// invalid and is used to mean "absent".
package snowflake

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"strconv"
)

// Size is the width of an ID in bytes.
const Size = 16

// ID is an opaque identifier made of two 64-bit halves.
type ID struct {
	Hi uint64
	Lo uint64
}

// Invalid is the zero ID.
var Invalid ID

// New returns an ID from its two halves.
func New(hi, lo uint64) ID { return ID{Hi: hi, Lo: lo} }

// Generate returns a random 128-bit ID.
func Generate() ID {
	for {
		id := ID{Hi: rand.Uint64(), Lo: rand.Uint64()}
		if id.Valid() {
			return id
		}
	}
}

// Generate64 returns a random short ID. The value is drawn from the positive
// int64 range so that it always travels as a JSON integer.
func Generate64() ID {
	for {
		if lo := rand.Uint64() & math.MaxInt64; lo != 0 {
			return ID{Lo: lo}
		}
	}
}

// Valid reports whether id is not the zero ID.
func (id ID) Valid() bool { return id.Hi != 0 || id.Lo != 0 }

// Short reports whether id fits in the integer wire form.
func (id ID) Short() bool { return id.Hi == 0 && id.Lo <= math.MaxInt64 }

// Bytes returns the big-endian packing of both halves.
func (id ID) Bytes() [Size]byte {
	var b [Size]byte
	binary.BigEndian.PutUint64(b[:8], id.Hi)
	binary.BigEndian.PutUint64(b[8:], id.Lo)
	return b
}

// FromBytes unpacks an ID packed by Bytes.
func FromBytes(b [Size]byte) ID {
	return ID{
		Hi: binary.BigEndian.Uint64(b[:8]),
		Lo: binary.BigEndian.Uint64(b[8:]),
	}
}

// Base64 returns the padded standard base64 text of id.
func (id ID) Base64() string {
	b := id.Bytes()
	return base64.StdEncoding.EncodeToString(b[:])
}

// Base64URL returns the unpadded URL-safe base64 text of id.
func (id ID) Base64URL() string {
	b := id.Bytes()
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// WireValue returns the JSON value for id: an integer for short ids,
// base64url text otherwise.
func (id ID) WireValue() any {
	if id.Short() {
		return id.Lo
	}
	return id.Base64URL()
}

// String implements fmt.Stringer.
func (id ID) String() string {
	if id.Short() {
		return strconv.FormatUint(id.Lo, 10)
	}
	return id.Base64URL()
}

// MarshalJSON implements json.Marshaler.
func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.WireValue())
}

// UnmarshalJSON implements json.Unmarshaler. Undecodable values leave id
// invalid rather than failing.
func (id *ID) UnmarshalJSON(data []byte) error {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("unmarshal snowflake: %w", err)
	}
	*id, _ = Decode(v)
	return nil
}
