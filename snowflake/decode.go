package snowflake

import (
	"encoding/base64"
	"encoding/json"
	"math"
	"strconv"
)

// Decode converts a decoded JSON value into an ID. It accepts non-negative
// integers (short form), 16-byte raw strings and base64/base64url text of 16
// bytes. Any other shape returns false.
func Decode(v any) (ID, bool) {
	switch v := v.(type) {
	case json.Number:
		return decodeNumber(string(v))
	case float64:
		if v < 0 || v != math.Trunc(v) || v >= math.MaxUint64 {
			return Invalid, false
		}
		return ID{Lo: uint64(v)}, true
	case int:
		if v < 0 {
			return Invalid, false
		}
		return ID{Lo: uint64(v)}, true
	case int64:
		if v < 0 {
			return Invalid, false
		}
		return ID{Lo: uint64(v)}, true
	case uint64:
		return ID{Lo: v}, true
	case string:
		return decodeString(v)
	case ID:
		return v, v.Valid()
	default:
		return Invalid, false
	}
}

func decodeNumber(s string) (ID, bool) {
	lo, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return Invalid, false
	}
	return ID{Lo: lo}, true
}

func decodeString(s string) (ID, bool) {
	if len(s) == Size {
		var b [Size]byte
		copy(b[:], s)
		return FromBytes(b), true
	}
	for _, enc := range []*base64.Encoding{base64.RawURLEncoding, base64.StdEncoding} {
		raw, err := enc.DecodeString(s)
		if err != nil || len(raw) != Size {
			continue
		}
		var b [Size]byte
		copy(b[:], raw)
		return FromBytes(b), true
	}
	return Invalid, false
}
