package snowflake_test

import (
	"encoding/base64"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amberhq/maelstrom-node/snowflake"
)

func TestGenerate(t *testing.T) {
	seen := make(map[snowflake.ID]struct{})
	for i := 0; i < 1000; i++ {
		id := snowflake.Generate()
		require.True(t, id.Valid())
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestGenerate64(t *testing.T) {
	for i := 0; i < 1000; i++ {
		id := snowflake.Generate64()
		require.True(t, id.Valid())
		require.True(t, id.Short())
		require.Zero(t, id.Hi)
		require.LessOrEqual(t, id.Lo, uint64(math.MaxInt64))
	}
}

func TestID_Valid(t *testing.T) {
	assert.False(t, snowflake.Invalid.Valid())
	assert.False(t, snowflake.ID{}.Valid())
	assert.True(t, snowflake.New(1, 0).Valid())
	assert.True(t, snowflake.New(0, 1).Valid())
}

func TestID_Bytes(t *testing.T) {
	id := snowflake.New(0x0102030405060708, 0x090a0b0c0d0e0f10)
	b := id.Bytes()
	assert.Equal(t, [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}, b)
	assert.Equal(t, id, snowflake.FromBytes(b))
}

func TestID_WireValue(t *testing.T) {
	t.Run("Short", func(t *testing.T) {
		assert.Equal(t, uint64(42), snowflake.New(0, 42).WireValue())
	})
	t.Run("LowHalfTooWide", func(t *testing.T) {
		id := snowflake.New(0, math.MaxUint64)
		assert.Equal(t, id.Base64URL(), id.WireValue())
	})
	t.Run("Long", func(t *testing.T) {
		id := snowflake.New(7, 42)
		v, ok := id.WireValue().(string)
		require.True(t, ok)
		assert.NotContains(t, v, "=")
		assert.Len(t, v, 22)
	})
}

func TestDecode_RoundTrip(t *testing.T) {
	for i := 0; i < 200; i++ {
		short := snowflake.Generate64()
		got, ok := snowflake.Decode(json.Number(short.String()))
		require.True(t, ok)
		require.Equal(t, short, got)

		long := snowflake.Generate()
		got, ok = snowflake.Decode(long.Base64URL())
		require.True(t, ok)
		require.Equal(t, long, got)

		got, ok = snowflake.Decode(long.Base64())
		require.True(t, ok)
		require.Equal(t, long, got)

		b := long.Bytes()
		got, ok = snowflake.Decode(string(b[:]))
		require.True(t, ok)
		require.Equal(t, long, got)
	}
}

func TestDecode_Integers(t *testing.T) {
	for _, v := range []any{float64(5), 5, int64(5), uint64(5), json.Number("5")} {
		id, ok := snowflake.Decode(v)
		require.True(t, ok, "%T", v)
		assert.Equal(t, snowflake.New(0, 5), id)
	}
}

func TestDecode_Rejects(t *testing.T) {
	for _, v := range []any{
		nil,
		true,
		-1,
		float64(-1),
		float64(1.5),
		json.Number("-3"),
		json.Number("1.5"),
		[]any{float64(1), float64(2)},
		map[string]any{},
		"",
		"short",
		strings.Repeat("A", 17),
		base64.StdEncoding.EncodeToString(make([]byte, 15)),
		base64.RawURLEncoding.EncodeToString(make([]byte, 17)),
		"!!!!!!!!!!!!!!!!!!!!!!",
	} {
		_, ok := snowflake.Decode(v)
		assert.False(t, ok, "%#v", v)
	}
}

func TestID_JSON(t *testing.T) {
	t.Run("Short", func(t *testing.T) {
		buf, err := json.Marshal(snowflake.New(0, 9))
		require.NoError(t, err)
		assert.Equal(t, `9`, string(buf))

		var id snowflake.ID
		require.NoError(t, json.Unmarshal(buf, &id))
		assert.Equal(t, snowflake.New(0, 9), id)
	})

	t.Run("Long", func(t *testing.T) {
		want := snowflake.Generate()
		buf, err := json.Marshal(want)
		require.NoError(t, err)

		var got snowflake.ID
		require.NoError(t, json.Unmarshal(buf, &got))
		assert.Equal(t, want, got)
	})

	t.Run("UndecodableIsInvalid", func(t *testing.T) {
		var id snowflake.ID
		require.NoError(t, json.Unmarshal([]byte(`"nope"`), &id))
		assert.False(t, id.Valid())
	})
}
