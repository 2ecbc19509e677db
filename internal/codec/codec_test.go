package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

type sample struct {
	Name  string
	Seen  map[int32]int64
	Flags []bool
}

func TestEncodeDecode(t *testing.T) {
	in := sample{Name: "scout", Seen: map[int32]int64{1: 2, 3: 4}, Flags: []bool{true, false}}
	b, err := Encode("sample", in)
	require.NoError(t, err)

	kind, err := Kind(b)
	require.NoError(t, err)
	assert.Equal(t, "sample", kind)

	var out sample
	require.NoError(t, Decode("sample", b, &out))
	assert.Equal(t, in, out)
}

func TestDecode_KindMismatch(t *testing.T) {
	b, err := Encode("memory", sample{Name: "x"})
	require.NoError(t, err)

	var out sample
	err = Decode("broadcast", b, &out)
	assert.ErrorIs(t, err, ErrKind)
}

func TestDecode_VersionMismatch(t *testing.T) {
	var b []byte
	b = protowire.AppendTag(b, fieldVersion, protowire.VarintType)
	b = protowire.AppendVarint(b, Version+1)
	b = protowire.AppendTag(b, fieldKind, protowire.BytesType)
	b = protowire.AppendString(b, "sample")
	b = protowire.AppendTag(b, fieldBody, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte{1})

	var out sample
	assert.ErrorIs(t, Decode("sample", b, &out), ErrVersion)
}

func TestDecode_Corrupt(t *testing.T) {
	good, err := Encode("sample", sample{Name: "x"})
	require.NoError(t, err)

	cases := map[string][]byte{
		"empty":     nil,
		"garbage":   []byte{0xff, 0xff, 0xff},
		"truncated": good[:len(good)-3],
	}
	for name, b := range cases {
		t.Run(name, func(t *testing.T) {
			var out sample
			assert.ErrorIs(t, Decode("sample", b, &out), ErrCorrupt)
		})
	}
}

func TestDecode_SkipsUnknownFields(t *testing.T) {
	b, err := Encode("sample", sample{Name: "x"})
	require.NoError(t, err)
	b = protowire.AppendTag(b, 9, protowire.VarintType)
	b = protowire.AppendVarint(b, 42)

	var out sample
	require.NoError(t, Decode("sample", b, &out))
	assert.Equal(t, "x", out.Name)
}
