// Package codec turns agent state into the opaque byte buffers that cross
// agent boundaries: persisted memory and broadcast payloads.
//
// A payload is a protobuf-wire envelope carrying a format version, a kind
// string naming the encoded type, and a zstd-compressed gob body. A reader
// that expects a different kind or version rejects the payload instead of
// decoding garbage into its state.
package codec

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"google.golang.org/protobuf/encoding/protowire"
)

// Version is the envelope format written by Encode.
const Version = 1

const (
	fieldVersion protowire.Number = 1
	fieldKind    protowire.Number = 2
	fieldBody    protowire.Number = 3
)

var (
	// ErrCorrupt reports an envelope or body that cannot be parsed.
	ErrCorrupt = errors.New("codec: corrupt payload")
	// ErrVersion reports an envelope written by an incompatible format.
	ErrVersion = errors.New("codec: unsupported version")
	// ErrKind reports a payload holding a different type than requested.
	ErrKind = errors.New("codec: kind mismatch")
)

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(64<<20))
)

// Encode gob-encodes v, compresses it and wraps it in an envelope of the
// given kind.
func Encode(kind string, v any) ([]byte, error) {
	var body bytes.Buffer
	if err := gob.NewEncoder(&body).Encode(v); err != nil {
		return nil, fmt.Errorf("gob encode %s: %w", kind, err)
	}
	compressed := encoder.EncodeAll(body.Bytes(), nil)

	var b []byte
	b = protowire.AppendTag(b, fieldVersion, protowire.VarintType)
	b = protowire.AppendVarint(b, Version)
	b = protowire.AppendTag(b, fieldKind, protowire.BytesType)
	b = protowire.AppendString(b, kind)
	b = protowire.AppendTag(b, fieldBody, protowire.BytesType)
	b = protowire.AppendBytes(b, compressed)
	return b, nil
}

// Decode unwraps an envelope of the given kind into v, which must be a
// pointer. Every failure wraps one of ErrCorrupt, ErrVersion or ErrKind.
func Decode(kind string, b []byte, v any) error {
	env, err := parse(b)
	if err != nil {
		return err
	}
	if env.version != Version {
		return fmt.Errorf("%w: %d", ErrVersion, env.version)
	}
	if env.kind != kind {
		return fmt.Errorf("%w: have %q, want %q", ErrKind, env.kind, kind)
	}
	raw, err := decoder.DecodeAll(env.body, nil)
	if err != nil {
		return fmt.Errorf("%w: zstd: %v", ErrCorrupt, err)
	}
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(v); err != nil {
		return fmt.Errorf("%w: gob: %v", ErrCorrupt, err)
	}
	return nil
}

// Kind returns the kind recorded in an envelope without decoding its body.
func Kind(b []byte) (string, error) {
	env, err := parse(b)
	if err != nil {
		return "", err
	}
	return env.kind, nil
}

type envelope struct {
	version uint64
	kind    string
	body    []byte
}

func parse(b []byte) (envelope, error) {
	var env envelope
	if len(b) == 0 {
		return env, fmt.Errorf("%w: empty", ErrCorrupt)
	}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return env, fmt.Errorf("%w: tag: %v", ErrCorrupt, protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == fieldVersion && typ == protowire.VarintType:
			env.version, n = protowire.ConsumeVarint(b)
		case num == fieldKind && typ == protowire.BytesType:
			env.kind, n = protowire.ConsumeString(b)
		case num == fieldBody && typ == protowire.BytesType:
			env.body, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return env, fmt.Errorf("%w: field %d: %v", ErrCorrupt, num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	if env.body == nil {
		return env, fmt.Errorf("%w: missing body", ErrCorrupt)
	}
	return env, nil
}
