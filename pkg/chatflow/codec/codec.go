// Package codec encodes saved flows for storage.
//
// JSON is the default and keeps stored flows readable. MessagePack is
// smaller and faster; either can be wrapped with zstd compression.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// Codec turns values into bytes and back.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
	Name() string
}

// Codec names accepted by ByName.
const (
	NameJSON    = "json"
	NameMsgPack = "msgpack"
)

// JSON encodes with encoding/json.
type JSON struct{}

// Encode implements Codec.
func (JSON) Encode(v any) ([]byte, error) { return json.Marshal(v) }

// Decode implements Codec.
func (JSON) Decode(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name implements Codec.
func (JSON) Name() string { return NameJSON }

// MsgPack encodes with MessagePack. Struct fields use their json tags so
// both codecs produce the same field names.
type MsgPack struct{}

// Encode implements Codec.
func (MsgPack) Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode implements Codec.
func (MsgPack) Decode(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

// Name implements Codec.
func (MsgPack) Name() string { return NameMsgPack }

// Compressed wraps another codec with zstd compression.
type Compressed struct {
	inner Codec
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

// NewCompressed wraps inner with zstd. The returned codec is safe for
// concurrent use.
func NewCompressed(inner Codec) (*Compressed, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &Compressed{inner: inner, enc: enc, dec: dec}, nil
}

// Encode implements Codec.
func (c *Compressed) Encode(v any) ([]byte, error) {
	data, err := c.inner.Encode(v)
	if err != nil {
		return nil, err
	}
	return c.enc.EncodeAll(data, nil), nil
}

// Decode implements Codec.
func (c *Compressed) Decode(data []byte, v any) error {
	raw, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		return fmt.Errorf("decompress: %w", err)
	}
	return c.inner.Decode(raw, v)
}

// Name implements Codec.
func (c *Compressed) Name() string { return c.inner.Name() + "+zstd" }

// Close releases the zstd encoder and decoder.
func (c *Compressed) Close() error {
	c.dec.Close()
	return c.enc.Close()
}

// ByName returns the codec called name ("" means JSON), optionally
// compressed.
func ByName(name string, compress bool) (Codec, error) {
	var c Codec
	switch name {
	case "", NameJSON:
		c = JSON{}
	case NameMsgPack:
		c = MsgPack{}
	default:
		return nil, fmt.Errorf("unknown codec: %q", name)
	}
	if !compress {
		return c, nil
	}
	z, err := NewCompressed(c)
	if err != nil {
		return nil, err
	}
	return z, nil
}
