package store

import (
	"fmt"
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

// Codec names accepted in configuration and stored per document row.
const (
	CodecNone   = "none"
	CodecSnappy = "snappy"
	CodecZstd   = "zstd"
)

// Codec compresses serialized documents before they are stored.
type Codec interface {
	Name() string
	Encode(src []byte) ([]byte, error)
	Decode(src []byte) ([]byte, error)
}

// NewCodec returns the codec registered under name. An empty name selects none.
func NewCodec(name string) (Codec, error) {
	switch name {
	case "", CodecNone:
		return noneCodec{}, nil
	case CodecSnappy:
		return snappyCodec{}, nil
	case CodecZstd:
		return sharedZstd, nil
	default:
		return nil, fmt.Errorf("store: unknown codec %q", name)
	}
}

type noneCodec struct{}

func (noneCodec) Name() string                      { return CodecNone }
func (noneCodec) Encode(src []byte) ([]byte, error) { return src, nil }
func (noneCodec) Decode(src []byte) ([]byte, error) { return src, nil }

type snappyCodec struct{}

func (snappyCodec) Name() string { return CodecSnappy }

func (snappyCodec) Encode(src []byte) ([]byte, error) {
	return snappy.Encode(nil, src), nil
}

func (snappyCodec) Decode(src []byte) ([]byte, error) {
	return snappy.Decode(nil, src)
}

// zstdCodec lazily builds one encoder and one decoder. Both are safe for
// concurrent EncodeAll/DecodeAll calls.
type zstdCodec struct {
	encoderOnce sync.Once
	decoderOnce sync.Once
	encoder     *zstd.Encoder
	decoder     *zstd.Decoder
	encoderErr  error
	decoderErr  error
}

var sharedZstd = &zstdCodec{}

func (c *zstdCodec) Name() string { return CodecZstd }

func (c *zstdCodec) Encode(src []byte) ([]byte, error) {
	c.encoderOnce.Do(func() {
		c.encoder, c.encoderErr = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithEncoderConcurrency(1))
	})
	if c.encoderErr != nil {
		return nil, fmt.Errorf("store: zstd encoder: %w", c.encoderErr)
	}
	return c.encoder.EncodeAll(src, make([]byte, 0, len(src)/2)), nil
}

func (c *zstdCodec) Decode(src []byte) ([]byte, error) {
	c.decoderOnce.Do(func() {
		c.decoder, c.decoderErr = zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderMaxMemory(64*1024*1024))
	})
	if c.decoderErr != nil {
		return nil, fmt.Errorf("store: zstd decoder: %w", c.decoderErr)
	}
	return c.decoder.DecodeAll(src, nil)
}
