package storage

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/zstd"

	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/shared/utils"
)

// ErrCorrupt reports a payload whose digest does not match its contents
var ErrCorrupt = errors.New("corrupt record")

// zstd frame magic, little endian 0xFD2FB528
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Codec encodes records as JSON, optionally zstd-compressed, and digests the
// stored bytes. Decoding detects compression from the frame magic so a store
// can switch modes without a rewrite.
type Codec struct {
	compress bool
	enc      *zstd.Encoder
	dec      *zstd.Decoder
	hasher   *utils.Hasher
}

// NewCodec creates a codec
func NewCodec(compress bool) (*Codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &Codec{
		compress: compress,
		enc:      enc,
		dec:      dec,
		hasher:   utils.DefaultHasher(),
	}, nil
}

// Marshal encodes v and returns the stored bytes with their digest
func (c *Codec) Marshal(v interface{}) ([]byte, string, error) {
	data, err := sonic.Marshal(v)
	if err != nil {
		return nil, "", fmt.Errorf("encode: %w", err)
	}
	if c.compress {
		data = c.enc.EncodeAll(data, make([]byte, 0, len(data)/2))
	}
	return data, c.hasher.Hash(data), nil
}

// Unmarshal verifies digest and decodes payload into v
func (c *Codec) Unmarshal(payload []byte, digest string, v interface{}) error {
	if digest != "" && !c.hasher.Verify(payload, digest) {
		return ErrCorrupt
	}
	data := payload
	if bytes.HasPrefix(payload, zstdMagic) {
		var err error
		data, err = c.dec.DecodeAll(payload, nil)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
	}
	if err := sonic.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return nil
}

// Close releases encoder and decoder resources
func (c *Codec) Close() {
	c.enc.Close()
	c.dec.Close()
}
