package naf

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zstd"
)

// zstdMagic is the standard 4-byte Zstandard frame magic number. NAF
// omits it from every compressed block — "implementations enable the
// skip magic mode on both ends" (§6) — since it is always the same
// bytes and storing it once per column would only waste space.
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// magicStrippingWriter drops the first len(zstdMagic) bytes written to
// it (which klauspost/compress/zstd always emits at the very start of a
// frame) and forwards everything after that to w.
type magicStrippingWriter struct {
	w       io.Writer
	skipped int
}

func (m *magicStrippingWriter) Write(p []byte) (int, error) {
	total := len(p)
	for m.skipped < len(zstdMagic) && len(p) > 0 {
		m.skipped++
		p = p[1:]
	}
	if len(p) == 0 {
		return total, nil
	}
	n, err := m.w.Write(p)
	return total - len(p) + n, err
}

// newZstdColumnEncoder returns a streaming Zstandard encoder that writes
// a magicless frame to w. level 0 selects klauspost's default.
func newZstdColumnEncoder(w io.Writer, level int) (*zstd.Encoder, error) {
	opts := []zstd.EOption{}
	if level != 0 {
		opts = append(opts, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	}
	return zstd.NewWriter(&magicStrippingWriter{w: w}, opts...)
}

// newZstdColumnDecoder returns a streaming Zstandard decoder that reads
// a magicless frame from r, by reinstating the magic bytes it expects
// at the start of the stream.
func newZstdColumnDecoder(r io.Reader) (*zstd.Decoder, error) {
	return zstd.NewReader(io.MultiReader(bytes.NewReader(zstdMagic), r))
}
