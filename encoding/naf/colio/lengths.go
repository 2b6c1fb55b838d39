package colio

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// saturatingWord is the little-endian u32 sentinel meaning "add this
// much and keep reading the next word for the same record" (§4.2).
const saturatingWord = 0xFFFFFFFF

// LengthWriter encodes per-record lengths as a run of little-endian u32
// words: any word < 0xFFFFFFFF terminates the record, any word equal to
// it means "add 0xFFFFFFFF and continue". This keeps the common
// small-length case to one word while still supporting 64-bit lengths.
type LengthWriter struct {
	w io.Writer
}

// NewLengthWriter returns a LengthWriter writing to w.
func NewLengthWriter(w io.Writer) *LengthWriter {
	return &LengthWriter{w: w}
}

// Put writes the canonical encoding of l: k saturating words followed
// by exactly one residual word, where k = l / 0xFFFFFFFF.
func (lw *LengthWriter) Put(l uint64) error {
	var buf [4]byte
	for l >= saturatingWord {
		binary.LittleEndian.PutUint32(buf[:], saturatingWord)
		if _, err := lw.w.Write(buf[:]); err != nil {
			return errors.Wrap(err, "colio: writing length run")
		}
		l -= saturatingWord
	}
	binary.LittleEndian.PutUint32(buf[:], uint32(l))
	_, err := lw.w.Write(buf[:])
	return errors.Wrap(err, "colio: writing length run")
}

// LengthReader decodes the stream LengthWriter produces.
type LengthReader struct {
	r io.Reader
}

// NewLengthReader returns a LengthReader reading from r.
func NewLengthReader(r io.Reader) *LengthReader {
	return &LengthReader{r: r}
}

// Next sums saturating words until a non-saturated word terminates the
// record, and returns the total.
func (lr *LengthReader) Next() (uint64, error) {
	var n uint64
	var buf [4]byte
	for {
		if _, err := io.ReadFull(lr.r, buf[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return 0, io.ErrUnexpectedEOF
			}
			return 0, err
		}
		x := binary.LittleEndian.Uint32(buf[:])
		n += uint64(x)
		if x != saturatingWord {
			return n, nil
		}
	}
}
