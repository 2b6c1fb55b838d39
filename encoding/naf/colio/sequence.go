package colio

import (
	"io"

	"github.com/pkg/errors"
)

// InvalidByteError is returned when a nucleotide-mode sequence byte
// falls outside the 16-symbol alphabet.
type InvalidByteError struct {
	Byte byte
}

func (e *InvalidByteError) Error() string {
	return errors.Errorf("colio: invalid sequence byte %#02x", e.Byte).Error()
}

// NucleotideWriter packs an alphabet byte stream two symbols per byte
// (§3, §4.3): the low nibble holds the earlier position, the high
// nibble the later one. A half-symbol pending from one Put call carries
// over into the next, which is how an odd-length record's trailing
// nibble combines with the next record's leading symbol into one byte.
type NucleotideWriter struct {
	w      io.Writer
	encode func(byte) (byte, bool)

	pendingLow byte
	hasPending bool
}

// NewNucleotideWriter returns a NucleotideWriter. encode maps an
// alphabet byte to its 4-bit code, returning ok=false for bytes outside
// the alphabet.
func NewNucleotideWriter(w io.Writer, encode func(byte) (byte, bool)) *NucleotideWriter {
	return &NucleotideWriter{w: w, encode: encode}
}

// Put packs seq into the output stream.
func (nw *NucleotideWriter) Put(seq []byte) error {
	for _, b := range seq {
		code, ok := nw.encode(b)
		if !ok {
			return &InvalidByteError{Byte: b}
		}
		if nw.hasPending {
			if _, err := nw.w.Write([]byte{nw.pendingLow | (code << 4)}); err != nil {
				return errors.Wrap(err, "colio: writing packed nucleotide byte")
			}
			nw.hasPending = false
		} else {
			nw.pendingLow = code
			nw.hasPending = true
		}
	}
	return nil
}

// Flush writes any pending half-byte as the final output byte, with the
// upper nibble zeroed. It must be called exactly once, after the last
// Put, when finalizing the archive.
func (nw *NucleotideWriter) Flush() error {
	if !nw.hasPending {
		return nil
	}
	nw.hasPending = false
	_, err := nw.w.Write([]byte{nw.pendingLow})
	return errors.Wrap(err, "colio: flushing packed nucleotide byte")
}

// NucleotideReader unpacks the stream NucleotideWriter produces. decode
// maps a 4-bit code to its alphabet byte.
type NucleotideReader struct {
	r      io.Reader
	decode func(byte) byte

	cache    byte
	hasCache bool
}

// NewNucleotideReader returns a NucleotideReader reading from r.
func NewNucleotideReader(r io.Reader, decode func(byte) byte) *NucleotideReader {
	return &NucleotideReader{r: r, decode: decode}
}

// Next returns the next length symbols, consuming a cached half-byte
// left over from the previous record first, if any.
func (nr *NucleotideReader) Next(length uint64) ([]byte, error) {
	out := make([]byte, length)
	i := 0
	if nr.hasCache && length > 0 {
		out[0] = nr.decode(nr.cache)
		nr.hasCache = false
		i = 1
	}
	var buf [1]byte
	for i < len(out) {
		if _, err := io.ReadFull(nr.r, buf[:]); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
		out[i] = nr.decode(buf[0] & 0x0F)
		i++
		if i < len(out) {
			out[i] = nr.decode(buf[0] >> 4)
			i++
		} else {
			nr.cache = buf[0] >> 4
			nr.hasCache = true
		}
	}
	return out, nil
}

// TextWriter passes bytes through unmodified: used for Protein/Text
// sequences and for quality strings, none of which use the packed
// alphabet.
type TextWriter struct {
	w io.Writer
}

// NewTextWriter returns a TextWriter writing to w.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: w}
}

// Put writes b verbatim.
func (tw *TextWriter) Put(b []byte) error {
	_, err := tw.w.Write(b)
	return errors.Wrap(err, "colio: writing text field")
}

// TextReader reads fixed-length raw byte fields.
type TextReader struct {
	r io.Reader
}

// NewTextReader returns a TextReader reading from r.
func NewTextReader(r io.Reader) *TextReader {
	return &TextReader{r: r}
}

// Next reads exactly length raw bytes.
func (tr *TextReader) Next(length uint64) ([]byte, error) {
	buf := make([]byte, length)
	if _, err := io.ReadFull(tr.r, buf); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return buf, nil
}
