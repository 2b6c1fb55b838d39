// Package colio implements the per-column state machines that sit
// between a NAF archive's decompressed column bytes and the typed
// values a Decoder/Encoder deals with: NUL-terminated strings, the
// saturating 32-bit length run, 4-bit packed nucleotides with
// half-byte carry, raw passthrough bytes, and the run-length mask
// stream. Each is a small, closed state machine — the set never grows —
// so these are concrete types rather than an interface hierarchy.
package colio

import (
	"io"

	"github.com/pkg/errors"
)

// MaskState is which half of a mask run a MaskUnit describes.
type MaskState uint8

const (
	Unmasked MaskState = iota
	Masked
)

// MaskUnit is one run of the mask stream: N consecutive bases that are
// all masked, or all unmasked.
type MaskUnit struct {
	State MaskState
	N     uint64
}

// MaskReader decodes the run-length mask stream described in §4.5: a
// sequence of bytes, each contributing to the current run's length,
// where 0xFF means "add 255 and keep accumulating" and any other byte
// completes the run. The stream alternates starting with Unmasked.
//
// MaskReader has no notion of how many bases the stream covers in
// total — it is driven lazily, one run at a time, by a caller (the
// decoder) that already knows how many bases it still needs. This
// keeps the reader usable without a prescan of the archive's lengths.
type MaskReader struct {
	r            io.Reader
	nextIsMasked bool
	buf          [1]byte
}

// NewMaskReader returns a MaskReader reading from r.
func NewMaskReader(r io.Reader) *MaskReader {
	return &MaskReader{r: r}
}

// Next returns the next mask run. ok is false only on a clean end of
// stream at a run boundary; a truncated run reports
// io.ErrUnexpectedEOF.
func (m *MaskReader) Next() (unit MaskUnit, ok bool, err error) {
	var n uint64
	first := true
	for {
		if _, err := io.ReadFull(m.r, m.buf[:]); err != nil {
			if err == io.EOF && first {
				return MaskUnit{}, false, nil
			}
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return MaskUnit{}, false, err
		}
		first = false
		n += uint64(m.buf[0])
		if m.buf[0] != 0xFF {
			break
		}
	}
	state := Unmasked
	if m.nextIsMasked {
		state = Masked
	}
	m.nextIsMasked = !m.nextIsMasked
	return MaskUnit{State: state, N: n}, true, nil
}

// MaskWriter is the encode-side counterpart of MaskReader. It is kept
// for symmetry and for any extension that produces mask streams (§4.9
// notes that this core does not derive masks from mixed-case input);
// the canonical encoder never calls Put.
type MaskWriter struct {
	w io.Writer
}

// NewMaskWriter returns a MaskWriter writing to w.
func NewMaskWriter(w io.Writer) *MaskWriter {
	return &MaskWriter{w: w}
}

// Put emits one run of n bases, saturating at 255 per byte the way the
// reader expects. Callers must never call Put(0): since MaskReader
// always toggles state between calls, a skipped zero-length run would
// desynchronize the Masked/Unmasked parity of everything that follows.
// Merge adjacent same-state runs (including zero-length ones) before
// calling Put.
func (m *MaskWriter) Put(n uint64) error {
	if n == 0 {
		return nil
	}
	for n >= 0xFF {
		if _, err := m.w.Write([]byte{0xFF}); err != nil {
			return errors.Wrap(err, "colio: writing mask run")
		}
		n -= 0xFF
	}
	_, err := m.w.Write([]byte{byte(n)})
	return errors.Wrap(err, "colio: writing mask run")
}
