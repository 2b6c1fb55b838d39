package naf

import (
	"github.com/pkg/errors"
)

// The closed set of failure kinds produced by this package's encoder and
// decoder. Every error returned by a public function in this package
// either is one of these sentinels, satisfies errors.As against one of
// the typed errors below, or wraps an underlying I/O error (check with
// errors.Is(err, io.ErrUnexpectedEOF) etc). The exceptions are plain,
// untyped errors: misuse of an Encoder (a V1 archive of a non-DNA type,
// Push after Finalize, Finalize called twice) and an Id containing a
// NUL byte.
var (
	// ErrBadMagic is returned when the first three bytes of a stream
	// are not the NAF format descriptor 01 F9 EC.
	ErrBadMagic = errors.New("naf: bad magic")

	// ErrBadVersion is returned when the header's version byte is
	// neither 1 nor 2.
	ErrBadVersion = errors.New("naf: unsupported format version")

	// ErrBadHeader is returned for any other malformed header field,
	// such as a non-printable name separator.
	ErrBadHeader = errors.New("naf: malformed header")

	// ErrOverflow is returned when a varint's payload would not fit in
	// 64 bits.
	ErrOverflow = errors.New("naf: varint overflow")
)

// MissingFieldError is returned when the encoder is asked to write a
// field absent from a pushed record, or the decoder is asked to read a
// field absent from the archive's flags.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "naf: missing field: " + e.Field
}

// InvalidSequenceError is returned when a nucleotide-mode sequence byte
// falls outside the 16-symbol alphabet.
type InvalidSequenceError struct {
	Byte byte
}

func (e *InvalidSequenceError) Error() string {
	return errors.Errorf("naf: invalid sequence byte %#02x", e.Byte).Error()
}

// InvalidLengthError is returned when a record's sequence, quality, and
// declared length are mutually inconsistent.
type InvalidLengthError struct {
	Reason string
}

func (e *InvalidLengthError) Error() string {
	return "naf: invalid length: " + e.Reason
}

// Utf8Error is returned when a decoded Id or Comment field is not valid
// UTF-8. Go strings can hold arbitrary bytes, so this is the decoder's
// only validity surface for them. The encoder does no UTF-8 check: Push
// writes whatever bytes an Id or Comment string holds.
type Utf8Error struct{}

func (e *Utf8Error) Error() string { return "naf: string field is not valid utf-8" }

// missingField is a small constructor helper mirroring the rest of the
// package's error-construction style.
func missingField(name string) error {
	return &MissingFieldError{Field: name}
}
