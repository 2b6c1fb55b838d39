package colio

import (
	"bufio"
	"io"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// StringWriter writes the Id/Comment columns described in §4.4: each
// field is written followed by a single NUL; an empty field is a lone
// NUL byte.
type StringWriter struct {
	w              io.Writer
	rejectEmbedded bool
}

// NewStringWriter returns a StringWriter. When rejectEmbeddedNUL is
// true, Put rejects strings containing an embedded NUL byte (used for
// the Id column, which must stay NUL-free since NUL is the field
// terminator; Comment has no such constraint).
func NewStringWriter(w io.Writer, rejectEmbeddedNUL bool) *StringWriter {
	return &StringWriter{w: w, rejectEmbedded: rejectEmbeddedNUL}
}

// Put writes v followed by a terminating NUL byte.
func (s *StringWriter) Put(v string) error {
	if s.rejectEmbedded {
		for i := 0; i < len(v); i++ {
			if v[i] == 0 {
				return errors.New("colio: identifier contains embedded NUL byte")
			}
		}
	}
	if _, err := io.WriteString(s.w, v); err != nil {
		return errors.Wrap(err, "colio: writing string field")
	}
	_, err := s.w.Write([]byte{0})
	return errors.Wrap(err, "colio: writing string field terminator")
}

// InvalidUTF8Error is returned when a decoded Id or Comment field is not
// valid UTF-8.
type InvalidUTF8Error struct{}

func (e *InvalidUTF8Error) Error() string { return "colio: string field is not valid utf-8" }

// StringReader reads a stream of NUL-terminated strings, one per call
// to Next.
type StringReader struct {
	r *bufio.Reader
}

// NewStringReader wraps r (already the decompressed column stream) for
// NUL-delimited reads.
func NewStringReader(r io.Reader) *StringReader {
	return &StringReader{r: bufio.NewReader(r)}
}

// Next reads up to and including the next NUL byte and returns the
// string with the terminator stripped. It returns *InvalidUTF8Error if
// the field is not valid UTF-8.
func (s *StringReader) Next() (string, error) {
	line, err := s.r.ReadString(0)
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return "", err
	}
	field := line[:len(line)-1]
	if !utf8.ValidString(field) {
		return "", &InvalidUTF8Error{}
	}
	return field, nil
}
