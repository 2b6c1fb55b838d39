package naf

import (
	"bufio"
	"io"
)

// magic is the fixed 3-byte NAF format descriptor that begins every
// archive.
var magic = [3]byte{0x01, 0xF9, 0xEC}

func isPrintable(b byte) bool {
	return b >= 0x20 && b <= 0x7E
}

// readHeader parses the fixed preamble described in §4.8: magic, version,
// an optional sequence-type byte, flags, name separator, and two
// varints.
func readHeader(r *bufio.Reader) (Header, error) {
	var h Header

	var got [3]byte
	if _, err := io.ReadFull(r, got[:]); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return h, io.ErrUnexpectedEOF
		}
		return h, err
	}
	if got != magic {
		return h, ErrBadMagic
	}

	versionByte, err := r.ReadByte()
	if err != nil {
		return h, io.ErrUnexpectedEOF
	}
	switch versionByte {
	case 1:
		h.FormatVersion = V1
	case 2:
		h.FormatVersion = V2
	default:
		return h, ErrBadVersion
	}

	if h.FormatVersion == V2 {
		seqTypeByte, err := r.ReadByte()
		if err != nil {
			return h, io.ErrUnexpectedEOF
		}
		switch seqTypeByte {
		case 0:
			h.SequenceType = DNA
		case 1:
			h.SequenceType = RNA
		case 2:
			h.SequenceType = Protein
		case 3:
			h.SequenceType = Text
		default:
			return h, ErrBadHeader
		}
	} else {
		h.SequenceType = DNA
	}

	flagsByte, err := r.ReadByte()
	if err != nil {
		return h, io.ErrUnexpectedEOF
	}
	h.Flags = Flags(flagsByte)

	sep, err := r.ReadByte()
	if err != nil {
		return h, io.ErrUnexpectedEOF
	}
	if !isPrintable(sep) {
		return h, ErrBadHeader
	}
	h.NameSeparator = sep

	h.LineLength, err = readVarint(r)
	if err != nil {
		return h, err
	}
	h.NumberOfSequences, err = readVarint(r)
	if err != nil {
		return h, err
	}
	return h, nil
}

// writeHeader serializes h per §4.8. V1 archives omit the sequence-type
// byte; V2 archives always write it.
func writeHeader(w io.Writer, h Header) error {
	buf := make([]byte, 0, 16)
	buf = append(buf, magic[:]...)
	buf = append(buf, byte(h.FormatVersion))
	if h.FormatVersion == V2 {
		buf = append(buf, byte(h.SequenceType))
	}
	buf = append(buf, byte(h.Flags), h.NameSeparator)
	buf = appendVarint(buf, h.LineLength)
	buf = appendVarint(buf, h.NumberOfSequences)
	_, err := w.Write(buf)
	return err
}

// readTitle reads the optional title block that follows the header when
// FlagTitle is set: a varint length followed by that many UTF-8 bytes.
func readTitle(r *bufio.Reader) (string, error) {
	n, err := readVarint(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return "", io.ErrUnexpectedEOF
		}
		return "", err
	}
	return string(buf), nil
}

// writeTitle serializes the optional title block.
func writeTitle(w io.Writer, title string) error {
	buf := appendVarint(nil, uint64(len(title)))
	buf = append(buf, title...)
	_, err := w.Write(buf)
	return err
}

// recommendedFormatVersion implements the encoder's §4.8 default: V1 for
// DNA archives (for compatibility with older readers), V2 otherwise.
func recommendedFormatVersion(t SequenceType) FormatVersion {
	if t == DNA {
		return V1
	}
	return V2
}
