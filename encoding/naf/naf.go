// Package naf reads and writes Nucleotide Archive Format (NAF) files.
//
// A NAF archive stores a collection of sequence records — identifier,
// comment, sequence, quality, and length, any subset of which may be
// present — as independent, Zstandard-compressed columnar blocks laid out
// one after another behind a small fixed header. The columnar layout is
// what lets a Decoder skip decompressing fields a caller doesn't need.
//
// See http://github.com/KirillKryukov/naf for the original C reference
// implementation and format description.
package naf

import "fmt"

// SequenceType is the one alphabet an archive's Sequence column is
// encoded in. It never changes within an archive. The Quality column is
// always stored as raw bytes, whatever the sequence type.
type SequenceType uint8

const (
	// DNA sequences use the 4-bit nucleotide alphabet with 0x01 decoding
	// to 'T'.
	DNA SequenceType = iota
	// RNA sequences use the 4-bit nucleotide alphabet with 0x01 decoding
	// to 'U'.
	RNA
	// Protein sequences are stored as raw bytes, one per residue.
	Protein
	// Text sequences are stored as raw bytes with no alphabet
	// restriction.
	Text
)

func (t SequenceType) String() string {
	switch t {
	case DNA:
		return "DNA"
	case RNA:
		return "RNA"
	case Protein:
		return "Protein"
	case Text:
		return "Text"
	default:
		return fmt.Sprintf("SequenceType(%d)", uint8(t))
	}
}

// IsNucleotide reports whether t uses the packed 4-bit alphabet rather
// than raw passthrough bytes.
func (t SequenceType) IsNucleotide() bool {
	return t == DNA || t == RNA
}

// FormatVersion distinguishes the two header shapes NAF has used. V1
// archives are always DNA and omit the sequence-type byte; V2 archives
// carry it explicitly.
type FormatVersion uint8

const (
	V1 FormatVersion = 1
	V2 FormatVersion = 2
)

// Flags is the header's presence bitmap: one bit per optional column,
// least significant bit first.
type Flags uint8

const (
	FlagQuality  Flags = 0x01
	FlagSequence Flags = 0x02
	FlagMask     Flags = 0x04
	FlagLength   Flags = 0x08
	FlagComment  Flags = 0x10
	FlagID       Flags = 0x20
	FlagTitle    Flags = 0x40
	FlagExtended Flags = 0x80
)

// Has reports whether every bit set in want is also set in f.
func (f Flags) Has(want Flags) bool {
	return f&want == want
}

// Header is the fixed preamble of a NAF archive, present once at the
// start of the file and immutable thereafter.
type Header struct {
	FormatVersion      FormatVersion
	SequenceType       SequenceType
	Flags              Flags
	NameSeparator      byte
	LineLength         uint64
	NumberOfSequences  uint64
}

// DefaultNameSeparator is the name separator byte ennaf emits when the
// caller doesn't override it: an ASCII space.
const DefaultNameSeparator = ' '

// Record is one sequence entry, as produced by a Decoder or consumed by
// an Encoder. Any field may be absent (nil/zero), depending on which
// columns are enabled for the archive.
type Record struct {
	ID       string
	Comment  string
	Sequence []byte
	Quality  []byte

	// Length holds the declared record length when the Length column is
	// enabled. It is redundant with len(Sequence)/len(Quality) when
	// those are also present, and is the only length information
	// available when they are not.
	Length    uint64
	HasID     bool
	HasComment bool
	HasSequence bool
	HasQuality bool
	HasLength bool
}

