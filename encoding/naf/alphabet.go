package naf

import (
	"github.com/grailbio/base/simd"
)

// nucleotideSymbols is the fixed 16-symbol IUPAC-plus-gap alphabet, code
// 0x0 through 0xF, shared by DNA and RNA archives. Index 1 is filled in
// per sequence type by dnaTable/rnaTable below ('T' vs 'U').
var nucleotideSymbols = [16]byte{
	0x0: '-', 0x2: 'G', 0x3: 'K', 0x4: 'C', 0x5: 'Y', 0x6: 'S', 0x7: 'B',
	0x8: 'A', 0x9: 'W', 0xA: 'R', 0xB: 'D', 0xC: 'M', 0xD: 'H', 0xE: 'V',
	0xF: 'N',
}

// dnaTable and rnaTable are the nibble-to-ASCII lookup tables used to
// unpack the 4-bit alphabet, built with the same simd.NibbleLookupTable
// used elsewhere in this codebase to unpack 2-base-per-byte "doublet"
// encodings.
var (
	dnaTable simd.NibbleLookupTable
	rnaTable simd.NibbleLookupTable
	// encodeTable maps an ASCII alphabet byte to its 4-bit code; entries
	// for bytes outside the alphabet are 0xFF.
	encodeTable [256]byte
)

func init() {
	dnaSyms := nucleotideSymbols
	dnaSyms[1] = 'T'
	dnaTable = simd.MakeNibbleLookupTable(dnaSyms)

	rnaSyms := nucleotideSymbols
	rnaSyms[1] = 'U'
	rnaTable = simd.MakeNibbleLookupTable(rnaSyms)

	for i := range encodeTable {
		encodeTable[i] = 0xFF
	}
	for code, sym := range dnaSyms {
		encodeTable[sym] = byte(code)
	}
	encodeTable['U'] = 0x01 // RNA alias: 'U' also encodes to 0x01.
}

// nibbleTable returns the decode table for t, which must be DNA or RNA.
// Get has a pointer receiver, so this returns a pointer to the
// package-level table rather than a copy.
func nibbleTable(t SequenceType) *simd.NibbleLookupTable {
	if t == RNA {
		return &rnaTable
	}
	return &dnaTable
}

// encodeNucleotide returns the 4-bit code for an alphabet byte, and
// false if b is outside the 16-symbol alphabet.
func encodeNucleotide(b byte) (byte, bool) {
	code := encodeTable[b]
	return code, code != 0xFF
}

// decodeNucleotide returns the ASCII byte for a 4-bit code under
// sequence type t.
func decodeNucleotide(t SequenceType, code byte) byte {
	return nibbleTable(t).Get(code)
}
