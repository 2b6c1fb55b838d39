package naf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNucleotideAlphabetRoundTrip(t *testing.T) {
	for _, sym := range []byte("-TGKCYSBAWRDMHVN") {
		code, ok := encodeNucleotide(sym)
		assert.True(t, ok, "symbol %q", sym)
		assert.Equal(t, sym, decodeNucleotide(DNA, code), "symbol %q", sym)
	}
	for _, sym := range []byte("-UGKCYSBAWRDMHVN") {
		code, ok := encodeNucleotide(sym)
		assert.True(t, ok, "symbol %q", sym)
		assert.Equal(t, sym, decodeNucleotide(RNA, code), "symbol %q", sym)
	}
}

func TestNucleotideAlphabetUAliasesT(t *testing.T) {
	code, ok := encodeNucleotide('U')
	assert.True(t, ok)
	tCode, _ := encodeNucleotide('T')
	assert.Equal(t, tCode, code)
}

func TestNucleotideAlphabetRejectsInvalidByte(t *testing.T) {
	_, ok := encodeNucleotide('X')
	assert.False(t, ok)
	_, ok = encodeNucleotide('u') // lowercase not in the archive alphabet
	assert.False(t, ok)
}
