package colio_test

import (
	"bytes"
	"testing"

	"github.com/grailbio/naf/encoding/naf/colio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSymbols = map[byte]byte{'A': 0, 'C': 1, 'G': 2, 'T': 3}
var testCodes = [4]byte{'A', 'C', 'G', 'T'}

func testEncode(b byte) (byte, bool) {
	code, ok := testSymbols[b]
	return code, ok
}

func testDecode(code byte) byte {
	return testCodes[code]
}

// TestNucleotideRoundTripOddLengths exercises the half-byte carry across
// record boundaries (§4.3): each Put call packs a record whose length
// may be odd, leaving a pending nibble that the next Put or Flush must
// pick up correctly.
func TestNucleotideRoundTripOddLengths(t *testing.T) {
	records := [][]byte{
		[]byte("ACGTA"),  // odd: 5
		[]byte("CGT"),    // odd: 3
		[]byte("A"),      // odd: 1
		[]byte("GGCCTTAA"), // even: 8
		[]byte(""),       // empty
		[]byte("C"),      // odd: 1
	}

	var buf bytes.Buffer
	w := colio.NewNucleotideWriter(&buf, testEncode)
	for _, rec := range records {
		require.NoError(t, w.Put(rec))
	}
	require.NoError(t, w.Flush())

	r := colio.NewNucleotideReader(&buf, testDecode)
	for _, want := range records {
		got, err := r.Next(uint64(len(want)))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestNucleotideWriterRejectsInvalidByte(t *testing.T) {
	var buf bytes.Buffer
	w := colio.NewNucleotideWriter(&buf, testEncode)
	err := w.Put([]byte("ACGN")) // N not in this test's 4-symbol alphabet
	require.Error(t, err)
	var invalid *colio.InvalidByteError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, byte('N'), invalid.Byte)
}

func TestTextRoundTrip(t *testing.T) {
	records := [][]byte{
		[]byte("MKTAYIAKQRQISFVK"),
		[]byte(""),
		[]byte("!!!!!IIIIIFFFFF#"),
	}

	var buf bytes.Buffer
	w := colio.NewTextWriter(&buf)
	for _, rec := range records {
		require.NoError(t, w.Put(rec))
	}

	r := colio.NewTextReader(&buf)
	for _, want := range records {
		got, err := r.Next(uint64(len(want)))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}
