package naf_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/grailbio/naf/encoding/naf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeAll(t *testing.T, enc *naf.Encoder, records []naf.Record) []byte {
	t.Helper()
	for _, rec := range records {
		require.NoError(t, enc.Push(rec))
	}
	var buf bytes.Buffer
	require.NoError(t, enc.Finalize(&buf))
	return buf.Bytes()
}

func decodeAll(t *testing.T, data []byte, opts ...naf.Opt) []naf.Record {
	t.Helper()
	dec, err := naf.NewDecoder(bytes.NewReader(data), opts...)
	require.NoError(t, err)
	defer dec.Close()

	var got []naf.Record
	for {
		rec, err := dec.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, rec)
	}
	return got
}

func TestProteinRoundTripMemoryStorage(t *testing.T) {
	enc, err := naf.NewEncoder(naf.Protein, naf.WithStorage(naf.MemoryStorage{}), naf.WithCommentColumn(true))
	require.NoError(t, err)

	records := []naf.Record{
		{HasID: true, ID: "sp|P69905|HBA_HUMAN", HasComment: true, Comment: "Hemoglobin subunit alpha",
			HasSequence: true, Sequence: []byte("MVLSPADKTNVKAAWGKVGAHAGEYGAEALERMFLSFPTTKTYFPHF")},
		{HasID: true, ID: "sp|P68871|HBB_HUMAN", HasComment: true, Comment: "Hemoglobin subunit beta",
			HasSequence: true, Sequence: []byte("MVHLTPEEKSAVTALWGKVNVDEVGGEALGRLLVVYPWTQRFFESFGDLST")},
	}

	data := encodeAll(t, enc, records)
	got := decodeAll(t, data)

	require.Len(t, got, len(records))
	for i, want := range records {
		assert.Equal(t, want.ID, got[i].ID)
		assert.Equal(t, want.Comment, got[i].Comment)
		assert.Equal(t, want.Sequence, got[i].Sequence)
		assert.Equal(t, uint64(len(want.Sequence)), got[i].Length)
	}
}

func TestDNARoundTripHalfByteCarry(t *testing.T) {
	enc, err := naf.NewEncoder(naf.DNA)
	require.NoError(t, err)

	records := []naf.Record{
		{HasID: true, ID: "r1", HasSequence: true, Sequence: []byte("ACGTA")},   // odd
		{HasID: true, ID: "r2", HasSequence: true, Sequence: []byte("CGT")},     // odd
		{HasID: true, ID: "r3", HasSequence: true, Sequence: []byte("A")},       // odd
		{HasID: true, ID: "r4", HasSequence: true, Sequence: []byte("GGCCTTAA")}, // even
		{HasID: true, ID: "r5", HasSequence: true, Sequence: []byte("TNNNACGT")},
	}

	data := encodeAll(t, enc, records)
	got := decodeAll(t, data)

	require.Len(t, got, len(records))
	for i, want := range records {
		assert.Equal(t, want.Sequence, got[i].Sequence, "record %d", i)
	}
}

func TestSelectiveDecode(t *testing.T) {
	enc, err := naf.NewEncoder(naf.DNA, naf.WithQualityColumn(true))
	require.NoError(t, err)

	records := []naf.Record{
		{HasID: true, ID: "r1", HasComment: true, Comment: "first",
			HasSequence: true, Sequence: []byte("ACGT"), HasQuality: true, Quality: []byte("IIII")},
	}
	data := encodeAll(t, enc, records)

	got := decodeAll(t, data, naf.WithID(false), naf.WithComment(false), naf.WithQuality(false))
	require.Len(t, got, 1)
	assert.False(t, got[0].HasID)
	assert.False(t, got[0].HasComment)
	assert.False(t, got[0].HasQuality)
	assert.True(t, got[0].HasSequence)
	assert.Equal(t, []byte("ACGT"), got[0].Sequence)
}

func TestDNAQualityRoundTrip(t *testing.T) {
	enc, err := naf.NewEncoder(naf.DNA, naf.WithQualityColumn(true))
	require.NoError(t, err)

	records := []naf.Record{
		{HasID: true, ID: "read1", HasSequence: true, Sequence: []byte("ACGTACGTAC"),
			HasQuality: true, Quality: []byte("IIIIIIIIII")},
		{HasID: true, ID: "read2", HasSequence: true, Sequence: []byte("TTTTGGGG"),
			HasQuality: true, Quality: []byte("########")},
	}

	data := encodeAll(t, enc, records)
	got := decodeAll(t, data)

	require.Len(t, got, len(records))
	for i, want := range records {
		assert.Equal(t, want.Sequence, got[i].Sequence)
		assert.Equal(t, want.Quality, got[i].Quality)
	}
}

func TestInvalidSequenceByteOnPush(t *testing.T) {
	enc, err := naf.NewEncoder(naf.DNA)
	require.NoError(t, err)

	err = enc.Push(naf.Record{HasID: true, ID: "bad", HasSequence: true, Sequence: []byte("ACGTX")})
	require.Error(t, err)
	var invalid *naf.InvalidSequenceError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, byte('X'), invalid.Byte)
}

func TestInvalidUTF8IDOnDecode(t *testing.T) {
	enc, err := naf.NewEncoder(naf.DNA)
	require.NoError(t, err)

	data := encodeAll(t, enc, []naf.Record{
		{HasID: true, ID: string([]byte{0xFF, 0xFE}), HasSequence: true, Sequence: []byte("ACGT")},
	})

	dec, err := naf.NewDecoder(bytes.NewReader(data))
	require.NoError(t, err)
	defer dec.Close()

	_, err = dec.Next()
	var invalid *naf.Utf8Error
	require.ErrorAs(t, err, &invalid)
}

func TestTruncatedArchiveSurfacesUnexpectedEOF(t *testing.T) {
	enc, err := naf.NewEncoder(naf.DNA)
	require.NoError(t, err)
	data := encodeAll(t, enc, []naf.Record{
		{HasID: true, ID: "r1", HasSequence: true, Sequence: []byte("ACGTACGTACGT")},
	})

	truncated := data[:len(data)-4]
	dec, err := naf.NewDecoder(bytes.NewReader(truncated))
	require.NoError(t, err)
	defer dec.Close()

	_, err = dec.Next()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestZeroRecords(t *testing.T) {
	enc, err := naf.NewEncoder(naf.DNA)
	require.NoError(t, err)
	data := encodeAll(t, enc, nil)

	dec, err := naf.NewDecoder(bytes.NewReader(data))
	require.NoError(t, err)
	defer dec.Close()

	assert.EqualValues(t, 0, dec.Len())
	_, err = dec.Next()
	assert.Equal(t, io.EOF, err)
}

func TestTitleRoundTripsThroughEncoderDecoder(t *testing.T) {
	enc, err := naf.NewEncoder(naf.DNA, naf.WithTitle("assembled contigs, batch 7"))
	require.NoError(t, err)
	data := encodeAll(t, enc, []naf.Record{{HasID: true, ID: "r1", HasSequence: true, Sequence: []byte("ACGT")}})

	dec, err := naf.NewDecoder(bytes.NewReader(data))
	require.NoError(t, err)
	defer dec.Close()

	title, ok := dec.Title()
	require.True(t, ok)
	assert.Equal(t, "assembled contigs, batch 7", title)
}

