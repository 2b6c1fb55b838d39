package naf

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarintRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 63, 64, 127, 128, 129, 16383, 16384, 1 << 32, ^uint64(0)}

	var buf bytes.Buffer
	for _, v := range values {
		require.NoError(t, writeVarint(&buf, v))
	}

	r := bufio.NewReader(&buf)
	for _, want := range values {
		got, err := readVarint(r)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestVarintZeroIsOneByte(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeVarint(&buf, 0))
	assert.Equal(t, []byte{0x00}, buf.Bytes())
}

func TestVarintOverflow(t *testing.T) {
	// 10 continuation bytes of 0x7F each overflow 64 bits.
	overflowing := bytes.Repeat([]byte{0xFF}, 10)
	overflowing = append(overflowing, 0x7F)
	r := bufio.NewReader(bytes.NewReader(overflowing))
	_, err := readVarint(r)
	assert.Equal(t, ErrOverflow, err)
}

func TestVarintTruncated(t *testing.T) {
	r := bufio.NewReader(bytes.NewReader([]byte{0x80})) // continuation bit set, no next byte
	_, err := readVarint(r)
	assert.Error(t, err)
}
