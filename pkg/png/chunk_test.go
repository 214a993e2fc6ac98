package png

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMessage = "This is where your secret message will be!"

// CRC-32/ISO-HDLC over "RuSt" + testMessage.
const testCRC = 2882656334

func testChunkBytes(length uint32, crc uint32) []byte {
	buf := binary.BigEndian.AppendUint32(nil, length)
	buf = append(buf, "RuSt"...)
	buf = append(buf, testMessage...)
	return binary.BigEndian.AppendUint32(buf, crc)
}

func TestNewChunk(t *testing.T) {
	chunk := NewChunk(mustParseType(t, "RuSt"), []byte(testMessage))
	assert.EqualValues(t, 42, chunk.Length())
	assert.EqualValues(t, testCRC, chunk.CRC())
}

func TestParseChunk(t *testing.T) {
	chunk, err := ParseChunk(testChunkBytes(42, testCRC))
	require.NoError(t, err)

	assert.EqualValues(t, 42, chunk.Length())
	assert.Equal(t, "RuSt", chunk.Type().String())
	assert.EqualValues(t, testCRC, chunk.CRC())

	msg, err := chunk.DataAsString()
	require.NoError(t, err)
	assert.Equal(t, testMessage, msg)
}

func TestParseChunkRejectsBadCRC(t *testing.T) {
	_, err := ParseChunk(testChunkBytes(42, testCRC-1))
	require.Error(t, err)
}

func TestParseChunkRejectsBadLength(t *testing.T) {
	_, err := ParseChunk(testChunkBytes(41, testCRC))
	require.Error(t, err)
}

func TestParseChunkRejectsShortInput(t *testing.T) {
	_, err := ParseChunk([]byte("tooshort"))
	require.Error(t, err)
}

func TestParseChunkLittleEndianFraming(t *testing.T) {
	// Length and CRC are accepted in either byte order.
	buf := binary.LittleEndian.AppendUint32(nil, 42)
	buf = append(buf, "RuSt"...)
	buf = append(buf, testMessage...)
	buf = binary.LittleEndian.AppendUint32(buf, testCRC)

	chunk, err := ParseChunk(buf)
	require.NoError(t, err)
	assert.EqualValues(t, testCRC, chunk.CRC())
}

func TestChunkBytesRoundTrip(t *testing.T) {
	raw := testChunkBytes(42, testCRC)
	chunk, err := ParseChunk(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, chunk.Bytes())
}

func TestReadChunk(t *testing.T) {
	r := bytes.NewReader(testChunkBytes(42, testCRC))

	chunk, err := ReadChunk(r)
	require.NoError(t, err)
	assert.EqualValues(t, 42, chunk.Length())
	assert.Equal(t, "RuSt", chunk.Type().String())

	_, err = ReadChunk(r)
	assert.Equal(t, io.EOF, err)
}

func TestReadChunkRejectsTruncatedInput(t *testing.T) {
	raw := testChunkBytes(42, testCRC)
	_, err := ReadChunk(bytes.NewReader(raw[:len(raw)-2]))
	require.Error(t, err)
}

func TestDataAsStringRejectsBinary(t *testing.T) {
	chunk := NewChunk(mustParseType(t, "ruSt"), []byte{0xff, 0xfe, 0xfd})
	_, err := chunk.DataAsString()
	require.Error(t, err)
}
