package png

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustChunk(t *testing.T, typ, msg string) *Chunk {
	t.Helper()
	return NewChunk(mustParseType(t, typ), []byte(msg))
}

func testFile(t *testing.T) *File {
	t.Helper()

	return FromChunks([]*Chunk{
		mustChunk(t, "FrSt", "I am the first chunk"),
		mustChunk(t, "miDl", "I am another chunk"),
		mustChunk(t, "LASt", "I am the last chunk"),
	})
}

func TestParseFileRoundTrip(t *testing.T) {
	original := testFile(t)

	parsed, err := ParseFile(original.Bytes())
	require.NoError(t, err)
	require.Len(t, parsed.Chunks(), 3)
	assert.Equal(t, original.Bytes(), parsed.Bytes())
}

func TestParseFileRejectsBadSignature(t *testing.T) {
	raw := testFile(t).Bytes()
	raw[0] = 13

	_, err := ParseFile(raw)
	require.Error(t, err)
}

func TestParseFileRejectsCorruptChunk(t *testing.T) {
	raw := testFile(t).Bytes()
	// Flip a byte inside the last chunk's CRC.
	raw[len(raw)-2]++

	_, err := ParseFile(raw)
	require.Error(t, err)
}

func TestChunkByType(t *testing.T) {
	file := testFile(t)

	chunk := file.ChunkByType(mustParseType(t, "miDl"))
	require.NotNil(t, chunk)

	msg, err := chunk.DataAsString()
	require.NoError(t, err)
	assert.Equal(t, "I am another chunk", msg)

	assert.Nil(t, file.ChunkByType(mustParseType(t, "NoPe")))
}

func TestAppendAndRemoveChunk(t *testing.T) {
	file := testFile(t)
	typ := mustParseType(t, "TeSt")

	file.AppendChunk(NewChunk(typ, []byte("Message")))
	require.Len(t, file.Chunks(), 4)
	require.NotNil(t, file.ChunkByType(typ))

	removed, err := file.RemoveFirstChunk(typ)
	require.NoError(t, err)
	require.Len(t, file.Chunks(), 3)

	msg, err := removed.DataAsString()
	require.NoError(t, err)
	assert.Equal(t, "Message", msg)

	_, err = file.RemoveFirstChunk(typ)
	require.Error(t, err)
}
