package png

import (
	"bytes"
	"io"

	"github.com/rotisserie/eris"
)

// Signature is the eight-byte marker at the start of every PNG file.
var Signature = [8]byte{137, 80, 78, 71, 13, 10, 26, 10}

// File is a parsed PNG: the signature followed by its chunks in order.
type File struct {
	chunks []*Chunk
}

// FromChunks builds a file from pre-built chunks.
func FromChunks(chunks []*Chunk) *File {
	return &File{chunks: chunks}
}

// ParseFile decodes a whole PNG image. It validates the signature and reads
// chunks until the end of the input.
func ParseFile(raw []byte) (*File, error) {
	if len(raw) < len(Signature) || !bytes.Equal(raw[:len(Signature)], Signature[:]) {
		return nil, eris.New("not a PNG file (signature missing)")
	}

	file := new(File)
	r := bytes.NewReader(raw[len(Signature):])
	for {
		chunk, err := ReadChunk(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "chunk %d", len(file.chunks))
		}

		file.chunks = append(file.chunks, chunk)
	}

	return file, nil
}

// Chunks returns the file's chunks in order. The slice is shared with the
// file.
func (f *File) Chunks() []*Chunk {
	return f.chunks
}

// AppendChunk adds a chunk at the end of the file, after any existing
// chunks.
func (f *File) AppendChunk(c *Chunk) {
	f.chunks = append(f.chunks, c)
}

// RemoveFirstChunk removes and returns the first chunk of the given type.
// A file without such a chunk is an error.
func (f *File) RemoveFirstChunk(typ ChunkType) (*Chunk, error) {
	for i, c := range f.chunks {
		if c.typ == typ {
			f.chunks = append(f.chunks[:i], f.chunks[i+1:]...)
			return c, nil
		}
	}

	return nil, eris.Errorf("no chunk of type %s present", typ)
}

// ChunkByType returns the first chunk of the given type, or nil.
func (f *File) ChunkByType(typ ChunkType) *Chunk {
	for _, c := range f.chunks {
		if c.typ == typ {
			return c
		}
	}

	return nil
}

// Bytes returns the file in wire form.
func (f *File) Bytes() []byte {
	size := len(Signature)
	for _, c := range f.chunks {
		size += chunkOverhead + len(c.data)
	}

	buf := make([]byte, 0, size)
	buf = append(buf, Signature[:]...)
	for _, c := range f.chunks {
		buf = append(buf, c.Bytes()...)
	}

	return buf
}
